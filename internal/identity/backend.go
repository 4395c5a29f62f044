// Package identity は認証アカウント（Identity）を管理するバックエンドを提供する。
// アプリケーションDB上のテーブルを使う実装と、GoTrue互換の外部認証サービスを使う実装がある。
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/hitoshi/guardlingo/internal/model"
)

var (
	// ErrDuplicateEmail は同じメールアドレスのアカウントが既に存在することを表す。
	ErrDuplicateEmail = errors.New("identity with this email already exists")
	// ErrIdentityNotFound は指定IDのアカウントが存在しないことを表す。
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrInvalidCredentials はメールアドレスまたはパスワードが一致しないことを表す。
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Backend は認証アカウントの保存先を抽象化するインターフェース。
type Backend interface {
	// CreateIdentity はアカウントを作成する。重複時はErrDuplicateEmailを返す。
	CreateIdentity(ctx context.Context, email, password string, confirmed bool) (*model.Identity, error)
	// DeleteIdentity はアカウントを削除する。存在しない場合はErrIdentityNotFoundを返す。
	DeleteIdentity(ctx context.Context, id string) error
	// ListIdentities は全アカウントを返す。
	ListIdentities(ctx context.Context) ([]model.Identity, error)
	// FindByEmail はメールアドレスでアカウントを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Identity, error)
	// VerifyPassword は資格情報を検証する。一致しない場合はErrInvalidCredentialsを返す。
	VerifyPassword(ctx context.Context, email, password string) (*model.Identity, error)
}

// NormalizeEmail は前後の空白を除去し小文字化する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
