// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/guardlingo/internal/model"
)

// ErrNotFound は削除・更新対象の行が存在しないことを表す。
var ErrNotFound = errors.New("record not found")

// ProfileRepository はプロフィールの永続化インターフェース。
type ProfileRepository interface {
	// Create はプロフィールを1行挿入する。IDは呼び出し元が設定したIdentityのIDを使う。
	Create(ctx context.Context, profile *model.Profile) error

	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)

	// FindByEmail はメールアドレスでプロフィールを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)

	// ExistingIDs は指定IDのうちプロフィールが存在するものを返す。
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)

	// DeleteByID は指定IDのプロフィールを削除する。存在しない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id string) error
}

// StreakRepository は学習継続日数の永続化インターフェース。
type StreakRepository interface {
	// Create は継続日数レコードを作成する。
	Create(ctx context.Context, streak *model.StreakRecord) error
	// FindByUserID は指定ユーザーのレコードを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.StreakRecord, error)
	// DeleteByUserID は指定ユーザーのレコードを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// LearningPathRepository は学習パスの永続化インターフェース。
type LearningPathRepository interface {
	// Create は学習パスを作成する。
	Create(ctx context.Context, path *model.LearningPath) error
	// FindByUserID は指定ユーザーの学習パスを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.LearningPath, error)
	// DeleteByUserID は指定ユーザーの学習パスを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// OrganizationRepository はモスク・企業の参照インターフェース。
type OrganizationRepository interface {
	// ListByStatus は指定ステータスのモスクと企業を名前順で返す。
	ListByStatus(ctx context.Context, statuses []model.OrganizationStatus) ([]model.Organization, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}
