// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/guardlingo/internal/identity"
	"github.com/hitoshi/guardlingo/internal/model"
	"github.com/hitoshi/guardlingo/internal/repository"
)

// UserDataDeleter はユーザーに紐づくレコードの一括削除インターフェース。
type UserDataDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// IdentityDeleter は認証アカウントの削除インターフェース。
type IdentityDeleter interface {
	DeleteIdentity(ctx context.Context, id string) error
}

// Service はユーザー管理のサービス層。
// 管理者によるアカウント削除のビジネスロジックを提供する。
type Service struct {
	profileRepo repository.ProfileRepository
	sessionRepo repository.SessionRepository
	streaks     UserDataDeleter
	paths       UserDataDeleter
	identities  IdentityDeleter
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	profileRepo repository.ProfileRepository,
	sessionRepo repository.SessionRepository,
	streaks UserDataDeleter,
	paths UserDataDeleter,
	identities IdentityDeleter,
) *Service {
	return &Service{
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
		streaks:     streaks,
		paths:       paths,
		identities:  identities,
	}
}

// Remove は管理者の操作でユーザーアカウントを削除する。
// 削除順序: learning_paths → user_streaks → sessions → profiles → 認証アカウント
// 呼び出し元自身のアカウントは削除できない。
func (s *Service) Remove(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return model.NewCannotRemoveSelfError()
	}

	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if profile == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("アカウント削除を開始します",
		slog.String("user_id", userID),
		slog.String("actor_id", actorID),
	)

	// 1. 学習パスを削除
	if s.paths != nil {
		if err := s.paths.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("学習パスの削除に失敗しました: %w", err)
		}
	}

	// 2. 継続日数を削除
	if s.streaks != nil {
		if err := s.streaks.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("継続日数の削除に失敗しました: %w", err)
		}
	}

	// 3. セッションを削除
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 4. プロフィールを削除
	if err := s.profileRepo.DeleteByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError()
		}
		return fmt.Errorf("プロフィールの削除に失敗しました: %w", err)
	}

	// 5. 認証アカウントを削除（既に存在しない場合は完了扱い）
	if err := s.identities.DeleteIdentity(ctx, userID); err != nil {
		if !errors.Is(err, identity.ErrIdentityNotFound) {
			return fmt.Errorf("認証アカウントの削除に失敗しました: %w", err)
		}
		slog.Warn("認証アカウントは既に存在しません",
			slog.String("user_id", userID),
		)
	}

	slog.Info("アカウント削除が完了しました",
		slog.String("user_id", userID),
		slog.String("actor_id", actorID),
	)

	return nil
}
