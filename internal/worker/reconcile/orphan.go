// Package reconcile はプロフィールを持たない認証アカウント（孤立アカウント）の回収を提供する。
// アカウント作成の途中でプロセスが停止した場合や補償削除に失敗した場合に残る認証アカウントを、
// 猶予期間の経過後に削除する。
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/guardlingo/internal/identity"
	"github.com/hitoshi/guardlingo/internal/model"
)

// IdentityStore は認証アカウントの一覧と削除のインターフェース。
// identity.Backendの部分集合として定義する。
type IdentityStore interface {
	ListIdentities(ctx context.Context) ([]model.Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
}

// ProfileChecker はプロフィールの存在確認インターフェース。
type ProfileChecker interface {
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
}

// Recorder は回収件数を記録するインターフェース。
type Recorder interface {
	RecordOrphansReconciled(count int)
}

// OrphanReconciler は孤立アカウントを削除するジョブ。
type OrphanReconciler struct {
	identities  IdentityStore
	profiles    ProfileChecker
	recorder    Recorder
	logger      *slog.Logger
	gracePeriod time.Duration
	now         func() time.Time
}

// NewOrphanReconciler はOrphanReconcilerを生成する。
// gracePeriodより新しいアカウントは作成処理中の可能性があるため対象外とする。
func NewOrphanReconciler(
	identities IdentityStore,
	profiles ProfileChecker,
	recorder Recorder,
	logger *slog.Logger,
	gracePeriod time.Duration,
) *OrphanReconciler {
	return &OrphanReconciler{
		identities:  identities,
		profiles:    profiles,
		recorder:    recorder,
		logger:      logger,
		gracePeriod: gracePeriod,
		now:         time.Now,
	}
}

// Run は孤立アカウントを1回走査して削除する。
// 個別の削除失敗はログに記録して走査を継続する。
func (r *OrphanReconciler) Run(ctx context.Context) error {
	_, err := r.RunOnce(ctx)
	return err
}

// RunOnce は孤立アカウントを1回走査し、削除した件数を返す。
func (r *OrphanReconciler) RunOnce(ctx context.Context) (int, error) {
	identities, err := r.identities.ListIdentities(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list identities: %w", err)
	}

	cutoff := r.now().Add(-r.gracePeriod)
	var candidates []model.Identity
	for _, ident := range identities {
		if ident.CreatedAt.Before(cutoff) {
			candidates = append(candidates, ident)
		}
	}
	if len(candidates) == 0 {
		r.logger.Debug("no orphan candidates", slog.Int("identity_count", len(identities)))
		return 0, nil
	}

	ids := make([]string, len(candidates))
	for i, ident := range candidates {
		ids[i] = ident.ID
	}
	existing, err := r.profiles.ExistingIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to check profiles: %w", err)
	}

	deleted := 0
	for _, ident := range candidates {
		if _, ok := existing[ident.ID]; ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		err := r.identities.DeleteIdentity(ctx, ident.ID)
		switch {
		case err == nil:
			deleted++
			r.logger.Info("orphan identity removed",
				slog.String("user_id", ident.ID),
				slog.Time("created_at", ident.CreatedAt),
			)
		case errors.Is(err, identity.ErrIdentityNotFound):
			// 別経路で既に削除済み
		default:
			r.logger.Error("failed to remove orphan identity",
				slog.String("user_id", ident.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if deleted > 0 && r.recorder != nil {
		r.recorder.RecordOrphansReconciled(deleted)
	}
	r.logger.Info("orphan reconciliation completed",
		slog.Int("scanned", len(identities)),
		slog.Int("candidates", len(candidates)),
		slog.Int("deleted", deleted),
	)

	return deleted, nil
}
