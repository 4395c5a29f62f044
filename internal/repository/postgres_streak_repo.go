package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/guardlingo/internal/model"
)

// PostgresStreakRepo はPostgreSQLを使用した学習継続日数リポジトリ。
type PostgresStreakRepo struct {
	db *sql.DB
}

// NewPostgresStreakRepo はPostgresStreakRepoを生成する。
func NewPostgresStreakRepo(db *sql.DB) *PostgresStreakRepo {
	return &PostgresStreakRepo{db: db}
}

// Create は継続日数レコードを作成する。
func (r *PostgresStreakRepo) Create(ctx context.Context, s *model.StreakRecord) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO user_streaks (user_id, current_streak, longest_streak, last_activity_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		s.UserID, s.CurrentStreak, s.LongestStreak, s.LastActivityAt,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert streak: %w", err)
	}
	return nil
}

// FindByUserID は指定ユーザーのレコードを取得する。見つからない場合はnilを返す。
func (r *PostgresStreakRepo) FindByUserID(ctx context.Context, userID string) (*model.StreakRecord, error) {
	s := &model.StreakRecord{}
	var lastActivity sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, current_streak, longest_streak, last_activity_at, created_at
		 FROM user_streaks WHERE user_id = $1`,
		userID,
	).Scan(&s.UserID, &s.CurrentStreak, &s.LongestStreak, &lastActivity, &s.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find streak: %w", err)
	}
	if lastActivity.Valid {
		s.LastActivityAt = &lastActivity.Time
	}
	return s, nil
}

// DeleteByUserID は指定ユーザーのレコードを削除する。存在しない場合もエラーにしない。
func (r *PostgresStreakRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_streaks WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete streak: %w", err)
	}
	return nil
}

// compile-time interface check
var _ StreakRepository = (*PostgresStreakRepo)(nil)
