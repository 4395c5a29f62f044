package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/guardlingo/internal/model"
)

// PostgresLearningPathRepo はPostgreSQLを使用した学習パスリポジトリ。
type PostgresLearningPathRepo struct {
	db *sql.DB
}

// NewPostgresLearningPathRepo はPostgresLearningPathRepoを生成する。
func NewPostgresLearningPathRepo(db *sql.DB) *PostgresLearningPathRepo {
	return &PostgresLearningPathRepo{db: db}
}

// Create は学習パスを作成する。
func (r *PostgresLearningPathRepo) Create(ctx context.Context, lp *model.LearningPath) error {
	recommended := lp.RecommendedScenarios
	if recommended == nil {
		recommended = []string{}
	}
	completed := lp.CompletedScenarios
	if completed == nil {
		completed = []string{}
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO learning_paths (user_id, proficiency_level, recommended_scenarios,
		                             completed_scenarios, current_scenario, progress_percentage)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		lp.UserID, lp.ProficiencyLevel, pq.Array(recommended),
		pq.Array(completed), lp.CurrentScenario, lp.ProgressPercentage,
	).Scan(&lp.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert learning path: %w", err)
	}
	return nil
}

// FindByUserID は指定ユーザーの学習パスを取得する。見つからない場合はnilを返す。
func (r *PostgresLearningPathRepo) FindByUserID(ctx context.Context, userID string) (*model.LearningPath, error) {
	lp := &model.LearningPath{}
	var current sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, proficiency_level, recommended_scenarios, completed_scenarios,
		        current_scenario, progress_percentage, created_at
		 FROM learning_paths WHERE user_id = $1`,
		userID,
	).Scan(&lp.UserID, &lp.ProficiencyLevel, pq.Array(&lp.RecommendedScenarios),
		pq.Array(&lp.CompletedScenarios), &current, &lp.ProgressPercentage, &lp.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find learning path: %w", err)
	}
	if current.Valid {
		lp.CurrentScenario = &current.String
	}
	return lp, nil
}

// DeleteByUserID は指定ユーザーの学習パスを削除する。存在しない場合もエラーにしない。
func (r *PostgresLearningPathRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM learning_paths WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete learning path: %w", err)
	}
	return nil
}

// compile-time interface check
var _ LearningPathRepository = (*PostgresLearningPathRepo)(nil)
