package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/guardlingo/internal/model"
)

const profileColumns = `id, email, full_name, user_type, mosque_id, company_id,
	is_admin, is_super_admin, assessment_completed, assessment_score,
	english_level, dialect, strengths, recommendations, created_at, updated_at`

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// Create はプロフィールを1行挿入する。
// created_at/updated_atが未設定の場合はDBのnow()を使う。
func (r *PostgresProfileRepo) Create(ctx context.Context, p *model.Profile) error {
	strengths := p.Strengths
	if strengths == nil {
		strengths = []string{}
	}
	recommendations := p.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO profiles (id, email, full_name, user_type, mosque_id, company_id,
		                       is_admin, is_super_admin, assessment_completed, assessment_score,
		                       english_level, dialect, strengths, recommendations)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING created_at, updated_at`,
		p.ID, p.Email, p.FullName, string(p.UserType), p.MosqueID, p.CompanyID,
		p.IsAdmin, p.IsSuperAdmin, p.AssessmentCompleted, p.AssessmentScore,
		p.EnglishLevel, p.Dialect, pq.Array(strengths), pq.Array(recommendations),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`,
		id,
	)
	return scanProfile(row)
}

// FindByEmail はメールアドレスでプロフィールを取得する。大文字小文字は区別しない。
func (r *PostgresProfileRepo) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE lower(email) = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	)
	return scanProfile(row)
}

// ExistingIDs は指定IDのうちプロフィールが存在するものを返す。
func (r *PostgresProfileRepo) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM profiles WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan profile id: %w", err)
		}
		existing[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profile ids: %w", err)
	}
	return existing, nil
}

// DeleteByID は指定IDのプロフィールを削除する。
// user_streaks、learning_pathsはCASCADE削除される。
func (r *PostgresProfileRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM profiles WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanProfile(row *sql.Row) (*model.Profile, error) {
	p := &model.Profile{}
	var userType string
	var mosqueID, companyID sql.NullString
	var score sql.NullInt64

	err := row.Scan(
		&p.ID, &p.Email, &p.FullName, &userType, &mosqueID, &companyID,
		&p.IsAdmin, &p.IsSuperAdmin, &p.AssessmentCompleted, &score,
		&p.EnglishLevel, &p.Dialect, pq.Array(&p.Strengths), pq.Array(&p.Recommendations),
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	p.UserType = model.Role(userType)
	if mosqueID.Valid {
		p.MosqueID = &mosqueID.String
	}
	if companyID.Valid {
		p.CompanyID = &companyID.String
	}
	if score.Valid {
		v := int(score.Int64)
		p.AssessmentScore = &v
	}
	return p, nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
