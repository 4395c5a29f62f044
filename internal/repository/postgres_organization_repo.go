package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/guardlingo/internal/model"
)

// PostgresOrganizationRepo はモスク・企業テーブルを横断して参照するリポジトリ。
type PostgresOrganizationRepo struct {
	db *sql.DB
}

// NewPostgresOrganizationRepo はPostgresOrganizationRepoを生成する。
func NewPostgresOrganizationRepo(db *sql.DB) *PostgresOrganizationRepo {
	return &PostgresOrganizationRepo{db: db}
}

// ListByStatus は指定ステータスのモスクと企業を名前順で返す。
// 該当がない場合は空スライスを返す。
func (r *PostgresOrganizationRepo) ListByStatus(ctx context.Context, statuses []model.OrganizationStatus) ([]model.Organization, error) {
	orgs := []model.Organization{}
	if len(statuses) == 0 {
		return orgs, nil
	}

	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, 'mosque' AS type, status FROM mosques WHERE status = ANY($1)
		 UNION ALL
		 SELECT id, name, 'company' AS type, status FROM companies WHERE status = ANY($1)
		 ORDER BY name, id`,
		pq.Array(values),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var org model.Organization
		var orgType, status string
		if err := rows.Scan(&org.ID, &org.Name, &orgType, &status); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		org.Type = model.OrganizationType(orgType)
		org.Status = model.OrganizationStatus(status)
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate organizations: %w", err)
	}
	return orgs, nil
}

// compile-time interface check
var _ OrganizationRepository = (*PostgresOrganizationRepo)(nil)
