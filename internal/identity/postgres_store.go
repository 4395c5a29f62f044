package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/guardlingo/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const uniqueViolation = "23505"

// PostgresStore はauth_identitiesテーブルにアカウントを保存するBackend実装。
// パスワードはbcryptでハッシュ化して保存する。
type PostgresStore struct {
	db   *sql.DB
	cost int
}

// NewPostgresStore はPostgresStoreを生成する。
// costが0以下の場合はbcrypt.DefaultCostを使う。
func NewPostgresStore(db *sql.DB, cost int) *PostgresStore {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &PostgresStore{db: db, cost: cost}
}

// CreateIdentity はアカウントを作成する。
func (s *PostgresStore) CreateIdentity(ctx context.Context, email, password string, confirmed bool) (*model.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	ident := &model.Identity{
		ID:        uuid.NewString(),
		Email:     NormalizeEmail(email),
		Confirmed: confirmed,
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO auth_identities (id, email, password_hash, confirmed)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		ident.ID, ident.Email, string(hash), ident.Confirmed,
	).Scan(&ident.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to insert identity: %w", err)
	}

	return ident, nil
}

// DeleteIdentity はアカウントを削除する。
func (s *PostgresStore) DeleteIdentity(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM auth_identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

// ListIdentities は全アカウントを作成日時順で返す。
func (s *PostgresStore) ListIdentities(ctx context.Context) ([]model.Identity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, confirmed, created_at FROM auth_identities ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	identities := []model.Identity{}
	for rows.Next() {
		var ident model.Identity
		if err := rows.Scan(&ident.ID, &ident.Email, &ident.Confirmed, &ident.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		identities = append(identities, ident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate identities: %w", err)
	}
	return identities, nil
}

// FindByEmail はメールアドレスでアカウントを検索する。見つからない場合はnilを返す。
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	ident, _, err := s.findWithHash(ctx, email)
	return ident, err
}

// VerifyPassword はパスワードを検証し、一致した場合はアカウントを返す。
func (s *PostgresStore) VerifyPassword(ctx context.Context, email, password string) (*model.Identity, error) {
	ident, hash, err := s.findWithHash(ctx, email)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return ident, nil
}

func (s *PostgresStore) findWithHash(ctx context.Context, email string) (*model.Identity, string, error) {
	ident := &model.Identity{}
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, confirmed, created_at, password_hash
		 FROM auth_identities WHERE lower(email) = $1`,
		NormalizeEmail(email),
	).Scan(&ident.ID, &ident.Email, &ident.Confirmed, &ident.CreatedAt, &hash)

	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to find identity: %w", err)
	}
	return ident, hash, nil
}

// compile-time interface check
var _ Backend = (*PostgresStore)(nil)
