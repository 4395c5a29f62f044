package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/guardlingo/internal/config"
	"github.com/hitoshi/guardlingo/internal/database"
	"github.com/hitoshi/guardlingo/internal/identity"
	"github.com/hitoshi/guardlingo/internal/provisioning"
	"github.com/hitoshi/guardlingo/internal/repository"
	"github.com/hitoshi/guardlingo/internal/security"
)

// gotrueTimeout はGoTrue管理APIへのリクエストタイムアウト。
const gotrueTimeout = 10 * time.Second

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")
	return db, nil
}

// newIdentityBackend は設定に応じた認証バックエンドを返す。
func newIdentityBackend(cfg *config.Config, db *sql.DB) identity.Backend {
	if cfg.AuthBackend == config.AuthBackendGoTrue {
		return identity.NewGoTrueClient(identity.GoTrueConfig{
			BaseURL:    cfg.GoTrueURL,
			ServiceKey: cfg.GoTrueServiceKey,
			HTTPClient: &http.Client{Timeout: gotrueTimeout},
		})
	}
	return identity.NewPostgresStore(db, bcrypt.DefaultCost)
}

// newProvisioningService はアカウント作成ワークフローを組み立てる。
func newProvisioningService(identities identity.Backend, db *sql.DB, recorder provisioning.Recorder) *provisioning.Service {
	return provisioning.NewService(
		identities,
		repository.NewPostgresProfileRepo(db),
		repository.NewPostgresStreakRepo(db),
		repository.NewPostgresLearningPathRepo(db),
		security.NewTextSanitizer(),
		provisioning.WithRecorder(recorder),
		provisioning.WithLogger(slog.Default()),
	)
}

// adminProvisioner はcreate-adminが使うアカウント作成インターフェース。
type adminProvisioner interface {
	Provision(ctx context.Context, req provisioning.Request) (*provisioning.Result, error)
}

// createAdmin はBOOTSTRAP_ADMIN_*の設定からスーパー管理者を作成する。
func createAdmin(ctx context.Context, cfg *config.Config, provisioner adminProvisioner) error {
	if cfg.BootstrapAdminEmail == "" || cfg.BootstrapAdminPassword == "" {
		return errors.New("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set")
	}

	req := provisioning.NewBootstrapAdminRequest(
		cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword, cfg.BootstrapAdminName,
	)
	result, err := provisioner.Provision(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	attrs := []any{slog.String("user_id", result.UserID)}
	if len(result.Warnings) > 0 {
		attrs = append(attrs, slog.Any("warnings", result.Warnings))
	}
	slog.Info("super admin created", attrs...)
	return nil
}
