package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// AuthBackend は認証アカウントの保存先を表す。
type AuthBackend string

const (
	// AuthBackendPostgres はアプリケーションDBのauth_identitiesテーブルを使用する。
	AuthBackendPostgres AuthBackend = "postgres"
	// AuthBackendGoTrue はGoTrue互換の外部認証サービスを使用する。
	AuthBackendGoTrue AuthBackend = "gotrue"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Auth backend
	AuthBackend      AuthBackend `env:"AUTH_BACKEND" envDefault:"postgres"`
	GoTrueURL        string      `env:"GOTRUE_URL"`
	GoTrueServiceKey string      `env:"GOTRUE_SERVICE_KEY"`

	// Session
	SessionMaxAge int `env:"SESSION_MAX_AGE" envDefault:"86400"`

	// Rate Limit（req/min/user）
	RateLimitGeneral      int `env:"RATE_LIMIT_GENERAL" envDefault:"120"`
	RateLimitProvisioning int `env:"RATE_LIMIT_PROVISIONING" envDefault:"20"`

	// Worker
	OrphanGracePeriod      time.Duration `env:"ORPHAN_GRACE_PERIOD" envDefault:"15m"`
	ReconcileInterval      time.Duration `env:"RECONCILE_INTERVAL" envDefault:"10m"`
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`

	// Cultural intelligence document fetch
	DocumentFetchTimeout time.Duration `env:"DOCUMENT_FETCH_TIMEOUT" envDefault:"10s"`
	DocumentMaxSize      int64         `env:"DOCUMENT_MAX_SIZE" envDefault:"2097152"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Server
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	BaseURL    string `env:"BASE_URL,required,notEmpty"`

	// Cookie
	CookieSecure bool
	CookieDomain string `env:"COOKIE_DOMAIN"`

	// CORS
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`

	// Bootstrap（create-adminサブコマンド用）
	BootstrapAdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
	BootstrapAdminName     string `env:"BOOTSTRAP_ADMIN_NAME" envDefault:"Administrator"`
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合は未設定の変数をまとめてエラーとして返す。
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) {
			return nil, fmt.Errorf("required environment variables are not set: %v", missingVars(aggErr))
		}
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	switch cfg.AuthBackend {
	case AuthBackendPostgres:
	case AuthBackendGoTrue:
		var missing []string
		if cfg.GoTrueURL == "" {
			missing = append(missing, "GOTRUE_URL")
		}
		if cfg.GoTrueServiceKey == "" {
			missing = append(missing, "GOTRUE_SERVICE_KEY")
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("required environment variables are not set: %v", missing)
		}
	default:
		return nil, fmt.Errorf("unsupported AUTH_BACKEND: %q", cfg.AuthBackend)
	}

	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")

	return cfg, nil
}

// missingVars はenvのエラー集合から未設定の変数名を抽出する。
// 未設定以外のエラー（型変換失敗など）はそのままメッセージとして含める。
func missingVars(aggErr env.AggregateError) []string {
	var vars []string
	for _, e := range aggErr.Errors {
		var required env.VarIsNotSetError
		var empty env.EmptyVarError
		switch {
		case errors.As(e, &required):
			vars = append(vars, required.Key)
		case errors.As(e, &empty):
			vars = append(vars, empty.Key)
		default:
			vars = append(vars, e.Error())
		}
	}
	return vars
}
