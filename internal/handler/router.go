package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/guardlingo/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	StatusRecorder    middleware.StatusRecorder
	SessionFinder     middleware.SessionFinder
	ProfileFinder     middleware.ProfileFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// アカウント作成
	ProvisioningService ProvisioningServiceInterface
	OrganizationService OrganizationServiceInterface

	// ユーザー管理
	UserService UserServiceInterface

	// 文化リスク評価
	CultureService CultureServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → Metrics → CORS
//	  → Session → RateLimit(General) → CSRF → AdminGate → RateLimit(Provisioning)
//
// /health, /metrics, ログイン・ログアウト・CSRFトークン取得はセッション不要。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	guardHandler := NewGuardHandler(deps.ProvisioningService, deps.OrganizationService)
	userHandler := NewUserHandler(deps.UserService)
	cultureHandler := NewCultureHandler(deps.CultureService)

	// --- 認証不要のルート ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Handle("/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General) → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Get("/auth/me", authHandler.Me)

		// 文化リスク評価（ログイン済みであれば利用可）
		r.Post("/api/cultural/assess", cultureHandler.Assess)

		// 管理者向け
		r.Route("/api/admin", func(r chi.Router) {
			r.Route("/guards", func(r chi.Router) {
				r.Use(middleware.NewAdminGate(deps.ProfileFinder, middleware.PermissionAdmin))

				r.Get("/", guardHandler.ListOrganizations)
				// POST /api/admin/guards - アカウント作成（作成専用レート制限を追加）
				r.With(deps.RateLimiter.ProvisioningMiddleware()).Post("/", guardHandler.Create)
			})

			r.With(middleware.NewAdminGate(deps.ProfileFinder, middleware.PermissionSuperAdmin)).
				Delete("/users/{id}", userHandler.Remove)
		})
	})

	return r
}
