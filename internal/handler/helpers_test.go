package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/guardlingo/internal/culture"
	"github.com/hitoshi/guardlingo/internal/middleware"
	"github.com/hitoshi/guardlingo/internal/model"
	"github.com/hitoshi/guardlingo/internal/provisioning"
)

// --- モック定義 ---

// mockProvisioningService はProvisioningServiceInterfaceのモック実装。
type mockProvisioningService struct {
	provisionFn func(ctx context.Context, req provisioning.Request) (*provisioning.Result, error)
}

func (m *mockProvisioningService) Provision(ctx context.Context, req provisioning.Request) (*provisioning.Result, error) {
	if m.provisionFn != nil {
		return m.provisionFn(ctx, req)
	}
	return &provisioning.Result{UserID: "user-new"}, nil
}

// mockOrganizationService はOrganizationServiceInterfaceのモック実装。
type mockOrganizationService struct {
	listFn func(ctx context.Context) ([]model.Organization, error)
}

func (m *mockOrganizationService) ListProvisioningTargets(ctx context.Context) ([]model.Organization, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []model.Organization{}, nil
}

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	loginFn             func(ctx context.Context, email, password string) (*model.Session, error)
	logoutFn            func(ctx context.Context, sessionID string) error
	getCurrentProfileFn func(ctx context.Context, userID string) (*model.Profile, error)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) GetCurrentProfile(ctx context.Context, userID string) (*model.Profile, error) {
	if m.getCurrentProfileFn != nil {
		return m.getCurrentProfileFn(ctx, userID)
	}
	return nil, model.NewUnauthorizedError()
}

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	removeFn func(ctx context.Context, actorID, userID string) error
}

func (m *mockUserService) Remove(ctx context.Context, actorID, userID string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, actorID, userID)
	}
	return nil
}

// mockCultureService はCultureServiceInterfaceのモック実装。
type mockCultureService struct {
	assessFn func(ctx context.Context, doc culture.Document) (*culture.Assessment, error)
}

func (m *mockCultureService) Assess(ctx context.Context, doc culture.Document) (*culture.Assessment, error) {
	if m.assessFn != nil {
		return m.assessFn(ctx, doc)
	}
	return &culture.Assessment{Level: culture.LevelLow, Findings: []culture.Finding{}}, nil
}

// mockHealthChecker はHealthCheckerのモック実装。
type mockHealthChecker struct {
	pingFn func(ctx context.Context) error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

// コンパイル時にインターフェース準拠を検証
var (
	_ ProvisioningServiceInterface = (*mockProvisioningService)(nil)
	_ OrganizationServiceInterface = (*mockOrganizationService)(nil)
	_ AuthServiceInterface         = (*mockAuthService)(nil)
	_ UserServiceInterface         = (*mockUserService)(nil)
	_ CultureServiceInterface      = (*mockCultureService)(nil)
	_ HealthChecker                = (*mockHealthChecker)(nil)
)

// --- ヘルパー ---

// withUserID はテスト用にコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeErrorBody はエラーレスポンスのボディを読み取る。
func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}
