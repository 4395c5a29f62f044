package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/guardlingo/internal/model"
)

// Permission は管理者ゲートが要求する権限。
type Permission string

const (
	// PermissionAdmin はis_adminを要求する。
	PermissionAdmin Permission = "admin"
	// PermissionSuperAdmin はis_super_adminを要求する。
	PermissionSuperAdmin Permission = "super_admin"
)

// profileContextKey は呼び出し元のプロフィールを格納するためのキー。
var profileContextKey = contextKey("profile")

// ProfileFinder はプロフィールの検索インターフェース。
type ProfileFinder interface {
	FindByID(ctx context.Context, id string) (*model.Profile, error)
}

// Allows はプロフィールが権限を満たすかを返す。
func (p Permission) Allows(profile *model.Profile) bool {
	switch p {
	case PermissionAdmin:
		return profile.IsAdmin || profile.IsSuperAdmin
	case PermissionSuperAdmin:
		return profile.IsSuperAdmin
	default:
		return false
	}
}

// NewAdminGate は呼び出し元のプロフィールを読み込み、権限を検証するミドルウェアを返す。
// セッションミドルウェアの後に配置する。
// セッションまたはプロフィールがない場合は401、権限不足は403、検索エラーは500を返す。
// 後続のハンドラーはProfileFromContextで呼び出し元のプロフィールを参照できる。
func NewAdminGate(finder ProfileFinder, required Permission) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			profile, err := finder.FindByID(r.Context(), userID)
			if err != nil {
				slog.Error("failed to load caller profile",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if profile == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			if !required.Allows(profile) {
				slog.Warn("admin gate rejected request",
					slog.String("user_id", userID),
					slog.String("required", string(required)),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}

			ctx := context.WithValue(r.Context(), profileContextKey, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProfileFromContext は管理者ゲートが格納した呼び出し元のプロフィールを返す。
func ProfileFromContext(ctx context.Context) (*model.Profile, bool) {
	profile, ok := ctx.Value(profileContextKey).(*model.Profile)
	return profile, ok && profile != nil
}
