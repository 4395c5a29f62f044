package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/guardlingo/internal/middleware"
	"github.com/hitoshi/guardlingo/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Remove は管理者の操作でアカウントと関連データを削除する。
	Remove(ctx context.Context, actorID, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Remove はアカウントを削除する。
// DELETE /api/admin/users/{id}
func (h *UserHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	userID := chi.URLParam(r, "id")
	if userID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("user id is required"))
		return
	}

	if err := h.service.Remove(r.Context(), actorID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
