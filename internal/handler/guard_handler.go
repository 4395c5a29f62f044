package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/guardlingo/internal/model"
	"github.com/hitoshi/guardlingo/internal/provisioning"
)

// ProvisioningServiceInterface はアカウント作成ハンドラーが必要とするサービスインターフェース。
type ProvisioningServiceInterface interface {
	Provision(ctx context.Context, req provisioning.Request) (*provisioning.Result, error)
}

// OrganizationServiceInterface は所属組織一覧のサービスインターフェース。
type OrganizationServiceInterface interface {
	ListProvisioningTargets(ctx context.Context) ([]model.Organization, error)
}

// GuardHandler は管理者によるアカウント作成のHTTPハンドラー。
type GuardHandler struct {
	provisioner   ProvisioningServiceInterface
	organizations OrganizationServiceInterface
}

// NewGuardHandler はGuardHandlerを生成する。
func NewGuardHandler(provisioner ProvisioningServiceInterface, organizations OrganizationServiceInterface) *GuardHandler {
	return &GuardHandler{
		provisioner:   provisioner,
		organizations: organizations,
	}
}

// createGuardResponse はアカウント作成成功時のレスポンス。
type createGuardResponse struct {
	Success  bool     `json:"success"`
	UserID   string   `json:"user_id"`
	Message  string   `json:"message"`
	Warnings []string `json:"warnings,omitempty"`
}

// organizationResponse は所属組織1件のレスポンス。
type organizationResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

type listOrganizationsResponse struct {
	Organizations []organizationResponse `json:"organizations"`
}

// Create はアカウントを作成する。
// POST /api/admin/guards
func (h *GuardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req provisioning.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.provisioner.Provision(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createGuardResponse{
		Success:  true,
		UserID:   result.UserID,
		Message:  "User created successfully",
		Warnings: result.Warnings,
	})
}

// ListOrganizations はアカウントの所属先として選択できる組織を返す。
// GET /api/admin/guards
func (h *GuardHandler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.organizations.ListProvisioningTargets(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := listOrganizationsResponse{Organizations: make([]organizationResponse, 0, len(orgs))}
	for _, org := range orgs {
		resp.Organizations = append(resp.Organizations, organizationResponse{
			ID:     org.ID,
			Name:   org.Name,
			Type:   string(org.Type),
			Status: string(org.Status),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
