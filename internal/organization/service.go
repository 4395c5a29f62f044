// Package organization はアカウント作成時に選択できる所属組織を提供する。
package organization

import (
	"context"
	"fmt"

	"github.com/hitoshi/guardlingo/internal/model"
)

// provisionableStatuses は新規アカウントの所属先として選択できる契約状態。
var provisionableStatuses = []model.OrganizationStatus{
	model.OrganizationStatusActive,
	model.OrganizationStatusTrial,
}

// Lister はステータスで組織を取得するインターフェース。
type Lister interface {
	ListByStatus(ctx context.Context, statuses []model.OrganizationStatus) ([]model.Organization, error)
}

// Service は組織参照のサービス層。
type Service struct {
	repo Lister
}

// NewService はServiceを生成する。
func NewService(repo Lister) *Service {
	return &Service{repo: repo}
}

// ListProvisioningTargets は有効または試用中のモスクと企業を返す。
// 該当がない場合は空スライスを返す。
func (s *Service) ListProvisioningTargets(ctx context.Context) ([]model.Organization, error) {
	orgs, err := s.repo.ListByStatus(ctx, provisionableStatuses)
	if err != nil {
		return nil, fmt.Errorf("組織一覧の取得に失敗しました: %w", err)
	}

	// 選択可能な状態のみに絞る
	targets := make([]model.Organization, 0, len(orgs))
	for _, org := range orgs {
		if org.Status == model.OrganizationStatusActive || org.Status == model.OrganizationStatusTrial {
			targets = append(targets, org)
		}
	}
	return targets, nil
}
