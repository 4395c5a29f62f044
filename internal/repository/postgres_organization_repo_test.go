package repository

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hitoshi/guardlingo/internal/model"
)

func TestPostgresOrganizationRepo_ImplementsInterface(t *testing.T) {
	var _ OrganizationRepository = (*PostgresOrganizationRepo)(nil)
}

func TestPostgresOrganizationRepo_ListByStatus(t *testing.T) {
	db := openTestDB(t)
	insertMosque(t, db, "m-1", "Blue Mosque", "active")
	insertMosque(t, db, "m-2", "Closed Mosque", "suspended")
	insertCompany(t, db, "c-1", "Acme Security", "trial")
	insertCompany(t, db, "c-2", "Zenith Tours", "active")

	repo := NewPostgresOrganizationRepo(db)
	got, err := repo.ListByStatus(context.Background(), []model.OrganizationStatus{
		model.OrganizationStatusActive, model.OrganizationStatusTrial,
	})
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}

	want := []model.Organization{
		{ID: "c-1", Name: "Acme Security", Type: model.OrganizationCompany, Status: model.OrganizationStatusTrial},
		{ID: "m-1", Name: "Blue Mosque", Type: model.OrganizationMosque, Status: model.OrganizationStatusActive},
		{ID: "c-2", Name: "Zenith Tours", Type: model.OrganizationCompany, Status: model.OrganizationStatusActive},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("organizations mismatch (-want +got):\n%s", diff)
	}
}

func TestPostgresOrganizationRepo_ListByStatus_Empty(t *testing.T) {
	db := openTestDB(t)
	insertMosque(t, db, "m-9", "Closed Mosque", "suspended")

	repo := NewPostgresOrganizationRepo(db)
	got, err := repo.ListByStatus(context.Background(), []model.OrganizationStatus{model.OrganizationStatusActive})
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Errorf("expected no organizations, got %v", got)
	}
}

func TestPostgresOrganizationRepo_ListByStatus_NoStatuses(t *testing.T) {
	repo := NewPostgresOrganizationRepo(nil)
	got, err := repo.ListByStatus(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
}
