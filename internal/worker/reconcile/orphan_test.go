package reconcile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hitoshi/guardlingo/internal/identity"
	"github.com/hitoshi/guardlingo/internal/model"
)

// --- モック定義 ---

type mockIdentityStore struct {
	listFn   func(ctx context.Context) ([]model.Identity, error)
	deleteFn func(ctx context.Context, id string) error
	deleted  []string
}

func (m *mockIdentityStore) ListIdentities(ctx context.Context) ([]model.Identity, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockIdentityStore) DeleteIdentity(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		if err := m.deleteFn(ctx, id); err != nil {
			return err
		}
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockProfileChecker struct {
	existing map[string]struct{}
	err      error
	gotIDs   []string
}

func (m *mockProfileChecker) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	m.gotIDs = ids
	if m.err != nil {
		return nil, m.err
	}
	return m.existing, nil
}

type mockRecorder struct {
	counts []int
}

func (m *mockRecorder) RecordOrphansReconciled(count int) {
	m.counts = append(m.counts, count)
}

var (
	_ IdentityStore  = (*mockIdentityStore)(nil)
	_ IdentityStore  = (identity.Backend)(nil)
	_ ProfileChecker = (*mockProfileChecker)(nil)
	_ Recorder       = (*mockRecorder)(nil)
)

// --- ヘルパー ---

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestReconciler(store IdentityStore, profiles ProfileChecker, rec Recorder, buf *bytes.Buffer) *OrphanReconciler {
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := NewOrphanReconciler(store, profiles, rec, logger, 15*time.Minute)
	r.now = func() time.Time { return testNow }
	return r
}

func ident(id string, age time.Duration) model.Identity {
	return model.Identity{ID: id, Email: id + "@example.com", Confirmed: true, CreatedAt: testNow.Add(-age)}
}

// --- テスト ---

func TestOrphanReconciler_RemovesOnlyOldIdentitiesWithoutProfile(t *testing.T) {
	store := &mockIdentityStore{
		listFn: func(ctx context.Context) ([]model.Identity, error) {
			return []model.Identity{
				ident("with-profile", time.Hour),
				ident("orphan-old", time.Hour),
				ident("orphan-fresh", time.Minute),
				ident("orphan-older", 48*time.Hour),
			}, nil
		},
	}
	profiles := &mockProfileChecker{existing: map[string]struct{}{"with-profile": {}}}
	rec := &mockRecorder{}
	var buf bytes.Buffer

	deleted, err := newTestReconciler(store, profiles, rec, &buf).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}

	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	sort.Strings(store.deleted)
	if diff := cmp.Diff([]string{"orphan-old", "orphan-older"}, store.deleted); diff != "" {
		t.Errorf("deleted ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"with-profile", "orphan-old", "orphan-older"}, profiles.gotIDs); diff != "" {
		t.Errorf("profile lookup ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2}, rec.counts); diff != "" {
		t.Errorf("recorded counts mismatch (-want +got):\n%s", diff)
	}
}

func TestOrphanReconciler_NoCandidates_SkipsProfileLookup(t *testing.T) {
	store := &mockIdentityStore{
		listFn: func(ctx context.Context) ([]model.Identity, error) {
			return []model.Identity{ident("fresh", time.Minute)}, nil
		},
	}
	profiles := &mockProfileChecker{}
	rec := &mockRecorder{}
	var buf bytes.Buffer

	deleted, err := newTestReconciler(store, profiles, rec, &buf).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
	if profiles.gotIDs != nil {
		t.Errorf("ExistingIDs should not be called, got %v", profiles.gotIDs)
	}
	if len(rec.counts) != 0 {
		t.Errorf("nothing should be recorded, got %v", rec.counts)
	}
}

func TestOrphanReconciler_DeleteFailure_ContinuesSweep(t *testing.T) {
	store := &mockIdentityStore{
		listFn: func(ctx context.Context) ([]model.Identity, error) {
			return []model.Identity{
				ident("broken", time.Hour),
				ident("gone", time.Hour),
				ident("ok", time.Hour),
			}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			switch id {
			case "broken":
				return errors.New("auth service unavailable")
			case "gone":
				return fmt.Errorf("delete %s: %w", id, identity.ErrIdentityNotFound)
			}
			return nil
		},
	}
	rec := &mockRecorder{}
	var buf bytes.Buffer

	deleted, err := newTestReconciler(store, &mockProfileChecker{}, rec, &buf).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}

	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if diff := cmp.Diff([]string{"ok"}, store.deleted); diff != "" {
		t.Errorf("deleted ids mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), "failed to remove orphan identity") {
		t.Errorf("expected failure log, got %s", buf.String())
	}
	if strings.Count(buf.String(), `"level":"ERROR"`) != 1 {
		t.Errorf("only the broken identity should be logged as an error, got %s", buf.String())
	}
}

func TestOrphanReconciler_ListError(t *testing.T) {
	store := &mockIdentityStore{
		listFn: func(ctx context.Context) ([]model.Identity, error) {
			return nil, errors.New("timeout")
		},
	}
	var buf bytes.Buffer

	if _, err := newTestReconciler(store, &mockProfileChecker{}, nil, &buf).RunOnce(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestOrphanReconciler_ProfileLookupError_DeletesNothing(t *testing.T) {
	store := &mockIdentityStore{
		listFn: func(ctx context.Context) ([]model.Identity, error) {
			return []model.Identity{ident("orphan", time.Hour)}, nil
		},
	}
	var buf bytes.Buffer

	err := newTestReconciler(store, &mockProfileChecker{err: errors.New("db down")}, nil, &buf).Run(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(store.deleted) != 0 {
		t.Errorf("nothing should be deleted when profiles cannot be checked, got %v", store.deleted)
	}
}

func TestOrphanReconciler_CancelledContext_StopsDeleting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &mockIdentityStore{
		listFn: func(context.Context) ([]model.Identity, error) {
			return []model.Identity{ident("a", time.Hour), ident("b", time.Hour)}, nil
		},
		deleteFn: func(context.Context, string) error {
			cancel()
			return nil
		},
	}
	var buf bytes.Buffer

	deleted, err := newTestReconciler(store, &mockProfileChecker{}, nil, &buf).RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}
