package provisioning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hitoshi/guardlingo/internal/identity"
	"github.com/hitoshi/guardlingo/internal/model"
)

// fakeIdentities はメモリ上の認証バックエンド。
type fakeIdentities struct {
	mu       sync.Mutex
	byID     map[string]model.Identity
	seq      int
	createFn func(email string) error // nil以外を返すと作成に失敗する
	deleteFn func(ctx context.Context, id string) error
	findFn   func(email string) error
	deleted  []string
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{byID: map[string]model.Identity{}}
}

func (f *fakeIdentities) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	if f.findFn != nil {
		if err := f.findFn(email); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ident := range f.byID {
		if ident.Email == identity.NormalizeEmail(email) {
			found := ident
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeIdentities) CreateIdentity(ctx context.Context, email, password string, confirmed bool) (*model.Identity, error) {
	if f.createFn != nil {
		if err := f.createFn(email); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ident := range f.byID {
		if ident.Email == email {
			return nil, identity.ErrDuplicateEmail
		}
	}
	f.seq++
	ident := model.Identity{
		ID:        fmt.Sprintf("user-%d", f.seq),
		Email:     email,
		Confirmed: confirmed,
		CreatedAt: time.Now(),
	}
	f.byID[ident.ID] = ident
	return &ident, nil
}

func (f *fakeIdentities) DeleteIdentity(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		if err := f.deleteFn(ctx, id); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return identity.ErrIdentityNotFound
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIdentities) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func (f *fakeIdentities) exists(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byID[id]
	return ok
}

// fakeProfiles はメモリ上のプロフィールストア。
// 存在しない組織を参照した場合は外部キー違反として失敗する。
type fakeProfiles struct {
	mu        sync.Mutex
	byID      map[string]model.Profile
	mosques   map[string]bool
	companies map[string]bool
	createFn  func(p *model.Profile) error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{
		byID:      map[string]model.Profile{},
		mosques:   map[string]bool{"m-123": true},
		companies: map[string]bool{"c-456": true},
	}
}

var errForeignKey = errors.New(`insert or update on table "profiles" violates foreign key constraint`)

func (f *fakeProfiles) Create(ctx context.Context, p *model.Profile) error {
	if f.createFn != nil {
		if err := f.createFn(p); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.MosqueID != nil && !f.mosques[*p.MosqueID] {
		return errForeignKey
	}
	if p.CompanyID != nil && !f.companies[*p.CompanyID] {
		return errForeignKey
	}
	if _, ok := f.byID[p.ID]; ok {
		return fmt.Errorf("duplicate key value violates unique constraint \"profiles_pkey\"")
	}
	f.byID[p.ID] = *p
	return nil
}

func (f *fakeProfiles) get(id string) (model.Profile, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	return p, ok
}

func (f *fakeProfiles) countByEmail(email string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.byID {
		if p.Email == email {
			n++
		}
	}
	return n
}

// fakeStreaks はメモリ上の継続日数ストア。
type fakeStreaks struct {
	mu       sync.Mutex
	byUser   map[string]model.StreakRecord
	createFn func(s *model.StreakRecord) error
}

func newFakeStreaks() *fakeStreaks {
	return &fakeStreaks{byUser: map[string]model.StreakRecord{}}
}

func (f *fakeStreaks) Create(ctx context.Context, s *model.StreakRecord) error {
	if f.createFn != nil {
		if err := f.createFn(s); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[s.UserID] = *s
	return nil
}

func (f *fakeStreaks) get(userID string) (model.StreakRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byUser[userID]
	return s, ok
}

// fakePaths はメモリ上の学習パスストア。
type fakePaths struct {
	mu       sync.Mutex
	byUser   map[string]model.LearningPath
	createFn func(p *model.LearningPath) error
}

func newFakePaths() *fakePaths {
	return &fakePaths{byUser: map[string]model.LearningPath{}}
}

func (f *fakePaths) Create(ctx context.Context, p *model.LearningPath) error {
	if f.createFn != nil {
		if err := f.createFn(p); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[p.UserID] = *p
	return nil
}

func (f *fakePaths) get(userID string) (model.LearningPath, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byUser[userID]
	return p, ok
}

// fakeRecorder は記録されたメトリクスを保持する。
type fakeRecorder struct {
	mu            sync.Mutex
	outcomes      []string
	compensations []string
	bestEffort    []string
}

func (r *fakeRecorder) RecordProvisioning(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *fakeRecorder) RecordCompensation(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compensations = append(r.compensations, result)
}

func (r *fakeRecorder) RecordBestEffortFailure(record string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bestEffort = append(r.bestEffort, record)
}

func strPtr(s string) *string { return &s }
