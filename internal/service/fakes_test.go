package service

import (
	"context"
	"sync"
	"time"

	"github.com/userflow/userflow/internal/authz"
	"github.com/userflow/userflow/internal/config"
	"github.com/userflow/userflow/internal/logger"
	"github.com/userflow/userflow/internal/model"
	"github.com/userflow/userflow/internal/repository"
)

func testLogger() *logger.Logger {
	return logger.New("error", "json")
}

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			SessionTTL:      24 * time.Hour,
			ResetTokenTTL:   time.Hour,
			ResetMaxPerHour: 3,
		},
	}
}

// fakeRoles resolves roles from an in-memory map
type fakeRoles struct {
	mu    sync.Mutex
	roles map[string]model.Role
}

func (f *fakeRoles) RoleOf(ctx context.Context, id string) (model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	role, ok := f.roles[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return role, nil
}

// fakeProfileStore is an in-memory ProfileStore
type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: map[string]*model.Profile{}}
}

func (f *fakeProfileStore) add(id, email string, role model.Role) *model.Profile {
	now := time.Now()
	p := &model.Profile{
		ID:        id,
		Email:     email,
		Role:      role,
		Status:    model.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.profiles[id] = p
	return p
}

func (f *fakeProfileStore) Upsert(ctx context.Context, profile *model.Profile) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[profile.ID]; ok {
		return false, nil
	}
	now := time.Now()
	cp := *profile
	cp.CreatedAt = now
	cp.UpdatedAt = now
	f.profiles[profile.ID] = &cp
	return true, nil
}

func (f *fakeProfileStore) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileStore) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProfileStore) List(ctx context.Context, filter repository.ListFilter) ([]*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Profile
	for _, p := range f.profiles {
		if filter.Role != "" && p.Role != filter.Role {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeProfileStore) Update(ctx context.Context, id string, update *model.ProfileUpdate) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.FullName != nil {
		p.FullName = update.FullName
	}
	if update.Department != nil {
		p.Department = update.Department
	}
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (f *fakeProfileStore) UpdateRoleStatus(ctx context.Context, id string, role *model.Role, status *model.ProfileStatus) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if role != nil {
		p.Role = *role
	}
	if status != nil {
		p.Status = *status
	}
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (f *fakeProfileStore) UpdateLastLogin(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	p.LastLogin = &now
	return nil
}

func (f *fakeProfileStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.profiles, id)
	return nil
}

// fakeAuditStore records entries in memory
type fakeAuditStore struct {
	mu      sync.Mutex
	entries []*model.AuditEntry
}

func (f *fakeAuditStore) Create(ctx context.Context, entry *model.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditStore) List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.AuditEntry
	for _, e := range f.entries {
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeAuditStore) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

// fakeSessionStore is an in-memory SessionStore
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]*model.Session{}}
}

func (f *fakeSessionStore) Create(ctx context.Context, session *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *session
	f.sessions[session.ID] = &cp
	return nil
}

func (f *fakeSessionStore) GetUsableByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.TokenHash == tokenHash && s.IsUsable() {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSessionStore) GetByID(ctx context.Context, id string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionStore) ListByUserID(ctx context.Context, userID string) ([]*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Session
	for _, s := range f.sessions {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) Deactivate(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || !s.IsActive {
		return repository.ErrNotFound
	}
	s.IsActive = false
	return nil
}

func (f *fakeSessionStore) DeactivateByTokenHash(ctx context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.TokenHash == tokenHash && s.IsActive {
			s.IsActive = false
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeSessionStore) DeactivateAllForUser(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive {
			s.IsActive = false
			n++
		}
	}
	return n, nil
}

// fakeResetStore is an in-memory ResetTokenStore with the same atomic
// consumption semantics as the SQL implementation
type fakeResetStore struct {
	mu     sync.Mutex
	tokens map[string]*model.ResetToken
}

func newFakeResetStore() *fakeResetStore {
	return &fakeResetStore{tokens: map[string]*model.ResetToken{}}
}

func (f *fakeResetStore) Create(ctx context.Context, token *model.ResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *token
	f.tokens[token.TokenHash] = &cp
	return nil
}

func (f *fakeResetStore) Consume(ctx context.Context, tokenHash string) (*model.ResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if t.Used {
		return nil, repository.ErrTokenUsed
	}
	if t.IsExpired() {
		return nil, repository.ErrTokenExpired
	}
	t.Used = true
	cp := *t
	return &cp, nil
}

func (f *fakeResetStore) InvalidateAllForUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.UserID == userID {
			t.Used = true
		}
	}
	return nil
}

func (f *fakeResetStore) CountRecentByUserID(ctx context.Context, userID string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, t := range f.tokens {
		if t.UserID == userID && t.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

// fakePublisher captures published revocation events
type fakePublisher struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := message.(string); ok {
		f.messages = append(f.messages, s)
	}
	return nil
}

// testHarness wires services over fakes for a standard cast: one admin
// and two regular users
type testHarness struct {
	profiles *fakeProfileStore
	audits   *fakeAuditStore
	sessions *fakeSessionStore
	resets   *fakeResetStore
	pub      *fakePublisher
	engine   *authz.Engine
	audit    *AuditService
}

func newTestHarness() *testHarness {
	profiles := newFakeProfileStore()
	profiles.add("admin1", "admin@example.com", model.RoleAdmin)
	profiles.add("userX", "x@example.com", model.RoleUser)
	profiles.add("userY", "y@example.com", model.RoleUser)

	roles := &fakeRoles{roles: map[string]model.Role{
		"admin1": model.RoleAdmin,
		"userX":  model.RoleUser,
		"userY":  model.RoleUser,
	}}
	engine := authz.NewEngine(roles)
	audits := &fakeAuditStore{}
	log := testLogger()

	return &testHarness{
		profiles: profiles,
		audits:   audits,
		sessions: newFakeSessionStore(),
		resets:   newFakeResetStore(),
		pub:      &fakePublisher{},
		engine:   engine,
		audit:    NewAuditService(audits, engine, log),
	}
}
