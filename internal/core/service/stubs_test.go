package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

type stubProfileRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Profile
	findCalls int32
	flagCalls int32
	findErr   error
	// block, when set, makes FindByID wait until it is closed or ctx ends.
	block chan struct{}
	// flagBlock does the same for IsSuperAdmin.
	flagBlock chan struct{}
	insertErr error
	inserted  []*domain.Profile
}

func newStubProfileRepo(profiles ...*domain.Profile) *stubProfileRepo {
	r := &stubProfileRepo{byID: make(map[string]*domain.Profile)}
	for _, p := range profiles {
		r.byID[p.ID] = p
	}
	return r
}

func (r *stubProfileRepo) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	atomic.AddInt32(&r.findCalls, 1)
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) IsSuperAdmin(ctx context.Context, id string) (bool, error) {
	atomic.AddInt32(&r.flagCalls, 1)
	if r.flagBlock != nil {
		select {
		case <-r.flagBlock:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byID[id]; ok {
		return p.IsSuperAdmin, nil
	}
	return false, nil
}

func (r *stubProfileRepo) Insert(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, ok := r.byID[p.ID]; ok {
		return domain.ErrUserExists
	}
	clone := *p
	r.byID[p.ID] = &clone
	r.inserted = append(r.inserted, &clone)
	return nil
}

func (r *stubProfileRepo) CountManaged(_ context.Context, partnerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.byID {
		if p.EmployeeID != nil && *p.EmployeeID == partnerID {
			n++
		}
	}
	return n, nil
}

func (r *stubProfileRepo) finds() int { return int(atomic.LoadInt32(&r.findCalls)) }

// ---------------------------------------------------------------------------
// Auth client
// ---------------------------------------------------------------------------

type stubAuthClient struct {
	mu         sync.Mutex
	session    *domain.Session
	sessionErr error
	// sessionBlock, when set, makes GetSession wait until it is closed or ctx ends.
	sessionBlock chan struct{}
	signOutErr   error
	users        map[string]*domain.Identity
	listeners    map[int]domain.AuthListener
	nextID       int
}

func newStubAuthClient(sess *domain.Session) *stubAuthClient {
	return &stubAuthClient{
		session:   sess,
		users:     make(map[string]*domain.Identity),
		listeners: make(map[int]domain.AuthListener),
	}
}

func (a *stubAuthClient) GetSession(ctx context.Context) (*domain.Session, error) {
	if a.sessionBlock != nil {
		select {
		case <-a.sessionBlock:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session, a.sessionErr
}

func (a *stubAuthClient) GetUser(ctx context.Context) (*domain.Identity, error) {
	s, err := a.GetSession(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	return s.User, nil
}

func (a *stubAuthClient) SignInWithPassword(_ context.Context, email, _ string) (*domain.Session, error) {
	a.mu.Lock()
	u, ok := a.users[email]
	if !ok {
		a.mu.Unlock()
		return nil, domain.ErrInvalidCredentials
	}
	a.session = &domain.Session{AccessToken: "tok-" + u.ID, User: u}
	s := a.session
	a.mu.Unlock()
	a.emit(domain.AuthEvent{Type: domain.AuthEventSignedIn, Session: s})
	return s, nil
}

func (a *stubAuthClient) SignUp(_ context.Context, in domain.SignupInput) (*domain.Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.users[in.Email]; ok {
		return nil, domain.ErrUserExists
	}
	u := &domain.Identity{ID: "id-" + in.Email, Email: in.Email, FirstName: in.FirstName, LastName: in.LastName}
	a.users[in.Email] = u
	return u, nil
}

func (a *stubAuthClient) DeleteIdentity(_ context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for email, u := range a.users {
		if u.ID == id {
			delete(a.users, email)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (a *stubAuthClient) RestoreSession(ctx context.Context, _ string) (*domain.Session, error) {
	return a.GetSession(ctx)
}

func (a *stubAuthClient) RefreshSession(ctx context.Context) (*domain.Session, error) {
	return a.GetSession(ctx)
}

func (a *stubAuthClient) SignOut(_ context.Context) error {
	a.mu.Lock()
	a.session = nil
	err := a.signOutErr
	a.mu.Unlock()
	a.emit(domain.AuthEvent{Type: domain.AuthEventSignedOut})
	return err
}

func (a *stubAuthClient) UpdateUser(_ context.Context, upd domain.UserUpdate) (*domain.Identity, error) {
	a.mu.Lock()
	if a.session == nil {
		a.mu.Unlock()
		return nil, domain.ErrUnauthenticated
	}
	u := *a.session.User
	if upd.Email != "" {
		u.Email = upd.Email
	}
	a.session.User = &u
	s := a.session
	a.mu.Unlock()
	a.emit(domain.AuthEvent{Type: domain.AuthEventUserUpdated, Session: s})
	return &u, nil
}

func (a *stubAuthClient) OnAuthStateChange(fn domain.AuthListener) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *stubAuthClient) emit(ev domain.AuthEvent) {
	a.mu.Lock()
	fns := make([]domain.AuthListener, 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (a *stubAuthClient) listenerCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.listeners)
}

var _ ports.AuthClient = (*stubAuthClient)(nil)

// ---------------------------------------------------------------------------
// Branding, licenses, cache, assets, audit, publisher
// ---------------------------------------------------------------------------

type stubBrandingRepo struct {
	mu        sync.Mutex
	active    map[string]*domain.BrandingConfig
	findCalls int32
	findErr   error
	updateErr error
	block     chan struct{}
	updates   int
	inserts   int
}

func newStubBrandingRepo() *stubBrandingRepo {
	return &stubBrandingRepo{active: make(map[string]*domain.BrandingConfig)}
}

func (r *stubBrandingRepo) FindActive(ctx context.Context, partnerID string) (*domain.BrandingConfig, error) {
	atomic.AddInt32(&r.findCalls, 1)
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.active[partnerID]
	if !ok {
		return nil, domain.ErrBrandingNotFound
	}
	return cfg.Clone(), nil
}

func (r *stubBrandingRepo) Update(_ context.Context, cfg *domain.BrandingConfig) (int64, error) {
	if r.updateErr != nil {
		return 0, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if _, ok := r.active[cfg.PartnerID]; !ok {
		return 0, nil
	}
	r.active[cfg.PartnerID] = cfg.Clone()
	return 1, nil
}

func (r *stubBrandingRepo) Insert(_ context.Context, cfg *domain.BrandingConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	r.active[cfg.PartnerID] = cfg.Clone()
	return nil
}

func (r *stubBrandingRepo) finds() int { return int(atomic.LoadInt32(&r.findCalls)) }

type stubLicenseRepo struct {
	mu        sync.Mutex
	byPartner map[string]*domain.PartnerLicense
	updateErr error
	mirrored  []string
}

func newStubLicenseRepo() *stubLicenseRepo {
	return &stubLicenseRepo{byPartner: make(map[string]*domain.PartnerLicense)}
}

func (r *stubLicenseRepo) FindByPartner(_ context.Context, partnerID string) (*domain.PartnerLicense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byPartner[partnerID]
	if !ok {
		return nil, domain.ErrLicenseNotFound
	}
	clone := *l
	return &clone, nil
}

func (r *stubLicenseRepo) UpdateBranding(_ context.Context, partnerID string, cfg *domain.BrandingConfig) (int64, error) {
	if r.updateErr != nil {
		return 0, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mirrored = append(r.mirrored, partnerID)
	l, ok := r.byPartner[partnerID]
	if !ok {
		return 0, nil
	}
	l.BrandingConfig = cfg.Clone()
	return 1, nil
}

type stubCache struct {
	mu          sync.Mutex
	entries     map[string]*domain.BrandingConfig
	invalidated []string
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]*domain.BrandingConfig)}
}

func (c *stubCache) Get(_ context.Context, partnerID string) (*domain.BrandingConfig, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg, ok := c.entries[partnerID]
	return cfg.Clone(), ok, nil
}

func (c *stubCache) Set(_ context.Context, partnerID string, cfg *domain.BrandingConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[partnerID] = cfg.Clone()
	return nil
}

func (c *stubCache) Invalidate(_ context.Context, partnerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, partnerID)
	c.invalidated = append(c.invalidated, partnerID)
	return nil
}

type stubAssets struct {
	keys []string
	err  error
}

func (s *stubAssets) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.keys = append(s.keys, key)
	return "https://assets.test/branding/" + key, nil
}

type stubAudit struct {
	mu      sync.Mutex
	entries []*domain.BrandingAuditEntry
	err     error
}

func (a *stubAudit) Insert(_ context.Context, e *domain.BrandingAuditEntry) error {
	if a.err != nil {
		return a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

func (a *stubAudit) ListByPartner(_ context.Context, partnerID string, limit int) ([]*domain.BrandingAuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*domain.BrandingAuditEntry
	for i := len(a.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if a.entries[i].PartnerID == partnerID {
			out = append(out, a.entries[i])
		}
	}
	return out, nil
}

type stubPublisher struct {
	mu     sync.Mutex
	events []ports.BrandingSavedEvent
}

func (p *stubPublisher) Enqueue(ev ports.BrandingSavedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func strPtr(s string) *string { return &s }

type stubBackend struct {
	profiles *stubProfileRepo
	branding *stubBrandingRepo
	licenses *stubLicenseRepo
	assets   ports.AssetStorage
	newAuth  func() ports.AuthClient
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		profiles: newStubProfileRepo(),
		branding: newStubBrandingRepo(),
		licenses: newStubLicenseRepo(),
		assets:   &stubAssets{},
		newAuth:  func() ports.AuthClient { return newStubAuthClient(nil) },
	}
}

func (b *stubBackend) Mode() string                       { return "stub" }
func (b *stubBackend) NewAuthClient() ports.AuthClient    { return b.newAuth() }
func (b *stubBackend) Profiles() ports.ProfileRepository  { return b.profiles }
func (b *stubBackend) Branding() ports.BrandingRepository { return b.branding }
func (b *stubBackend) Licenses() ports.LicenseRepository  { return b.licenses }
func (b *stubBackend) Assets() ports.AssetStorage         { return b.assets }
func (b *stubBackend) Ping(context.Context) error         { return nil }
func (b *stubBackend) Close() error                       { return nil }
