// Package apitest provides an in-memory backend and a wired console registry
// for HTTP handler and middleware tests.
package apitest

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
	"github.com/partnerdesk/console/internal/core/service"
	"github.com/partnerdesk/console/internal/infrastructure/backend/memory"
	"github.com/partnerdesk/console/internal/infrastructure/session"
)

// ---------------------------------------------------------------------------
// Backend
// ---------------------------------------------------------------------------

type account struct {
	identity domain.Identity
	password string
}

// Backend is a working backend kept in maps. Licenses come from the embedded
// mock backend and are always absent.
type Backend struct {
	memory.Backend

	mu       sync.Mutex
	accounts map[string]account // by email
	tokens   map[string]string  // access token → user id
	profiles map[string]*domain.Profile
	branding map[string]*domain.BrandingConfig
	uploads  []string

	// ProfileErr, when set, fails every profile lookup.
	ProfileErr error
	// RestoreDelay slows down every RestoreSession call.
	RestoreDelay time.Duration
}

var _ ports.Backend = (*Backend)(nil)

func NewBackend() *Backend {
	return &Backend{
		accounts: make(map[string]account),
		tokens:   make(map[string]string),
		profiles: make(map[string]*domain.Profile),
		branding: make(map[string]*domain.BrandingConfig),
	}
}

// AddUser registers an identity with password "password" and, when p is not
// nil, its profile. It returns an access token RestoreSession accepts.
func (b *Backend) AddUser(id, email string, p *domain.Profile) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[email] = account{identity: domain.Identity{ID: id, Email: email}, password: "password"}
	if p != nil {
		clone := *p
		clone.ID = id
		b.profiles[id] = &clone
	}
	token := "tok-" + id
	b.tokens[token] = id
	return token
}

// SetBranding stores cfg as the active branding row of its partner.
func (b *Backend) SetBranding(cfg *domain.BrandingConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.branding[cfg.PartnerID] = cfg.Clone()
}

// Profile returns the stored profile of id.
func (b *Backend) Profile(id string) (*domain.Profile, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.profiles[id]
	return p, ok
}

// Uploads returns the keys of every stored asset.
func (b *Backend) Uploads() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.uploads...)
}

func (b *Backend) Mode() string                       { return "test" }
func (b *Backend) NewAuthClient() ports.AuthClient    { return newAuthClient(b) }
func (b *Backend) Profiles() ports.ProfileRepository  { return profileRepo{b} }
func (b *Backend) Branding() ports.BrandingRepository { return brandingRepo{b} }
func (b *Backend) Assets() ports.AssetStorage         { return assetStore{b} }

func (b *Backend) identityByID(id string) (domain.Identity, bool) {
	for _, a := range b.accounts {
		if a.identity.ID == id {
			return a.identity, true
		}
	}
	return domain.Identity{}, false
}

// ---------------------------------------------------------------------------
// Auth client
// ---------------------------------------------------------------------------

type authClient struct {
	b *Backend

	mu        sync.Mutex
	session   *domain.Session
	listeners map[int]domain.AuthListener
	next      int
}

func newAuthClient(b *Backend) *authClient {
	return &authClient{b: b, listeners: make(map[int]domain.AuthListener)}
}

func (a *authClient) GetSession(context.Context) (*domain.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil, nil
	}
	s := *a.session
	return &s, nil
}

func (a *authClient) GetUser(ctx context.Context) (*domain.Identity, error) {
	s, _ := a.GetSession(ctx)
	if s == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.User, nil
}

func (a *authClient) SignInWithPassword(_ context.Context, email, password string) (*domain.Session, error) {
	a.b.mu.Lock()
	acc, ok := a.b.accounts[strings.ToLower(email)]
	a.b.mu.Unlock()
	if !ok || acc.password != password {
		return nil, domain.ErrInvalidCredentials
	}
	return a.adopt(acc.identity, "tok-"+acc.identity.ID, domain.AuthEventSignedIn), nil
}

func (a *authClient) SignUp(_ context.Context, in domain.SignupInput) (*domain.Identity, error) {
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	email := strings.ToLower(in.Email)
	if _, ok := a.b.accounts[email]; ok {
		return nil, domain.ErrUserExists
	}
	id := domain.Identity{ID: "u-" + email, Email: email, FirstName: in.FirstName, LastName: in.LastName}
	a.b.accounts[email] = account{identity: id, password: in.Password}
	a.b.tokens["tok-"+id.ID] = id.ID
	return &id, nil
}

func (a *authClient) DeleteIdentity(_ context.Context, id string) error {
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	for email, acc := range a.b.accounts {
		if acc.identity.ID == id {
			delete(a.b.accounts, email)
			delete(a.b.tokens, "tok-"+id)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (a *authClient) RestoreSession(ctx context.Context, token string) (*domain.Session, error) {
	if d := a.b.RestoreDelay; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	a.b.mu.Lock()
	userID, ok := a.b.tokens[token]
	var id domain.Identity
	if ok {
		id, ok = a.b.identityByID(userID)
	}
	a.b.mu.Unlock()
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return a.adopt(id, token, domain.AuthEventSignedIn), nil
}

func (a *authClient) RefreshSession(context.Context) (*domain.Session, error) {
	a.mu.Lock()
	cur := a.session
	a.mu.Unlock()
	if cur == nil {
		return nil, domain.ErrUnauthenticated
	}
	return a.adopt(*cur.User, cur.AccessToken, domain.AuthEventTokenRefreshed), nil
}

func (a *authClient) SignOut(context.Context) error {
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
	a.emit(domain.AuthEvent{Type: domain.AuthEventSignedOut})
	return nil
}

func (a *authClient) UpdateUser(_ context.Context, upd domain.UserUpdate) (*domain.Identity, error) {
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
	s := *a.session
	a.mu.Unlock()
	a.emit(domain.AuthEvent{Type: domain.AuthEventUserUpdated, Session: &s})
	return &u, nil
}

func (a *authClient) OnAuthStateChange(fn domain.AuthListener) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next
	a.next++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *authClient) adopt(id domain.Identity, token string, ev domain.AuthEventType) *domain.Session {
	user := id
	s := &domain.Session{
		AccessToken:  token,
		RefreshToken: "refresh-" + id.ID,
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         &user,
	}
	a.mu.Lock()
	a.session = s
	out := *s
	a.mu.Unlock()
	a.emit(domain.AuthEvent{Type: ev, Session: &out})
	return &out
}

func (a *authClient) emit(ev domain.AuthEvent) {
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

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

type profileRepo struct{ b *Backend }

func (r profileRepo) FindByID(_ context.Context, id string) (*domain.Profile, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	if r.b.ProfileErr != nil {
		return nil, r.b.ProfileErr
	}
	p, ok := r.b.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	clone := *p
	return &clone, nil
}

func (r profileRepo) IsSuperAdmin(_ context.Context, id string) (bool, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	p, ok := r.b.profiles[id]
	return ok && p.IsSuperAdmin, nil
}

func (r profileRepo) Insert(_ context.Context, p *domain.Profile) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	if _, ok := r.b.profiles[p.ID]; ok {
		return domain.ErrUserExists
	}
	clone := *p
	r.b.profiles[p.ID] = &clone
	return nil
}

func (r profileRepo) CountManaged(_ context.Context, partnerID string) (int, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	n := 0
	for _, p := range r.b.profiles {
		if p.EmployeeID != nil && *p.EmployeeID == partnerID {
			n++
		}
	}
	return n, nil
}

type brandingRepo struct{ b *Backend }

func (r brandingRepo) FindActive(_ context.Context, partnerID string) (*domain.BrandingConfig, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	cfg, ok := r.b.branding[partnerID]
	if !ok {
		return nil, domain.ErrBrandingNotFound
	}
	return cfg.Clone(), nil
}

func (r brandingRepo) Update(_ context.Context, cfg *domain.BrandingConfig) (int64, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	if _, ok := r.b.branding[cfg.PartnerID]; !ok {
		return 0, nil
	}
	r.b.branding[cfg.PartnerID] = cfg.Clone()
	return 1, nil
}

func (r brandingRepo) Insert(_ context.Context, cfg *domain.BrandingConfig) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	r.b.branding[cfg.PartnerID] = cfg.Clone()
	return nil
}

type assetStore struct{ b *Backend }

func (s assetStore) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.uploads = append(s.b.uploads, key)
	return "https://assets.test/branding/" + key, nil
}

// ---------------------------------------------------------------------------
// Wiring
// ---------------------------------------------------------------------------

// Env is a console stack on top of a test backend.
type Env struct {
	Backend  *Backend
	Registry *session.Registry
	Signup   *service.SignupService
}

// NewEnv wires the resolvers, the console factory and a registry on top of b.
// The registry is closed when the test ends.
func NewEnv(t testing.TB, b *Backend) *Env {
	t.Helper()
	log := zerolog.Nop()
	classifier := service.NewRoleClassifier(b.Profiles(), service.RoleClassifierOptions{}, log)
	branding := service.NewBrandingResolver(b, nil, nil, nil, service.BrandingResolverOptions{}, log)
	factory := service.NewConsoleFactory(b, classifier, branding, service.ConsoleOptions{}, log)

	reg := session.NewRegistry(factory, session.Options{}, log)
	t.Cleanup(reg.Close)
	return &Env{
		Backend:  b,
		Registry: reg,
		Signup:   service.NewSignupService(b, classifier, log),
	}
}

// Console returns a console that finished its initial load without a session.
func (e *Env) Console(t testing.TB) *service.Console {
	t.Helper()
	con := e.Registry.Create()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if !con.Session.Init(ctx) {
		t.Fatalf("console %s did not finish loading", con.ID)
	}
	return con
}

// SignedIn returns a ready console signed in with token.
func (e *Env) SignedIn(t testing.TB, token string) *service.Console {
	t.Helper()
	con := e.Console(t)
	if _, err := con.Auth.RestoreSession(context.Background(), token); err != nil {
		t.Fatalf("restore session: %v", err)
	}
	return con
}
