package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
	"github.com/partnerdesk/console/internal/core/theme"
)

// BrandingState is the read model of a console's partner branding.
type BrandingState struct {
	Branding  *domain.BrandingConfig
	Loading   bool
	PartnerID string
	Error     error
}

// BrandingBinding keeps a console's branding and theme in step with its
// session.
type BrandingBinding struct {
	resolver *BrandingResolver
	session  *SessionResolver
	theme    *theme.Store
	log      zerolog.Logger

	mu        sync.Mutex
	state     BrandingState
	boundUser string
	loaded    bool
	closed    bool
	// gen numbers loads and saves; only the latest one may write state.
	gen uint64
}

func newBrandingBinding(resolver *BrandingResolver, session *SessionResolver, store *theme.Store, log zerolog.Logger) *BrandingBinding {
	return &BrandingBinding{
		resolver: resolver,
		session:  session,
		theme:    store,
		log:      log,
	}
}

// Sync resolves the branding of the current identity unless it is already
// loaded, and applies it to the theme. A caller arriving while a load for the
// same identity is in flight joins that load.
func (b *BrandingBinding) Sync(ctx context.Context) BrandingState {
	auth := b.session.Snapshot()
	if !auth.SignedIn() || !auth.Classified {
		b.reset()
		return b.State()
	}
	caller := domain.Caller{Identity: *auth.User, Profile: auth.Profile}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return BrandingState{}
	}
	if b.loaded && b.boundUser == caller.Identity.ID {
		s := b.state
		b.mu.Unlock()
		return s
	}
	if b.boundUser != caller.Identity.ID || !b.state.Loading {
		b.boundUser = caller.Identity.ID
		b.loaded = false
		b.state = BrandingState{Loading: true, PartnerID: caller.EffectivePartnerID()}
		b.gen++
	}
	gen := b.gen
	b.mu.Unlock()

	cfg, err := b.resolver.Resolve(ctx, caller)
	return b.finish(gen, caller, cfg, err)
}

// Reload drops the memoized branding and resolves it again.
func (b *BrandingBinding) Reload(ctx context.Context) BrandingState {
	caller, ok := b.caller()
	if !ok {
		b.reset()
		return b.State()
	}
	b.mu.Lock()
	b.boundUser = caller.Identity.ID
	b.state.Loading = true
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	cfg, err := b.resolver.Reload(ctx, caller)
	return b.finish(gen, caller, cfg, err)
}

// Save writes cfg for the signed-in partner and applies it on success.
func (b *BrandingBinding) Save(ctx context.Context, cfg *domain.BrandingConfig) domain.BrandingSaveResult {
	caller, ok := b.caller()
	if !ok {
		return domain.BrandingSaveResult{Err: domain.ErrUnauthenticated}
	}
	res := b.resolver.Save(ctx, caller, cfg)
	if res.Success {
		b.mu.Lock()
		b.boundUser = caller.Identity.ID
		b.gen++
		gen := b.gen
		b.mu.Unlock()
		b.finish(gen, caller, res.Config, nil)
	}
	return res
}

// UploadFavicon stores a favicon for the signed-in partner.
func (b *BrandingBinding) UploadFavicon(ctx context.Context, filename string, body []byte, contentType string) (string, error) {
	caller, ok := b.caller()
	if !ok {
		return "", domain.ErrUnauthenticated
	}
	return b.resolver.UploadFavicon(ctx, caller, filename, body, contentType)
}

// History lists recent branding saves of the signed-in partner.
func (b *BrandingBinding) History(ctx context.Context, limit int) ([]*domain.BrandingAuditEntry, error) {
	caller, ok := b.caller()
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return b.resolver.History(ctx, caller, limit)
}

// State returns a copy of the current branding state.
func (b *BrandingBinding) State() BrandingState {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.state
	s.Branding = s.Branding.Clone()
	return s
}

func (b *BrandingBinding) finish(gen uint64, caller domain.Caller, cfg *domain.BrandingConfig, err error) BrandingState {
	current := b.session.Snapshot()
	stale := !current.SignedIn() || current.User.ID != caller.Identity.ID

	b.mu.Lock()
	if b.closed || stale || gen != b.gen || b.boundUser != caller.Identity.ID {
		s := b.state
		b.mu.Unlock()
		return s
	}
	b.state = BrandingState{PartnerID: caller.EffectivePartnerID(), Error: err}
	if err == nil {
		b.state.Branding = cfg
		b.loaded = true
	}
	s := b.state
	b.mu.Unlock()

	if err != nil {
		b.log.Warn().Err(err).Str("user_id", caller.Identity.ID).Msg("branding unavailable, keeping current theme")
		return s
	}
	b.theme.Apply(cfg, b.theme.Mode())
	return s
}

// onSession reacts to session changes: sign-out resets the branding, a new
// identity triggers a background load.
func (b *BrandingBinding) onSession(ctx context.Context, s AuthState) {
	b.mu.Lock()
	bound := b.boundUser
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}

	switch {
	case !s.SignedIn():
		if bound != "" {
			b.resolver.Forget(bound)
			b.reset()
		}
	case s.Classified && s.User.ID != bound:
		go b.Sync(ctx)
	}
}

func (b *BrandingBinding) reset() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	wasBound := b.boundUser != "" || b.state.Branding != nil
	b.boundUser = ""
	b.loaded = false
	b.state = BrandingState{}
	b.gen++
	b.mu.Unlock()

	if wasBound {
		b.theme.Apply(nil, b.theme.Mode())
	}
}

func (b *BrandingBinding) caller() (domain.Caller, bool) {
	auth := b.session.Snapshot()
	if !auth.SignedIn() {
		return domain.Caller{}, false
	}
	return domain.Caller{Identity: *auth.User, Profile: auth.Profile}, true
}

func (b *BrandingBinding) close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// Console is the server-side state of one browser session or bearer token.
type Console struct {
	ID        string
	CreatedAt time.Time

	Auth     ports.AuthClient
	Session  *SessionResolver
	Branding *BrandingBinding
	Theme    *theme.Store

	ctx      context.Context
	cancel   context.CancelFunc
	lastSeen atomic.Int64
	unsub    func()
	once     sync.Once

	leases   *userLeases
	leaseMu  sync.Mutex
	leased   string
	released bool
}

// ConsoleOptions tunes new consoles.
type ConsoleOptions struct {
	Session SessionResolverOptions
	Mode    theme.Mode
}

// ConsoleFactory builds consoles on top of the process-wide resolvers.
type ConsoleFactory struct {
	backend    ports.Backend
	classifier *RoleClassifier
	branding   *BrandingResolver
	opts       ConsoleOptions
	leases     *userLeases
	log        zerolog.Logger
}

// userLeases counts the live consoles signed in as each user. When the last
// one lets go, the user's memoized profile, flag and branding are dropped.
type userLeases struct {
	mu     sync.Mutex
	counts map[string]int
	forget func(userID string)
}

func (l *userLeases) acquire(userID string) {
	l.mu.Lock()
	l.counts[userID]++
	l.mu.Unlock()
}

func (l *userLeases) release(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := l.counts[userID] - 1; n > 0 {
		l.counts[userID] = n
		return
	}
	delete(l.counts, userID)
	l.forget(userID)
}

func (l *userLeases) holders(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[userID]
}

func NewConsoleFactory(backend ports.Backend, classifier *RoleClassifier, branding *BrandingResolver, opts ConsoleOptions, log zerolog.Logger) *ConsoleFactory {
	if _, ok := theme.ParseMode(string(opts.Mode)); !ok {
		opts.Mode = theme.ModeLight
	}
	return &ConsoleFactory{
		backend:    backend,
		classifier: classifier,
		branding:   branding,
		opts:       opts,
		leases: &userLeases{
			counts: make(map[string]int),
			forget: func(userID string) {
				classifier.Forget(userID)
				branding.Forget(userID)
			},
		},
		log: log,
	}
}

// New returns a console with a fresh auth client and default theme.
func (f *ConsoleFactory) New(id string) *Console {
	log := f.log.With().Str("console_id", id).Logger()
	auth := f.backend.NewAuthClient()
	session := NewSessionResolver(auth, f.classifier, f.opts.Session, log)
	store := theme.NewStore(f.opts.Mode)

	ctx, cancel := context.WithCancel(context.Background())
	c := &Console{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Auth:      auth,
		Session:   session,
		Branding:  newBrandingBinding(f.branding, session, store, log),
		Theme:     store,
		ctx:       ctx,
		cancel:    cancel,
		leases:    f.leases,
	}
	c.Touch()
	c.unsub = session.OnChange(func(s AuthState) {
		c.track(s)
		c.Branding.onSession(c.ctx, s)
	})
	return c
}

// track moves the console's lease to the identity in s.
func (c *Console) track(s AuthState) {
	var userID string
	if s.SignedIn() {
		userID = s.User.ID
	}
	c.leaseMu.Lock()
	defer c.leaseMu.Unlock()
	if c.released || userID == c.leased {
		return
	}
	if c.leased != "" {
		c.leases.release(c.leased)
	}
	c.leased = userID
	if userID != "" {
		c.leases.acquire(userID)
	}
}

func (c *Console) releaseLease() {
	c.leaseMu.Lock()
	defer c.leaseMu.Unlock()
	if c.released {
		return
	}
	c.released = true
	if c.leased != "" {
		c.leases.release(c.leased)
		c.leased = ""
	}
}

// Caller returns the signed-in identity with its profile.
func (c *Console) Caller() (domain.Caller, bool) {
	return c.Branding.caller()
}

// Touch records activity.
func (c *Console) Touch() {
	c.lastSeen.Store(time.Now().UnixNano())
}

// LastSeen returns the time of the last recorded activity.
func (c *Console) LastSeen() time.Time {
	return time.Unix(0, c.lastSeen.Load()).UTC()
}

// Close releases the console and its hold on the signed-in user's memoized
// data. It is safe to call more than once.
func (c *Console) Close() {
	c.once.Do(func() {
		if c.unsub != nil {
			c.unsub()
		}
		c.Branding.close()
		c.Session.Close()
		c.cancel()
		c.releaseLease()
	})
}
