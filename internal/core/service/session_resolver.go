package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
)

// AuthState is the read model of a console's authentication.
type AuthState struct {
	User         *domain.Identity
	Profile      *domain.Profile
	Tier         domain.Tier
	Classified   bool
	IsSuperAdmin bool
	Loading      bool
	Error        error
	ProfileError error
}

// SignedIn reports whether an identity is present.
func (s AuthState) SignedIn() bool {
	return s.User != nil && s.User.ID != ""
}

// SessionResolverOptions tunes a SessionResolver. Zero values select defaults.
type SessionResolverOptions struct {
	SessionTimeout time.Duration
}

// SessionResolver establishes a console's identity once and keeps it in step
// with the auth client's state stream.
type SessionResolver struct {
	auth       ports.AuthClient
	classifier *RoleClassifier
	opts       SessionResolverOptions
	log        zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	initOnce  sync.Once
	ready     chan struct{}
	readyOnce sync.Once

	mu           sync.Mutex
	state        AuthState
	cachedUserID string
	cycle        uint64
	closed       bool
	unsubscribe  func()
	listeners    map[int]func(AuthState)
	nextListener int
}

func NewSessionResolver(auth ports.AuthClient, classifier *RoleClassifier, opts SessionResolverOptions, log zerolog.Logger) *SessionResolver {
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = DefaultSessionTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionResolver{
		auth:       auth,
		classifier: classifier,
		opts:       opts,
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		ready:      make(chan struct{}),
		state:      AuthState{Loading: true},
		listeners:  make(map[int]func(AuthState)),
	}
}

// Init starts resolution on the first call and waits for it to finish until
// ctx ends. It reports whether the initial load has finished. Later calls only
// wait.
func (r *SessionResolver) Init(ctx context.Context) bool {
	r.initOnce.Do(func() {
		unsub := r.auth.OnAuthStateChange(r.handleEvent)

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			unsub()
			return
		}
		r.unsubscribe = unsub
		r.cycle++
		cycle := r.cycle
		r.mu.Unlock()

		go r.load(r.ctx, cycle, false)
	})

	select {
	case <-r.ready:
		return true
	case <-ctx.Done():
		return false
	}
}

// Ready is closed once the initial load has finished or the resolver closed.
func (r *SessionResolver) Ready() <-chan struct{} {
	return r.ready
}

// CheckUser re-runs session resolution, e.g. from the retry action of an
// error screen. It blocks until the load finishes.
func (r *SessionResolver) CheckUser(ctx context.Context) AuthState {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return AuthState{}
	}
	r.cachedUserID = ""
	r.state.Error = nil
	r.state.ProfileError = nil
	r.state.Loading = true
	r.cycle++
	cycle := r.cycle
	r.mu.Unlock()
	r.notify()

	r.load(ctx, cycle, true)
	return r.Snapshot()
}

// SignOut ends the session. Local state is cleared even when the auth client
// reports an error.
func (r *SessionResolver) SignOut(ctx context.Context) error {
	err := r.auth.SignOut(ctx)
	r.clearIdentity()
	return err
}

// Snapshot returns a copy of the current state.
func (r *SessionResolver) Snapshot() AuthState {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// OnChange registers fn to be called after every state change. The returned
// function removes it.
func (r *SessionResolver) OnChange(fn func(AuthState)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return func() {}
	}
	id := r.nextListener
	r.nextListener++
	r.listeners[id] = fn
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// Close unsubscribes from the auth client and cancels in-flight work. Every
// callback arriving afterwards is ignored.
func (r *SessionResolver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	unsub := r.unsubscribe
	r.unsubscribe = nil
	r.listeners = map[int]func(AuthState){}
	r.cachedUserID = ""
	r.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	r.cancel()
	r.readyOnce.Do(func() { close(r.ready) })
}

func (r *SessionResolver) load(ctx context.Context, cycle uint64, clearWhenAbsent bool) {
	defer r.finishLoading(cycle)

	sess, err := withTimeout(ctx, "auth service", r.opts.SessionTimeout, r.auth.GetSession)
	switch {
	case errors.Is(err, domain.ErrMalformedSession):
		r.log.Warn().Err(err).Msg("discarding malformed session")
		r.clearIdentity()
		return
	case err != nil:
		r.log.Error().Err(err).Msg("session lookup failed")
		r.setError(err)
		return
	case sess == nil || sess.User == nil || sess.User.ID == "":
		if clearWhenAbsent {
			r.clearIdentity()
		}
		return
	}

	r.applyIdentity(ctx, *sess.User, false)
}

func (r *SessionResolver) handleEvent(ev domain.AuthEvent) {
	if r.isClosed() {
		return
	}
	switch ev.Type {
	case domain.AuthEventSignedOut:
		r.clearIdentity()
	case domain.AuthEventSignedIn, domain.AuthEventTokenRefreshed, domain.AuthEventUserUpdated:
		if ev.Session == nil || ev.Session.User == nil || ev.Session.User.ID == "" {
			return
		}
		r.applyIdentity(r.ctx, *ev.Session.User, ev.Type == domain.AuthEventSignedIn)
	}
}

// applyIdentity stores id and classifies it. Nothing is fetched when id is
// already the cached identity. A fresh sign-in drops whatever the process
// memoized for id so the new session sees the current profile.
func (r *SessionResolver) applyIdentity(ctx context.Context, id domain.Identity, freshSignIn bool) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	user := id
	r.state.User = &user
	if r.cachedUserID == id.ID {
		r.mu.Unlock()
		r.notify()
		return
	}
	r.cachedUserID = id.ID
	r.state.Profile = nil
	r.state.Tier = ""
	r.state.Classified = false
	r.state.IsSuperAdmin = false
	r.state.Error = nil
	r.state.ProfileError = nil
	r.mu.Unlock()
	r.notify()

	if freshSignIn {
		r.classifier.Forget(id.ID)
	}

	var (
		cls     Classification
		isSuper bool
		g       errgroup.Group
	)
	g.Go(func() (err error) {
		isSuper, err = r.classifier.CheckSuperAdmin(ctx, id)
		return err
	})
	g.Go(func() (err error) {
		cls, err = r.classifier.Resolve(ctx, id)
		return err
	})
	err := g.Wait()

	r.mu.Lock()
	if r.closed || r.cachedUserID != id.ID {
		r.mu.Unlock()
		return
	}
	if err != nil {
		r.state.ProfileError = err
		// allow the next event or retry for this id to fetch again
		r.cachedUserID = ""
	} else {
		r.state.Profile = cls.Profile
		r.state.Tier = cls.Tier
		r.state.IsSuperAdmin = cls.IsSuperAdmin || isSuper
		if r.state.IsSuperAdmin {
			r.state.Tier = domain.TierSuperAdmin
		}
		r.state.Classified = true
	}
	tier := r.state.Tier
	r.mu.Unlock()

	if err != nil {
		r.log.Error().Err(err).Str("user_id", id.ID).Msg("identity classification failed")
	} else {
		r.log.Debug().Str("user_id", id.ID).Str("tier", string(tier)).Msg("identity classified")
	}
	r.notify()
}

func (r *SessionResolver) clearIdentity() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	prev := r.cachedUserID
	if prev == "" && r.state.User != nil {
		prev = r.state.User.ID
	}
	r.cachedUserID = ""
	r.state = AuthState{Loading: r.state.Loading}
	r.mu.Unlock()

	if prev != "" {
		r.classifier.Forget(prev)
	}
	r.notify()
}

func (r *SessionResolver) setError(err error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.state.Error = err
	r.mu.Unlock()
	r.notify()
}

// finishLoading clears the loading flag once per load cycle. A superseded
// cycle leaves the flag to its successor.
func (r *SessionResolver) finishLoading(cycle uint64) {
	r.mu.Lock()
	if r.closed || cycle != r.cycle || !r.state.Loading {
		r.mu.Unlock()
		return
	}
	r.state.Loading = false
	r.mu.Unlock()

	r.readyOnce.Do(func() { close(r.ready) })
	r.notify()
}

func (r *SessionResolver) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *SessionResolver) notify() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	fns := make([]func(AuthState), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	s := r.Snapshot()
	for _, fn := range fns {
		fn(s)
	}
}
