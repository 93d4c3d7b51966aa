// Package session keeps the server-side consoles of browser sessions and
// bearer tokens in a bounded, expiring registry.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/service"
	"github.com/partnerdesk/console/internal/pkg/metrics"
)

const (
	defaultMaxSessions = 10000
	defaultIdleTTL     = 30 * time.Minute
)

// ErrClosed is returned by Ensure once the registry is shutting down.
var ErrClosed = errors.New("session registry closed")

// ConsoleFactory builds a console for a new id.
type ConsoleFactory interface {
	New(id string) *service.Console
}

type Options struct {
	MaxSessions int
	IdleTTL     time.Duration
}

// Registry maps console ids to consoles. Idle consoles expire after IdleTTL
// and the least recently used one is evicted at capacity; either way the
// console is closed.
type Registry struct {
	factory ConsoleFactory
	lru     *expirable.LRU[string, *service.Console]
	opts    Options
	log     zerolog.Logger

	active   atomic.Int64
	ensureMu sync.Mutex
	pending  map[string]*adoption

	mu       sync.Mutex
	removing map[string]struct{}
	closing  bool
}

func NewRegistry(factory ConsoleFactory, opts Options, log zerolog.Logger) *Registry {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = defaultMaxSessions
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultIdleTTL
	}
	r := &Registry{
		factory:  factory,
		opts:     opts,
		log:      log,
		pending:  make(map[string]*adoption),
		removing: make(map[string]struct{}),
	}
	r.lru = expirable.NewLRU[string, *service.Console](opts.MaxSessions, r.onEvict, opts.IdleTTL)
	return r
}

// Get returns the console for id and extends its lifetime.
func (r *Registry) Get(id string) (*service.Console, bool) {
	if id == "" {
		return nil, false
	}
	c, ok := r.lru.Get(id)
	if !ok {
		return nil, false
	}
	c.Touch()
	r.lru.Add(id, c)
	return c, true
}

// Create registers a console under a fresh id.
func (r *Registry) Create() *service.Console {
	return r.add(uuid.NewString())
}

// adoption is a console being prepared by Ensure.
type adoption struct {
	done chan struct{}
	con  *service.Console
	err  error
}

// Ensure returns the console registered under a server-derived id, creating
// it when missing. Bearer clients use the digest of their token as id.
//
// A new console is passed to adopt before it is registered; concurrent callers
// for the same id wait for that to finish and share its outcome. When adopt
// fails the console is closed and never registered. A waiting caller whose ctx
// ends gets ctx.Err().
func (r *Registry) Ensure(ctx context.Context, id string, adopt func(*service.Console) error) (*service.Console, error) {
	r.ensureMu.Lock()
	if c, ok := r.Get(id); ok {
		r.ensureMu.Unlock()
		return c, nil
	}
	if a, ok := r.pending[id]; ok {
		r.ensureMu.Unlock()
		select {
		case <-a.done:
			return a.con, a.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	a := &adoption{done: make(chan struct{})}
	r.pending[id] = a
	r.ensureMu.Unlock()

	c := r.factory.New(id)
	err := adopt(c)
	if err == nil && r.isClosing() {
		err = ErrClosed
	}
	if err != nil {
		c.Close()
		a.err = err
	} else {
		r.register(id, c)
		a.con = c
	}

	r.ensureMu.Lock()
	delete(r.pending, id)
	r.ensureMu.Unlock()
	close(a.done)
	return a.con, a.err
}

func (r *Registry) isClosing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closing
}

func (r *Registry) add(id string) *service.Console {
	c := r.factory.New(id)
	r.register(id, c)
	return c
}

func (r *Registry) register(id string, c *service.Console) {
	metrics.ConsoleSessionsActive.Set(float64(r.active.Add(1)))
	r.lru.Add(id, c)
	r.log.Debug().Str("console_id", id).Msg("console created")
}

// GetOrCreate returns the console for id, or a new one when id is unknown.
// created reports whether a new console was made.
func (r *Registry) GetOrCreate(id string) (c *service.Console, created bool) {
	if c, ok := r.Get(id); ok {
		return c, false
	}
	return r.Create(), true
}

// Remove closes and forgets the console for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	r.removing[id] = struct{}{}
	r.mu.Unlock()

	if !r.lru.Remove(id) {
		r.mu.Lock()
		delete(r.removing, id)
		r.mu.Unlock()
	}
}

// Len returns the number of live consoles.
func (r *Registry) Len() int {
	return r.lru.Len()
}

// Stats summarises the live consoles.
type Stats struct {
	Active      int                 `json:"active"`
	MaxSessions int                 `json:"max_sessions"`
	IdleTTL     string              `json:"idle_ttl"`
	SignedIn    int                 `json:"signed_in"`
	Loading     int                 `json:"loading"`
	ByTier      map[domain.Tier]int `json:"by_tier"`
}

func (r *Registry) Stats() Stats {
	s := Stats{
		MaxSessions: r.opts.MaxSessions,
		IdleTTL:     r.opts.IdleTTL.String(),
		ByTier:      make(map[domain.Tier]int),
	}
	for _, c := range r.lru.Values() {
		s.Active++
		auth := c.Session.Snapshot()
		if auth.Loading {
			s.Loading++
		}
		if auth.SignedIn() {
			s.SignedIn++
			if auth.Classified {
				s.ByTier[auth.Tier]++
			}
		}
	}
	return s
}

// Close closes every console.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closing = true
	r.mu.Unlock()
	r.lru.Purge()
}

// onEvict runs under the LRU lock and must not call back into r.lru.
func (r *Registry) onEvict(id string, c *service.Console) {
	r.mu.Lock()
	_, explicit := r.removing[id]
	explicit = explicit || r.closing
	delete(r.removing, id)
	r.mu.Unlock()

	reason := "removed"
	if !explicit {
		reason = "capacity"
		if time.Since(c.LastSeen()) >= r.opts.IdleTTL {
			reason = "expired"
		}
	}

	c.Close()
	metrics.ConsoleSessionsEvictedTotal.WithLabelValues(reason).Inc()
	metrics.ConsoleSessionsActive.Set(float64(r.active.Add(-1)))
	r.log.Debug().Str("console_id", id).Str("reason", reason).Msg("console closed")
}
