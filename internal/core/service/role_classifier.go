package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
	"github.com/partnerdesk/console/internal/pkg/fetchguard"
	"github.com/partnerdesk/console/internal/pkg/metrics"
)

// Classification is the outcome of resolving an identity's access tier.
type Classification struct {
	Profile      *domain.Profile
	Tier         domain.Tier
	IsSuperAdmin bool
}

// RoleClassifierOptions tunes a RoleClassifier. Zero values select defaults.
type RoleClassifierOptions struct {
	ProfileTimeout    time.Duration
	SuperAdminTimeout time.Duration
	// ExtraSuperAdmins extends domain.SuperAdminEmails.
	ExtraSuperAdmins []string
}

// RoleClassifier resolves profiles and tiers. It is shared by every console of
// the process so a user's profile is fetched at most once.
type RoleClassifier struct {
	profiles  ports.ProfileRepository
	overrides []string
	opts      RoleClassifierOptions

	profileGuard fetchguard.Guard[*domain.Profile]
	flagGuard    fetchguard.Guard[bool]
	log          zerolog.Logger
}

func NewRoleClassifier(profiles ports.ProfileRepository, opts RoleClassifierOptions, log zerolog.Logger) *RoleClassifier {
	if opts.ProfileTimeout <= 0 {
		opts.ProfileTimeout = DefaultProfileTimeout
	}
	if opts.SuperAdminTimeout <= 0 {
		opts.SuperAdminTimeout = DefaultSuperAdminTimeout
	}
	overrides := make([]string, 0, len(domain.SuperAdminEmails)+len(opts.ExtraSuperAdmins))
	overrides = append(overrides, domain.SuperAdminEmails...)
	overrides = append(overrides, opts.ExtraSuperAdmins...)

	return &RoleClassifier{
		profiles:  profiles,
		overrides: overrides,
		opts:      opts,
		log:       log,
	}
}

// Overrides returns the effective super-admin allow-list.
func (c *RoleClassifier) Overrides() []string {
	return append([]string(nil), c.overrides...)
}

// Classify applies the classification rule to an already fetched profile.
func (c *RoleClassifier) Classify(p *domain.Profile, email string) domain.Tier {
	return domain.ClassifyRole(p, email, c.overrides)
}

// CheckSuperAdmin reports whether the identity is a super-admin. The email
// allow-list is consulted first; otherwise the stored flag is looked up once
// per user id.
func (c *RoleClassifier) CheckSuperAdmin(ctx context.Context, id domain.Identity) (bool, error) {
	if domain.IsOverrideEmail(id.Email, c.overrides) {
		return true, nil
	}
	if id.ID == "" {
		return false, nil
	}
	ok, err := c.flagGuard.Do(ctx, id.ID, func(ctx context.Context) (bool, error) {
		return withTimeout(ctx, "super-admin check", c.opts.SuperAdminTimeout, func(ctx context.Context) (bool, error) {
			return c.profiles.IsSuperAdmin(ctx, id.ID)
		})
	})
	if err != nil {
		return false, fmt.Errorf("check super-admin: %w", err)
	}
	return ok, nil
}

// Resolve fetches the identity's profile (once per user id) and classifies it.
// A missing profile is not an error: it yields a nil profile and the end-user
// tier.
func (c *RoleClassifier) Resolve(ctx context.Context, id domain.Identity) (Classification, error) {
	if id.ID == "" {
		return Classification{}, domain.ErrUnauthenticated
	}
	p, err := c.profileGuard.Do(ctx, id.ID, func(ctx context.Context) (*domain.Profile, error) {
		return c.fetchProfile(ctx, id.ID)
	})
	if err != nil {
		return Classification{}, fmt.Errorf("resolve role: %w", err)
	}

	tier := c.Classify(p, id.Email)
	metrics.RoleClassificationsTotal.WithLabelValues(string(tier)).Inc()
	return Classification{
		Profile:      p,
		Tier:         tier,
		IsSuperAdmin: tier == domain.TierSuperAdmin,
	}, nil
}

// CachedProfile returns the memoized profile of userID, if any.
func (c *RoleClassifier) CachedProfile(userID string) (*domain.Profile, bool) {
	return c.profileGuard.Peek(userID)
}

// Forget drops everything memoized for userID.
func (c *RoleClassifier) Forget(userID string) {
	c.profileGuard.Forget(userID)
	c.flagGuard.Forget(userID)
}

func (c *RoleClassifier) fetchProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	start := time.Now()
	p, err := withTimeout(ctx, "profile service", c.opts.ProfileTimeout, func(ctx context.Context) (*domain.Profile, error) {
		return c.profiles.FindByID(ctx, userID)
	})

	result := "found"
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		result = "missing"
		p, err = nil, nil
	case errors.Is(err, domain.ErrTimeout):
		result = "timeout"
	case err != nil:
		result = "error"
	}
	metrics.ProfileFetchDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())

	if err != nil {
		c.log.Warn().Err(err).Str("user_id", userID).Msg("profile fetch failed")
		return nil, err
	}
	if p == nil {
		c.log.Debug().Str("user_id", userID).Msg("no profile row, classifying as end-user")
	}
	return p, nil
}
