package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
	"github.com/partnerdesk/console/internal/pkg/fetchguard"
	"github.com/partnerdesk/console/internal/pkg/metrics"
)

// MaxFaviconBytes bounds favicon uploads.
const MaxFaviconBytes = 512 << 10

var faviconTypes = map[string]string{
	"image/png":                ".png",
	"image/x-icon":             ".ico",
	"image/vnd.microsoft.icon": ".ico",
	"image/svg+xml":            ".svg",
}

// BrandingResolverOptions tunes a BrandingResolver. Zero values select defaults.
type BrandingResolverOptions struct {
	Timeout time.Duration
}

// BrandingResolver loads and saves partner branding. It is shared by every
// console of the process; lookups are deduplicated per user id.
type BrandingResolver struct {
	branding  ports.BrandingRepository
	licenses  ports.LicenseRepository
	assets    ports.AssetStorage
	cache     ports.BrandingCache
	audit     ports.BrandingAuditRepository
	publisher ports.BrandingPublisher
	opts      BrandingResolverOptions

	guard fetchguard.Guard[*domain.BrandingConfig]
	now   func() time.Time
	log   zerolog.Logger
}

// NewBrandingResolver wires a resolver. cache, audit and publisher are
// optional and may be nil.
func NewBrandingResolver(
	backend ports.Backend,
	cache ports.BrandingCache,
	audit ports.BrandingAuditRepository,
	publisher ports.BrandingPublisher,
	opts BrandingResolverOptions,
	log zerolog.Logger,
) *BrandingResolver {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultBrandingTimeout
	}
	return &BrandingResolver{
		branding:  backend.Branding(),
		licenses:  backend.Licenses(),
		assets:    backend.Assets(),
		cache:     cache,
		audit:     audit,
		publisher: publisher,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

// Resolve returns the branding the caller should render, or nil when the
// partner has none. Lookup order: shared cache, active branding row, license
// blob. At most one lookup runs per user id until Forget.
func (r *BrandingResolver) Resolve(ctx context.Context, caller domain.Caller) (*domain.BrandingConfig, error) {
	if caller.Identity.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	partnerID := caller.EffectivePartnerID()

	cfg, err := r.guard.Do(ctx, caller.Identity.ID, func(ctx context.Context) (*domain.BrandingConfig, error) {
		return withTimeout(ctx, "branding service", r.opts.Timeout, func(ctx context.Context) (*domain.BrandingConfig, error) {
			return r.lookup(ctx, partnerID)
		})
	})
	if err != nil {
		metrics.BrandingResolvedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolve branding: %w", err)
	}
	return cfg.Clone(), nil
}

// Reload drops the memoized branding of the caller and the shared cache entry,
// then resolves again.
func (r *BrandingResolver) Reload(ctx context.Context, caller domain.Caller) (*domain.BrandingConfig, error) {
	r.Forget(caller.Identity.ID)
	r.invalidate(ctx, caller.EffectivePartnerID())
	return r.Resolve(ctx, caller)
}

// Forget drops the memoized branding of userID.
func (r *BrandingResolver) Forget(userID string) {
	r.guard.Forget(userID)
}

// Save writes cfg as the caller's active branding. Only partner accounts may
// save; anybody else gets a failed result with domain.ErrPermissionDenied.
func (r *BrandingResolver) Save(ctx context.Context, caller domain.Caller, cfg *domain.BrandingConfig) domain.BrandingSaveResult {
	if !caller.CanManageBranding() {
		metrics.BrandingSavesTotal.WithLabelValues("denied").Inc()
		r.log.Warn().Str("user_id", caller.Identity.ID).Msg("branding save denied")
		return domain.BrandingSaveResult{Success: false, Err: domain.ErrPermissionDenied}
	}

	now := r.now()
	row := cfg.Clone()
	if row == nil {
		row = &domain.BrandingConfig{}
	}
	row.PartnerID = caller.Identity.ID
	row.Active = true
	row.UpdatedBy = caller.Identity.ID
	row.UpdatedAt = now

	result, err := withTimeout(ctx, "branding service", r.opts.Timeout, func(ctx context.Context) (string, error) {
		n, err := r.branding.Update(ctx, row)
		if err != nil {
			return "", fmt.Errorf("update branding: %w", err)
		}
		if n > 0 {
			return "updated", nil
		}
		row.CreatedAt = now
		if err := r.branding.Insert(ctx, row); err != nil {
			return "", fmt.Errorf("insert branding: %w", err)
		}
		return "inserted", nil
	})
	if err != nil {
		metrics.BrandingSavesTotal.WithLabelValues("error").Inc()
		r.log.Error().Err(err).Str("partner_id", row.PartnerID).Msg("branding save failed")
		return domain.BrandingSaveResult{Success: false, Err: err}
	}
	metrics.BrandingSavesTotal.WithLabelValues(result).Inc()

	r.invalidate(ctx, row.PartnerID)
	r.Forget(caller.Identity.ID)
	if r.publisher != nil {
		r.publisher.Enqueue(ports.BrandingSavedEvent{
			PartnerID: row.PartnerID,
			SavedBy:   caller.Identity.ID,
			Config:    row.Clone(),
			SavedAt:   now,
		})
	}

	r.log.Info().Str("partner_id", row.PartnerID).Str("result", result).Msg("branding saved")
	return domain.BrandingSaveResult{Success: true, Config: row}
}

// UploadFavicon stores a favicon in the branding bucket and returns its public
// URL. The same permission rule as Save applies.
func (r *BrandingResolver) UploadFavicon(ctx context.Context, caller domain.Caller, filename string, body []byte, contentType string) (string, error) {
	if !caller.CanManageBranding() {
		return "", domain.ErrPermissionDenied
	}
	if r.assets == nil {
		return "", domain.ErrAssetStorageMissing
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := faviconTypes[contentType]
	if !ok || len(body) == 0 || len(body) > MaxFaviconBytes {
		return "", domain.ErrInvalidAsset
	}
	if e := strings.ToLower(path.Ext(filename)); e == ".ico" || e == ".png" || e == ".svg" {
		ext = e
	}

	key := fmt.Sprintf("%s/favicon-%d%s", caller.Identity.ID, r.now().UnixNano(), ext)
	url, err := withTimeout(ctx, "asset storage", r.opts.Timeout, func(ctx context.Context) (string, error) {
		return r.assets.Upload(ctx, key, body, contentType)
	})
	if err != nil {
		return "", fmt.Errorf("upload favicon: %w", err)
	}
	r.log.Info().Str("partner_id", caller.Identity.ID).Str("key", key).Msg("favicon uploaded")
	return url, nil
}

// History returns the most recent branding saves of the caller's partner.
func (r *BrandingResolver) History(ctx context.Context, caller domain.Caller, limit int) ([]*domain.BrandingAuditEntry, error) {
	if !caller.CanManageBranding() {
		return nil, domain.ErrPermissionDenied
	}
	if r.audit == nil {
		return []*domain.BrandingAuditEntry{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	entries, err := r.audit.ListByPartner(ctx, caller.Identity.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("branding history: %w", err)
	}
	return entries, nil
}

func (r *BrandingResolver) lookup(ctx context.Context, partnerID string) (*domain.BrandingConfig, error) {
	if r.cache != nil {
		cfg, ok, err := r.cache.Get(ctx, partnerID)
		switch {
		case err != nil:
			r.log.Warn().Err(err).Str("partner_id", partnerID).Msg("branding cache read failed")
		case ok:
			metrics.BrandingResolvedTotal.WithLabelValues("cache").Inc()
			return cfg, nil
		}
	}

	cfg, err := r.branding.FindActive(ctx, partnerID)
	switch {
	case err == nil:
		metrics.BrandingResolvedTotal.WithLabelValues("branding").Inc()
		r.store(ctx, partnerID, cfg)
		return cfg, nil
	case !errors.Is(err, domain.ErrBrandingNotFound):
		return nil, err
	}

	lic, err := r.licenses.FindByPartner(ctx, partnerID)
	switch {
	case errors.Is(err, domain.ErrLicenseNotFound):
		metrics.BrandingResolvedTotal.WithLabelValues("none").Inc()
		return nil, nil
	case err != nil:
		return nil, err
	}
	if lic.BrandingConfig.IsEmpty() {
		metrics.BrandingResolvedTotal.WithLabelValues("none").Inc()
		return nil, nil
	}

	cfg = lic.BrandingConfig.Clone()
	cfg.PartnerID = partnerID
	metrics.BrandingResolvedTotal.WithLabelValues("license").Inc()
	r.store(ctx, partnerID, cfg)
	return cfg, nil
}

func (r *BrandingResolver) store(ctx context.Context, partnerID string, cfg *domain.BrandingConfig) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, partnerID, cfg); err != nil {
		r.log.Warn().Err(err).Str("partner_id", partnerID).Msg("branding cache write failed")
	}
}

func (r *BrandingResolver) invalidate(ctx context.Context, partnerID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, partnerID); err != nil {
		r.log.Warn().Err(err).Str("partner_id", partnerID).Msg("branding cache invalidation failed")
	}
}
