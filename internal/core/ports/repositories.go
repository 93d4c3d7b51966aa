package ports

import (
	"context"

	"github.com/partnerdesk/console/internal/core/domain"
)

// ProfileRepository reads and writes rows of the profiles table.
type ProfileRepository interface {
	// FindByID returns domain.ErrProfileNotFound when no row exists.
	FindByID(ctx context.Context, id string) (*domain.Profile, error)
	// IsSuperAdmin reads only the stored flag. Missing rows report false.
	IsSuperAdmin(ctx context.Context, id string) (bool, error)
	Insert(ctx context.Context, p *domain.Profile) error
	CountManaged(ctx context.Context, partnerID string) (int, error)
}

// BrandingRepository reads and writes rows of the partner_branding table.
type BrandingRepository interface {
	// FindActive returns domain.ErrBrandingNotFound when the partner has no active row.
	FindActive(ctx context.Context, partnerID string) (*domain.BrandingConfig, error)
	// Update overwrites the active row and reports how many rows changed.
	Update(ctx context.Context, cfg *domain.BrandingConfig) (int64, error)
	Insert(ctx context.Context, cfg *domain.BrandingConfig) error
}

// LicenseRepository reads and writes rows of the partner_licenses table.
type LicenseRepository interface {
	// FindByPartner returns domain.ErrLicenseNotFound when no license exists.
	FindByPartner(ctx context.Context, partnerID string) (*domain.PartnerLicense, error)
	// UpdateBranding replaces the embedded branding blob.
	UpdateBranding(ctx context.Context, partnerID string, cfg *domain.BrandingConfig) (int64, error)
}

// AssetStorage stores public branding assets.
type AssetStorage interface {
	// Upload stores body under key and returns its public URL.
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// BrandingCache is a shared, optional cache in front of the branding tables.
// A miss returns (nil, false, nil).
type BrandingCache interface {
	Get(ctx context.Context, partnerID string) (*domain.BrandingConfig, bool, error)
	Set(ctx context.Context, partnerID string, cfg *domain.BrandingConfig) error
	Invalidate(ctx context.Context, partnerID string) error
}

// BrandingAuditRepository persists branding save history.
type BrandingAuditRepository interface {
	Insert(ctx context.Context, e *domain.BrandingAuditEntry) error
	ListByPartner(ctx context.Context, partnerID string, limit int) ([]*domain.BrandingAuditEntry, error)
}
