package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
	"github.com/partnerdesk/console/internal/pkg/metrics"
)

type brandingMirrorService struct {
	licenses ports.LicenseRepository
	audit    ports.BrandingAuditRepository
	timeout  time.Duration
	log      zerolog.Logger
}

// NewBrandingMirrorService returns a BrandingMirrorService. audit may be nil.
func NewBrandingMirrorService(
	licenses ports.LicenseRepository,
	audit ports.BrandingAuditRepository,
	timeout time.Duration,
	log zerolog.Logger,
) ports.BrandingMirrorService {
	if timeout <= 0 {
		timeout = DefaultBrandingTimeout
	}
	return &brandingMirrorService{
		licenses: licenses,
		audit:    audit,
		timeout:  timeout,
		log:      log,
	}
}

// Process mirrors a saved branding into the partner's license blob and
// records it in the audit log. The mirror is best-effort: the branding row is
// already the source of truth.
func (s *brandingMirrorService) Process(ctx context.Context, ev ports.BrandingSavedEvent) error {
	// 1. Copy into the license fallback blob.
	n, mirrorErr := withTimeout(ctx, "license service", s.timeout, func(ctx context.Context) (int64, error) {
		return s.licenses.UpdateBranding(ctx, ev.PartnerID, ev.Config)
	})
	mirrored := mirrorErr == nil && n > 0
	switch {
	case mirrorErr != nil:
		metrics.MirrorJobsTotal.WithLabelValues("error").Inc()
	case n == 0:
		s.log.Debug().Str("partner_id", ev.PartnerID).Msg("partner has no license, mirror skipped")
		metrics.MirrorJobsTotal.WithLabelValues("ok").Inc()
	default:
		metrics.MirrorJobsTotal.WithLabelValues("ok").Inc()
	}

	// 2. Audit trail (non-fatal on failure).
	if s.audit != nil {
		entry := &domain.BrandingAuditEntry{
			PartnerID: ev.PartnerID,
			SavedBy:   ev.SavedBy,
			Config:    ev.Config,
			SavedAt:   ev.SavedAt,
			Mirrored:  mirrored,
		}
		if err := s.audit.Insert(ctx, entry); err != nil {
			s.log.Warn().Err(err).Str("partner_id", ev.PartnerID).Msg("failed to insert branding audit entry")
		}
	}

	if mirrorErr != nil {
		return fmt.Errorf("mirror branding: %w", mirrorErr)
	}

	s.log.Info().
		Str("partner_id", ev.PartnerID).
		Str("saved_by", ev.SavedBy).
		Bool("mirrored", mirrored).
		Msg("branding mirrored")
	return nil
}
