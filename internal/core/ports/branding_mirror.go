package ports

import (
	"context"
	"time"

	"github.com/partnerdesk/console/internal/core/domain"
)

// BrandingSavedEvent is published after a branding row was written.
type BrandingSavedEvent struct {
	PartnerID string
	SavedBy   string
	Config    *domain.BrandingConfig
	SavedAt   time.Time
}

// BrandingMirrorService copies a saved branding into the license blob and the
// audit log.
type BrandingMirrorService interface {
	Process(ctx context.Context, ev BrandingSavedEvent) error
}

// BrandingPublisher accepts saved events for asynchronous mirroring.
type BrandingPublisher interface {
	Enqueue(ev BrandingSavedEvent)
}
