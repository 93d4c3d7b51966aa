package ports

import (
	"context"

	"github.com/partnerdesk/console/internal/core/domain"
)

// SignupService creates identities together with their profile rows.
type SignupService interface {
	// RegisterPartner creates a partner account and signs it in on auth.
	RegisterPartner(ctx context.Context, auth AuthClient, in domain.SignupInput) (*domain.Session, error)
	// CreateEndUser creates an end-user managed by the calling partner.
	CreateEndUser(ctx context.Context, caller domain.Caller, in domain.SignupInput, role string) (*domain.Profile, error)
}
