package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
)

const discardTimeout = 5 * time.Second

// SignupService creates identities together with their profile rows.
type SignupService struct {
	backend    ports.Backend
	classifier *RoleClassifier
	now        func() time.Time
	log        zerolog.Logger
}

var _ ports.SignupService = (*SignupService)(nil)

func NewSignupService(backend ports.Backend, classifier *RoleClassifier, log zerolog.Logger) *SignupService {
	return &SignupService{
		backend:    backend,
		classifier: classifier,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

// RegisterPartner creates a partner account and signs it in on auth. The
// profile row is written before the sign-in so the resulting SIGNED_IN event
// classifies the new partner correctly.
func (s *SignupService) RegisterPartner(ctx context.Context, auth ports.AuthClient, in domain.SignupInput) (*domain.Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	id, err := auth.SignUp(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	now := s.now()
	p := &domain.Profile{
		ID:        id.ID,
		Email:     id.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      domain.RolePartner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.backend.Profiles().Insert(ctx, p); err != nil {
		s.discard(ctx, auth, id.ID)
		return nil, fmt.Errorf("create profile: %w", err)
	}
	s.classifier.Forget(id.ID)

	sess, err := auth.SignInWithPassword(ctx, in.Email, in.Password)
	if err != nil {
		return nil, fmt.Errorf("sign in after sign up: %w", err)
	}
	s.log.Info().Str("user_id", id.ID).Msg("partner registered")
	return sess, nil
}

// CreateEndUser creates an end-user managed by the calling partner. The new
// identity is not signed in anywhere.
func (s *SignupService) CreateEndUser(ctx context.Context, caller domain.Caller, in domain.SignupInput, role string) (*domain.Profile, error) {
	if !caller.CanManageBranding() {
		return nil, domain.ErrPermissionDenied
	}
	if role == "" {
		role = domain.RoleEndUser
	}
	if !domain.IsKnownRole(role) {
		return nil, domain.ErrInvalidRole
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	auth := s.backend.NewAuthClient()
	id, err := auth.SignUp(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("sign up end-user: %w", err)
	}

	partnerID := caller.Identity.ID
	now := s.now()
	p := &domain.Profile{
		ID:         id.ID,
		Email:      id.Email,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		EmployeeID: &partnerID,
		Role:       strings.ToLower(role),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.backend.Profiles().Insert(ctx, p); err != nil {
		s.discard(ctx, auth, id.ID)
		return nil, fmt.Errorf("create end-user profile: %w", err)
	}

	s.log.Info().Str("user_id", id.ID).Str("partner_id", partnerID).Str("role", p.Role).Msg("end-user created")
	return p, nil
}

// discard deletes an identity whose profile row could not be written, so the
// email can sign up again. Clients without delete support keep the identity,
// which then classifies as end-user.
func (s *SignupService) discard(ctx context.Context, auth ports.AuthClient, userID string) {
	rm, ok := auth.(ports.IdentityRemover)
	if !ok {
		s.log.Warn().Str("user_id", userID).Msg("profile insert failed, identity left without profile")
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()
	if err := rm.DeleteIdentity(ctx, userID); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("could not remove identity after failed signup")
		return
	}
	s.log.Info().Str("user_id", userID).Msg("identity removed after failed signup")
}
