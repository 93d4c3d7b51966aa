package ports

import (
	"context"

	"github.com/partnerdesk/console/internal/core/domain"
)

// AuthClient is a stateful handle to the auth provider. Each console session
// owns one client; the client remembers the current session and streams
// transitions to its subscribers.
type AuthClient interface {
	// GetSession returns the current session, or nil when signed out. A
	// session that cannot be decoded yields domain.ErrMalformedSession.
	GetSession(ctx context.Context) (*domain.Session, error)
	GetUser(ctx context.Context) (*domain.Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error)
	// SignUp creates an identity without signing it in.
	SignUp(ctx context.Context, in domain.SignupInput) (*domain.Identity, error)
	// RestoreSession adopts an access token issued earlier, e.g. a bearer token.
	RestoreSession(ctx context.Context, accessToken string) (*domain.Session, error)
	RefreshSession(ctx context.Context) (*domain.Session, error)
	SignOut(ctx context.Context) error
	UpdateUser(ctx context.Context, upd domain.UserUpdate) (*domain.Identity, error)
	// OnAuthStateChange registers fn and returns a function that removes it.
	OnAuthStateChange(fn domain.AuthListener) (unsubscribe func())
}

// IdentityRemover is implemented by auth clients that can delete an identity
// created through SignUp.
type IdentityRemover interface {
	DeleteIdentity(ctx context.Context, id string) error
}
