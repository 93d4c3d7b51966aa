package domain

import "time"

// Identity models an authenticated actor as issued by the auth provider.
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Session is the auth provider's view of a signed-in identity.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *Identity `json:"user"`
}

// Valid reports whether the session carries a usable identity and has not expired.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.User == nil || s.User.ID == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// UserUpdate carries the identity fields a signed-in user may change.
type UserUpdate struct {
	Email    string
	Password string
}

// SignupInput carries the credentials and metadata for a new identity.
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}
