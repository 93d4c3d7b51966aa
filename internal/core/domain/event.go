package domain

// AuthEventType enumerates the auth-state transitions streamed by the auth provider.
type AuthEventType string

const (
	AuthEventSignedIn       AuthEventType = "SIGNED_IN"
	AuthEventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	AuthEventSignedOut      AuthEventType = "SIGNED_OUT"
	AuthEventUserUpdated    AuthEventType = "USER_UPDATED"
)

// AuthEvent is a single auth-state transition. Session is nil for SIGNED_OUT.
type AuthEvent struct {
	Type    AuthEventType
	Session *Session
}

// AuthListener receives auth-state transitions.
type AuthListener func(AuthEvent)
