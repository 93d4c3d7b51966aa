package domain

import (
	"errors"
	"fmt"
	"time"
)

// Auth errors.
var (
	ErrUnauthenticated     = errors.New("not signed in")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMalformedSession    = errors.New("malformed session")
	ErrUserExists          = errors.New("user already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrBackendDisabled     = errors.New("backend not configured")
	ErrInvalidRole         = errors.New("invalid role")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrTimeout             = errors.New("timed out")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrBrandingNotFound    = errors.New("branding not found")
	ErrLicenseNotFound     = errors.New("license not found")
	ErrAssetStorageMissing = errors.New("asset storage not configured")
	ErrInvalidAsset        = errors.New("invalid asset")
)

// TimeoutError is returned when an external call exceeds its budget.
// It matches ErrTimeout with errors.Is.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not respond within %s", e.Op, e.After)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// UserMessage converts an error into the text shown on the console's error screens.
func UserMessage(err error) string {
	var te *TimeoutError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &te):
		return fmt.Sprintf("The %s did not respond within %s. Check your connection and retry.", te.Op, te.After)
	case errors.Is(err, ErrPermissionDenied):
		return "Only partner accounts can change branding. Ask your partner administrator."
	case errors.Is(err, ErrBackendDisabled):
		return "The console is running without a backend. Sign-in is unavailable."
	case errors.Is(err, ErrInvalidCredentials):
		return "Email or password is incorrect."
	case errors.Is(err, ErrInvalidAsset):
		return "Favicons must be PNG, ICO or SVG files of at most 512 KB."
	case errors.Is(err, ErrUnauthenticated):
		return "Your session has ended. Please sign in again."
	default:
		return "Something went wrong. Reload the console and try again."
	}
}
