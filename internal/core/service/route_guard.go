package service

import (
	"path"
	"strings"

	"github.com/partnerdesk/console/internal/core/domain"
)

// Console paths the guard redirects to.
const (
	PathRoot           = "/"
	PathLogin          = "/login"
	PathSuperAdmin     = "/super-admin"
	PathAdminDashboard = "/admin-dashboard"
)

// GuardState is the state of the route guard for one request.
type GuardState string

const (
	GuardLoading         GuardState = "loading"
	GuardSessionError    GuardState = "session_error"
	GuardProfileError    GuardState = "profile_error"
	GuardUnauthenticated GuardState = "unauthenticated"
	GuardAuthorized      GuardState = "authorized"
)

// Error screen actions.
const (
	ActionRetry   = "retry"
	ActionRelogin = "relogin"
)

// partnerRoutes are the shared app routes a partner admin may stay on.
var partnerRoutes = []string{"/chat", "/tasks", "/calendar", "/admin", "/profile"}

// deprecatedRoutes are old dashboard aliases.
var deprecatedRoutes = []string{"/dashboard", "/partner-dashboard", "/employee-dashboard"}

// GuardInput is everything the guard decides on.
type GuardInput struct {
	Path string
	Auth AuthState
}

// GuardDecision is the guard's verdict. A non-empty Redirect means navigate
// away; otherwise State says what to render.
type GuardDecision struct {
	State    GuardState
	Tier     domain.Tier
	Redirect string
	Message  string
	Actions  []string
}

// Allowed reports whether the requested screen may render.
func (d GuardDecision) Allowed() bool {
	return d.State == GuardAuthorized && d.Redirect == ""
}

// DecideRoute is the route guard. It never redirects before classification
// has completed.
func DecideRoute(in GuardInput) GuardDecision {
	p := cleanPath(in.Path)
	a := in.Auth

	switch {
	case a.Loading:
		return GuardDecision{State: GuardLoading}
	case a.Error != nil:
		return GuardDecision{
			State:   GuardSessionError,
			Message: domain.UserMessage(a.Error),
			Actions: []string{ActionRetry, ActionRelogin},
		}
	case !a.SignedIn():
		if p == PathLogin {
			return GuardDecision{State: GuardUnauthenticated}
		}
		return GuardDecision{State: GuardUnauthenticated, Redirect: PathLogin}
	case a.ProfileError != nil:
		return GuardDecision{
			State:   GuardProfileError,
			Message: domain.UserMessage(a.ProfileError),
			Actions: []string{ActionRetry, ActionRelogin},
		}
	case !a.Classified:
		return GuardDecision{State: GuardLoading}
	}

	tier := a.Tier
	if a.IsSuperAdmin {
		tier = domain.TierSuperAdmin
	}
	d := GuardDecision{State: GuardAuthorized, Tier: tier}

	switch tier {
	case domain.TierSuperAdmin:
		if !within(p, PathSuperAdmin) {
			d.Redirect = PathSuperAdmin
		}
	case domain.TierPartnerAdmin:
		if p != PathRoot && !within(p, PathAdminDashboard) && !withinAny(p, partnerRoutes) {
			d.Redirect = PathAdminDashboard
		}
	default:
		if p == PathLogin || within(p, PathAdminDashboard) || within(p, "/admin") ||
			within(p, PathSuperAdmin) || withinAny(p, deprecatedRoutes) {
			d.Redirect = PathRoot
		}
	}
	return d
}

// HomeFor returns the landing path of a tier.
func HomeFor(tier domain.Tier) string {
	switch tier {
	case domain.TierSuperAdmin:
		return PathSuperAdmin
	case domain.TierPartnerAdmin:
		return PathAdminDashboard
	default:
		return PathRoot
	}
}

func cleanPath(p string) string {
	if p == "" {
		return PathRoot
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func within(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func withinAny(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if within(p, prefix) {
			return true
		}
	}
	return false
}
