package ports

import "context"

// Backend mode names.
const (
	BackendModeHosted = "hosted"
	BackendModeMock   = "mock"
)

// Backend bundles every collaborator of the hosted backend. Exactly one
// implementation is selected at startup.
type Backend interface {
	Mode() string
	// NewAuthClient returns a fresh client with no session.
	NewAuthClient() AuthClient
	Profiles() ProfileRepository
	Branding() BrandingRepository
	Licenses() LicenseRepository
	Assets() AssetStorage
	Ping(ctx context.Context) error
	Close() error
}
