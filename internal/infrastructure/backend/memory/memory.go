// Package memory is the degraded backend used when the hosted backend is not
// configured. Reads return nothing, writes are discarded and sign-in is
// refused.
package memory

import (
	"context"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
)

type Backend struct{}

func New() *Backend { return &Backend{} }

var _ ports.Backend = (*Backend)(nil)

func (Backend) Mode() string                       { return ports.BackendModeMock }
func (Backend) NewAuthClient() ports.AuthClient    { return authClient{} }
func (Backend) Profiles() ports.ProfileRepository  { return profiles{} }
func (Backend) Branding() ports.BrandingRepository { return branding{} }
func (Backend) Licenses() ports.LicenseRepository  { return licenses{} }
func (Backend) Assets() ports.AssetStorage         { return nil }
func (Backend) Ping(context.Context) error         { return nil }
func (Backend) Close() error                       { return nil }

type authClient struct{}

func (authClient) GetSession(context.Context) (*domain.Session, error) { return nil, nil }

func (authClient) GetUser(context.Context) (*domain.Identity, error) {
	return nil, domain.ErrUnauthenticated
}

func (authClient) SignInWithPassword(context.Context, string, string) (*domain.Session, error) {
	return nil, domain.ErrBackendDisabled
}

func (authClient) SignUp(context.Context, domain.SignupInput) (*domain.Identity, error) {
	return nil, domain.ErrBackendDisabled
}

func (authClient) RestoreSession(context.Context, string) (*domain.Session, error) {
	return nil, domain.ErrUnauthenticated
}

func (authClient) RefreshSession(context.Context) (*domain.Session, error) {
	return nil, domain.ErrUnauthenticated
}

func (authClient) SignOut(context.Context) error { return nil }

func (authClient) UpdateUser(context.Context, domain.UserUpdate) (*domain.Identity, error) {
	return nil, domain.ErrBackendDisabled
}

func (authClient) OnAuthStateChange(domain.AuthListener) func() { return func() {} }

type profiles struct{}

func (profiles) FindByID(context.Context, string) (*domain.Profile, error) {
	return nil, domain.ErrProfileNotFound
}
func (profiles) IsSuperAdmin(context.Context, string) (bool, error) { return false, nil }
func (profiles) Insert(context.Context, *domain.Profile) error      { return nil }
func (profiles) CountManaged(context.Context, string) (int, error)  { return 0, nil }

type branding struct{}

func (branding) FindActive(context.Context, string) (*domain.BrandingConfig, error) {
	return nil, domain.ErrBrandingNotFound
}
func (branding) Update(context.Context, *domain.BrandingConfig) (int64, error) { return 0, nil }
func (branding) Insert(context.Context, *domain.BrandingConfig) error          { return nil }

type licenses struct{}

func (licenses) FindByPartner(context.Context, string) (*domain.PartnerLicense, error) {
	return nil, domain.ErrLicenseNotFound
}
func (licenses) UpdateBranding(context.Context, string, *domain.BrandingConfig) (int64, error) {
	return 0, nil
}
