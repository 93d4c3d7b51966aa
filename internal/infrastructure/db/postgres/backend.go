package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/core/ports"
	"github.com/partnerdesk/console/internal/infrastructure/token"
)

// Backend is the hosted backend: PostgreSQL tables, JWT sessions and an
// optional asset bucket.
type Backend struct {
	pool     *pgxpool.Pool
	tokens   *token.Issuer
	users    *UserStore
	profiles *ProfileRepository
	branding *BrandingRepository
	licenses *LicenseRepository
	assets   ports.AssetStorage
}

// NewBackend wires the repositories on pool. assets may be nil when uploads
// are not configured.
func NewBackend(pool *pgxpool.Pool, tokens *token.Issuer, assets ports.AssetStorage, log zerolog.Logger) *Backend {
	return &Backend{
		pool:     pool,
		tokens:   tokens,
		users:    NewUserStore(pool),
		profiles: NewProfileRepository(pool),
		branding: NewBrandingRepository(pool),
		licenses: NewLicenseRepository(pool, log),
		assets:   assets,
	}
}

var _ ports.Backend = (*Backend)(nil)

func (b *Backend) Mode() string { return ports.BackendModeHosted }

func (b *Backend) NewAuthClient() ports.AuthClient {
	return NewAuthClient(b.users, b.tokens)
}

func (b *Backend) Profiles() ports.ProfileRepository { return b.profiles }

func (b *Backend) Branding() ports.BrandingRepository { return b.branding }

func (b *Backend) Licenses() ports.LicenseRepository { return b.licenses }

func (b *Backend) Assets() ports.AssetStorage { return b.assets }

func (b *Backend) Ping(ctx context.Context) error { return b.pool.Ping(ctx) }

func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}
