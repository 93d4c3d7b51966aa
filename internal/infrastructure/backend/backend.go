// Package backend selects the hosted or mock backend at startup.
package backend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/core/ports"
	"github.com/partnerdesk/console/internal/infrastructure/backend/memory"
	"github.com/partnerdesk/console/internal/infrastructure/config"
	"github.com/partnerdesk/console/internal/infrastructure/db/postgres"
	"github.com/partnerdesk/console/internal/infrastructure/storage/s3"
	"github.com/partnerdesk/console/internal/infrastructure/token"
)

const tokenIssuer = "partner-console"

// New returns the hosted backend when BACKEND_URL and BACKEND_ANON_KEY are
// both set, and the mock backend otherwise. Connection failures of a
// configured backend are returned, not downgraded.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.Backend, error) {
	if !cfg.Backend.Enabled() {
		log.Warn().Msg("BACKEND_URL or BACKEND_ANON_KEY missing, running against the mock backend")
		return memory.New(), nil
	}

	pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Backend.URL, Timeout: cfg.Timeouts.Session})
	if err != nil {
		return nil, err
	}
	if cfg.Backend.MigrateOnStart {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("backend migrations applied")
	}

	var assets ports.AssetStorage
	if cfg.Assets.Enabled() {
		st, err := s3.New(ctx, s3.Config{
			Bucket:       cfg.Assets.Bucket,
			Region:       cfg.Assets.Region,
			Endpoint:     cfg.Assets.Endpoint,
			PublicURL:    cfg.Assets.PublicURL,
			AccessKey:    cfg.Assets.AccessKey,
			SecretKey:    cfg.Assets.SecretKey,
			UsePathStyle: cfg.Assets.UsePathStyle,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("asset storage: %w", err)
		}
		assets = st
	} else {
		log.Warn().Msg("asset bucket not configured, favicon uploads disabled")
	}

	tokens := token.NewIssuer(cfg.Backend.AnonKey, tokenIssuer, cfg.Backend.AccessTokenTTL, cfg.Backend.RefreshTokenTTL)
	log.Info().Str("mode", ports.BackendModeHosted).Msg("backend connected")
	return postgres.NewBackend(pool, tokens, assets, log), nil
}
