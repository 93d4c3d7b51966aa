package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
)

const defaultCacheTTL = 5 * time.Minute

// BrandingCache stores resolved branding per partner so every console
// replica shares one copy.
// Key format: branding:<partner_id>
type BrandingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBrandingCache wraps client. A non-positive ttl uses defaultCacheTTL.
func NewBrandingCache(client *redis.Client, ttl time.Duration) *BrandingCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &BrandingCache{client: client, ttl: ttl}
}

var _ ports.BrandingCache = (*BrandingCache)(nil)

func (c *BrandingCache) Get(ctx context.Context, partnerID string) (*domain.BrandingConfig, bool, error) {
	raw, err := c.client.Get(ctx, c.key(partnerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("branding cache get: %w", err)
	}

	var cfg domain.BrandingConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		// drop the corrupt entry so the next read goes to the database
		_ = c.client.Del(ctx, c.key(partnerID)).Err()
		return nil, false, fmt.Errorf("branding cache decode: %w", err)
	}
	return &cfg, true, nil
}

func (c *BrandingCache) Set(ctx context.Context, partnerID string, cfg *domain.BrandingConfig) error {
	if cfg == nil {
		return nil
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("branding cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(partnerID), raw, c.ttl).Err()
}

func (c *BrandingCache) Invalidate(ctx context.Context, partnerID string) error {
	return c.client.Del(ctx, c.key(partnerID)).Err()
}

func (c *BrandingCache) key(partnerID string) string {
	return "branding:" + partnerID
}
