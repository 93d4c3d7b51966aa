package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
)

const licensesTable = "partner_licenses"

// LicenseRepository implements ports.LicenseRepository on partner_licenses.
// The embedded branding is stored as a jsonb blob.
type LicenseRepository struct {
	db  DB
	log zerolog.Logger
}

func NewLicenseRepository(db DB, log zerolog.Logger) *LicenseRepository {
	return &LicenseRepository{db: db, log: log}
}

var _ ports.LicenseRepository = (*LicenseRepository)(nil)

// FindByPartner returns the license of partnerID. A branding blob that does
// not decode is logged and left out.
func (r *LicenseRepository) FindByPartner(ctx context.Context, partnerID string) (*domain.PartnerLicense, error) {
	query, args, err := psql.Select("id::text", "partner_id::text", "tier", "seats", "valid_until", "branding_config").
		From(licensesTable).
		Where(sq.Eq{"partner_id": partnerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build license query: %w", err)
	}

	var (
		l          domain.PartnerLicense
		validUntil *time.Time
		blob       []byte
	)
	err = r.db.QueryRow(ctx, query, args...).Scan(&l.ID, &l.PartnerID, &l.Tier, &l.Seats, &validUntil, &blob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLicenseNotFound
		}
		return nil, fmt.Errorf("find license: %w", err)
	}
	if validUntil != nil {
		l.ValidUntil = validUntil.UTC()
	}
	if len(blob) > 0 && string(blob) != "null" {
		var cfg domain.BrandingConfig
		if err := json.Unmarshal(blob, &cfg); err != nil {
			r.log.Warn().Err(err).Str("partner_id", partnerID).Msg("ignoring malformed license branding")
		} else {
			l.BrandingConfig = &cfg
		}
	}
	return &l, nil
}

func (r *LicenseRepository) UpdateBranding(ctx context.Context, partnerID string, cfg *domain.BrandingConfig) (int64, error) {
	blob, err := json.Marshal(cfg)
	if err != nil {
		return 0, fmt.Errorf("encode license branding: %w", err)
	}

	query, args, err := psql.Update(licensesTable).
		Set("branding_config", blob).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"partner_id": partnerID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build license update: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update license branding: %w", err)
	}
	return tag.RowsAffected(), nil
}
