package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
)

const brandingTable = "partner_branding"

// styleColumns follows the order of domain.BrandingConfig.StyleFields.
var styleColumns = []string{
	"primary_color", "secondary_color", "accent_color",
	"agent_super_admin_color", "agent_partner_color", "agent_employee_color", "customer_color",
	"light_background_color", "light_surface_color", "light_text_color", "light_muted_text_color", "light_border_color",
	"dark_background_color", "dark_surface_color", "dark_text_color", "dark_muted_text_color", "dark_border_color",
	"success_color", "warning_color", "error_color", "info_color",
	"font_family", "heading_font_family", "favicon_url",
}

func brandingColumns() []string {
	cols := []string{"id::text", "partner_id::text", "is_active"}
	cols = append(cols, styleColumns...)
	return append(cols, "updated_by", "created_at", "updated_at")
}

func styleTargets(b *domain.BrandingConfig) []any {
	return []any{
		&b.PrimaryColor, &b.SecondaryColor, &b.AccentColor,
		&b.AgentSuperAdminColor, &b.AgentPartnerColor, &b.AgentEmployeeColor, &b.CustomerColor,
		&b.LightBackgroundColor, &b.LightSurfaceColor, &b.LightTextColor, &b.LightMutedTextColor, &b.LightBorderColor,
		&b.DarkBackgroundColor, &b.DarkSurfaceColor, &b.DarkTextColor, &b.DarkMutedTextColor, &b.DarkBorderColor,
		&b.SuccessColor, &b.WarningColor, &b.ErrorColor, &b.InfoColor,
		&b.FontFamily, &b.HeadingFontFamily, &b.FaviconURL,
	}
}

// BrandingRepository implements ports.BrandingRepository on partner_branding.
type BrandingRepository struct {
	db DB
}

func NewBrandingRepository(db DB) *BrandingRepository {
	return &BrandingRepository{db: db}
}

var _ ports.BrandingRepository = (*BrandingRepository)(nil)

func (r *BrandingRepository) FindActive(ctx context.Context, partnerID string) (*domain.BrandingConfig, error) {
	query, args, err := psql.Select(brandingColumns()...).
		From(brandingTable).
		Where(sq.Eq{"partner_id": partnerID, "is_active": true}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build branding query: %w", err)
	}

	var b domain.BrandingConfig
	dest := []any{&b.ID, &b.PartnerID, &b.Active}
	dest = append(dest, styleTargets(&b)...)
	dest = append(dest, &b.UpdatedBy, &b.CreatedAt, &b.UpdatedAt)

	if err := r.db.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBrandingNotFound
		}
		return nil, fmt.Errorf("find branding: %w", err)
	}
	return &b, nil
}

// Update overwrites every styling column of the partner's active row.
func (r *BrandingRepository) Update(ctx context.Context, cfg *domain.BrandingConfig) (int64, error) {
	values := cfg.StyleFields()
	set := make(map[string]any, len(styleColumns)+2)
	for i, col := range styleColumns {
		set[col] = values[i]
	}
	set["updated_by"] = cfg.UpdatedBy
	set["updated_at"] = cfg.UpdatedAt

	query, args, err := psql.Update(brandingTable).
		SetMap(set).
		Where(sq.Eq{"partner_id": cfg.PartnerID, "is_active": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build branding update: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update branding: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *BrandingRepository) Insert(ctx context.Context, cfg *domain.BrandingConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	cols := []string{"id", "partner_id", "is_active"}
	cols = append(cols, styleColumns...)
	cols = append(cols, "updated_by", "created_at", "updated_at")

	vals := []any{cfg.ID, cfg.PartnerID, cfg.Active}
	for _, v := range cfg.StyleFields() {
		vals = append(vals, v)
	}
	vals = append(vals, cfg.UpdatedBy, cfg.CreatedAt, cfg.UpdatedAt)

	query, args, err := psql.Insert(brandingTable).Columns(cols...).Values(vals...).ToSql()
	if err != nil {
		return fmt.Errorf("build branding insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert branding: %w", err)
	}
	return nil
}
