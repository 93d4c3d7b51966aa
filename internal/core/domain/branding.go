package domain

import "time"

// BrandingConfig is a partner's color, typography and favicon configuration.
// Empty fields mean "use the console default".
type BrandingConfig struct {
	ID        string `json:"id,omitempty" bson:"id,omitempty"`
	PartnerID string `json:"partner_id" bson:"partner_id"`
	Active    bool   `json:"is_active" bson:"is_active"`

	PrimaryColor   string `json:"primary_color,omitempty" bson:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty" bson:"secondary_color,omitempty"`
	AccentColor    string `json:"accent_color,omitempty" bson:"accent_color,omitempty"`

	AgentSuperAdminColor string `json:"agent_super_admin_color,omitempty" bson:"agent_super_admin_color,omitempty"`
	AgentPartnerColor    string `json:"agent_partner_color,omitempty" bson:"agent_partner_color,omitempty"`
	AgentEmployeeColor   string `json:"agent_employee_color,omitempty" bson:"agent_employee_color,omitempty"`
	CustomerColor        string `json:"customer_color,omitempty" bson:"customer_color,omitempty"`

	LightBackgroundColor string `json:"light_background_color,omitempty" bson:"light_background_color,omitempty"`
	LightSurfaceColor    string `json:"light_surface_color,omitempty" bson:"light_surface_color,omitempty"`
	LightTextColor       string `json:"light_text_color,omitempty" bson:"light_text_color,omitempty"`
	LightMutedTextColor  string `json:"light_muted_text_color,omitempty" bson:"light_muted_text_color,omitempty"`
	LightBorderColor     string `json:"light_border_color,omitempty" bson:"light_border_color,omitempty"`

	DarkBackgroundColor string `json:"dark_background_color,omitempty" bson:"dark_background_color,omitempty"`
	DarkSurfaceColor    string `json:"dark_surface_color,omitempty" bson:"dark_surface_color,omitempty"`
	DarkTextColor       string `json:"dark_text_color,omitempty" bson:"dark_text_color,omitempty"`
	DarkMutedTextColor  string `json:"dark_muted_text_color,omitempty" bson:"dark_muted_text_color,omitempty"`
	DarkBorderColor     string `json:"dark_border_color,omitempty" bson:"dark_border_color,omitempty"`

	SuccessColor string `json:"success_color,omitempty" bson:"success_color,omitempty"`
	WarningColor string `json:"warning_color,omitempty" bson:"warning_color,omitempty"`
	ErrorColor   string `json:"error_color,omitempty" bson:"error_color,omitempty"`
	InfoColor    string `json:"info_color,omitempty" bson:"info_color,omitempty"`

	FontFamily        string `json:"font_family,omitempty" bson:"font_family,omitempty"`
	HeadingFontFamily string `json:"heading_font_family,omitempty" bson:"heading_font_family,omitempty"`
	FaviconURL        string `json:"favicon_url,omitempty" bson:"favicon_url,omitempty"`

	UpdatedBy string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// IsEmpty reports whether no styling field is set. An empty license blob is
// treated the same as a missing one.
func (b *BrandingConfig) IsEmpty() bool {
	if b == nil {
		return true
	}
	for _, v := range b.StyleFields() {
		if v != "" {
			return false
		}
	}
	return true
}

// StyleFields returns every styling value in a fixed order.
func (b *BrandingConfig) StyleFields() []string {
	return []string{
		b.PrimaryColor, b.SecondaryColor, b.AccentColor,
		b.AgentSuperAdminColor, b.AgentPartnerColor, b.AgentEmployeeColor, b.CustomerColor,
		b.LightBackgroundColor, b.LightSurfaceColor, b.LightTextColor, b.LightMutedTextColor, b.LightBorderColor,
		b.DarkBackgroundColor, b.DarkSurfaceColor, b.DarkTextColor, b.DarkMutedTextColor, b.DarkBorderColor,
		b.SuccessColor, b.WarningColor, b.ErrorColor, b.InfoColor,
		b.FontFamily, b.HeadingFontFamily, b.FaviconURL,
	}
}

// Clone returns a copy that can be mutated without affecting b.
func (b *BrandingConfig) Clone() *BrandingConfig {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// PartnerLicense is the licensing record of a partner. BrandingConfig is the
// fallback branding source used when no dedicated branding row exists.
type PartnerLicense struct {
	ID             string          `json:"id"`
	PartnerID      string          `json:"partner_id"`
	Tier           string          `json:"tier"`
	Seats          int             `json:"seats"`
	ValidUntil     time.Time       `json:"valid_until"`
	BrandingConfig *BrandingConfig `json:"branding_config,omitempty"`
}

// BrandingSaveResult is returned to the presentation layer by a branding save.
type BrandingSaveResult struct {
	Success bool
	Config  *BrandingConfig
	Err     error
}

// BrandingAuditEntry records a single branding save.
type BrandingAuditEntry struct {
	PartnerID string          `json:"partner_id" bson:"partner_id"`
	SavedBy   string          `json:"saved_by" bson:"saved_by"`
	Config    *BrandingConfig `json:"config" bson:"config"`
	SavedAt   time.Time       `json:"saved_at" bson:"saved_at"`
	Mirrored  bool            `json:"mirrored" bson:"mirrored"`
}
