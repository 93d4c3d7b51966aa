package handler

import (
	"time"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/service"
)

// --- Auth ---

type signupRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateUserRequest struct {
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

type sessionResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// meResponse is the console's view of the current authentication.
type meResponse struct {
	SignedIn     bool             `json:"signed_in"`
	Loading      bool             `json:"loading"`
	User         *domain.Identity `json:"user,omitempty"`
	Profile      *domain.Profile  `json:"profile,omitempty"`
	Tier         domain.Tier      `json:"tier,omitempty"`
	IsSuperAdmin bool             `json:"is_super_admin"`
	Home         string           `json:"home,omitempty"`
	Error        string           `json:"error,omitempty"`
	ProfileError string           `json:"profile_error,omitempty"`
}

type authResponse struct {
	Session *sessionResponse `json:"session,omitempty"`
	Me      meResponse       `json:"me"`
}

func toSessionResponse(s *domain.Session) *sessionResponse {
	if s == nil {
		return nil
	}
	return &sessionResponse{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
	}
}

func toMeResponse(s service.AuthState) meResponse {
	me := meResponse{
		SignedIn:     s.SignedIn(),
		Loading:      s.Loading,
		User:         s.User,
		Profile:      s.Profile,
		IsSuperAdmin: s.IsSuperAdmin,
		Error:        domain.UserMessage(s.Error),
		ProfileError: domain.UserMessage(s.ProfileError),
	}
	if s.Classified {
		me.Tier = s.Tier
		me.Home = service.HomeFor(s.Tier)
	}
	return me
}

// --- Branding ---

// brandingRequest carries every editable branding field. Empty values reset
// the field to the console default.
type brandingRequest struct {
	PrimaryColor   string `json:"primary_color"   validate:"omitempty,iscolor"`
	SecondaryColor string `json:"secondary_color" validate:"omitempty,iscolor"`
	AccentColor    string `json:"accent_color"    validate:"omitempty,iscolor"`

	AgentSuperAdminColor string `json:"agent_super_admin_color" validate:"omitempty,iscolor"`
	AgentPartnerColor    string `json:"agent_partner_color"     validate:"omitempty,iscolor"`
	AgentEmployeeColor   string `json:"agent_employee_color"    validate:"omitempty,iscolor"`
	CustomerColor        string `json:"customer_color"          validate:"omitempty,iscolor"`

	LightBackgroundColor string `json:"light_background_color" validate:"omitempty,iscolor"`
	LightSurfaceColor    string `json:"light_surface_color"    validate:"omitempty,iscolor"`
	LightTextColor       string `json:"light_text_color"       validate:"omitempty,iscolor"`
	LightMutedTextColor  string `json:"light_muted_text_color" validate:"omitempty,iscolor"`
	LightBorderColor     string `json:"light_border_color"     validate:"omitempty,iscolor"`

	DarkBackgroundColor string `json:"dark_background_color" validate:"omitempty,iscolor"`
	DarkSurfaceColor    string `json:"dark_surface_color"    validate:"omitempty,iscolor"`
	DarkTextColor       string `json:"dark_text_color"       validate:"omitempty,iscolor"`
	DarkMutedTextColor  string `json:"dark_muted_text_color" validate:"omitempty,iscolor"`
	DarkBorderColor     string `json:"dark_border_color"     validate:"omitempty,iscolor"`

	SuccessColor string `json:"success_color" validate:"omitempty,iscolor"`
	WarningColor string `json:"warning_color" validate:"omitempty,iscolor"`
	ErrorColor   string `json:"error_color"   validate:"omitempty,iscolor"`
	InfoColor    string `json:"info_color"    validate:"omitempty,iscolor"`

	FontFamily        string `json:"font_family"         validate:"max=200"`
	HeadingFontFamily string `json:"heading_font_family" validate:"max=200"`
	FaviconURL        string `json:"favicon_url"         validate:"omitempty,url,max=2048"`
}

func (r brandingRequest) toDomain() *domain.BrandingConfig {
	return &domain.BrandingConfig{
		PrimaryColor:         r.PrimaryColor,
		SecondaryColor:       r.SecondaryColor,
		AccentColor:          r.AccentColor,
		AgentSuperAdminColor: r.AgentSuperAdminColor,
		AgentPartnerColor:    r.AgentPartnerColor,
		AgentEmployeeColor:   r.AgentEmployeeColor,
		CustomerColor:        r.CustomerColor,
		LightBackgroundColor: r.LightBackgroundColor,
		LightSurfaceColor:    r.LightSurfaceColor,
		LightTextColor:       r.LightTextColor,
		LightMutedTextColor:  r.LightMutedTextColor,
		LightBorderColor:     r.LightBorderColor,
		DarkBackgroundColor:  r.DarkBackgroundColor,
		DarkSurfaceColor:     r.DarkSurfaceColor,
		DarkTextColor:        r.DarkTextColor,
		DarkMutedTextColor:   r.DarkMutedTextColor,
		DarkBorderColor:      r.DarkBorderColor,
		SuccessColor:         r.SuccessColor,
		WarningColor:         r.WarningColor,
		ErrorColor:           r.ErrorColor,
		InfoColor:            r.InfoColor,
		FontFamily:           r.FontFamily,
		HeadingFontFamily:    r.HeadingFontFamily,
		FaviconURL:           r.FaviconURL,
	}
}

type brandingResponse struct {
	PartnerID string                 `json:"partner_id,omitempty"`
	Branding  *domain.BrandingConfig `json:"branding"`
	Loading   bool                   `json:"loading"`
}

type faviconResponse struct {
	URL string `json:"url"`
}

type historyResponse struct {
	Entries []*domain.BrandingAuditEntry `json:"entries"`
}

// --- Theme ---

type themeModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=light dark"`
}

// --- Users ---

type createEndUserRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
	Role      string `json:"role"       validate:"omitempty,oneof=end-user partner admin mitarbeiter"`
}

// --- Screens ---

type screenResponse struct {
	Path    string      `json:"path"`
	Tier    domain.Tier `json:"tier,omitempty"`
	Home    string      `json:"home,omitempty"`
	Mode    string      `json:"mode"`
	Partner string      `json:"partner_id,omitempty"`
	Version uint64      `json:"theme_version"`
}
