package theme

import "github.com/partnerdesk/console/internal/core/domain"

// Variable names, in render order.
const (
	VarPrimary             = "--color-primary"
	VarPrimaryHover        = "--color-primary-hover"
	VarPrimaryForeground   = "--color-primary-foreground"
	VarSecondary           = "--color-secondary"
	VarSecondaryForeground = "--color-secondary-foreground"
	VarAccent              = "--color-accent"
	VarAgentSuperAdmin     = "--color-agent-super-admin"
	VarAgentPartner        = "--color-agent-partner"
	VarAgentEmployee       = "--color-agent-employee"
	VarCustomer            = "--color-customer"
	VarBackground          = "--color-background"
	VarSurface             = "--color-surface"
	VarText                = "--color-text"
	VarTextMuted           = "--color-text-muted"
	VarBorder              = "--color-border"
	VarSuccess             = "--color-success"
	VarWarning             = "--color-warning"
	VarError               = "--color-error"
	VarInfo                = "--color-info"
	VarFontFamily          = "--font-family"
	VarFontFamilyHeading   = "--font-family-heading"
)

// resolution is the partially resolved variable set handed to computed
// defaults. Only earlier variables are present.
type resolution struct {
	values   map[string]string
	explicit map[string]bool
}

func (r resolution) fromExplicit(name string) (string, bool) {
	if !r.explicit[name] {
		return "", false
	}
	return r.values[name], true
}

type varDef struct {
	name     string
	field    func(cfg *domain.BrandingConfig, mode Mode) string
	computed func(r resolution, mode Mode) (string, bool)
	light    string
	dark     string
}

func same(f func(*domain.BrandingConfig) string) func(*domain.BrandingConfig, Mode) string {
	return func(cfg *domain.BrandingConfig, _ Mode) string { return f(cfg) }
}

func perMode(light, dark func(*domain.BrandingConfig) string) func(*domain.BrandingConfig, Mode) string {
	return func(cfg *domain.BrandingConfig, mode Mode) string {
		if mode == ModeDark {
			return dark(cfg)
		}
		return light(cfg)
	}
}

func contrastOf(name string) func(resolution, Mode) (string, bool) {
	return func(r resolution, _ Mode) (string, bool) {
		v, ok := r.fromExplicit(name)
		if !ok {
			return "", false
		}
		return contrast(v)
	}
}

func shiftOf(name string, amount float64) func(resolution, Mode) (string, bool) {
	return func(r resolution, mode Mode) (string, bool) {
		v, ok := r.fromExplicit(name)
		if !ok {
			return "", false
		}
		return shift(v, mode, amount)
	}
}

var defs = []varDef{
	{name: VarPrimary, field: same(func(c *domain.BrandingConfig) string { return c.PrimaryColor }),
		light: "#2563eb", dark: "#3b82f6"},
	{name: VarPrimaryHover, computed: shiftOf(VarPrimary, 0.08),
		light: "#1d4ed8", dark: "#60a5fa"},
	{name: VarPrimaryForeground, computed: contrastOf(VarPrimary),
		light: "#ffffff", dark: "#ffffff"},
	{name: VarSecondary, field: same(func(c *domain.BrandingConfig) string { return c.SecondaryColor }),
		light: "#64748b", dark: "#94a3b8"},
	{name: VarSecondaryForeground, computed: contrastOf(VarSecondary),
		light: "#ffffff", dark: "#0f172a"},
	{name: VarAccent, field: same(func(c *domain.BrandingConfig) string { return c.AccentColor }),
		light: "#f59e0b", dark: "#fbbf24"},
	{name: VarAgentSuperAdmin, field: same(func(c *domain.BrandingConfig) string { return c.AgentSuperAdminColor }),
		light: "#7c3aed", dark: "#a78bfa"},
	{name: VarAgentPartner, field: same(func(c *domain.BrandingConfig) string { return c.AgentPartnerColor }),
		light: "#2563eb", dark: "#60a5fa"},
	{name: VarAgentEmployee, field: same(func(c *domain.BrandingConfig) string { return c.AgentEmployeeColor }),
		light: "#0d9488", dark: "#2dd4bf"},
	{name: VarCustomer, field: same(func(c *domain.BrandingConfig) string { return c.CustomerColor }),
		light: "#64748b", dark: "#94a3b8"},
	{name: VarBackground,
		field: perMode(
			func(c *domain.BrandingConfig) string { return c.LightBackgroundColor },
			func(c *domain.BrandingConfig) string { return c.DarkBackgroundColor }),
		light: "#ffffff", dark: "#0f172a"},
	{name: VarSurface,
		field: perMode(
			func(c *domain.BrandingConfig) string { return c.LightSurfaceColor },
			func(c *domain.BrandingConfig) string { return c.DarkSurfaceColor }),
		computed: shiftOf(VarBackground, 0.03),
		light:    "#f8fafc", dark: "#1e293b"},
	{name: VarText,
		field: perMode(
			func(c *domain.BrandingConfig) string { return c.LightTextColor },
			func(c *domain.BrandingConfig) string { return c.DarkTextColor }),
		computed: contrastOf(VarBackground),
		light:    "#0f172a", dark: "#f8fafc"},
	{name: VarTextMuted,
		field: perMode(
			func(c *domain.BrandingConfig) string { return c.LightMutedTextColor },
			func(c *domain.BrandingConfig) string { return c.DarkMutedTextColor }),
		computed: func(r resolution, _ Mode) (string, bool) {
			if !r.explicit[VarText] && !r.explicit[VarBackground] {
				return "", false
			}
			return blend(r.values[VarText], r.values[VarBackground], 0.4)
		},
		light: "#64748b", dark: "#94a3b8"},
	{name: VarBorder,
		field: perMode(
			func(c *domain.BrandingConfig) string { return c.LightBorderColor },
			func(c *domain.BrandingConfig) string { return c.DarkBorderColor }),
		computed: shiftOf(VarBackground, 0.1),
		light:    "#e2e8f0", dark: "#334155"},
	{name: VarSuccess, field: same(func(c *domain.BrandingConfig) string { return c.SuccessColor }),
		light: "#16a34a", dark: "#4ade80"},
	{name: VarWarning, field: same(func(c *domain.BrandingConfig) string { return c.WarningColor }),
		light: "#d97706", dark: "#fbbf24"},
	{name: VarError, field: same(func(c *domain.BrandingConfig) string { return c.ErrorColor }),
		light: "#dc2626", dark: "#f87171"},
	{name: VarInfo, field: same(func(c *domain.BrandingConfig) string { return c.InfoColor }),
		light: "#0284c7", dark: "#38bdf8"},
	{name: VarFontFamily, field: same(func(c *domain.BrandingConfig) string { return c.FontFamily }),
		light: "Inter, system-ui, sans-serif", dark: "Inter, system-ui, sans-serif"},
	{name: VarFontFamilyHeading, field: same(func(c *domain.BrandingConfig) string { return c.HeadingFontFamily }),
		computed: func(r resolution, _ Mode) (string, bool) { return r.fromExplicit(VarFontFamily) },
		light:    "Inter, system-ui, sans-serif", dark: "Inter, system-ui, sans-serif"},
}

// Names returns every variable name in render order.
func Names() []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.name
	}
	return out
}

// resolve computes the full variable set for cfg in mode. A nil cfg yields
// the defaults.
func resolve(cfg *domain.BrandingConfig, mode Mode) []Var {
	r := resolution{
		values:   make(map[string]string, len(defs)),
		explicit: make(map[string]bool, len(defs)),
	}
	out := make([]Var, 0, len(defs))
	for _, d := range defs {
		value := ""
		if cfg != nil && d.field != nil {
			value = clean(d.field(cfg, mode))
			r.explicit[d.name] = value != ""
		}
		if value == "" && d.computed != nil {
			if v, ok := d.computed(r, mode); ok {
				value = clean(v)
			}
		}
		if value == "" {
			value = d.light
			if mode == ModeDark {
				value = d.dark
			}
		}
		r.values[d.name] = value
		out = append(out, Var{Name: d.name, Value: value})
	}
	return out
}
