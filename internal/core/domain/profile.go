package domain

import (
	"strings"
	"time"
)

// Role labels stored in profiles.role. The column is free text; these are the
// values the console recognises.
const (
	RolePartner     = "partner"
	RoleAdmin       = "admin"
	RoleMitarbeiter = "mitarbeiter"
	RoleEndUser     = "end-user"
)

// Tier is the access level the console derives from a profile.
type Tier string

const (
	TierSuperAdmin   Tier = "super-admin"
	TierPartnerAdmin Tier = "partner-admin"
	TierEndUser      Tier = "end-user"
)

// SuperAdminEmails is the break-glass allow-list. Addresses listed here are
// super-admins regardless of the stored flag.
var SuperAdminEmails = []string{
	"platform-ops@partnerdesk.io",
	"breakglass@partnerdesk.io",
}

var adminRoleLabels = map[string]struct{}{
	RolePartner:     {},
	RoleAdmin:       {},
	RoleMitarbeiter: {},
}

// Profile is the per-identity row in the profiles table.
//
// EmployeeID is a back-reference: non-nil means this identity is an end-user
// managed by the partner with that id; nil means the identity is itself a
// partner or employee admin.
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	EmployeeID   *string   `json:"employee_id"`
	Role         string    `json:"role"`
	IsSuperAdmin bool      `json:"is_super_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsManaged reports whether the profile belongs to a partner's pool of end-users.
func (p *Profile) IsManaged() bool {
	return p != nil && p.EmployeeID != nil && *p.EmployeeID != ""
}

// IsAdminRoleLabel reports whether role names an admin-tier label.
func IsAdminRoleLabel(role string) bool {
	_, ok := adminRoleLabels[strings.ToLower(strings.TrimSpace(role))]
	return ok
}

// IsKnownRole reports whether role is one of the labels the console assigns.
func IsKnownRole(role string) bool {
	return IsAdminRoleLabel(role) || strings.EqualFold(strings.TrimSpace(role), RoleEndUser)
}

// IsOverrideEmail reports whether email appears in overrides, ignoring case.
func IsOverrideEmail(email string, overrides []string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, o := range overrides {
		if strings.ToLower(strings.TrimSpace(o)) == email {
			return true
		}
	}
	return false
}

// ClassifyRole maps a profile to an access tier. Rules are evaluated top to
// bottom and the first match wins:
//
//  1. stored super-admin flag, or email in overrides  → super-admin
//  2. role is partner / admin / mitarbeiter           → partner-admin
//  3. no employee back-reference                      → partner-admin
//  4. role is end-user, or managed by a partner       → end-user
//  5. no profile at all                               → end-user
//
// This is the only classification routine in the module.
func ClassifyRole(p *Profile, email string, overrides []string) Tier {
	if IsOverrideEmail(email, overrides) {
		return TierSuperAdmin
	}
	if p == nil {
		return TierEndUser
	}
	if p.IsSuperAdmin {
		return TierSuperAdmin
	}
	if IsAdminRoleLabel(p.Role) {
		return TierPartnerAdmin
	}
	if !p.IsManaged() {
		return TierPartnerAdmin
	}
	return TierEndUser
}

// Caller is the resolved identity of whoever invokes a branding operation.
type Caller struct {
	Identity Identity
	Profile  *Profile
}

// EffectivePartnerID is the partner whose branding the caller renders:
// managed end-users see their partner's branding, everyone else their own.
func (c Caller) EffectivePartnerID() string {
	if c.Profile.IsManaged() {
		return *c.Profile.EmployeeID
	}
	return c.Identity.ID
}

// CanManageBranding reports whether the caller may write branding. A missing
// profile never grants write access.
func (c Caller) CanManageBranding() bool {
	return c.Identity.ID != "" && c.Profile != nil && !c.Profile.IsManaged()
}
