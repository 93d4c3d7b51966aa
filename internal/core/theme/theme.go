// Package theme turns a partner branding into the console's CSS variables,
// color-scheme class and favicon link.
package theme

import (
	"fmt"
	"strings"
	"sync"

	"github.com/partnerdesk/console/internal/core/domain"
)

// Mode is the console color scheme.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

// ParseMode accepts "light" or "dark" in any case.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLight:
		return ModeLight, true
	case ModeDark:
		return ModeDark, true
	}
	return "", false
}

// Var is one resolved CSS custom property.
type Var struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FaviconLink is the console's <link rel="icon"> element.
type FaviconLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// Snapshot is a copy of the store's state.
type Snapshot struct {
	Mode      Mode         `json:"mode"`
	Class     string       `json:"class"`
	PartnerID string       `json:"partner_id,omitempty"`
	Vars      []Var        `json:"vars"`
	Favicon   *FaviconLink `json:"favicon,omitempty"`
	Version   uint64       `json:"version"`
}

// Value returns the value of the named variable.
func (s Snapshot) Value(name string) (string, bool) {
	for _, v := range s.Vars {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// Store holds the applied theme of one console. It is safe for concurrent
// use; concurrent writers are last-wins.
type Store struct {
	mu      sync.RWMutex
	cfg     *domain.BrandingConfig
	mode    Mode
	vars    []Var
	favicon *FaviconLink
	version uint64
}

// NewStore returns a store with every variable at its default.
func NewStore(mode Mode) *Store {
	if _, ok := ParseMode(string(mode)); !ok {
		mode = ModeLight
	}
	return &Store{mode: mode, vars: resolve(nil, mode)}
}

// Apply resolves cfg for mode and writes the result. Applying the inputs that
// are already in place changes nothing; the return value reports whether the
// store changed.
func (s *Store) Apply(cfg *domain.BrandingConfig, mode Mode) bool {
	if m, ok := ParseMode(string(mode)); ok {
		mode = m
	} else {
		mode = ModeLight
	}
	cfg = cfg.Clone()
	vars := resolve(cfg, mode)

	s.mu.Lock()
	defer s.mu.Unlock()

	favicon := s.favicon
	if cfg != nil {
		if href := clean(cfg.FaviconURL); href != "" {
			if favicon == nil || favicon.Href != href {
				favicon = &FaviconLink{Rel: "icon", Href: href}
			}
		}
	}

	if mode == s.mode && favicon == s.favicon && varsEqual(vars, s.vars) {
		s.cfg = cfg
		return false
	}
	s.cfg = cfg
	s.mode = mode
	s.vars = vars
	s.favicon = favicon
	s.version++
	return true
}

// SetMode re-resolves the current branding for mode.
func (s *Store) SetMode(mode Mode) bool {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()
	return s.Apply(cfg, mode)
}

// Mode returns the current color scheme.
func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Mode:    s.mode,
		Class:   string(s.mode),
		Vars:    append([]Var(nil), s.vars...),
		Version: s.version,
	}
	if s.cfg != nil {
		snap.PartnerID = s.cfg.PartnerID
	}
	if s.favicon != nil {
		f := *s.favicon
		snap.Favicon = &f
	}
	return snap
}

// Favicon returns the favicon link once one has been created.
func (s *Store) Favicon() (FaviconLink, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.favicon == nil {
		return FaviconLink{}, false
	}
	return *s.favicon, true
}

// CSS renders the variables as a stylesheet scoped to the mode class.
func (s *Store) CSS() string {
	snap := s.Snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, ":root.%s {\n", snap.Class)
	fmt.Fprintf(&b, "  color-scheme: %s;\n", snap.Mode)
	for _, v := range snap.Vars {
		fmt.Fprintf(&b, "  %s: %s;\n", v.Name, v.Value)
	}
	b.WriteString("}\n")
	return b.String()
}

func varsEqual(a, b []Var) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
