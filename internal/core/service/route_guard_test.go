package service

import (
	"errors"
	"testing"

	"github.com/partnerdesk/console/internal/core/domain"
)

func classified(tier domain.Tier) AuthState {
	return AuthState{
		User:         &domain.Identity{ID: "u1", Email: "u1@acme.io"},
		Profile:      &domain.Profile{ID: "u1"},
		Tier:         tier,
		Classified:   true,
		IsSuperAdmin: tier == domain.TierSuperAdmin,
	}
}

func TestDecideRoute_Table(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		auth     AuthState
		state    GuardState
		redirect string
	}{
		// scenarios from the redirect table
		{"end-user on admin dashboard", "/admin-dashboard", classified(domain.TierEndUser), GuardAuthorized, "/"},
		{"partner on tasks", "/tasks", classified(domain.TierPartnerAdmin), GuardAuthorized, ""},
		{"super-admin on root", "/", classified(domain.TierSuperAdmin), GuardAuthorized, "/super-admin"},
		{"loading beats everything", "/admin-dashboard", AuthState{Loading: true, User: &domain.Identity{ID: "u1"}, Classified: true, Tier: domain.TierEndUser}, GuardLoading, ""},
		{"profile error after session", "/", AuthState{User: &domain.Identity{ID: "u1"}, ProfileError: errors.New("boom")}, GuardProfileError, ""},

		{"session error", "/", AuthState{Error: &domain.TimeoutError{Op: "auth service"}}, GuardSessionError, ""},
		{"signed out", "/chat", AuthState{}, GuardUnauthenticated, "/login"},
		{"signed out on login", "/login", AuthState{}, GuardUnauthenticated, ""},
		{"classification pending", "/admin-dashboard", AuthState{User: &domain.Identity{ID: "u1"}}, GuardLoading, ""},

		{"super-admin within area", "/super-admin/partners", classified(domain.TierSuperAdmin), GuardAuthorized, ""},
		{"super-admin on admin dashboard", "/admin-dashboard", classified(domain.TierSuperAdmin), GuardAuthorized, "/super-admin"},

		{"partner on root", "/", classified(domain.TierPartnerAdmin), GuardAuthorized, ""},
		{"partner on admin sub-page", "/admin/users/42", classified(domain.TierPartnerAdmin), GuardAuthorized, ""},
		{"partner on dashboard", "/admin-dashboard/licenses", classified(domain.TierPartnerAdmin), GuardAuthorized, ""},
		{"partner on deprecated alias", "/partner-dashboard", classified(domain.TierPartnerAdmin), GuardAuthorized, "/admin-dashboard"},
		{"partner on super-admin", "/super-admin", classified(domain.TierPartnerAdmin), GuardAuthorized, "/admin-dashboard"},
		{"partner on unknown", "/reports", classified(domain.TierPartnerAdmin), GuardAuthorized, "/admin-dashboard"},
		{"partner prefix lookalike", "/chatroom", classified(domain.TierPartnerAdmin), GuardAuthorized, "/admin-dashboard"},

		{"end-user on chat", "/chat", classified(domain.TierEndUser), GuardAuthorized, ""},
		{"end-user on admin page", "/admin/users", classified(domain.TierEndUser), GuardAuthorized, "/"},
		{"end-user on super-admin", "/super-admin/x", classified(domain.TierEndUser), GuardAuthorized, "/"},
		{"end-user on old dashboard", "/employee-dashboard", classified(domain.TierEndUser), GuardAuthorized, "/"},
		{"end-user on dirty path", "//admin-dashboard/../admin-dashboard/", classified(domain.TierEndUser), GuardAuthorized, "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DecideRoute(GuardInput{Path: tt.path, Auth: tt.auth})
			if d.State != tt.state {
				t.Errorf("state = %s, want %s", d.State, tt.state)
			}
			if d.Redirect != tt.redirect {
				t.Errorf("redirect = %q, want %q", d.Redirect, tt.redirect)
			}
		})
	}
}

func TestDecideRoute_ErrorScreensOfferActions(t *testing.T) {
	d := DecideRoute(GuardInput{Path: "/", Auth: AuthState{User: &domain.Identity{ID: "u1"}, ProfileError: &domain.TimeoutError{Op: "profile service"}}})
	if len(d.Actions) != 2 || d.Actions[0] != ActionRetry || d.Actions[1] != ActionRelogin {
		t.Fatalf("unexpected actions %v", d.Actions)
	}
	if d.Message == "" || d.Allowed() {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestDecideRoute_StoredFlagWins(t *testing.T) {
	s := classified(domain.TierEndUser)
	s.IsSuperAdmin = true
	d := DecideRoute(GuardInput{Path: "/", Auth: s})
	if d.Tier != domain.TierSuperAdmin || d.Redirect != PathSuperAdmin {
		t.Fatalf("expected super-admin redirect, got %+v", d)
	}
}

func TestHomeFor(t *testing.T) {
	if HomeFor(domain.TierSuperAdmin) != "/super-admin" || HomeFor(domain.TierPartnerAdmin) != "/admin-dashboard" || HomeFor(domain.TierEndUser) != "/" {
		t.Fatal("unexpected home paths")
	}
}
