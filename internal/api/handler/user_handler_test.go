package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/partnerdesk/console/internal/core/domain"
)

func TestUserHandler_CreateEndUser(t *testing.T) {
	f := newFixture(t)
	con := f.env.SignedIn(t, f.partner)
	h := NewUserHandler(f.env.Signup)

	c, rec := request(con, http.MethodPost, "/api/end-users",
		`{"email":"agent@acme.io","password":"s3cret-pass","first_name":"Bo"}`)
	if err := h.CreateEndUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var p domain.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if p.Role != domain.RoleEndUser || p.EmployeeID == nil || *p.EmployeeID != "p1" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if con.Session.Snapshot().User.ID != "p1" {
		t.Fatalf("creating an end-user must not change the partner's session")
	}
}

func TestUserHandler_CreateEndUser_EndUserDenied(t *testing.T) {
	f := newFixture(t)
	con := f.env.SignedIn(t, f.endUser)
	h := NewUserHandler(f.env.Signup)

	c, _ := request(con, http.MethodPost, "/api/end-users", `{"email":"x@acme.io","password":"s3cret-pass"}`)
	if err := h.CreateEndUser(c); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestUserHandler_CreateEndUser_UnknownRole(t *testing.T) {
	f := newFixture(t)
	con := f.env.SignedIn(t, f.partner)
	h := NewUserHandler(f.env.Signup)

	c, _ := request(con, http.MethodPost, "/api/end-users", `{"email":"x@acme.io","password":"s3cret-pass","role":"owner"}`)
	if err := h.CreateEndUser(c); httpCode(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
