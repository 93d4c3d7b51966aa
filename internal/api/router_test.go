package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/api/apitest"
	"github.com/partnerdesk/console/internal/api/middleware"
	"github.com/partnerdesk/console/internal/core/domain"
)

func strPtr(s string) *string { return &s }

type testRouter struct {
	e       *echo.Echo
	backend *apitest.Backend
	partner string
	endUser string
}

func newTestRouter(t *testing.T) testRouter {
	t.Helper()
	b := apitest.NewBackend()
	partner := b.AddUser("p1", "p1@acme.io", &domain.Profile{Role: domain.RolePartner})
	endUser := b.AddUser("u1", "u1@acme.io", &domain.Profile{Role: domain.RoleEndUser, EmployeeID: strPtr("p1")})
	env := apitest.NewEnv(t, b)

	e := NewRouter(Deps{
		Backend:  b,
		Registry: env.Registry,
		Signup:   env.Signup,
		Console:  middleware.ConsoleOptions{ReadyWait: time.Second},
		Metrics:  prometheus.NewRegistry(),
		Log:      zerolog.Nop(),
	})
	return testRouter{e: e, backend: b, partner: partner, endUser: endUser}
}

func (r testRouter) do(method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.e.ServeHTTP(rec, req)
	return rec
}

// ─── Infrastructure routes ────────────────────────────────────────────────────

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t)

	if rec := r.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}
	if rec := r.do(http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("readiness: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter(t)
	r.do(http.MethodGet, "/health", "", "")

	rec := r.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "console_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}
}

func TestRouter_SwaggerDoc(t *testing.T) {
	r := newTestRouter(t)

	rec := r.do(http.MethodGet, "/swagger/doc.json", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/branding") {
		t.Fatalf("expected branding routes in the API document")
	}
}

// ─── Screens ──────────────────────────────────────────────────────────────────

func TestRouter_AnonymousScreenRedirectsToLogin(t *testing.T) {
	r := newTestRouter(t)

	rec := r.do(http.MethodGet, "/admin-dashboard", "", "")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Fatalf("expected a console cookie")
	}
}

func TestRouter_LoginScreenRendersForAnonymous(t *testing.T) {
	r := newTestRouter(t)

	rec := r.do(http.MethodGet, "/login", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_PartnerScreens(t *testing.T) {
	r := newTestRouter(t)

	rec := r.do(http.MethodGet, "/admin-dashboard/users", r.partner, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["tier"] != string(domain.TierPartnerAdmin) {
		t.Fatalf("unexpected descriptor %v", body)
	}

	rec = r.do(http.MethodGet, "/super-admin", r.partner, "")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin-dashboard" {
		t.Fatalf("expected redirect to /admin-dashboard, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRouter_EndUserLeavesDeprecatedDashboard(t *testing.T) {
	r := newTestRouter(t)

	rec := r.do(http.MethodGet, "/partner-dashboard", r.endUser, "")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRouter_ConcurrentFirstBearerRequests(t *testing.T) {
	r := newTestRouter(t)
	r.backend.RestoreDelay = 100 * time.Millisecond

	var (
		wg   sync.WaitGroup
		recs [2]*httptest.ResponseRecorder
	)
	for i := range recs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			recs[i] = r.do(http.MethodGet, "/admin-dashboard", r.partner, "")
		}(i)
	}
	wg.Wait()

	for i, rec := range recs {
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d %q", i, rec.Code, rec.Header().Get("Location"))
		}
	}
}

// ─── API ──────────────────────────────────────────────────────────────────────

func TestRouter_BrandingRequiresSignIn(t *testing.T) {
	r := newTestRouter(t)

	rec := r.do(http.MethodGet, "/api/branding", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Error == "" {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
}

func TestRouter_SuperAdminRoutesForbiddenToPartner(t *testing.T) {
	r := newTestRouter(t)

	rec := r.do(http.MethodGet, "/api/super-admin/sessions", r.partner, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRouter_LoginValidation(t *testing.T) {
	r := newTestRouter(t)

	rec := r.do(http.MethodPost, "/auth/login", "", `{"email":"not-an-email"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRouter_ThemeCSS(t *testing.T) {
	r := newTestRouter(t)

	rec := r.do(http.MethodGet, "/theme.css", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/css") {
		t.Fatalf("unexpected content type %q", ct)
	}
}
