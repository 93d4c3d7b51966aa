package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/partnerdesk/console/internal/api/apitest"
	"github.com/partnerdesk/console/internal/core/domain"
)

func strPtr(s string) *string { return &s }

// seededEnv has a partner, one of its end-users and a super-admin.
func seededEnv(t *testing.T) (*apitest.Env, map[domain.Tier]string) {
	t.Helper()
	b := apitest.NewBackend()
	tokens := map[domain.Tier]string{
		domain.TierPartnerAdmin: b.AddUser("p1", "p1@acme.io", &domain.Profile{Role: domain.RolePartner}),
		domain.TierEndUser:      b.AddUser("u1", "u1@acme.io", &domain.Profile{Role: domain.RoleEndUser, EmployeeID: strPtr("p1")}),
		domain.TierSuperAdmin:   b.AddUser("s1", "s1@acme.io", &domain.Profile{Role: domain.RoleAdmin, IsSuperAdmin: true}),
	}
	return apitest.NewEnv(t, b), tokens
}

func newContext(method, target string) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e, e.NewContext(req, rec), rec
}

func okHandler(called *bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		*called = true
		return c.NoContent(http.StatusOK)
	}
}
