package handler

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/api/apitest"
	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/service"
)

func strPtr(s string) *string { return &s }

type fixture struct {
	env      *apitest.Env
	partner  string
	endUser  string
	auth     *AuthHandler
	branding *BrandingHandler
}

// newFixture seeds partner p1 with branding and its end-user u1.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := apitest.NewBackend()
	f := &fixture{
		partner: b.AddUser("p1", "p1@acme.io", &domain.Profile{Role: domain.RolePartner}),
		endUser: b.AddUser("u1", "u1@acme.io", &domain.Profile{Role: domain.RoleEndUser, EmployeeID: strPtr("p1")}),
	}
	b.SetBranding(&domain.BrandingConfig{PartnerID: "p1", Active: true, PrimaryColor: "#aa0000"})
	f.env = apitest.NewEnv(t, b)
	f.auth = NewAuthHandler(f.env.Signup, zerolog.Nop())
	f.branding = NewBrandingHandler()
	return f
}

// request builds a context carrying con. body is sent as JSON when not empty.
func request(con *service.Console, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if con != nil {
		c.Set("console", con)
	}
	return c, rec
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}
