package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/service"
)

func capture(got **service.Console) echo.HandlerFunc {
	return func(c echo.Context) error {
		*got, _ = c.Get("console").(*service.Console)
		return c.NoContent(http.StatusOK)
	}
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == DefaultCookieName {
			return ck
		}
	}
	t.Fatalf("expected %s cookie", DefaultCookieName)
	return nil
}

// ─── Cookie consoles ──────────────────────────────────────────────────────────

func TestConsole_IssuesCookieForNewBrowser(t *testing.T) {
	env, _ := seededEnv(t)
	mw := Console(env.Registry, ConsoleOptions{ReadyWait: time.Second})

	_, c, rec := newContext(http.MethodGet, "/")
	var got *service.Console
	if err := mw(capture(&got))(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if got == nil {
		t.Fatalf("console not attached")
	}
	ck := sessionCookie(t, rec)
	if ck.Value != got.ID {
		t.Fatalf("cookie %q does not name console %q", ck.Value, got.ID)
	}
	if !ck.HttpOnly || ck.SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie attributes: %+v", ck)
	}
	if got.Session.Snapshot().Loading {
		t.Fatalf("expected initial load to have finished")
	}
}

func TestConsole_ReusesConsoleFromCookie(t *testing.T) {
	env, _ := seededEnv(t)
	mw := Console(env.Registry, ConsoleOptions{ReadyWait: time.Second})

	_, c1, rec1 := newContext(http.MethodGet, "/")
	var first *service.Console
	if err := mw(capture(&first))(c1); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	_, c2, _ := newContext(http.MethodGet, "/chat")
	c2.Request().AddCookie(sessionCookie(t, rec1))
	var second *service.Console
	if err := mw(capture(&second))(c2); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if first != second {
		t.Fatalf("expected the same console for the same cookie")
	}
}

func TestConsole_UnknownCookieGetsFreshID(t *testing.T) {
	env, _ := seededEnv(t)
	mw := Console(env.Registry, ConsoleOptions{ReadyWait: time.Second})

	_, c, rec := newContext(http.MethodGet, "/")
	c.Request().AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "attacker-chosen"})
	var got *service.Console
	if err := mw(capture(&got))(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if got.ID == "attacker-chosen" {
		t.Fatalf("client-supplied id must not be adopted")
	}
	if sessionCookie(t, rec).Value != got.ID {
		t.Fatalf("cookie not replaced")
	}
}

// ─── Bearer consoles ──────────────────────────────────────────────────────────

func TestConsole_BearerTokenSignsIn(t *testing.T) {
	env, tokens := seededEnv(t)
	mw := Console(env.Registry, ConsoleOptions{ReadyWait: time.Second})

	var consoles []*service.Console
	for i := 0; i < 2; i++ {
		_, c, rec := newContext(http.MethodGet, "/auth/me")
		c.Request().Header.Set("Authorization", "Bearer "+tokens[domain.TierPartnerAdmin])
		var got *service.Console
		if err := mw(capture(&got))(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Fatalf("bearer requests must not receive a cookie")
		}
		consoles = append(consoles, got)
	}

	if consoles[0] != consoles[1] {
		t.Fatalf("expected one console per token")
	}
	auth := consoles[0].Session.Snapshot()
	if !auth.SignedIn() || auth.User.ID != "p1" || !auth.Classified {
		t.Fatalf("unexpected auth state %+v", auth)
	}
}

func TestConsole_ConcurrentFirstBearerRequestsShareAdoption(t *testing.T) {
	env, tokens := seededEnv(t)
	env.Backend.RestoreDelay = 100 * time.Millisecond
	mw := Console(env.Registry, ConsoleOptions{ReadyWait: time.Second})

	var (
		wg       sync.WaitGroup
		consoles [2]*service.Console
		errs     [2]error
	)
	for i := range consoles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, c, _ := newContext(http.MethodGet, "/")
			c.Request().Header.Set("Authorization", "Bearer "+tokens[domain.TierPartnerAdmin])
			errs[i] = mw(capture(&consoles[i]))(c)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d: handler error: %v", i, err)
		}
	}
	if consoles[0] == nil || consoles[0] != consoles[1] {
		t.Fatalf("expected one shared console, got %p and %p", consoles[0], consoles[1])
	}
	for i, con := range consoles {
		auth := con.Session.Snapshot()
		if !auth.SignedIn() || auth.User.ID != "p1" || !auth.Classified || auth.Tier != domain.TierPartnerAdmin {
			t.Fatalf("request %d saw an unadopted console: %+v", i, auth)
		}
	}
}

func TestConsole_BearerTokenRejected(t *testing.T) {
	env, _ := seededEnv(t)
	mw := Console(env.Registry, ConsoleOptions{ReadyWait: time.Second})

	_, c, _ := newContext(http.MethodGet, "/auth/me")
	c.Request().Header.Set("Authorization", "Bearer forged")
	err := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if env.Registry.Len() != 0 {
		t.Fatalf("rejected token must not keep a console, have %d", env.Registry.Len())
	}
}

func TestConsole_MalformedAuthorizationHeader(t *testing.T) {
	env, _ := seededEnv(t)
	mw := Console(env.Registry, ConsoleOptions{})

	for _, header := range []string{"Token abc", "Bearer", "Bearer   "} {
		_, c, _ := newContext(http.MethodGet, "/")
		c.Request().Header.Set("Authorization", header)
		err := mw(func(c echo.Context) error {
			t.Fatalf("should not reach next for %q", header)
			return nil
		})(c)

		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401, got %v", header, err)
		}
	}
}
