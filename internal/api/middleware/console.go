package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/partnerdesk/console/internal/core/service"
	"github.com/partnerdesk/console/internal/infrastructure/session"
)

// DefaultCookieName is the cookie carrying a browser's console id.
const DefaultCookieName = "console_session"

// ConsoleRegistry is the subset of the session registry the middleware needs.
type ConsoleRegistry interface {
	GetOrCreate(id string) (*service.Console, bool)
	Ensure(ctx context.Context, id string, adopt func(*service.Console) error) (*service.Console, error)
}

type ConsoleOptions struct {
	CookieName   string
	CookieSecure bool
	// IdleTTL sets the cookie lifetime; it should match the registry's.
	IdleTTL time.Duration
	// ReadyWait bounds how long a request waits for the initial session load.
	ReadyWait time.Duration
}

// Console attaches the caller's console to the request under "console".
//
// A "Authorization: Bearer <token>" header selects a console keyed by the
// token digest; the token is adopted when that console is first created, and
// concurrent first requests with the same token wait for that adoption.
// Without the header the console id travels in a cookie. Unknown or missing
// ids get a fresh console and a new cookie.
func Console(reg ConsoleRegistry, opts ConsoleOptions) echo.MiddlewareFunc {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}
	if opts.ReadyWait <= 0 {
		opts.ReadyWait = 2 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var (
				con *service.Console
				err error
			)
			if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
				con, err = bearerConsole(c, reg, header)
			} else {
				con = cookieConsole(c, reg, opts)
			}
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), opts.ReadyWait)
			con.Session.Init(ctx)
			cancel()

			c.Set("console", con)
			return next(c)
		}
	}
}

func bearerConsole(c echo.Context, reg ConsoleRegistry, header string) (*service.Console, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
	}

	sum := sha256.Sum256([]byte(token))
	id := "bearer:" + hex.EncodeToString(sum[:])

	ctx := c.Request().Context()
	con, err := reg.Ensure(ctx, id, func(con *service.Console) error {
		_, err := con.Auth.RestoreSession(ctx, token)
		return err
	})
	switch {
	case err == nil:
		return con, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, session.ErrClosed):
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "shutting down")
	default:
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}
}

func cookieConsole(c echo.Context, reg ConsoleRegistry, opts ConsoleOptions) *service.Console {
	var id string
	if ck, err := c.Cookie(opts.CookieName); err == nil {
		id = ck.Value
	}
	con, _ := reg.GetOrCreate(id)

	// re-issued on every request so the cookie slides with the idle TTL
	c.SetCookie(&http.Cookie{
		Name:     opts.CookieName,
		Value:    con.ID,
		Path:     "/",
		MaxAge:   int(opts.IdleTTL / time.Second),
		HttpOnly: true,
		Secure:   opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return con
}
