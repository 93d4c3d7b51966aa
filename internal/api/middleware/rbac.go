package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/service"
)

// RequireSignedIn rejects requests whose console has no identity. It must run
// after Console.
func RequireSignedIn() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			con, _ := c.Get("console").(*service.Console)
			if con == nil || !con.Session.Snapshot().SignedIn() {
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}
			return next(c)
		}
	}
}

// RequireTier enforces tier-based access control. The identity must be
// classified; a console still loading gets 503 so the client retries.
func RequireTier(allowedTiers ...domain.Tier) echo.MiddlewareFunc {
	allowed := make(map[domain.Tier]struct{}, len(allowedTiers))
	for _, t := range allowedTiers {
		allowed[t] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			con, _ := c.Get("console").(*service.Console)
			if con == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}
			auth := con.Session.Snapshot()
			switch {
			case !auth.SignedIn():
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			case !auth.Classified:
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session still loading")
			}
			if _, ok := allowed[auth.Tier]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
