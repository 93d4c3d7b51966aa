package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/partnerdesk/console/internal/core/service"
	"github.com/partnerdesk/console/internal/pkg/metrics"
)

type guardResponse struct {
	State   service.GuardState `json:"state"`
	Message string             `json:"message,omitempty"`
	Actions []string           `json:"actions,omitempty"`
}

// RouteGuard gates console screens on the session state. It must run after
// Console.
//
//   - loading           → 202 with Retry-After, nothing is decided yet
//   - session / profile → 503 error screen with retry and re-login actions
//   - redirect          → 302 to the tier's landing path or /login
//   - otherwise         → next handler
func RouteGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			con, _ := c.Get("console").(*service.Console)
			if con == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing console session")
			}

			d := service.DecideRoute(service.GuardInput{
				Path: c.Request().URL.Path,
				Auth: con.Session.Snapshot(),
			})

			switch {
			case d.Redirect != "":
				metrics.GuardDecisionsTotal.WithLabelValues("redirect").Inc()
				return c.Redirect(http.StatusFound, d.Redirect)
			case d.State == service.GuardLoading:
				metrics.GuardDecisionsTotal.WithLabelValues(string(d.State)).Inc()
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusAccepted, guardResponse{State: d.State})
			case d.State == service.GuardSessionError, d.State == service.GuardProfileError:
				metrics.GuardDecisionsTotal.WithLabelValues(string(d.State)).Inc()
				return c.JSON(http.StatusServiceUnavailable, guardResponse{
					State:   d.State,
					Message: d.Message,
					Actions: d.Actions,
				})
			case d.State == service.GuardUnauthenticated:
				metrics.GuardDecisionsTotal.WithLabelValues(string(d.State)).Inc()
			default:
				metrics.GuardDecisionsTotal.WithLabelValues("allow").Inc()
			}
			return next(c)
		}
	}
}
