package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/service"
)

// ctxConsole returns the console attached by the Console middleware. Its
// absence means the route was registered without the middleware.
func ctxConsole(c echo.Context) (*service.Console, error) {
	con, _ := c.Get("console").(*service.Console)
	if con == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing console session")
	}
	return con, nil
}

// ctxCaller additionally requires a signed-in identity.
func ctxCaller(c echo.Context) (*service.Console, domain.Caller, error) {
	con, err := ctxConsole(c)
	if err != nil {
		return nil, domain.Caller{}, err
	}
	caller, ok := con.Caller()
	if !ok {
		return nil, domain.Caller{}, domain.ErrUnauthenticated
	}
	return con, caller, nil
}
