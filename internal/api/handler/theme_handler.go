package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/partnerdesk/console/internal/core/theme"
)

type ThemeHandler struct{}

func NewThemeHandler() *ThemeHandler {
	return &ThemeHandler{}
}

// Get returns the console's applied theme.
//
// @Summary      Current theme
// @Tags         theme
// @Produce      json
// @Success      200  {object}  theme.Snapshot
// @Router       /api/theme [get]
func (h *ThemeHandler) Get(c echo.Context) error {
	con, err := ctxConsole(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, con.Theme.Snapshot())
}

// SetMode switches between the light and dark color scheme.
//
// @Summary      Set the color scheme
// @Tags         theme
// @Accept       json
// @Produce      json
// @Param        body  body      themeModeRequest  true  "light or dark"
// @Success      200   {object}  theme.Snapshot
// @Failure      400   {object}  map[string]string
// @Router       /api/theme/mode [put]
func (h *ThemeHandler) SetMode(c echo.Context) error {
	var req themeModeRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	mode, ok := theme.ParseMode(req.Mode)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "mode must be one of: light dark")
	}
	con, err := ctxConsole(c)
	if err != nil {
		return err
	}
	con.Theme.SetMode(mode)
	return c.JSON(http.StatusOK, con.Theme.Snapshot())
}

// CSS renders the theme variables as a stylesheet.
//
// @Summary      Theme stylesheet
// @Tags         theme
// @Produce      text/css
// @Success      200
// @Router       /theme.css [get]
func (h *ThemeHandler) CSS(c echo.Context) error {
	con, err := ctxConsole(c)
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(con.Theme.CSS()))
}
