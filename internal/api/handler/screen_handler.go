package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/partnerdesk/console/internal/core/service"
)

// ScreenHandler describes the console screen a guarded path renders. The
// screens themselves live in the frontend.
type ScreenHandler struct{}

func NewScreenHandler() *ScreenHandler {
	return &ScreenHandler{}
}

// Describe returns the screen descriptor for the request path.
//
// @Summary      Screen descriptor
// @Tags         screens
// @Produce      json
// @Success      200  {object}  screenResponse
// @Success      202  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /{path} [get]
func (h *ScreenHandler) Describe(c echo.Context) error {
	con, err := ctxConsole(c)
	if err != nil {
		return err
	}
	auth := con.Session.Snapshot()
	snap := con.Theme.Snapshot()

	resp := screenResponse{
		Path:    c.Request().URL.Path,
		Mode:    string(snap.Mode),
		Partner: snap.PartnerID,
		Version: snap.Version,
	}
	if auth.Classified {
		resp.Tier = auth.Tier
		resp.Home = service.HomeFor(auth.Tier)
	}
	return c.JSON(http.StatusOK, resp)
}
