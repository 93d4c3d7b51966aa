package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/partnerdesk/console/internal/infrastructure/session"
)

// SessionStatsProvider reports on the live console sessions.
type SessionStatsProvider interface {
	Stats() session.Stats
}

type SessionHandler struct {
	sessions SessionStatsProvider
}

func NewSessionHandler(sessions SessionStatsProvider) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Stats summarises the console sessions held by this process.
//
// @Summary      Console session statistics
// @Tags         super-admin
// @Produce      json
// @Success      200  {object}  session.Stats
// @Failure      403  {object}  map[string]string
// @Router       /api/super-admin/sessions [get]
func (h *SessionHandler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.Stats())
}
