package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
)

type UserHandler struct {
	signup ports.SignupService
}

func NewUserHandler(signup ports.SignupService) *UserHandler {
	return &UserHandler{signup: signup}
}

// CreateEndUser creates an end-user managed by the signed-in partner.
//
// @Summary      Create a managed end-user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createEndUserRequest  true  "End-user details"
// @Success      201   {object}  domain.Profile
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/end-users [post]
func (h *UserHandler) CreateEndUser(c echo.Context) error {
	var req createEndUserRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	_, caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	p, err := h.signup.CreateEndUser(c.Request().Context(), caller, domain.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}
