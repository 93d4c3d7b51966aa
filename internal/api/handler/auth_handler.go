package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
)

type AuthHandler struct {
	signup ports.SignupService
	log    zerolog.Logger
}

func NewAuthHandler(signup ports.SignupService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{signup: signup, log: log}
}

// Signup creates a partner account and signs it in on the current console.
//
// @Summary      Register a partner
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Partner registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	con, err := ctxConsole(c)
	if err != nil {
		return err
	}

	sess, err := h.signup.RegisterPartner(c.Request().Context(), con.Auth, domain.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{
		Session: toSessionResponse(sess),
		Me:      toMeResponse(con.Session.Snapshot()),
	})
}

// Login signs the current console in with email and password.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	con, err := ctxConsole(c)
	if err != nil {
		return err
	}

	sess, err := con.Auth.SignInWithPassword(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Session: toSessionResponse(sess),
		Me:      toMeResponse(con.Session.Snapshot()),
	})
}

// Logout ends the session. The console is signed out locally even when the
// backend reports an error.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	con, err := ctxConsole(c)
	if err != nil {
		return err
	}
	if err := con.Session.SignOut(c.Request().Context()); err != nil {
		h.log.Warn().Err(err).Str("console_id", con.ID).Msg("sign out reported an error, local session cleared")
	}
	return c.NoContent(http.StatusNoContent)
}

// Refresh exchanges the refresh token for a new session.
//
// @Summary      Refresh the session
// @Tags         auth
// @Produce      json
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	con, err := ctxConsole(c)
	if err != nil {
		return err
	}
	sess, err := con.Auth.RefreshSession(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{
		Session: toSessionResponse(sess),
		Me:      toMeResponse(con.Session.Snapshot()),
	})
}

// Me returns the current authentication state without triggering a load.
//
// @Summary      Current authentication
// @Tags         auth
// @Produce      json
// @Success      200   {object}  meResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	con, err := ctxConsole(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMeResponse(con.Session.Snapshot()))
}

// Check re-runs session resolution, e.g. from the retry action of an error
// screen.
//
// @Summary      Re-check the session
// @Tags         auth
// @Produce      json
// @Success      200   {object}  meResponse
// @Router       /auth/check [post]
func (h *AuthHandler) Check(c echo.Context) error {
	con, err := ctxConsole(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMeResponse(con.Session.CheckUser(c.Request().Context())))
}

// UpdateUser changes the signed-in identity's email or password.
//
// @Summary      Update the signed-in user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  meResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/user [patch]
func (h *AuthHandler) UpdateUser(c echo.Context) error {
	var req updateUserRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	if req.Email == "" && req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}
	con, _, err := ctxCaller(c)
	if err != nil {
		return err
	}
	if _, err := con.Auth.UpdateUser(c.Request().Context(), domain.UserUpdate{
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMeResponse(con.Session.Snapshot()))
}
