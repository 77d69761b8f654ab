package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenmiles/rewards-api/internal/core/ports"
)

// UserHandler serves the acting user's snapshot and account creation.
type UserHandler struct {
	accounting ports.AccountingService
	users      ports.UserService
}

func NewUserHandler(accounting ports.AccountingService, users ports.UserService) *UserHandler {
	return &UserHandler{accounting: accounting, users: users}
}

// Current handles GET /api/user.
//
// @Summary      Current user snapshot
// @Tags         users
// @Produce      json
// @Success      200  {object}  ports.UserSnapshot
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/user [get]
func (h *UserHandler) Current(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	snapshot, err := h.accounting.ComputeUserSnapshot(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshot)
}

// Create handles POST /api/users.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "Account details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.users.SignUp(c.Request().Context(), ports.SignUpInput{
		Username:       req.Username,
		Password:       req.Password,
		Email:          req.Email,
		ProfilePicture: req.ProfilePicture,
		GoogleID:       req.GoogleID,
		Role:           req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// GoogleLogin handles POST /api/auth/google. The identity is trusted as sent;
// there is no token verification.
//
// @Summary      Simulated Google login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      googleLoginRequest  true  "Google profile"
// @Success      200   {object}  googleLoginResponse
// @Success      201   {object}  googleLoginResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/auth/google [post]
func (h *UserHandler) GoogleLogin(c echo.Context) error {
	var req googleLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.users.GoogleLogin(c.Request().Context(), ports.GoogleProfile{
		Username:       req.Username,
		Email:          req.Email,
		ProfilePicture: req.ProfilePicture,
		GoogleID:       req.GoogleID,
	})
	if err != nil {
		return err
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	return c.JSON(status, googleLoginResponse{Success: true, User: res.Snapshot})
}
