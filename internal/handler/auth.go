package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/equipnfc/equipment-manager/internal/middleware"
	"github.com/equipnfc/equipment-manager/internal/service"
)

// AuthHandler bundles dependencies for auth and profile endpoints.
type AuthHandler struct {
	Auth  *service.AuthService
	Reset *service.PasswordResetService
}

func NewAuthHandler(auth *service.AuthService, reset *service.PasswordResetService) *AuthHandler {
	return &AuthHandler{Auth: auth, Reset: reset}
}

// ----- DTOs -----

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"` // USER | ADMIN, defaults to USER
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type updateProfileReq struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
type forgotPasswordReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// Register creates an account and returns a token immediately so the
// client can skip a separate login round trip.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return failDetail(c, http.StatusBadRequest, "invalid body", err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	res, err := h.Auth.Register(ctx, req.Email, req.Password, req.FirstName, req.LastName, req.Role)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusCreated, "account created", res)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return failDetail(c, http.StatusBadRequest, "invalid body", err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "logged in", res)
}

// Logout is a client-side operation with stateless tokens; the server
// just acknowledges so clients have a uniform call to drop credentials.
func (h *AuthHandler) Logout(c echo.Context) error {
	return ok(c, http.StatusOK, "logged out", nil)
}

// Me returns the authenticated user's profile with activity counters.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Auth.Profile(ctx, middleware.CurrentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "profile", p)
}

// UpdateMe patches the profile fields present in the body; omitted
// fields keep their value.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return failDetail(c, http.StatusBadRequest, "invalid body", err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Auth.UpdateProfile(ctx, middleware.CurrentUserID(c), req.FirstName, req.LastName, req.Email)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "profile updated", p)
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return failDetail(c, http.StatusBadRequest, "invalid body", err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Auth.ChangePassword(ctx, middleware.CurrentUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "password changed", nil)
}

// ForgotPassword always answers 200 so the endpoint cannot be used to
// probe which emails have accounts.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil {
		return failDetail(c, http.StatusBadRequest, "invalid body", err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Reset.RequestReset(ctx, req.Email); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "if the email exists, a reset link has been sent", nil)
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return failDetail(c, http.StatusBadRequest, "invalid body", err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Reset.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "password reset", nil)
}
