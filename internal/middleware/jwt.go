package middleware // middleware contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/equipnfc/equipment-manager/internal/model"
	"github.com/equipnfc/equipment-manager/internal/repository"
	"github.com/equipnfc/equipment-manager/internal/utils"
)

// UserLoader fetches the user referenced by a token so the middleware
// can confirm the account still exists and is active on every request.
// *repository.UserRepo satisfies it.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access
// token, re-fetches the owning user and rejects deactivated accounts,
// then injects the user's id, email and role into the request context
// under "user_id", "email" and "role". Deactivating an account
// therefore invalidates all of its outstanding tokens on their next
// use, without a revocation list.
//
// Failure mapping: a missing header, a malformed/badly-signed token
// and an expired token all answer 401; expiry gets its own message so
// clients can prompt for re-login instead of treating it as tampering.
func JWTAuth(secret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "auth lookup failed"})
			}
			if !u.IsActive {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account disabled"})
			}

			c.Set("user_id", u.ID)
			c.Set("email", u.Email)
			c.Set("role", u.Role)
			return next(c)
		}
	}
}

// CurrentUserID returns the authenticated user's id stored by JWTAuth,
// or 0 when the request is unauthenticated.
func CurrentUserID(c echo.Context) uint64 {
	if v, ok := c.Get("user_id").(uint64); ok {
		return v
	}
	return 0
}
