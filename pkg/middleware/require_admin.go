package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lexhire/lexhire/pkg/models"
)

// RequireAdmin ensures the authenticated user has the admin flag.
// This middleware should be applied AFTER JWT authentication middleware.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get("user").(*models.User)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error":   "unauthorized",
					"message": "Authentication required",
				})
			}

			if !user.IsAdmin {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error":   "insufficient_permissions",
					"message": "Admin access required",
				})
			}

			return next(c)
		}
	}
}
