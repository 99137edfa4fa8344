package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/lexhire/lexhire/pkg/auth"
	"github.com/lexhire/lexhire/pkg/models"
)

// JWTMiddleware creates a JWT authentication middleware. The bearer
// token is validated, the account is loaded, and soft-deleted accounts
// are rejected. The loaded user is stored in the Echo context under
// "user" together with "user_id" and "user_email".
func JWTMiddleware(secret string, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "missing_token",
					Message: "Authorization header is required",
				})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token_format",
					Message: "Authorization header must be 'Bearer {token}'",
				})
			}

			claims, err := auth.ValidateJWT(parts[1], secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token",
					Message: err.Error(),
				})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			// Soft-deleted accounts are excluded by the default scope.
			var user models.User
			if err := db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
						Error:   "user_not_found",
						Message: "User account not found",
					})
				}
				return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
					Error:   "internal_error",
					Message: "Failed to load user account",
				})
			}

			c.Set("user", &user)
			c.Set("user_id", user.ID)
			c.Set("user_email", user.Email)

			return next(c)
		}
	}
}

// UserFromContext returns the authenticated user set by JWTMiddleware.
func UserFromContext(c echo.Context) (*models.User, bool) {
	user, ok := c.Get("user").(*models.User)
	return user, ok
}
