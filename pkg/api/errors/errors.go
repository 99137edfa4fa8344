package errors

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lexhire/lexhire/pkg/domain"
	"github.com/lexhire/lexhire/pkg/models"
)

// FromDomain maps a service error to the matching JSON response.
// Unknown errors are logged and reported as a generic internal error.
func FromDomain(c echo.Context, err error) error {
	if fields, ok := err.(domain.FieldErrors); ok {
		return c.JSON(http.StatusBadRequest, models.FieldErrorResponse{
			Error:  "validation_error",
			Fields: fields,
		})
	}

	de, ok := err.(*domain.DomainError)
	if !ok {
		return InternalError(c, err)
	}

	switch de.Code {
	case domain.ErrCodeNotFound:
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: de.Message,
		})
	case domain.ErrCodeValidation:
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: de.Message,
		})
	case domain.ErrCodeLimitExceeded:
		return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "limit_exceeded",
			Message: de.Message,
		})
	case domain.ErrCodeCycleDetected:
		return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "cycle_detected",
			Message: de.Message,
		})
	case domain.ErrCodeConflict:
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "conflict",
			Message: de.Message,
		})
	default:
		return InternalError(c, err)
	}
}

// ValidationError returns a generic validation error without exposing internal details
func ValidationError(c echo.Context, err error) error {
	// Log the actual error for debugging
	log.Printf("[VALIDATION ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request data. Please check your input and try again.",
	})
}

// InternalError returns a generic internal server error
func InternalError(c echo.Context, err error) error {
	// Log the actual error for debugging
	log.Printf("[INTERNAL ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred. Please try again later.",
	})
}

// UnauthorizedError returns a generic unauthorized error
func UnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: "You are not authorized to access this resource.",
	})
}

// ForbiddenError returns a generic forbidden error
func ForbiddenError(c echo.Context) error {
	return c.JSON(http.StatusForbidden, models.ErrorResponse{
		Error:   "forbidden",
		Message: "You do not have permission to access this resource.",
	})
}
