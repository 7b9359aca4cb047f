package handler // handler wires HTTP requests to the service layer

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/equipnfc/equipment-manager/internal/service"
)

// dbTimeout bounds every request-scoped service call.
const dbTimeout = 5 * time.Second

// ok wraps a successful payload in the {message, data} envelope.
func ok(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, echo.Map{"message": message, "data": data})
}

// fail maps a service error onto the {error, details} envelope with
// the HTTP status its kind dictates. Internal errors keep their cause
// in the server log only; the client sees a generic message.
func fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch service.KindOf(err) {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindUnauthorized:
		status = http.StatusUnauthorized
	case service.KindForbidden:
		status = http.StatusForbidden
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindConflict:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("internal error on %s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(status, echo.Map{"error": "internal server error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

// failDetail is fail with a details field, for validation errors where
// the client needs to know which fields were rejected.
func failDetail(c echo.Context, status int, msg string, details any) error {
	return c.JSON(status, echo.Map{"error": msg, "details": details})
}
