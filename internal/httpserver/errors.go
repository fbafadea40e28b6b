package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/service"
)

// fail maps a service error to an HTTP error and logs it once at the
// level matching its status. notFound lets payment routes answer 400
// for an unknown product.
func fail(l *slog.Logger, event string, err error, notFound int) error {
	status, msg := http.StatusInternalServerError, "internal server error"
	switch {
	case errors.Is(err, service.ErrInvalidSignature):
		status, msg = http.StatusBadRequest, "Invalid signature"
	case errors.Is(err, service.ErrInsufficientStock):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = notFound, err.Error()
	case errors.Is(err, service.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrGateway):
		status, msg = http.StatusInternalServerError, "payment gateway error"
	}

	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func badRequest(l *slog.Logger, event, msg string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", msg, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

func unauthorized(l *slog.Logger, event string, err error) error {
	l.Warn(event, "status", http.StatusUnauthorized, "error", err)
	return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
}

func parseID(c echo.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(n), nil
}
