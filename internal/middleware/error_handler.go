package middleware

import (
	"errors"
	"net/http"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"

	jsonres "pharmaSupply/pkg/response"

	"github.com/labstack/echo/v4"
)

// StatusFor maps domain errors onto HTTP statuses and envelope codes.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	}
	return http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"
}

// ErrorHandler renders unhandled errors in the shared error envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status int
		code   string
		msg    string
	)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		code = http.StatusText(status)
		msg, _ = he.Message.(string)
		if msg == "" {
			msg = http.StatusText(status)
		}
	} else {
		status, code = StatusFor(err)
		msg = err.Error()
		if status == http.StatusInternalServerError {
			logger.Error("Unhandled error", "path", c.Request().URL.Path, "error", err)
			msg = "Internal server error"
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, jsonres.Error(code, msg, nil))
	}
	if err != nil {
		logger.Error("Failed to write error response", "error", err)
	}
}
