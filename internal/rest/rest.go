package rest

import (
	"net/http"
	"pharmaSupply/domain"
	"pharmaSupply/internal/middleware"
	"pharmaSupply/pkg/logger"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const defaultTimeout = 10 * time.Second

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

// writeError logs err and answers with the status its kind maps to.
// Internal failures never leak their message.
func writeError(c echo.Context, err error, msg string) error {
	status, _ := middleware.StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(msg, "error", err)
		return c.JSON(status, ResponseError{Message: "Internal server error"})
	}
	logger.Warn(msg, "error", err)
	return c.JSON(status, ResponseError{Message: err.Error()})
}

func badRequest(c echo.Context, err error, msg string) error {
	logger.Warn(msg, "error", err)
	return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
}

func queryInt(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return v
}

// queryBool returns nil when the parameter is absent or not a boolean.
func queryBool(c echo.Context, name string) *bool {
	b, err := strconv.ParseBool(c.QueryParam(name))
	if err != nil {
		return nil
	}
	return &b
}

// queryTime accepts RFC 3339 or a plain date.
func queryTime(c echo.Context, name string) *time.Time {
	v := c.QueryParam(name)
	if v == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

// queryID returns an optional id filter, rejecting values that are not uuids.
func queryID(c echo.Context, name string) (string, error) {
	v := c.QueryParam(name)
	if v != "" && !domain.IsID(v) {
		return "", domain.NewValidation("invalid %s: %s", name, v)
	}
	return v, nil
}

func pageRequest(c echo.Context) domain.PageRequest {
	return domain.PageRequest{Page: queryInt(c, "page", 1), Limit: queryInt(c, "limit", 0)}
}

func clientInfo(c echo.Context) domain.ClientInfo {
	return domain.ClientInfo{IPAddress: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

func paginated(key string, data any, p domain.Pagination) map[string]interface{} {
	return map[string]interface{}{
		key:          data,
		"pagination": p,
	}
}

func splitQuery(c echo.Context, name string) []string {
	var out []string
	for _, part := range strings.Split(c.QueryParam(name), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func caller(c echo.Context) (string, domain.Role) {
	return middleware.UserID(c), middleware.RoleOf(c)
}
