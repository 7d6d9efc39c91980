package rest

import (
	"context"
	"net/http"
	"pharmaSupply/pkg/health"
	"time"

	"github.com/labstack/echo/v4"
)

type HealthChecker interface {
	Liveness(ctx context.Context) health.Report
	Readiness(ctx context.Context) health.Report
}

type HealthHandler struct {
	checker HealthChecker
	timeout time.Duration
}

func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker, timeout: 5 * time.Second}
}

func (h *HealthHandler) Live(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	return writeReport(c, h.checker.Liveness(ctx))
}

func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	return writeReport(c, h.checker.Readiness(ctx))
}

func writeReport(c echo.Context, report health.Report) error {
	if !report.Healthy {
		return c.JSON(http.StatusServiceUnavailable, report)
	}
	return c.JSON(http.StatusOK, report)
}
