package rest

import (
	"context"
	"net/http"
	"pharmaSupply/domain"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type DashboardService interface {
	ProviderStats(ctx context.Context, userID string) (domain.ProviderDashboard, error)
	AdminStats(ctx context.Context) (domain.AdminDashboard, error)
	LowStock(ctx context.Context) (domain.LowStockReport, error)
	StockDetails(ctx context.Context, medicineID string) (domain.StockDetails, error)
}

type DashboardHandler struct {
	dashboardService DashboardService
	timeout          time.Duration
}

func NewDashboardHandler(dashboardService DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		timeout:          defaultTimeout,
	}
}

func (h *DashboardHandler) ProviderStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	stats, err := h.dashboardService.ProviderStats(ctx, userID)
	if err != nil {
		return writeError(c, err, "Failed to get provider dashboard")
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(stats))
}

func (h *DashboardHandler) AdminStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	stats, err := h.dashboardService.AdminStats(ctx)
	if err != nil {
		return writeError(c, err, "Failed to get admin dashboard")
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(stats))
}

func (h *DashboardHandler) LowStock(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	report, err := h.dashboardService.LowStock(ctx)
	if err != nil {
		return writeError(c, err, "Failed to get low stock report")
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(report))
}

func (h *DashboardHandler) StockDetails(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	details, err := h.dashboardService.StockDetails(ctx, c.Param("medicineId"))
	if err != nil {
		return writeError(c, err, "Failed to get stock details")
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(details))
}
