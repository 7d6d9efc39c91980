package rest

import (
	"context"
	"net/http"
	"pharmaSupply/domain"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type AnalyticsService interface {
	RevenueTrends(ctx context.Context, months int) ([]domain.RevenuePoint, error)
	UserGrowth(ctx context.Context, months int) ([]domain.UserGrowthPoint, error)
	MedicinePerformance(ctx context.Context, limit int) ([]domain.MedicineUsage, error)
	ProviderPerformance(ctx context.Context, limit int) ([]domain.ProviderTotal, error)
	GeographicDistribution(ctx context.Context) ([]domain.RegionCount, error)
	SeasonalPatterns(ctx context.Context, year int) ([]domain.SeasonalPoint, error)
	SystemHealth(ctx context.Context) domain.SystemHealth
	Search(ctx context.Context, query, kind string, limit int) ([]domain.SearchHit, error)
	OrderTrends(ctx context.Context, userID, period string, months int) ([]domain.OrderTrendPoint, error)
	TopOrderedMedicines(ctx context.Context, userID string, limit, months int) ([]domain.MedicineUsage, error)
	SpendingAnalysis(ctx context.Context, userID string, months int) ([]domain.CategoryShare, error)
	OrderFrequency(ctx context.Context, userID string) (domain.OrderFrequency, error)
	Announcements(ctx context.Context, limit int) ([]domain.Announcement, error)
}

type AnalyticsHandler struct {
	analyticsService AnalyticsService
	timeout          time.Duration
}

func NewAnalyticsHandler(analyticsService AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		timeout:          defaultTimeout,
	}
}

// scope limits providers to their own orders. Admins see everything
// unless they pass userId.
func scope(c echo.Context) (string, error) {
	userID, role := caller(c)
	if role.IsAdmin() {
		return queryID(c, "userId")
	}
	return userID, nil
}

func (h *AnalyticsHandler) respond(c echo.Context, data any, err error, msg string) error {
	if err != nil {
		return writeError(c, err, msg)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(data))
}

func (h *AnalyticsHandler) RevenueTrends(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	data, err := h.analyticsService.RevenueTrends(ctx, queryInt(c, "months", 0))
	return h.respond(c, data, err, "Failed to get revenue trends")
}

func (h *AnalyticsHandler) UserGrowth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	data, err := h.analyticsService.UserGrowth(ctx, queryInt(c, "months", 0))
	return h.respond(c, data, err, "Failed to get user growth")
}

func (h *AnalyticsHandler) MedicinePerformance(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	data, err := h.analyticsService.MedicinePerformance(ctx, queryInt(c, "limit", 0))
	return h.respond(c, data, err, "Failed to get medicine performance")
}

func (h *AnalyticsHandler) ProviderPerformance(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	data, err := h.analyticsService.ProviderPerformance(ctx, queryInt(c, "limit", 0))
	return h.respond(c, data, err, "Failed to get provider performance")
}

func (h *AnalyticsHandler) GeographicDistribution(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	data, err := h.analyticsService.GeographicDistribution(ctx)
	return h.respond(c, data, err, "Failed to get geographic distribution")
}

func (h *AnalyticsHandler) SeasonalPatterns(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	data, err := h.analyticsService.SeasonalPatterns(ctx, queryInt(c, "year", time.Now().Year()))
	return h.respond(c, data, err, "Failed to get seasonal patterns")
}

func (h *AnalyticsHandler) SystemHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	return c.JSON(http.StatusOK, fres.Response.StatusOK(h.analyticsService.SystemHealth(ctx)))
}

func (h *AnalyticsHandler) Search(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	data, err := h.analyticsService.Search(ctx, c.QueryParam("q"), c.QueryParam("type"), queryInt(c, "limit", 0))
	return h.respond(c, data, err, "Failed to search")
}

// OrderTrends takes period=week or period=month.
func (h *AnalyticsHandler) OrderTrends(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, err := scope(c)
	if err != nil {
		return writeError(c, err, "Invalid user filter")
	}

	data, err := h.analyticsService.OrderTrends(ctx, userID, c.QueryParam("period"), queryInt(c, "months", 0))
	return h.respond(c, data, err, "Failed to get order trends")
}

func (h *AnalyticsHandler) TopOrderedMedicines(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, err := scope(c)
	if err != nil {
		return writeError(c, err, "Invalid user filter")
	}

	data, err := h.analyticsService.TopOrderedMedicines(ctx, userID, queryInt(c, "limit", 0), queryInt(c, "months", 0))
	return h.respond(c, data, err, "Failed to get top ordered medicines")
}

func (h *AnalyticsHandler) SpendingAnalysis(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, err := scope(c)
	if err != nil {
		return writeError(c, err, "Invalid user filter")
	}

	data, err := h.analyticsService.SpendingAnalysis(ctx, userID, queryInt(c, "months", 0))
	return h.respond(c, data, err, "Failed to get spending analysis")
}

func (h *AnalyticsHandler) OrderFrequency(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, err := scope(c)
	if err != nil {
		return writeError(c, err, "Invalid user filter")
	}

	data, err := h.analyticsService.OrderFrequency(ctx, userID)
	return h.respond(c, data, err, "Failed to get order frequency metrics")
}

// Announcements is public.
func (h *AnalyticsHandler) Announcements(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	data, err := h.analyticsService.Announcements(ctx, queryInt(c, "limit", 0))
	return h.respond(c, data, err, "Failed to get new medicine announcements")
}
