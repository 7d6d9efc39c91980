package rest

import (
	"context"
	"net/http"
	"pharmaSupply/business/report"
	"pharmaSupply/domain"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ReportService interface {
	CreateTemplate(ctx context.Context, userID string, in domain.ReportTemplateInput) (domain.ReportTemplate, error)
	ListTemplates(ctx context.Context, userID, category string) ([]domain.ReportTemplate, error)
	GetTemplate(ctx context.Context, id, userID string) (domain.ReportTemplate, error)
	UpdateTemplate(ctx context.Context, id, userID string, in domain.ReportTemplateInput) (domain.ReportTemplate, error)
	DeleteTemplate(ctx context.Context, id, userID string) error
	Prebuilt() []report.Prebuilt
	CreateReport(ctx context.Context, userID string, in domain.ReportInput) (domain.Report, error)
	ListReports(ctx context.Context, userID string, page, limit int) ([]domain.Report, domain.Pagination, error)
	GetReport(ctx context.Context, id, userID string, role domain.Role) (domain.Report, error)
	Execute(ctx context.Context, id, userID string, role domain.Role) (domain.Report, error)
	Download(ctx context.Context, id, userID string, role domain.Role) (domain.ReportFile, error)
	DeleteReport(ctx context.Context, id, userID string) error
	CleanupExpired(ctx context.Context) (int, error)
}

type ReportHandler struct {
	reportService ReportService
	validator     *validator.Validate
	timeout       time.Duration
}

// Report generation reads whole tables, so it gets more time than a plain request.
const executeTimeout = 2 * time.Minute

func NewReportHandler(reportService ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		validator:     validator.New(),
		timeout:       defaultTimeout,
	}
}

type ReportTemplateRequest struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	Category    *string              `json:"category"`
	IsPublic    *bool                `json:"is_public"`
	Config      *domain.ReportConfig `json:"config"`
}

func (r ReportTemplateRequest) input() domain.ReportTemplateInput {
	return domain.ReportTemplateInput{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		IsPublic:    r.IsPublic,
		Config:      r.Config,
	}
}

type CreateReportRequest struct {
	Name        string               `json:"name" validate:"required"`
	Description string               `json:"description"`
	TemplateID  *string              `json:"template_id" validate:"omitempty,uuid"`
	Config      *domain.ReportConfig `json:"config"`
	Format      string               `json:"format" validate:"required"`
	ScheduledAt *time.Time           `json:"scheduled_at"`
}

func (h *ReportHandler) CreateTemplate(c echo.Context) error {
	var req ReportTemplateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	t, err := h.reportService.CreateTemplate(ctx, userID, req.input())
	if err != nil {
		return writeError(c, err, "Failed to create report template")
	}

	return c.JSON(http.StatusCreated, t)
}

func (h *ReportHandler) GetTemplates(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	templates, err := h.reportService.ListTemplates(ctx, userID, c.QueryParam("category"))
	if err != nil {
		return writeError(c, err, "Failed to list report templates")
	}

	return c.JSON(http.StatusOK, templates)
}

func (h *ReportHandler) GetPrebuiltTemplates(c echo.Context) error {
	return c.JSON(http.StatusOK, h.reportService.Prebuilt())
}

func (h *ReportHandler) GetTemplate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	t, err := h.reportService.GetTemplate(ctx, c.Param("id"), userID)
	if err != nil {
		return writeError(c, err, "Failed to get report template")
	}

	return c.JSON(http.StatusOK, t)
}

func (h *ReportHandler) UpdateTemplate(c echo.Context) error {
	var req ReportTemplateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	t, err := h.reportService.UpdateTemplate(ctx, c.Param("id"), userID, req.input())
	if err != nil {
		return writeError(c, err, "Failed to update report template")
	}

	return c.JSON(http.StatusOK, t)
}

func (h *ReportHandler) DeleteTemplate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	if err := h.reportService.DeleteTemplate(ctx, c.Param("id"), userID); err != nil {
		return writeError(c, err, "Failed to delete report template")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Report template deleted successfully",
	})
}

func (h *ReportHandler) CreateReport(c echo.Context) error {
	var req CreateReportRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err, "Failed to validate report")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	rep, err := h.reportService.CreateReport(ctx, userID, domain.ReportInput{
		Name:        req.Name,
		Description: req.Description,
		TemplateID:  req.TemplateID,
		Config:      req.Config,
		Format:      domain.ReportFormat(strings.ToUpper(req.Format)),
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		return writeError(c, err, "Failed to create report")
	}

	return c.JSON(http.StatusCreated, rep)
}

func (h *ReportHandler) GetReports(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	reports, page, err := h.reportService.ListReports(ctx, userID, queryInt(c, "page", 1), queryInt(c, "limit", 0))
	if err != nil {
		return writeError(c, err, "Failed to list reports")
	}

	return c.JSON(http.StatusOK, paginated("reports", reports, page))
}

func (h *ReportHandler) GetReport(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, role := caller(c)
	rep, err := h.reportService.GetReport(ctx, c.Param("id"), userID, role)
	if err != nil {
		return writeError(c, err, "Failed to get report")
	}

	return c.JSON(http.StatusOK, rep)
}

func (h *ReportHandler) ExecuteReport(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), executeTimeout)
	defer cancel()

	userID, role := caller(c)
	rep, err := h.reportService.Execute(ctx, c.Param("id"), userID, role)
	if err != nil {
		return writeError(c, err, "Failed to execute report")
	}

	return c.JSON(http.StatusOK, rep)
}

func (h *ReportHandler) DownloadReport(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, role := caller(c)
	file, err := h.reportService.Download(ctx, c.Param("id"), userID, role)
	if err != nil {
		return writeError(c, err, "Failed to download report")
	}

	return c.Attachment(file.Path, file.Name)
}

func (h *ReportHandler) DeleteReport(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	if err := h.reportService.DeleteReport(ctx, c.Param("id"), userID); err != nil {
		return writeError(c, err, "Failed to delete report")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Report deleted successfully",
	})
}

func (h *ReportHandler) CleanupExpired(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	n, err := h.reportService.CleanupExpired(ctx)
	if err != nil {
		return writeError(c, err, "Failed to clean up expired reports")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Expired reports cleaned up successfully",
		"removed": n,
	})
}
