package rest

import (
	"context"
	"net/http"
	"pharmaSupply/domain"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type TemplateService interface {
	CreateTemplate(ctx context.Context, userID string, in domain.TemplateInput) (domain.OrderTemplate, error)
	ListTemplates(ctx context.Context, userID string) ([]domain.OrderTemplate, error)
	GetTemplate(ctx context.Context, id, userID string) (domain.OrderTemplate, error)
	UpdateTemplate(ctx context.Context, id, userID string, in domain.TemplateInput) (domain.OrderTemplate, error)
	DeleteTemplate(ctx context.Context, id, userID string) error
	PlaceOrder(ctx context.Context, id, userID string) (domain.Order, error)
}

type TemplateHandler struct {
	templateService TemplateService
	validator       *validator.Validate
	timeout         time.Duration
}

func NewTemplateHandler(templateService TemplateService) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
		validator:       validator.New(),
		timeout:         defaultTimeout,
	}
}

type CreateTemplateRequest struct {
	Name        string             `json:"name" validate:"required"`
	Description string             `json:"description"`
	Items       []domain.OrderLine `json:"items" validate:"required,min=1,dive"`
}

// UpdateTemplateRequest replaces the items only when they are sent.
type UpdateTemplateRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Items       []domain.OrderLine `json:"items" validate:"omitempty,min=1,dive"`
}

func (h *TemplateHandler) CreateTemplate(c echo.Context) error {
	var req CreateTemplateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err, "Failed to validate order template")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	t, err := h.templateService.CreateTemplate(ctx, userID, domain.TemplateInput{
		Name:        req.Name,
		Description: req.Description,
		Items:       req.Items,
	})
	if err != nil {
		return writeError(c, err, "Failed to create order template")
	}

	return c.JSON(http.StatusCreated, t)
}

func (h *TemplateHandler) GetTemplates(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	templates, err := h.templateService.ListTemplates(ctx, userID)
	if err != nil {
		return writeError(c, err, "Failed to list order templates")
	}

	return c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) GetTemplate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	t, err := h.templateService.GetTemplate(ctx, c.Param("id"), userID)
	if err != nil {
		return writeError(c, err, "Failed to get order template")
	}

	return c.JSON(http.StatusOK, t)
}

func (h *TemplateHandler) UpdateTemplate(c echo.Context) error {
	var req UpdateTemplateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err, "Failed to validate order template")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	t, err := h.templateService.UpdateTemplate(ctx, c.Param("id"), userID, domain.TemplateInput{
		Name:        req.Name,
		Description: req.Description,
		Items:       req.Items,
	})
	if err != nil {
		return writeError(c, err, "Failed to update order template")
	}

	return c.JSON(http.StatusOK, t)
}

func (h *TemplateHandler) DeleteTemplate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	if err := h.templateService.DeleteTemplate(ctx, c.Param("id"), userID); err != nil {
		return writeError(c, err, "Failed to delete order template")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Order template deleted successfully",
	})
}

// PlaceOrder orders the template's items through the regular placement path.
func (h *TemplateHandler) PlaceOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, _ := caller(c)
	order, err := h.templateService.PlaceOrder(ctx, c.Param("id"), userID)
	if err != nil {
		return writeError(c, err, "Failed to place order from template")
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(order))
}
