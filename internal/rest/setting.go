package rest

import (
	"context"
	"net/http"
	"pharmaSupply/domain"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type SettingService interface {
	CreateSetting(ctx context.Context, in domain.Setting) (domain.Setting, error)
	GetSetting(ctx context.Context, key string) (domain.Setting, error)
	ListSettings(ctx context.Context, category domain.SettingCategory) ([]domain.Setting, error)
	UpdateSetting(ctx context.Context, key, value string) (domain.Setting, error)
	DeleteSetting(ctx context.Context, key string) error
	OrganizationSettings(ctx context.Context) (domain.OrganizationSettings, error)
	NotificationSettings(ctx context.Context) (domain.NotificationSettings, error)
	GeneralSettings(ctx context.Context) (domain.GeneralSettings, error)
	UpdateOrganizationSettings(ctx context.Context, in domain.OrganizationSettings) (domain.OrganizationSettings, error)
	UpdateNotificationSettings(ctx context.Context, in domain.NotificationSettings) (domain.NotificationSettings, error)
	UpdateGeneralSettings(ctx context.Context, in domain.GeneralSettings) (domain.GeneralSettings, error)
}

type SettingHandler struct {
	settingService SettingService
	validator      *validator.Validate
	timeout        time.Duration
}

func NewSettingHandler(settingService SettingService) *SettingHandler {
	return &SettingHandler{
		settingService: settingService,
		validator:      validator.New(),
		timeout:        defaultTimeout,
	}
}

type CreateSettingRequest struct {
	Key      string `json:"key" validate:"required"`
	Value    string `json:"value"`
	Category string `json:"category"`
}

type UpdateSettingRequest struct {
	Value string `json:"value"`
}

func (h *SettingHandler) GetAllSettings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	settings, err := h.settingService.ListSettings(ctx, "")
	if err != nil {
		return writeError(c, err, "Failed to list settings")
	}

	return c.JSON(http.StatusOK, settings)
}

func (h *SettingHandler) GetByCategory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	category := domain.SettingCategory(strings.ToUpper(c.Param("category")))
	settings, err := h.settingService.ListSettings(ctx, category)
	if err != nil {
		return writeError(c, err, "Failed to list settings by category")
	}

	return c.JSON(http.StatusOK, settings)
}

func (h *SettingHandler) GetSetting(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	setting, err := h.settingService.GetSetting(ctx, c.Param("key"))
	if err != nil {
		return writeError(c, err, "Failed to get setting")
	}

	return c.JSON(http.StatusOK, setting)
}

func (h *SettingHandler) CreateSetting(c echo.Context) error {
	var req CreateSettingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err, "Failed to validate setting")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	setting, err := h.settingService.CreateSetting(ctx, domain.Setting{
		Key:      req.Key,
		Value:    req.Value,
		Category: domain.SettingCategory(strings.ToUpper(req.Category)),
	})
	if err != nil {
		return writeError(c, err, "Failed to create setting")
	}

	return c.JSON(http.StatusCreated, setting)
}

func (h *SettingHandler) UpdateSetting(c echo.Context) error {
	var req UpdateSettingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	setting, err := h.settingService.UpdateSetting(ctx, c.Param("key"), req.Value)
	if err != nil {
		return writeError(c, err, "Failed to update setting")
	}

	return c.JSON(http.StatusOK, setting)
}

func (h *SettingHandler) DeleteSetting(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.settingService.DeleteSetting(ctx, c.Param("key")); err != nil {
		return writeError(c, err, "Failed to delete setting")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Setting deleted successfully",
	})
}

func (h *SettingHandler) GetOrganization(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	out, err := h.settingService.OrganizationSettings(ctx)
	if err != nil {
		return writeError(c, err, "Failed to get organization settings")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SettingHandler) UpdateOrganization(c echo.Context) error {
	var req domain.OrganizationSettings
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	out, err := h.settingService.UpdateOrganizationSettings(ctx, req)
	if err != nil {
		return writeError(c, err, "Failed to update organization settings")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SettingHandler) GetNotificationSettings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	out, err := h.settingService.NotificationSettings(ctx)
	if err != nil {
		return writeError(c, err, "Failed to get notification settings")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SettingHandler) UpdateNotificationSettings(c echo.Context) error {
	var req domain.NotificationSettings
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	out, err := h.settingService.UpdateNotificationSettings(ctx, req)
	if err != nil {
		return writeError(c, err, "Failed to update notification settings")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SettingHandler) GetGeneral(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	out, err := h.settingService.GeneralSettings(ctx)
	if err != nil {
		return writeError(c, err, "Failed to get general settings")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SettingHandler) UpdateGeneral(c echo.Context) error {
	var req domain.GeneralSettings
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	out, err := h.settingService.UpdateGeneralSettings(ctx, req)
	if err != nil {
		return writeError(c, err, "Failed to update general settings")
	}
	return c.JSON(http.StatusOK, out)
}
