package rest

import (
	"context"
	"net/http"
	"pharmaSupply/domain"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type NotificationService interface {
	CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error)
	ListNotifications(ctx context.Context, userID string, role domain.Role, filter domain.NotificationFilter) ([]domain.Notification, domain.Pagination, error)
	Stats(ctx context.Context, userID string, role domain.Role) (domain.NotificationStats, error)
	MarkRead(ctx context.Context, id, userID string, role domain.Role) error
	MarkAllRead(ctx context.Context, userID string, role domain.Role) (int64, error)
	DeleteNotification(ctx context.Context, id, userID string, role domain.Role) error
}

type NotificationHandler struct {
	notificationService NotificationService
	validator           *validator.Validate
	timeout             time.Duration
}

func NewNotificationHandler(notificationService NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		validator:           validator.New(),
		timeout:             defaultTimeout,
	}
}

type CreateNotificationRequest struct {
	Event   string  `json:"event" validate:"required"`
	Details string  `json:"details"`
	Type    string  `json:"type"`
	UserID  *string `json:"user_id" validate:"omitempty,uuid"`
}

func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, role := caller(c)
	items, page, err := h.notificationService.ListNotifications(ctx, userID, role, domain.NotificationFilter{
		Type:   domain.NotificationType(c.QueryParam("type")),
		IsRead: queryBool(c, "isRead"),
		Page:   pageRequest(c),
	})
	if err != nil {
		return writeError(c, err, "Failed to list notifications")
	}

	return c.JSON(http.StatusOK, paginated("notifications", items, page))
}

func (h *NotificationHandler) GetStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, role := caller(c)
	stats, err := h.notificationService.Stats(ctx, userID, role)
	if err != nil {
		return writeError(c, err, "Failed to get notification stats")
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *NotificationHandler) CreateNotification(c echo.Context) error {
	var req CreateNotificationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err, "Failed to validate notification")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	n, err := h.notificationService.CreateNotification(ctx, domain.Notification{
		Event:   req.Event,
		Details: req.Details,
		Type:    domain.NotificationType(req.Type),
		UserID:  req.UserID,
	})
	if err != nil {
		return writeError(c, err, "Failed to create notification")
	}

	return c.JSON(http.StatusCreated, n)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, role := caller(c)
	if err := h.notificationService.MarkRead(ctx, c.Param("id"), userID, role); err != nil {
		return writeError(c, err, "Failed to mark notification read")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Notification marked as read",
	})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, role := caller(c)
	n, err := h.notificationService.MarkAllRead(ctx, userID, role)
	if err != nil {
		return writeError(c, err, "Failed to mark notifications read")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "All notifications marked as read",
		"count":   n,
	})
}

func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	userID, role := caller(c)
	if err := h.notificationService.DeleteNotification(ctx, c.Param("id"), userID, role); err != nil {
		return writeError(c, err, "Failed to delete notification")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Notification deleted successfully",
	})
}
