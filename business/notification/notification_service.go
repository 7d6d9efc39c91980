package notification

import (
	"context"
	"fmt"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"
	"strings"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	FindAll(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, int64, error)
	MarkRead(ctx context.Context, id string, scope domain.NotificationScope) error
	MarkAllRead(ctx context.Context, scope domain.NotificationScope) (int64, error)
	Delete(ctx context.Context, id string, scope domain.NotificationScope) error
	Stats(ctx context.Context, scope domain.NotificationScope) (domain.NotificationStats, error)
}

type notificationService struct {
	repo NotificationRepository
}

func NewNotificationService(repo NotificationRepository) *notificationService {
	return &notificationService{repo: repo}
}

const (
	defaultNotificationLimit = 10
	maxNotificationLimit     = 100
)

// readScope is what a caller may see: admins everything, providers their own
// plus system-wide notifications.
func readScope(userID string, role domain.Role) domain.NotificationScope {
	if role == domain.RoleAdmin {
		return domain.NotificationScope{}
	}
	return domain.NotificationScope{UserID: userID, IncludeSystem: true}
}

// Notify stores a notification produced by another component.
func (s *notificationService) Notify(ctx context.Context, n *domain.Notification) error {
	if n.Type == "" {
		n.Type = domain.NotificationSystem
	}
	return s.repo.Create(ctx, n)
}

func (s *notificationService) CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	if strings.TrimSpace(n.Event) == "" {
		return domain.Notification{}, domain.NewValidation("event is required")
	}
	if n.Type == "" {
		n.Type = domain.NotificationSystem
	}
	if !n.Type.Valid() {
		return domain.Notification{}, domain.NewValidation("invalid notification type: %s", n.Type)
	}
	if n.UserID != nil && *n.UserID == "" {
		n.UserID = nil
	}

	if err := s.repo.Create(ctx, &n); err != nil {
		logger.Error("Failed to create notification", "error", err)
		return domain.Notification{}, err
	}
	return n, nil
}

func (s *notificationService) ListNotifications(ctx context.Context, userID string, role domain.Role, filter domain.NotificationFilter) ([]domain.Notification, domain.Pagination, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Pagination{}, fmt.Errorf("context error: %w", err)
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, domain.Pagination{}, domain.NewValidation("invalid notification type: %s", filter.Type)
	}

	filter.Scope = readScope(userID, role)
	filter.Page = domain.NormalizePage(filter.Page.Page, filter.Page.Limit, defaultNotificationLimit, maxNotificationLimit)

	items, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		logger.Error("Failed to list notifications", "user_id", userID, "error", err)
		return nil, domain.Pagination{}, err
	}
	return items, domain.NewPagination(filter.Page.Page, filter.Page.Limit, total), nil
}

func (s *notificationService) Stats(ctx context.Context, userID string, role domain.Role) (domain.NotificationStats, error) {
	return s.repo.Stats(ctx, readScope(userID, role))
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string, role domain.Role) error {
	return s.repo.MarkRead(ctx, id, readScope(userID, role))
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string, role domain.Role) (int64, error) {
	return s.repo.MarkAllRead(ctx, readScope(userID, role))
}

// DeleteNotification lets providers remove only notifications addressed to them.
func (s *notificationService) DeleteNotification(ctx context.Context, id, userID string, role domain.Role) error {
	scope := domain.NotificationScope{}
	if role != domain.RoleAdmin {
		scope = domain.NotificationScope{UserID: userID}
	}
	if err := s.repo.Delete(ctx, id, scope); err != nil {
		logger.Warn("Failed to delete notification", "notification_id", id, "error", err)
		return err
	}
	return nil
}
