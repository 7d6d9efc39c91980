package postgres

import (
	"context"
	"fmt"
	"pharmaSupply/domain"
	"time"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{
		DB: db,
	}
}

// scoped limits a query to the scope's user and, when asked, system-wide rows.
func scoped(q *gorm.DB, scope domain.NotificationScope) *gorm.DB {
	if scope.UserID == "" {
		return q
	}
	if scope.IncludeSystem {
		return q.Where("user_id = ? OR user_id IS NULL", scope.UserID)
	}
	return q.Where("user_id = ?", scope.UserID)
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if err := conn(ctx, r.DB).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) FindAll(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, int64, error) {
	q := scoped(conn(ctx, r.DB).Model(&domain.Notification{}), filter.Scope)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.IsRead != nil {
		q = q.Where("is_read = ?", *filter.IsRead)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var out []domain.Notification
	err := q.Order("created_at DESC").Scopes(paginate(filter.Page)).Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find notifications: %w", err)
	}
	return out, total, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string, scope domain.NotificationScope) error {
	result := scoped(conn(ctx, r.DB).Model(&domain.Notification{}).Where("id = ?", id), scope).
		Updates(map[string]interface{}{"is_read": true, "updated_at": time.Now().UTC()})
	if result.Error != nil && !isInvalidText(result.Error) {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("Notification", id)
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, scope domain.NotificationScope) (int64, error) {
	result := scoped(conn(ctx, r.DB).Model(&domain.Notification{}).Where("is_read = ?", false), scope).
		Updates(map[string]interface{}{"is_read": true, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id string, scope domain.NotificationScope) error {
	result := scoped(conn(ctx, r.DB).Where("id = ?", id), scope).Delete(&domain.Notification{})
	if result.Error != nil && !isInvalidText(result.Error) {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("Notification", id)
	}
	return nil
}

func (r *NotificationRepository) Stats(ctx context.Context, scope domain.NotificationScope) (domain.NotificationStats, error) {
	var rows []struct {
		Type   domain.NotificationType
		Count  int64
		Unread int64
	}
	err := scoped(conn(ctx, r.DB).Model(&domain.Notification{}), scope).
		Select("type, COUNT(*) AS count, COUNT(*) FILTER (WHERE NOT is_read) AS unread").
		Group("type").Scan(&rows).Error
	if err != nil {
		return domain.NotificationStats{}, fmt.Errorf("failed to aggregate notifications: %w", err)
	}

	stats := domain.NotificationStats{ByType: make(map[domain.NotificationType]int64, len(domain.NotificationTypes))}
	for _, t := range domain.NotificationTypes {
		stats.ByType[t] = 0
	}
	for _, rw := range rows {
		stats.ByType[rw.Type] = rw.Count
		stats.Total += rw.Count
		stats.Unread += rw.Unread
	}
	return stats, nil
}
