package postgres

import (
	"context"
	"fmt"
	"pharmaSupply/domain"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrdersRepository struct {
	DB *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{
		DB: db,
	}
}

// CreateOrder inserts the order together with its items.
func (r *OrdersRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if err := conn(ctx, r.DB).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *OrdersRepository) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	var order domain.Order
	err := conn(ctx, r.DB).
		Preload("Items.Medicine").
		Preload("User").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if missing(err) {
			return domain.Order{}, domain.NewNotFound("Order", id)
		}
		return domain.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	return order, nil
}

func (r *OrdersRepository) FindAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	q := conn(ctx, r.DB).Model(&domain.Order{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []domain.Order
	err := q.Preload("Items.Medicine").Preload("User").
		Order("created_at DESC").
		Scopes(paginate(filter.Page)).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find orders: %w", err)
	}

	return orders, total, nil
}

func (r *OrdersRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	result := conn(ctx, r.DB).Model(&domain.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil && !isInvalidText(result.Error) {
		return fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("Order", id)
	}

	return nil
}

// Stats counts orders per status and sums revenue of delivered orders.
// An empty userID covers every order.
func (r *OrdersRepository) Stats(ctx context.Context, userID string) (domain.OrderStats, error) {
	type row struct {
		Status domain.OrderStatus
		Count  int64
		Sum    decimal.NullDecimal
	}

	q := conn(ctx, r.DB).Model(&domain.Order{}).
		Select("status, COUNT(*) AS count, SUM(total_price) AS sum").
		Group("status")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var rows []row
	if err := q.Scan(&rows).Error; err != nil {
		return domain.OrderStats{}, fmt.Errorf("failed to aggregate orders: %w", err)
	}

	stats := domain.OrderStats{
		ByStatus:     make(map[domain.OrderStatus]int64, len(domain.OrderStatuses)),
		TotalRevenue: decimal.Zero,
	}
	for _, s := range domain.OrderStatuses {
		stats.ByStatus[s] = 0
	}
	for _, rw := range rows {
		stats.ByStatus[rw.Status] = rw.Count
		stats.Total += rw.Count
		if rw.Status == domain.OrderDelivered && rw.Sum.Valid {
			stats.TotalRevenue = rw.Sum.Decimal
		}
	}

	return stats, nil
}
