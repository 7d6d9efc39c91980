package postgres

import (
	"context"
	"fmt"
	"pharmaSupply/domain"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatsRepository serves read-only aggregates for dashboards, analytics and reports.
type StatsRepository struct {
	DB *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{
		DB: db,
	}
}

func orderScope(q domain.OrderQuery, prefix string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.UserID != "" {
			db = db.Where(prefix+"user_id = ?", q.UserID)
		}
		if len(q.Statuses) > 0 {
			db = db.Where(prefix+"status IN ?", q.Statuses)
		}
		if !q.From.IsZero() {
			db = db.Where(prefix+"created_at >= ?", q.From)
		}
		if !q.To.IsZero() {
			db = db.Where(prefix+"created_at < ?", q.To)
		}
		return db
	}
}

func (r *StatsRepository) CountOrders(ctx context.Context, q domain.OrderQuery) (int64, error) {
	var n int64
	if err := conn(ctx, r.DB).Model(&domain.Order{}).Scopes(orderScope(q, "")).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

func (r *StatsRepository) SumOrders(ctx context.Context, q domain.OrderQuery) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := conn(ctx, r.DB).Model(&domain.Order{}).Scopes(orderScope(q, "")).
		Select("SUM(total_price)").Scan(&sum).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum orders: %w", err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// ActiveUsers counts distinct users with orders matching q.
func (r *StatsRepository) ActiveUsers(ctx context.Context, q domain.OrderQuery) (int64, error) {
	var n int64
	err := conn(ctx, r.DB).Model(&domain.Order{}).Scopes(orderScope(q, "")).
		Distinct("user_id").Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return n, nil
}

func (r *StatsRepository) OrderPoints(ctx context.Context, q domain.OrderQuery) ([]domain.OrderPoint, error) {
	var out []domain.OrderPoint
	err := conn(ctx, r.DB).Model(&domain.Order{}).Scopes(orderScope(q, "")).
		Select("user_id, status, total_price, created_at").
		Order("created_at ASC").Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return out, nil
}

func (r *StatsRepository) CountUsers(ctx context.Context, q domain.UserQuery) (int64, error) {
	db := conn(ctx, r.DB).Model(&domain.User{})
	if q.Role != "" {
		db = db.Where("role = ?", q.Role)
	}
	if !q.CreatedFrom.IsZero() {
		db = db.Where("created_at >= ?", q.CreatedFrom)
	}
	if !q.CreatedBefore.IsZero() {
		db = db.Where("created_at < ?", q.CreatedBefore)
	}
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *StatsRepository) CountMedicines(ctx context.Context, createdBefore time.Time) (int64, error) {
	db := conn(ctx, r.DB).Model(&domain.Medicine{})
	if !createdBefore.IsZero() {
		db = db.Where("created_at < ?", createdBefore)
	}
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count medicines: %w", err)
	}
	return n, nil
}

// TopMedicines ranks medicines by ordered quantity across orders matching q.
func (r *StatsRepository) TopMedicines(ctx context.Context, q domain.OrderQuery, limit int) ([]domain.MedicineUsage, error) {
	var out []domain.MedicineUsage
	err := conn(ctx, r.DB).Table("order_items AS oi").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("JOIN medicines m ON m.id = oi.medicine_id").
		Scopes(orderScope(q, "o.")).
		Select(`m.id AS medicine_id, m.name, m.category, m.price, m.quantity AS stock,
			SUM(oi.quantity) AS total_quantity,
			COUNT(*) AS order_count,
			SUM(oi.quantity * oi.price) AS revenue,
			MAX(o.created_at) AS last_ordered`).
		Group("m.id, m.name, m.category, m.price, m.quantity").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank medicines: %w", err)
	}
	return out, nil
}

func (r *StatsRepository) ProviderTotals(ctx context.Context, limit int) ([]domain.ProviderTotal, error) {
	var out []domain.ProviderTotal
	err := conn(ctx, r.DB).Table("users AS u").
		Joins("LEFT JOIN orders o ON o.user_id = u.id").
		Where("u.role = ?", domain.RoleProvider).
		Select(`u.id AS provider_id, u.name, u.email,
			COUNT(o.id) AS orders,
			COALESCE(SUM(o.total_price), 0) AS revenue`).
		Group("u.id, u.name, u.email").
		Order("revenue DESC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate providers: %w", err)
	}
	return out, nil
}

func (r *StatsRepository) SpendingByCategory(ctx context.Context, q domain.OrderQuery) ([]domain.CategorySpend, error) {
	var out []domain.CategorySpend
	err := conn(ctx, r.DB).Table("order_items AS oi").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("JOIN medicines m ON m.id = oi.medicine_id").
		Scopes(orderScope(q, "o.")).
		Select(`COALESCE(NULLIF(m.category, ''), 'Uncategorized') AS category,
			SUM(oi.quantity * oi.price) AS total_spent,
			COUNT(*) AS item_count`).
		Group("1").
		Order("total_spent DESC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate spending: %w", err)
	}
	return out, nil
}

func (r *StatsRepository) MedicineActivity(ctx context.Context, medicineID string, since time.Time) ([]domain.StockActivity, error) {
	var out []domain.StockActivity
	err := conn(ctx, r.DB).Table("order_items AS oi").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("oi.medicine_id = ? AND o.created_at >= ?", medicineID, since).
		Select("o.id AS order_id, o.status, oi.quantity, o.created_at").
		Order("o.created_at DESC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load medicine activity: %w", err)
	}
	return out, nil
}

func (r *StatsRepository) UserEmails(ctx context.Context) ([]string, error) {
	var emails []string
	if err := conn(ctx, r.DB).Model(&domain.User{}).Pluck("email", &emails).Error; err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	return emails, nil
}

func (r *StatsRepository) SearchOrders(ctx context.Context, query string, limit int) ([]domain.Order, error) {
	var out []domain.Order
	err := conn(ctx, r.DB).Where("id::text ILIKE ?", likePattern(query)).
		Order("created_at DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search orders: %w", err)
	}
	return out, nil
}

func (r *StatsRepository) SearchUsers(ctx context.Context, query string, limit int) ([]domain.User, error) {
	var out []domain.User
	err := conn(ctx, r.DB).Where("email ILIKE ? OR name ILIKE ?", likePattern(query), likePattern(query)).
		Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return out, nil
}

func (r *StatsRepository) SearchMedicines(ctx context.Context, query string, limit int) ([]domain.Medicine, error) {
	var out []domain.Medicine
	err := conn(ctx, r.DB).Where("name ILIKE ?", likePattern(query)).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search medicines: %w", err)
	}
	return out, nil
}

// PoolStats reports open and in-use database connections.
func (r *StatsRepository) PoolStats() (open, inUse int, err error) {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get sql db: %w", err)
	}
	s := sqlDB.Stats()
	return s.OpenConnections, s.InUse, nil
}

func dateRange(db *gorm.DB, r *domain.DateRange) *gorm.DB {
	if r == nil {
		return db
	}
	return db.Where("created_at >= ? AND created_at <= ?", r.Start, r.End)
}

func (r *StatsRepository) ReportOrders(ctx context.Context, f domain.ReportFilters) ([]domain.Order, error) {
	db := dateRange(conn(ctx, r.DB), f.DateRange)
	if len(f.Status) > 0 {
		db = db.Where("status IN ?", f.Status)
	}
	if f.UserID != "" {
		db = db.Where("user_id = ?", f.UserID)
	}
	var out []domain.Order
	if err := db.Preload("User").Preload("Items").Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load report orders: %w", err)
	}
	return out, nil
}

func (r *StatsRepository) ReportUsers(ctx context.Context, f domain.ReportFilters) ([]domain.User, error) {
	db := dateRange(conn(ctx, r.DB), f.DateRange)
	if f.Role != "" {
		db = db.Where("role = ?", f.Role)
	}
	var out []domain.User
	if err := db.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load report users: %w", err)
	}
	return out, nil
}

func (r *StatsRepository) ReportMedicines(ctx context.Context, f domain.ReportFilters) ([]domain.Medicine, error) {
	db := conn(ctx, r.DB)
	if len(f.Category) > 0 {
		db = db.Where("category IN ?", f.Category)
	}
	if f.LowStock {
		db = db.Where("quantity < ?", domain.StockWarningBelow)
	}
	var out []domain.Medicine
	if err := db.Order("name ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load report medicines: %w", err)
	}
	return out, nil
}

func (r *StatsRepository) CountLowStock(ctx context.Context, below int) (int64, error) {
	var n int64
	if err := conn(ctx, r.DB).Model(&domain.Medicine{}).Where("quantity < ?", below).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count low stock: %w", err)
	}
	return n, nil
}
