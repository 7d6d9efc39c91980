package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderQuery selects orders for aggregate reads. Zero fields do not filter.
type OrderQuery struct {
	UserID   string
	Statuses []OrderStatus
	From     time.Time
	To       time.Time
}

type UserQuery struct {
	Role          Role
	CreatedFrom   time.Time
	CreatedBefore time.Time
}

// MedicineUsage is ordered volume per medicine.
type MedicineUsage struct {
	MedicineID    string          `json:"medicine_id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	TotalQuantity int64           `json:"total_quantity"`
	OrderCount    int64           `json:"order_count"`
	Revenue       decimal.Decimal `json:"revenue"`
	LastOrdered   time.Time       `json:"last_ordered"`
}

type ProviderTotal struct {
	ProviderID string          `json:"provider_id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Orders     int64           `json:"orders"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type CategorySpend struct {
	Category   string          `json:"category"`
	TotalSpent decimal.Decimal `json:"total_spent"`
	ItemCount  int64           `json:"item_count"`
}

// OrderPoint is the minimal order projection used for time bucketing.
type OrderPoint struct {
	UserID     string
	Status     OrderStatus
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

// StockActivity is one recent order line for a medicine.
type StockActivity struct {
	OrderID   string      `json:"order_id"`
	Status    OrderStatus `json:"status"`
	Quantity  int         `json:"quantity"`
	CreatedAt time.Time   `json:"created_at"`
}
