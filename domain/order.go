package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

var OrderStatuses = []OrderStatus{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Order struct {
	ID         string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string          `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	User       *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Status     OrderStatus     `gorm:"column:status;type:text;not null;default:PENDING;index" json:"status"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null" json:"total_price"`
	Items      []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type OrderItem struct {
	ID         string          `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID    string          `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	MedicineID string          `gorm:"column:medicine_id;type:uuid;not null;index" json:"medicine_id"`
	Medicine   *Medicine       `gorm:"foreignKey:MedicineID;constraint:OnDelete:RESTRICT" json:"medicine,omitempty"`
	Quantity   int             `gorm:"column:quantity;not null" json:"quantity"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Subtotal is quantity times the captured unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderLine is one requested (medicine, quantity) pair.
type OrderLine struct {
	MedicineID string `json:"medicine_id" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
}

type OrderFilter struct {
	UserID   string
	Statuses []OrderStatus
	Page     PageRequest
}

type OrderStats struct {
	Total        int64                 `json:"total"`
	ByStatus     map[OrderStatus]int64 `json:"by_status"`
	TotalRevenue decimal.Decimal       `json:"total_revenue"`
}
