package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "PENDING"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceOverdue   InvoiceStatus = "OVERDUE"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoicePending, InvoicePaid, InvoiceOverdue, InvoiceCancelled:
		return true
	}
	return false
}

type Invoice struct {
	ID             string          `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID      string          `gorm:"column:invoice_id;uniqueIndex;not null" json:"invoice_id"`
	OrderID        string          `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Order          *Order          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order,omitempty"`
	CustomerName   string          `gorm:"column:customer_name;not null" json:"customer_name"`
	CustomerEmail  string          `gorm:"column:customer_email;not null" json:"customer_email"`
	BillingAddress string          `gorm:"column:billing_address;type:text" json:"billing_address"`
	Amount         decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Tax            decimal.Decimal `gorm:"column:tax;type:numeric(12,2);not null;default:0" json:"tax"`
	Discount       decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null;default:0" json:"discount"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	Status         InvoiceStatus   `gorm:"column:status;type:text;not null;default:PENDING;index" json:"status"`
	DueDate        time.Time       `gorm:"column:due_date;not null" json:"due_date"`
	PaidAt         *time.Time      `gorm:"column:paid_at" json:"paid_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

type InvoiceFilter struct {
	Status InvoiceStatus
	Page   PageRequest
}

type InvoiceInput struct {
	OrderID        string
	CustomerName   string
	CustomerEmail  string
	BillingAddress string
	Amount         decimal.Decimal
	Tax            decimal.Decimal
	Discount       decimal.Decimal
	DueDate        time.Time
}
