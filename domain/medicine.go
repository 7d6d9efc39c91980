package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CREATE TABLE public.medicines (
//     id          UUID PRIMARY KEY,
//     name        TEXT NOT NULL,
//     description TEXT,
//     price       NUMERIC(12,2) NOT NULL CHECK (price >= 0),
//     quantity    INTEGER NOT NULL CHECK (quantity >= 0),
//     category    TEXT,
//     created_at  TIMESTAMPTZ DEFAULT NOW(),
//     updated_at  TIMESTAMPTZ DEFAULT NOW()
// );

type Medicine struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"column:name;not null;index" json:"name"`
	Description string          `gorm:"column:description;type:text" json:"description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null;check:chk_medicines_price,price >= 0" json:"price"`
	Quantity    int             `gorm:"column:quantity;not null;check:chk_medicines_quantity,quantity >= 0" json:"quantity"`
	Category    string          `gorm:"column:category;index" json:"category"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Medicine) TableName() string {
	return "medicines"
}

func (m *Medicine) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type MedicineFilter struct {
	Search    string
	Category  string
	Page      PageRequest
	SortBy    string
	SortOrder SortOrder
}

// Stock thresholds used by dashboards and alerts.
const (
	StockCriticalBelow = 10
	StockLowBelow      = 25
	StockWarningBelow  = 50
)

type StockLevel string

const (
	StockCritical StockLevel = "critical"
	StockLow      StockLevel = "low"
	StockWarning  StockLevel = "warning"
	StockGood     StockLevel = "good"
)

func StockLevelOf(quantity int) StockLevel {
	switch {
	case quantity < StockCriticalBelow:
		return StockCritical
	case quantity < StockLowBelow:
		return StockLow
	case quantity < StockWarningBelow:
		return StockWarning
	}
	return StockGood
}

// MedicineInput carries create and update fields. Nil fields are left unchanged on update.
type MedicineInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Quantity    *int
	Category    *string
}
