package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderTemplate struct {
	ID          string              `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string              `gorm:"column:name;not null" json:"name"`
	Description string              `gorm:"column:description;type:text" json:"description"`
	UserID      string              `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Items       []OrderTemplateItem `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (OrderTemplate) TableName() string {
	return "order_templates"
}

func (t *OrderTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type OrderTemplateItem struct {
	ID         string          `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID string          `gorm:"column:template_id;type:uuid;not null;index" json:"template_id"`
	MedicineID string          `gorm:"column:medicine_id;type:uuid;not null" json:"medicine_id"`
	Medicine   *Medicine       `gorm:"foreignKey:MedicineID;constraint:OnDelete:CASCADE" json:"medicine,omitempty"`
	Quantity   int             `gorm:"column:quantity;not null" json:"quantity"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
}

func (OrderTemplateItem) TableName() string {
	return "order_template_items"
}

func (i *OrderTemplateItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Lines converts the template into placement input.
func (t OrderTemplate) Lines() []OrderLine {
	lines := make([]OrderLine, 0, len(t.Items))
	for _, it := range t.Items {
		lines = append(lines, OrderLine{MedicineID: it.MedicineID, Quantity: it.Quantity})
	}
	return lines
}

// TemplateInput carries create and update fields. A nil Items leaves the items unchanged on update.
type TemplateInput struct {
	Name        string
	Description string
	Items       []OrderLine
}
