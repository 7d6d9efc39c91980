package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationOrder       NotificationType = "ORDER"
	NotificationInventory   NotificationType = "INVENTORY"
	NotificationSystem      NotificationType = "SYSTEM"
	NotificationShipment    NotificationType = "SHIPMENT"
	NotificationPriceChange NotificationType = "PRICE_CHANGE"
	NotificationStockAlert  NotificationType = "STOCK_ALERT"
	NotificationPromotion   NotificationType = "PROMOTION"
)

var NotificationTypes = []NotificationType{
	NotificationOrder, NotificationInventory, NotificationSystem, NotificationShipment,
	NotificationPriceChange, NotificationStockAlert, NotificationPromotion,
}

func (t NotificationType) Valid() bool {
	for _, v := range NotificationTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Notification with a nil UserID is system-wide and visible to every provider.
type Notification struct {
	ID        string           `gorm:"type:uuid;primaryKey" json:"id"`
	Event     string           `gorm:"column:event;not null" json:"event"`
	Details   string           `gorm:"column:details;type:text" json:"details"`
	Type      NotificationType `gorm:"column:type;type:text;not null;default:SYSTEM;index" json:"type"`
	UserID    *string          `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	User      *User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	IsRead    bool             `gorm:"column:is_read;not null;default:false;index" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// NotificationScope restricts reads and writes. An empty UserID means every notification.
type NotificationScope struct {
	UserID        string
	IncludeSystem bool
}

type NotificationFilter struct {
	Scope  NotificationScope
	Type   NotificationType
	IsRead *bool
	Page   PageRequest
}

type NotificationStats struct {
	Total  int64                      `json:"total"`
	Unread int64                      `json:"unread"`
	ByType map[NotificationType]int64 `json:"by_type"`
}
