package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SettingCategory string

const (
	SettingGeneral      SettingCategory = "GENERAL"
	SettingNotification SettingCategory = "NOTIFICATION"
	SettingIntegration  SettingCategory = "INTEGRATION"
	SettingBackup       SettingCategory = "BACKUP"
	SettingOrganization SettingCategory = "ORGANIZATION"
)

func (c SettingCategory) Valid() bool {
	switch c {
	case SettingGeneral, SettingNotification, SettingIntegration, SettingBackup, SettingOrganization:
		return true
	}
	return false
}

type Setting struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	Key       string          `gorm:"column:key;uniqueIndex;not null" json:"key"`
	Value     string          `gorm:"column:value;type:text;not null" json:"value"`
	Category  SettingCategory `gorm:"column:category;type:text;not null;default:GENERAL;index" json:"category"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

func (s *Setting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Well-known setting keys.
const (
	SettingOrgName     = "org_name"
	SettingOrgAddress  = "org_address"
	SettingOrgContact  = "org_contact"
	SettingOrgPhone    = "org_phone"
	SettingEmailAlerts = "email_alerts"
	SettingSMSAlerts   = "sms_alerts"
	SettingLanguage    = "language"
	SettingTimezone    = "timezone"
)

type OrganizationSettings struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
}

type NotificationSettings struct {
	EmailAlerts bool `json:"email_alerts"`
	SMSAlerts   bool `json:"sms_alerts"`
}

type GeneralSettings struct {
	Language string `json:"language"`
	Timezone string `json:"timezone"`
}
