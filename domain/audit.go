package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditRead   AuditAction = "READ"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
	AuditLogin  AuditAction = "LOGIN"
	AuditLogout AuditAction = "LOGOUT"
)

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

type AuditLog struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      *string        `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	Action      AuditAction    `gorm:"column:action;type:text;not null;index" json:"action"`
	Resource    string         `gorm:"column:resource;not null;index" json:"resource"`
	ResourceID  string         `gorm:"column:resource_id" json:"resource_id,omitempty"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	Details     datatypes.JSON `gorm:"column:details" json:"details,omitempty"`
	IPAddress   string         `gorm:"column:ip_address" json:"ip_address"`
	UserAgent   string         `gorm:"column:user_agent;type:text" json:"user_agent"`
	Severity    Severity       `gorm:"column:severity;type:text;not null;default:LOW;index" json:"severity"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Security event types.
const (
	SecurityFailedLogin        = "FAILED_LOGIN"
	SecurityUnauthorizedAccess = "UNAUTHORIZED_ACCESS"
	SecurityForbiddenAccess    = "FORBIDDEN_ACCESS"
)

type SecurityEvent struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      *string        `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	EventType   string         `gorm:"column:event_type;not null;index" json:"event_type"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	IPAddress   string         `gorm:"column:ip_address" json:"ip_address"`
	UserAgent   string         `gorm:"column:user_agent;type:text" json:"user_agent"`
	Severity    Severity       `gorm:"column:severity;type:text;not null;default:MEDIUM;index" json:"severity"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	Resolved    bool           `gorm:"column:resolved;not null;default:false;index" json:"resolved"`
	ResolvedAt  *time.Time     `gorm:"column:resolved_at" json:"resolved_at"`
	ResolvedBy  *string        `gorm:"column:resolved_by;type:uuid" json:"resolved_by"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (SecurityEvent) TableName() string {
	return "security_events"
}

func (e *SecurityEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

type LoginSession struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string    `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	SessionID    string    `gorm:"column:session_id;uniqueIndex;not null" json:"session_id"`
	IPAddress    string    `gorm:"column:ip_address" json:"ip_address"`
	UserAgent    string    `gorm:"column:user_agent;type:text" json:"user_agent"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	ExpiresAt    time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	LastActivity time.Time `gorm:"column:last_activity;not null" json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (LoginSession) TableName() string {
	return "login_sessions"
}

func (s *LoginSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type AuditFilter struct {
	UserID   string
	Action   AuditAction
	Resource string
	Severity Severity
	Search   string
	From     *time.Time
	To       *time.Time
	Page     PageRequest
}

type SecurityEventFilter struct {
	UserID    string
	EventType string
	Severity  Severity
	Resolved  *bool
	From      *time.Time
	To        *time.Time
	Page      PageRequest
}

type AuditStats struct {
	Total      int64              `json:"total"`
	BySeverity map[Severity]int64 `json:"by_severity"`
}

type SecurityEventStats struct {
	Total      int64 `json:"total"`
	Unresolved int64 `json:"unresolved"`
	Critical   int64 `json:"critical"`
	High       int64 `json:"high"`
}
