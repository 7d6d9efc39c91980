package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ReportFormat string

const (
	ReportJSON  ReportFormat = "JSON"
	ReportCSV   ReportFormat = "CSV"
	ReportExcel ReportFormat = "EXCEL"
	ReportPDF   ReportFormat = "PDF"
)

func (f ReportFormat) Valid() bool {
	switch f {
	case ReportJSON, ReportCSV, ReportExcel, ReportPDF:
		return true
	}
	return false
}

// Extension is the file extension written for the format.
func (f ReportFormat) Extension() string {
	switch f {
	case ReportCSV:
		return "csv"
	case ReportExcel:
		return "xlsx"
	case ReportPDF:
		return "pdf"
	}
	return "json"
}

type ReportStatus string

const (
	ReportPending    ReportStatus = "PENDING"
	ReportProcessing ReportStatus = "PROCESSING"
	ReportCompleted  ReportStatus = "COMPLETED"
	ReportFailed     ReportStatus = "FAILED"
)

// ReportConfig describes how report rows are produced.
type ReportConfig struct {
	DataSource   string              `json:"data_source" validate:"required,oneof=orders users medicines analytics"`
	Filters      ReportFilters       `json:"filters"`
	Fields       []string            `json:"fields,omitempty"`
	GroupBy      []string            `json:"group_by,omitempty"`
	Aggregations []ReportAggregation `json:"aggregations,omitempty" validate:"dive"`
	Sorting      []ReportSort        `json:"sorting,omitempty" validate:"dive"`
}

type ReportFilters struct {
	DateRange *DateRange `json:"date_range,omitempty"`
	Status    []string   `json:"status,omitempty"`
	Category  []string   `json:"category,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
	Role      string     `json:"role,omitempty"`
	LowStock  bool       `json:"low_stock,omitempty"`
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type ReportAggregation struct {
	Field     string `json:"field" validate:"required"`
	Operation string `json:"operation" validate:"required,oneof=sum count avg min max"`
}

type ReportSort struct {
	Field     string `json:"field" validate:"required"`
	Direction string `json:"direction" validate:"omitempty,oneof=asc desc"`
}

type ReportTemplate struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	Category    string         `gorm:"column:category;not null;index" json:"category"`
	IsPublic    bool           `gorm:"column:is_public;not null;default:false" json:"is_public"`
	CreatedBy   string         `gorm:"column:created_by;type:uuid;not null;index" json:"created_by"`
	Creator     *User          `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE" json:"creator,omitempty"`
	Config      datatypes.JSON `gorm:"column:config;not null" json:"config"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (ReportTemplate) TableName() string {
	return "report_templates"
}

func (t *ReportTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type Report struct {
	ID           string            `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string            `gorm:"column:name;not null" json:"name"`
	Description  string            `gorm:"column:description;type:text" json:"description"`
	TemplateID   *string           `gorm:"column:template_id;type:uuid;index" json:"template_id"`
	Template     *ReportTemplate   `gorm:"foreignKey:TemplateID;constraint:OnDelete:SET NULL" json:"template,omitempty"`
	CreatedBy    string            `gorm:"column:created_by;type:uuid;not null;index" json:"created_by"`
	Creator      *User             `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE" json:"creator,omitempty"`
	Config       datatypes.JSON    `gorm:"column:config;not null" json:"config"`
	Format       ReportFormat      `gorm:"column:format;type:text;not null" json:"format"`
	Status       ReportStatus      `gorm:"column:status;type:text;not null;default:PENDING;index" json:"status"`
	FilePath     *string           `gorm:"column:file_path" json:"-"`
	FileSize     *int64            `gorm:"column:file_size" json:"file_size"`
	ErrorMessage *string           `gorm:"column:error_message;type:text" json:"error_message"`
	ScheduledAt  *time.Time        `gorm:"column:scheduled_at" json:"scheduled_at"`
	CompletedAt  *time.Time        `gorm:"column:completed_at" json:"completed_at"`
	ExpiresAt    *time.Time        `gorm:"column:expires_at;index" json:"expires_at"`
	Executions   []ReportExecution `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"executions,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (Report) TableName() string {
	return "reports"
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type ReportExecution struct {
	ID           string       `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID     string       `gorm:"column:report_id;type:uuid;not null;index" json:"report_id"`
	Status       ReportStatus `gorm:"column:status;type:text;not null" json:"status"`
	FilePath     *string      `gorm:"column:file_path" json:"-"`
	FileSize     *int64       `gorm:"column:file_size" json:"file_size"`
	ErrorMessage *string      `gorm:"column:error_message;type:text" json:"error_message"`
	CompletedAt  *time.Time   `gorm:"column:completed_at" json:"completed_at"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (ReportExecution) TableName() string {
	return "report_executions"
}

func (e *ReportExecution) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// ReportTemplateInput carries template create and update fields. Nil fields are left unchanged on update.
type ReportTemplateInput struct {
	Name        *string
	Description *string
	Category    *string
	IsPublic    *bool
	Config      *ReportConfig
}

// ReportInput creates a report. When Config is nil the template's config is used.
type ReportInput struct {
	Name        string
	Description string
	TemplateID  *string
	Config      *ReportConfig
	Format      ReportFormat
	ScheduledAt *time.Time
}

// ReportFile locates a generated report on disk.
type ReportFile struct {
	Path string
	Name string
	Size int64
}
