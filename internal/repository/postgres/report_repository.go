package postgres

import (
	"context"
	"fmt"
	"pharmaSupply/domain"
	"time"

	"gorm.io/gorm"
)

type ReportRepository struct {
	DB *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{
		DB: db,
	}
}

func (r *ReportRepository) CreateTemplate(ctx context.Context, t *domain.ReportTemplate) error {
	if err := conn(ctx, r.DB).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create report template: %w", err)
	}
	return nil
}

func (r *ReportRepository) FindTemplate(ctx context.Context, id string) (domain.ReportTemplate, error) {
	var t domain.ReportTemplate
	err := conn(ctx, r.DB).Preload("Creator").Where("id = ?", id).First(&t).Error
	if err != nil {
		if missing(err) {
			return domain.ReportTemplate{}, domain.NewNotFound("Report template", id)
		}
		return domain.ReportTemplate{}, fmt.Errorf("failed to find report template: %w", err)
	}
	return t, nil
}

// FindTemplates lists templates the user created plus public ones.
func (r *ReportRepository) FindTemplates(ctx context.Context, userID string) ([]domain.ReportTemplate, error) {
	var out []domain.ReportTemplate
	err := conn(ctx, r.DB).Preload("Creator").
		Where("created_by = ? OR is_public = ?", userID, true).
		Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find report templates: %w", err)
	}
	return out, nil
}

func (r *ReportRepository) UpdateTemplate(ctx context.Context, t *domain.ReportTemplate) error {
	result := conn(ctx, r.DB).Model(&domain.ReportTemplate{}).Where("id = ?", t.ID).
		Updates(map[string]interface{}{
			"name":        t.Name,
			"description": t.Description,
			"category":    t.Category,
			"is_public":   t.IsPublic,
			"config":      t.Config,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil && !isInvalidText(result.Error) {
		return fmt.Errorf("failed to update report template: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("Report template", t.ID)
	}
	return nil
}

func (r *ReportRepository) DeleteTemplate(ctx context.Context, id string) error {
	result := conn(ctx, r.DB).Where("id = ?", id).Delete(&domain.ReportTemplate{})
	if result.Error != nil && !isInvalidText(result.Error) {
		return fmt.Errorf("failed to delete report template: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("Report template", id)
	}
	return nil
}

func (r *ReportRepository) Create(ctx context.Context, rep *domain.Report) error {
	if err := conn(ctx, r.DB).Create(rep).Error; err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *ReportRepository) FindByID(ctx context.Context, id string) (domain.Report, error) {
	var rep domain.Report
	err := conn(ctx, r.DB).Preload("Template").
		Preload("Executions", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC").Limit(10) }).
		Where("id = ?", id).First(&rep).Error
	if err != nil {
		if missing(err) {
			return domain.Report{}, domain.NewNotFound("Report", id)
		}
		return domain.Report{}, fmt.Errorf("failed to find report: %w", err)
	}
	return rep, nil
}

func (r *ReportRepository) FindByUser(ctx context.Context, userID string, page domain.PageRequest) ([]domain.Report, int64, error) {
	q := conn(ctx, r.DB).Model(&domain.Report{}).Where("created_by = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	var out []domain.Report
	err := q.Preload("Template").Order("created_at DESC").Scopes(paginate(page)).Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find reports: %w", err)
	}
	return out, total, nil
}

// Save writes every column of the report.
func (r *ReportRepository) Save(ctx context.Context, rep *domain.Report) error {
	if err := conn(ctx, r.DB).Omit("Template", "Creator", "Executions").Save(rep).Error; err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	result := conn(ctx, r.DB).Where("id = ?", id).Delete(&domain.Report{})
	if result.Error != nil && !isInvalidText(result.Error) {
		return fmt.Errorf("failed to delete report: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("Report", id)
	}
	return nil
}

func (r *ReportRepository) CreateExecution(ctx context.Context, e *domain.ReportExecution) error {
	if err := conn(ctx, r.DB).Create(e).Error; err != nil {
		return fmt.Errorf("failed to create report execution: %w", err)
	}
	return nil
}

func (r *ReportRepository) SaveExecution(ctx context.Context, e *domain.ReportExecution) error {
	if err := conn(ctx, r.DB).Save(e).Error; err != nil {
		return fmt.Errorf("failed to save report execution: %w", err)
	}
	return nil
}

// FindExpired returns completed reports whose files are past expiry.
func (r *ReportRepository) FindExpired(ctx context.Context, now time.Time) ([]domain.Report, error) {
	var out []domain.Report
	err := conn(ctx, r.DB).
		Where("expires_at IS NOT NULL AND expires_at <= ? AND file_path IS NOT NULL", now).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find expired reports: %w", err)
	}
	return out, nil
}

func (r *ReportRepository) ClearFile(ctx context.Context, id string) error {
	err := conn(ctx, r.DB).Model(&domain.Report{}).Where("id = ?", id).
		Updates(map[string]interface{}{"file_path": nil, "file_size": nil}).Error
	if err != nil {
		return fmt.Errorf("failed to clear report file: %w", err)
	}
	return nil
}
