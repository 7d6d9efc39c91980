package postgres

import (
	"context"
	"fmt"
	"pharmaSupply/domain"
	"time"

	"gorm.io/gorm"
)

type OrderTemplateRepository struct {
	DB *gorm.DB
}

func NewOrderTemplateRepository(db *gorm.DB) *OrderTemplateRepository {
	return &OrderTemplateRepository{
		DB: db,
	}
}

func (r *OrderTemplateRepository) Create(ctx context.Context, t *domain.OrderTemplate) error {
	if err := conn(ctx, r.DB).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create order template: %w", err)
	}
	return nil
}

// FindByID returns the template when owned by userID.
func (r *OrderTemplateRepository) FindByID(ctx context.Context, id, userID string) (domain.OrderTemplate, error) {
	var t domain.OrderTemplate
	err := conn(ctx, r.DB).Preload("Items.Medicine").
		Where("id = ? AND user_id = ?", id, userID).First(&t).Error
	if err != nil {
		if missing(err) {
			return domain.OrderTemplate{}, domain.NewNotFound("Order template", id)
		}
		return domain.OrderTemplate{}, fmt.Errorf("failed to find order template: %w", err)
	}
	return t, nil
}

func (r *OrderTemplateRepository) FindByUser(ctx context.Context, userID string) ([]domain.OrderTemplate, error) {
	var out []domain.OrderTemplate
	err := conn(ctx, r.DB).Preload("Items.Medicine").
		Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find order templates: %w", err)
	}
	return out, nil
}

// Update rewrites name and description and replaces the items when items is non-nil.
func (r *OrderTemplateRepository) Update(ctx context.Context, t *domain.OrderTemplate, items []domain.OrderTemplateItem) error {
	db := conn(ctx, r.DB)
	result := db.Model(&domain.OrderTemplate{}).Where("id = ? AND user_id = ?", t.ID, t.UserID).
		Updates(map[string]interface{}{
			"name":        t.Name,
			"description": t.Description,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil && !isInvalidText(result.Error) {
		return fmt.Errorf("failed to update order template: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("Order template", t.ID)
	}

	if items == nil {
		return nil
	}
	if err := db.Where("template_id = ?", t.ID).Delete(&domain.OrderTemplateItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear template items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].TemplateID = t.ID
	}
	if err := db.Create(&items).Error; err != nil {
		return fmt.Errorf("failed to create template items: %w", err)
	}
	return nil
}

func (r *OrderTemplateRepository) Delete(ctx context.Context, id, userID string) error {
	result := conn(ctx, r.DB).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.OrderTemplate{})
	if result.Error != nil && !isInvalidText(result.Error) {
		return fmt.Errorf("failed to delete order template: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("Order template", id)
	}
	return nil
}
