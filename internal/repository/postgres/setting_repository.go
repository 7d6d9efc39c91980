package postgres

import (
	"context"
	"errors"
	"fmt"
	"pharmaSupply/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	DB *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{
		DB: db,
	}
}

func (r *SettingRepository) Create(ctx context.Context, s *domain.Setting) error {
	if err := conn(ctx, r.DB).Create(s).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: setting %s", domain.ErrConflict, s.Key)
		}
		return fmt.Errorf("failed to create setting: %w", err)
	}
	return nil
}

func (r *SettingRepository) FindByKey(ctx context.Context, key string) (domain.Setting, error) {
	var s domain.Setting
	err := conn(ctx, r.DB).Where("key = ?", key).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Setting{}, domain.NewNotFound("Setting", key)
		}
		return domain.Setting{}, fmt.Errorf("failed to find setting: %w", err)
	}
	return s, nil
}

// FindAll lists settings, optionally restricted to one category.
func (r *SettingRepository) FindAll(ctx context.Context, category domain.SettingCategory) ([]domain.Setting, error) {
	q := conn(ctx, r.DB).Order("category, key")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var out []domain.Setting
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to find settings: %w", err)
	}
	return out, nil
}

func (r *SettingRepository) FindByKeys(ctx context.Context, keys []string) ([]domain.Setting, error) {
	var out []domain.Setting
	if err := conn(ctx, r.DB).Where("key IN ?", keys).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to find settings: %w", err)
	}
	return out, nil
}

func (r *SettingRepository) UpdateValue(ctx context.Context, key, value string) error {
	result := conn(ctx, r.DB).Model(&domain.Setting{}).Where("key = ?", key).Update("value", value)
	if result.Error != nil {
		return fmt.Errorf("failed to update setting: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFound("Setting", key)
	}
	return nil
}

// Upsert writes all settings, replacing the value of existing keys.
func (r *SettingRepository) Upsert(ctx context.Context, settings []domain.Setting) error {
	if len(settings) == 0 {
		return nil
	}
	err := conn(ctx, r.DB).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "category", "updated_at"}),
	}).Create(&settings).Error
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}
	return nil
}

func (r *SettingRepository) Delete(ctx context.Context, key string) error {
	result := conn(ctx, r.DB).Where("key = ?", key).Delete(&domain.Setting{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete setting: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFound("Setting", key)
	}
	return nil
}
