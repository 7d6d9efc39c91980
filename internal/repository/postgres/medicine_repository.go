package postgres

import (
	"context"
	"fmt"
	"pharmaSupply/domain"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var medicineSortColumns = map[string]string{
	"name":      "name",
	"price":     "price",
	"quantity":  "quantity",
	"category":  "category",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type MedicineRepository struct {
	DB *gorm.DB
}

func NewMedicineRepository(db *gorm.DB) *MedicineRepository {
	return &MedicineRepository{
		DB: db,
	}
}

func (r *MedicineRepository) Create(ctx context.Context, medicine *domain.Medicine) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := conn(ctx, r.DB).Create(medicine).Error; err != nil {
		return fmt.Errorf("failed to create medicine: %w", err)
	}

	return nil
}

func (r *MedicineRepository) FindByID(ctx context.Context, id string) (domain.Medicine, error) {
	if err := ctx.Err(); err != nil {
		return domain.Medicine{}, fmt.Errorf("context error: %w", err)
	}

	var medicine domain.Medicine

	err := conn(ctx, r.DB).Where("id = ?", id).First(&medicine).Error
	if err != nil {
		if missing(err) {
			return domain.Medicine{}, domain.NewNotFound("Medicine", id)
		}
		return domain.Medicine{}, fmt.Errorf("failed to find medicine: %w", err)
	}

	return medicine, nil
}

func (r *MedicineRepository) FindAll(ctx context.Context, filter domain.MedicineFilter) ([]domain.Medicine, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("context error: %w", err)
	}

	q := conn(ctx, r.DB).Model(&domain.Medicine{})
	if filter.Search != "" {
		q = q.Where("name ILIKE ? OR description ILIKE ?", likePattern(filter.Search), likePattern(filter.Search))
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count medicines: %w", err)
	}

	var medicines []domain.Medicine
	err := q.Scopes(
		orderBy(filter.SortBy, medicineSortColumns, "name", filter.SortOrder),
		paginate(filter.Page),
	).Find(&medicines).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find medicines: %w", err)
	}

	return medicines, total, nil
}

// FindByIDsForUpdate reads the medicines and row-locks them until the
// surrounding transaction ends. Rows are locked in id order so concurrent
// placements touching the same medicines cannot deadlock.
func (r *MedicineRepository) FindByIDsForUpdate(ctx context.Context, ids []string) ([]domain.Medicine, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	sorted := validIDs(ids)
	if len(sorted) == 0 {
		return nil, nil
	}
	sort.Strings(sorted)

	var medicines []domain.Medicine
	err := conn(ctx, r.DB).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", sorted).
		Order("id").
		Find(&medicines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock medicines: %w", err)
	}

	return medicines, nil
}

// DecrementStock subtracts qty only while enough stock remains.
func (r *MedicineRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	result := conn(ctx, r.DB).Model(&domain.Medicine{}).
		Where("id = ? AND quantity >= ?", id, qty).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to decrement stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrStockConflict
	}

	return nil
}

func (r *MedicineRepository) Update(ctx context.Context, medicine *domain.Medicine) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	updateData := map[string]interface{}{
		"name":        medicine.Name,
		"description": medicine.Description,
		"price":       medicine.Price,
		"quantity":    medicine.Quantity,
		"category":    medicine.Category,
		"updated_at":  time.Now().UTC(),
	}

	result := conn(ctx, r.DB).Model(&domain.Medicine{}).Where("id = ?", medicine.ID).Updates(updateData)
	if result.Error != nil && !isInvalidText(result.Error) {
		return fmt.Errorf("failed to update medicine: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("Medicine", medicine.ID)
	}

	return nil
}

func (r *MedicineRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := conn(ctx, r.DB).Where("id = ?", id).Delete(&domain.Medicine{})
	if isForeignKeyViolation(result.Error) {
		return domain.NewConflict("Medicine %s is referenced by orders and cannot be deleted", id)
	}
	if result.Error != nil && !isInvalidText(result.Error) {
		return fmt.Errorf("failed to delete medicine: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("Medicine", id)
	}

	return nil
}

func (r *MedicineRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := conn(ctx, r.DB).Model(&domain.Medicine{}).
		Where("category IS NOT NULL AND category <> ''").
		Distinct().Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *MedicineRepository) FindLowStock(ctx context.Context, below int) ([]domain.Medicine, error) {
	var medicines []domain.Medicine
	err := conn(ctx, r.DB).Where("quantity < ?", below).Order("quantity ASC").Find(&medicines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find low stock medicines: %w", err)
	}
	return medicines, nil
}

func (r *MedicineRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Medicine, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ids = validIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var medicines []domain.Medicine
	if err := conn(ctx, r.DB).Where("id IN ?", ids).Find(&medicines).Error; err != nil {
		return nil, fmt.Errorf("failed to find medicines: %w", err)
	}
	return medicines, nil
}

func (r *MedicineRepository) FindCreatedSince(ctx context.Context, since time.Time, limit int) ([]domain.Medicine, error) {
	var medicines []domain.Medicine
	err := conn(ctx, r.DB).Where("created_at >= ?", since).
		Order("created_at DESC").Limit(limit).Find(&medicines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find new medicines: %w", err)
	}
	return medicines, nil
}
