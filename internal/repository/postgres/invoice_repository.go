package postgres

import (
	"context"
	"fmt"
	"pharmaSupply/domain"
	"time"

	"gorm.io/gorm"
)

type InvoiceRepository struct {
	DB *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{
		DB: db,
	}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	if err := conn(ctx, r.DB).Create(inv).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflict("Invoice number %s already exists", inv.InvoiceID)
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := conn(ctx, r.DB).Model(&domain.Invoice{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return n, nil
}

func (r *InvoiceRepository) FindByID(ctx context.Context, id string) (domain.Invoice, error) {
	var inv domain.Invoice
	err := conn(ctx, r.DB).Preload("Order.User").Where("id = ?", id).First(&inv).Error
	if err != nil {
		if missing(err) {
			return domain.Invoice{}, domain.NewNotFound("Invoice", id)
		}
		return domain.Invoice{}, fmt.Errorf("failed to find invoice: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepository) FindByOrderID(ctx context.Context, orderID string) (domain.Invoice, error) {
	var inv domain.Invoice
	err := conn(ctx, r.DB).Preload("Order.User").Where("order_id = ?", orderID).
		Order("created_at DESC").First(&inv).Error
	if err != nil {
		if missing(err) {
			return domain.Invoice{}, domain.NewNotFound("Invoice")
		}
		return domain.Invoice{}, fmt.Errorf("failed to find invoice: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepository) FindAll(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, int64, error) {
	q := conn(ctx, r.DB).Model(&domain.Invoice{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	var out []domain.Invoice
	err := q.Preload("Order.User").Order("created_at DESC").Scopes(paginate(filter.Page)).Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find invoices: %w", err)
	}
	return out, total, nil
}

// UpdateStatus sets the status and, when given, the payment time.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus, paidAt *time.Time) error {
	updates := map[string]interface{}{"status": status, "updated_at": time.Now().UTC()}
	if paidAt != nil {
		updates["paid_at"] = paidAt
	}
	result := conn(ctx, r.DB).Model(&domain.Invoice{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil && !isInvalidText(result.Error) {
		return fmt.Errorf("failed to update invoice: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("Invoice", id)
	}
	return nil
}
