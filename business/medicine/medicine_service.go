package medicine

import (
	"context"
	"fmt"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"
	"strings"
)

// MedicineRepository contract interface
type MedicineRepository interface {
	Create(ctx context.Context, medicine *domain.Medicine) error
	FindByID(ctx context.Context, id string) (domain.Medicine, error)
	FindAll(ctx context.Context, filter domain.MedicineFilter) ([]domain.Medicine, int64, error)
	Update(ctx context.Context, medicine *domain.Medicine) error
	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)
}

type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification) error
}

type medicineService struct {
	medicineRepo MedicineRepository
	notifier     Notifier
}

func NewMedicineService(medicineRepo MedicineRepository, notifier Notifier) *medicineService {
	return &medicineService{
		medicineRepo: medicineRepo,
		notifier:     notifier,
	}
}

const (
	defaultMedicineLimit = 10
	maxMedicineLimit     = 1000
)

func (s *medicineService) ListMedicines(ctx context.Context, filter domain.MedicineFilter) ([]domain.Medicine, domain.Pagination, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Pagination{}, fmt.Errorf("context error: %w", err)
	}

	filter.Page = domain.NormalizePage(filter.Page.Page, filter.Page.Limit, defaultMedicineLimit, maxMedicineLimit)
	if filter.SortBy == "" {
		filter.SortBy = "name"
	}
	if filter.SortOrder == "" {
		filter.SortOrder = domain.SortAsc
	}

	medicines, total, err := s.medicineRepo.FindAll(ctx, filter)
	if err != nil {
		logger.Error("Failed to list medicines", "error", err)
		return nil, domain.Pagination{}, err
	}

	return medicines, domain.NewPagination(filter.Page.Page, filter.Page.Limit, total), nil
}

func (s *medicineService) GetMedicine(ctx context.Context, id string) (domain.Medicine, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Medicine{}, domain.NewValidation("invalid medicine id")
	}
	return s.medicineRepo.FindByID(ctx, id)
}

func (s *medicineService) Categories(ctx context.Context) ([]string, error) {
	return s.medicineRepo.Categories(ctx)
}

func (s *medicineService) CreateMedicine(ctx context.Context, in domain.MedicineInput) (domain.Medicine, error) {
	if err := ctx.Err(); err != nil {
		return domain.Medicine{}, fmt.Errorf("context error: %w", err)
	}

	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return domain.Medicine{}, domain.NewValidation("medicine name is required")
	}
	if in.Price == nil {
		return domain.Medicine{}, domain.NewValidation("medicine price is required")
	}
	if in.Quantity == nil {
		return domain.Medicine{}, domain.NewValidation("medicine quantity is required")
	}

	m := domain.Medicine{}
	if err := apply(&m, in); err != nil {
		return domain.Medicine{}, err
	}

	if err := s.medicineRepo.Create(ctx, &m); err != nil {
		logger.Error("Failed to create medicine", "error", err)
		return domain.Medicine{}, err
	}

	return m, nil
}

// UpdateMedicine applies the non-nil fields and notifies providers about
// price changes and stock falling under the critical threshold.
func (s *medicineService) UpdateMedicine(ctx context.Context, id string, in domain.MedicineInput) (domain.Medicine, error) {
	current, err := s.GetMedicine(ctx, id)
	if err != nil {
		return domain.Medicine{}, err
	}

	updated := current
	if err := apply(&updated, in); err != nil {
		return domain.Medicine{}, err
	}

	if err := s.medicineRepo.Update(ctx, &updated); err != nil {
		logger.Error("Failed to update medicine", "medicine_id", id, "error", err)
		return domain.Medicine{}, err
	}

	if !updated.Price.Equal(current.Price) {
		s.notify(ctx, &domain.Notification{
			Event:   "Price Update: " + updated.Name,
			Details: fmt.Sprintf("Price changed from $%s to $%s", current.Price.StringFixed(2), updated.Price.StringFixed(2)),
			Type:    domain.NotificationPriceChange,
		})
	}
	if updated.Quantity < domain.StockCriticalBelow && updated.Quantity != current.Quantity {
		s.notify(ctx, &domain.Notification{
			Event:   "Low Stock Alert: " + updated.Name,
			Details: fmt.Sprintf("Only %d units remaining", updated.Quantity),
			Type:    domain.NotificationStockAlert,
		})
	}

	return updated, nil
}

func (s *medicineService) DeleteMedicine(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewValidation("invalid medicine id")
	}
	if err := s.medicineRepo.Delete(ctx, id); err != nil {
		logger.Error("Failed to delete medicine", "medicine_id", id, "error", err)
		return err
	}
	return nil
}

func (s *medicineService) notify(ctx context.Context, n *domain.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.Warn("Failed to create medicine notification", "event", n.Event, "error", err)
	}
}

func apply(m *domain.Medicine, in domain.MedicineInput) error {
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return domain.NewValidation("medicine name is required")
		}
		m.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return domain.NewValidation("price must not be negative")
		}
		m.Price = *in.Price
	}
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			return domain.NewValidation("quantity must not be negative")
		}
		m.Quantity = *in.Quantity
	}
	if in.Category != nil {
		m.Category = strings.TrimSpace(*in.Category)
	}
	return nil
}
