package ordertemplate

import (
	"context"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"
	"strings"
)

type TemplateRepository interface {
	Create(ctx context.Context, t *domain.OrderTemplate) error
	FindByID(ctx context.Context, id, userID string) (domain.OrderTemplate, error)
	FindByUser(ctx context.Context, userID string) ([]domain.OrderTemplate, error)
	Update(ctx context.Context, t *domain.OrderTemplate, items []domain.OrderTemplateItem) error
	Delete(ctx context.Context, id, userID string) error
}

type MedicineReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]domain.Medicine, error)
}

// OrderPlacer runs the order placement transaction.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, userID string, lines []domain.OrderLine) (domain.Order, error)
}

type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type templateService struct {
	repo      TemplateRepository
	medicines MedicineReader
	orders    OrderPlacer
	tx        TxManager
}

func NewTemplateService(repo TemplateRepository, medicines MedicineReader, orders OrderPlacer, tx TxManager) *templateService {
	return &templateService{
		repo:      repo,
		medicines: medicines,
		orders:    orders,
		tx:        tx,
	}
}

func (s *templateService) CreateTemplate(ctx context.Context, userID string, in domain.TemplateInput) (domain.OrderTemplate, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.OrderTemplate{}, domain.NewValidation("template name is required")
	}
	if len(in.Items) == 0 {
		return domain.OrderTemplate{}, domain.NewValidation("template must contain at least one item")
	}

	items, err := s.priceItems(ctx, in.Items)
	if err != nil {
		return domain.OrderTemplate{}, err
	}

	t := domain.OrderTemplate{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		UserID:      userID,
		Items:       items,
	}
	if err := s.repo.Create(ctx, &t); err != nil {
		logger.Error("Failed to create order template", "user_id", userID, "error", err)
		return domain.OrderTemplate{}, err
	}
	return s.repo.FindByID(ctx, t.ID, userID)
}

func (s *templateService) ListTemplates(ctx context.Context, userID string) ([]domain.OrderTemplate, error) {
	return s.repo.FindByUser(ctx, userID)
}

func (s *templateService) GetTemplate(ctx context.Context, id, userID string) (domain.OrderTemplate, error) {
	return s.repo.FindByID(ctx, id, userID)
}

// UpdateTemplate rewrites name and description and, when given, replaces all items.
func (s *templateService) UpdateTemplate(ctx context.Context, id, userID string, in domain.TemplateInput) (domain.OrderTemplate, error) {
	current, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		return domain.OrderTemplate{}, err
	}

	if strings.TrimSpace(in.Name) != "" {
		current.Name = strings.TrimSpace(in.Name)
	}
	if in.Description != "" {
		current.Description = in.Description
	}

	var items []domain.OrderTemplateItem
	if in.Items != nil {
		if len(in.Items) == 0 {
			return domain.OrderTemplate{}, domain.NewValidation("template must contain at least one item")
		}
		if items, err = s.priceItems(ctx, in.Items); err != nil {
			return domain.OrderTemplate{}, err
		}
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, &current, items)
	})
	if err != nil {
		logger.Error("Failed to update order template", "template_id", id, "error", err)
		return domain.OrderTemplate{}, err
	}
	return s.repo.FindByID(ctx, id, userID)
}

func (s *templateService) DeleteTemplate(ctx context.Context, id, userID string) error {
	return s.repo.Delete(ctx, id, userID)
}

// PlaceOrder orders the template's items for its owner. Stock and prices are
// checked at placement time, not at template creation.
func (s *templateService) PlaceOrder(ctx context.Context, id, userID string) (domain.Order, error) {
	t, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		return domain.Order{}, err
	}
	return s.orders.PlaceOrder(ctx, userID, t.Lines())
}

// priceItems captures the current medicine prices for template lines.
func (s *templateService) priceItems(ctx context.Context, lines []domain.OrderLine) ([]domain.OrderTemplateItem, error) {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, domain.NewValidation("quantity must be positive for medicine %s", l.MedicineID)
		}
		ids = append(ids, l.MedicineID)
	}

	found, err := s.medicines.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Medicine, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}

	var missing []string
	items := make([]domain.OrderTemplateItem, 0, len(lines))
	for _, l := range lines {
		m, ok := byID[l.MedicineID]
		if !ok {
			missing = append(missing, l.MedicineID)
			continue
		}
		items = append(items, domain.OrderTemplateItem{MedicineID: m.ID, Quantity: l.Quantity, Price: m.Price})
	}
	if len(missing) > 0 {
		return nil, domain.NewNotFound("Medicine", missing...)
	}
	return items, nil
}
