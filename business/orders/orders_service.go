package orders

import (
	"context"
	"errors"
	"fmt"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"
	"pharmaSupply/pkg/metrics"
	"time"

	"github.com/shopspring/decimal"
)

type OrdersRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	FindAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	Stats(ctx context.Context, userID string) (domain.OrderStats, error)
}

// MedicineRepository is the stock ledger seen by order placement.
type MedicineRepository interface {
	FindByIDsForUpdate(ctx context.Context, ids []string) ([]domain.Medicine, error)
	DecrementStock(ctx context.Context, id string, qty int) error
}

type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier receives post-commit notifications. Failures are only logged.
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification) error
}

type OrdersService struct {
	orderRepo    OrdersRepository
	medicineRepo MedicineRepository
	tx           TxManager
	notifier     Notifier
	notifyWait   time.Duration
}

func NewOrdersService(orderRepo OrdersRepository, medicineRepo MedicineRepository, tx TxManager, notifier Notifier) *OrdersService {
	return &OrdersService{
		orderRepo:    orderRepo,
		medicineRepo: medicineRepo,
		tx:           tx,
		notifier:     notifier,
		notifyWait:   5 * time.Second,
	}
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// PlaceOrder validates stock, prices the lines from stored medicine prices,
// writes the order with its items and decrements stock in one transaction.
// Duplicate medicine ids are merged into a single line.
func (s *OrdersService) PlaceOrder(ctx context.Context, userID string, lines []domain.OrderLine) (domain.Order, error) {
	start := time.Now()
	defer func() { metrics.OrderPlacementDuration.Observe(time.Since(start).Seconds()) }()

	if err := ctx.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("context error: %w", err)
	}

	merged, err := mergeLines(userID, lines)
	if err != nil {
		metrics.OrderPlacements.WithLabelValues("invalid").Inc()
		return domain.Order{}, err
	}

	var (
		order     domain.Order
		remaining = make(map[string]domain.Medicine, len(merged))
	)

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ids := make([]string, len(merged))
		for i, l := range merged {
			ids[i] = l.MedicineID
		}

		found, err := s.medicineRepo.FindByIDsForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		byID := make(map[string]domain.Medicine, len(found))
		for _, m := range found {
			byID[m.ID] = m
		}

		var missing []string
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return domain.NewNotFound("Medicine", missing...)
		}

		total := decimal.Zero
		items := make([]domain.OrderItem, 0, len(merged))
		for _, l := range merged {
			m := byID[l.MedicineID]
			if m.Quantity < l.Quantity {
				return &domain.InsufficientStockError{
					MedicineID: m.ID,
					Name:       m.Name,
					Available:  m.Quantity,
					Requested:  l.Quantity,
				}
			}

			item := domain.OrderItem{
				MedicineID: m.ID,
				Quantity:   l.Quantity,
				Price:      m.Price,
			}
			total = total.Add(item.Subtotal())
			items = append(items, item)
		}

		order = domain.Order{
			UserID:     userID,
			Status:     domain.OrderPending,
			TotalPrice: total,
			Items:      items,
		}
		if err := s.orderRepo.CreateOrder(ctx, &order); err != nil {
			return err
		}

		for _, l := range merged {
			m := byID[l.MedicineID]
			if err := s.medicineRepo.DecrementStock(ctx, m.ID, l.Quantity); err != nil {
				if errors.Is(err, domain.ErrStockConflict) {
					return &domain.InsufficientStockError{
						MedicineID: m.ID,
						Name:       m.Name,
						Available:  m.Quantity,
						Requested:  l.Quantity,
					}
				}
				return err
			}
			m.Quantity -= l.Quantity
			remaining[m.ID] = m
		}

		return nil
	})
	if err != nil {
		return domain.Order{}, s.placementFailure(userID, err)
	}

	metrics.OrderPlacements.WithLabelValues("success").Inc()
	logger.Info("Order placed", "order_id", order.ID, "user_id", userID, "total", order.TotalPrice.String())

	s.afterPlacement(ctx, order, remaining)

	return order, nil
}

func (s *OrdersService) placementFailure(userID string, err error) error {
	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		metrics.OrderPlacements.WithLabelValues("insufficient_stock").Inc()
		logger.Warn("Order rejected", "user_id", userID, "reason", err.Error())
		return err
	case errors.Is(err, domain.ErrNotFound):
		metrics.OrderPlacements.WithLabelValues("not_found").Inc()
		logger.Warn("Order rejected", "user_id", userID, "reason", err.Error())
		return err
	}

	metrics.OrderPlacements.WithLabelValues("error").Inc()
	logger.Error("Failed to place order", "user_id", userID, "error", err)
	return &domain.TransactionError{Op: "place order", Err: err}
}

// mergeLines validates the request and sums quantities of repeated ids,
// keeping the first-seen order.
func mergeLines(userID string, lines []domain.OrderLine) ([]domain.OrderLine, error) {
	if userID == "" {
		return nil, domain.NewValidation("user id is required")
	}
	if len(lines) == 0 {
		return nil, domain.NewValidation("order must contain at least one item")
	}

	index := make(map[string]int, len(lines))
	merged := make([]domain.OrderLine, 0, len(lines))
	for i, l := range lines {
		if l.MedicineID == "" {
			return nil, domain.NewValidation("item %d: medicine id is required", i)
		}
		if l.Quantity < 1 {
			return nil, domain.NewValidation("item %d: quantity must be at least 1", i)
		}
		if at, ok := index[l.MedicineID]; ok {
			merged[at].Quantity += l.Quantity
			continue
		}
		index[l.MedicineID] = len(merged)
		merged = append(merged, l)
	}

	return merged, nil
}

// afterPlacement emits notifications outside the transaction.
func (s *OrdersService) afterPlacement(ctx context.Context, order domain.Order, remaining map[string]domain.Medicine) {
	if s.notifier == nil {
		return
	}

	userID := order.UserID
	notes := []*domain.Notification{{
		Event:   "Order placed",
		Details: fmt.Sprintf("Order %s placed with %d item(s), total %s", order.ID, len(order.Items), order.TotalPrice.StringFixed(2)),
		Type:    domain.NotificationOrder,
		UserID:  &userID,
	}}
	for _, m := range remaining {
		if m.Quantity < domain.StockCriticalBelow {
			notes = append(notes, &domain.Notification{
				Event:   "Low stock",
				Details: fmt.Sprintf("%s has %d unit(s) left", m.Name, m.Quantity),
				Type:    domain.NotificationStockAlert,
			})
		}
	}

	go func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, s.notifyWait)
		defer cancel()
		for _, n := range notes {
			if err := s.notifier.Notify(ctx, n); err != nil {
				logger.Warn("Failed to create notification", "event", n.Event, "error", err)
			}
		}
	}(context.WithoutCancel(ctx))
}

// GetOrder returns the order when the caller owns it or is an admin.
func (s *OrdersService) GetOrder(ctx context.Context, id, userID string, role domain.Role) (domain.Order, error) {
	order, err := s.orderRepo.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	if !role.Can(domain.CapManageOrders) && order.UserID != userID {
		return domain.Order{}, fmt.Errorf("%w: order belongs to another user", domain.ErrForbidden)
	}

	return order, nil
}

func (s *OrdersService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, domain.Pagination, error) {
	filter.Page = domain.NormalizePage(filter.Page.Page, filter.Page.Limit, defaultPageSize, maxPageSize)
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, domain.Pagination{}, domain.NewValidation("invalid status %q", st)
		}
	}

	orders, total, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		logger.Error("Failed to list orders", "error", err)
		return nil, domain.Pagination{}, err
	}

	return orders, domain.NewPagination(filter.Page.Page, filter.Page.Limit, total), nil
}

func (s *OrdersService) ListUserOrders(ctx context.Context, userID string, status domain.OrderStatus, page domain.PageRequest) ([]domain.Order, domain.Pagination, error) {
	filter := domain.OrderFilter{UserID: userID, Page: page}
	if status != "" {
		filter.Statuses = []domain.OrderStatus{status}
	}
	return s.ListOrders(ctx, filter)
}

// ListPastOrders lists delivered and cancelled orders.
func (s *OrdersService) ListPastOrders(ctx context.Context, page domain.PageRequest) ([]domain.Order, domain.Pagination, error) {
	return s.ListOrders(ctx, domain.OrderFilter{
		Statuses: []domain.OrderStatus{domain.OrderDelivered, domain.OrderCancelled},
		Page:     page,
	})
}

// UpdateStatus sets any valid status regardless of the current one.
func (s *OrdersService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, domain.NewValidation("invalid status %q", status)
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		logger.Error("Failed to update order status", "order_id", id, "error", err)
		return domain.Order{}, err
	}

	order, err := s.orderRepo.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	if s.notifier != nil {
		userID := order.UserID
		nType := domain.NotificationOrder
		if status == domain.OrderShipped {
			nType = domain.NotificationShipment
		}
		n := &domain.Notification{
			Event:   "Order status updated",
			Details: fmt.Sprintf("Order %s is now %s", order.ID, status),
			Type:    nType,
			UserID:  &userID,
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			logger.Warn("Failed to create notification", "order_id", id, "error", err)
		}
	}

	return order, nil
}

// Stats aggregates every order for admins and only the caller's otherwise.
func (s *OrdersService) Stats(ctx context.Context, userID string, role domain.Role) (domain.OrderStats, error) {
	scope := userID
	if role.Can(domain.CapManageOrders) {
		scope = ""
	}
	return s.orderRepo.Stats(ctx, scope)
}
