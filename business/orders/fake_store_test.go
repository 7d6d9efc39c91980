package orders

import (
	"context"
	"errors"
	"pharmaSupply/domain"
	"sync"

	"github.com/google/uuid"
)

type inTxKey struct{}

// memStore is an in-memory stock ledger and order table. Transactions take
// the store lock and restore a snapshot when the function fails.
type memStore struct {
	mu        sync.Mutex
	medicines map[string]domain.Medicine
	orders    map[string]domain.Order

	createErr    error
	decrementErr error
}

func newMemStore(meds ...domain.Medicine) *memStore {
	s := &memStore{
		medicines: make(map[string]domain.Medicine),
		orders:    make(map[string]domain.Order),
	}
	for _, m := range meds {
		s.medicines[m.ID] = m
	}
	return s
}

func (s *memStore) lock(ctx context.Context) func() {
	if ctx.Value(inTxKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	medSnap := make(map[string]domain.Medicine, len(s.medicines))
	for k, v := range s.medicines {
		medSnap[k] = v
	}
	orderSnap := make(map[string]domain.Order, len(s.orders))
	for k, v := range s.orders {
		orderSnap[k] = v
	}

	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		s.medicines = medSnap
		s.orders = orderSnap
		return err
	}
	return nil
}

func (s *memStore) FindByIDsForUpdate(ctx context.Context, ids []string) ([]domain.Medicine, error) {
	defer s.lock(ctx)()
	var out []domain.Medicine
	for _, id := range ids {
		if m, ok := s.medicines[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) DecrementStock(ctx context.Context, id string, qty int) error {
	defer s.lock(ctx)()
	if s.decrementErr != nil {
		return s.decrementErr
	}
	m, ok := s.medicines[id]
	if !ok || m.Quantity < qty {
		return domain.ErrStockConflict
	}
	m.Quantity -= qty
	s.medicines[id] = m
	return nil
}

func (s *memStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	defer s.lock(ctx)()
	if s.createErr != nil {
		return s.createErr
	}
	order.ID = uuid.NewString()
	for i := range order.Items {
		order.Items[i].ID = uuid.NewString()
		order.Items[i].OrderID = order.ID
	}
	s.orders[order.ID] = *order
	return nil
}

func (s *memStore) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	defer s.lock(ctx)()
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.NewNotFound("Order", id)
	}
	return o, nil
}

func (s *memStore) FindAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	defer s.lock(ctx)()
	var out []domain.Order
	for _, o := range s.orders {
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, o.Status) {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func containsStatus(list []domain.OrderStatus, s domain.OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (s *memStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	defer s.lock(ctx)()
	o, ok := s.orders[id]
	if !ok {
		return domain.NewNotFound("Order", id)
	}
	o.Status = status
	s.orders[id] = o
	return nil
}

func (s *memStore) Stats(ctx context.Context, userID string) (domain.OrderStats, error) {
	orders, _, _ := s.FindAll(ctx, domain.OrderFilter{UserID: userID})
	stats := domain.OrderStats{ByStatus: map[domain.OrderStatus]int64{}}
	for _, o := range orders {
		stats.Total++
		stats.ByStatus[o.Status]++
		if o.Status == domain.OrderDelivered {
			stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalPrice)
		}
	}
	return stats, nil
}

func (s *memStore) stock(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.medicines[id].Quantity
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []domain.Notification
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, note *domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, *note)
	return n.err
}

func (n *recordingNotifier) snapshot() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.notes...)
}

var errStorage = errors.New("connection reset")
