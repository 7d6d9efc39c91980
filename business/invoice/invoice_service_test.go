package invoice

import (
	"context"
	"errors"
	"pharmaSupply/domain"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memInvoices struct {
	byID   map[string]domain.Invoice
	orders map[string]domain.Order
	// staleCounts makes the next Count calls miss the latest invoice, as a
	// count taken just before a concurrent insert would.
	staleCounts int
}

func (m *memInvoices) Create(ctx context.Context, inv *domain.Invoice) error {
	for _, existing := range m.byID {
		if existing.InvoiceID == inv.InvoiceID {
			return domain.NewConflict("Invoice number %s already exists", inv.InvoiceID)
		}
	}
	inv.ID = uuid.NewString()
	m.byID[inv.ID] = *inv
	return nil
}

func (m *memInvoices) Count(ctx context.Context) (int64, error) {
	n := int64(len(m.byID))
	if m.staleCounts > 0 && n > 0 {
		m.staleCounts--
		n--
	}
	return n, nil
}

func (m *memInvoices) withOrder(inv domain.Invoice) domain.Invoice {
	o := m.orders[inv.OrderID]
	inv.Order = &o
	return inv
}

func (m *memInvoices) FindByID(ctx context.Context, id string) (domain.Invoice, error) {
	inv, ok := m.byID[id]
	if !ok {
		return domain.Invoice{}, domain.NewNotFound("Invoice", id)
	}
	return m.withOrder(inv), nil
}

func (m *memInvoices) FindByOrderID(ctx context.Context, orderID string) (domain.Invoice, error) {
	for _, inv := range m.byID {
		if inv.OrderID == orderID {
			return m.withOrder(inv), nil
		}
	}
	return domain.Invoice{}, domain.NewNotFound("Invoice")
}

func (m *memInvoices) FindAll(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, int64, error) {
	var out []domain.Invoice
	for _, inv := range m.byID {
		if filter.Status == "" || inv.Status == filter.Status {
			out = append(out, inv)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memInvoices) UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus, paidAt *time.Time) error {
	inv, ok := m.byID[id]
	if !ok {
		return domain.NewNotFound("Invoice", id)
	}
	inv.Status = status
	if paidAt != nil {
		inv.PaidAt = paidAt
	}
	m.byID[id] = inv
	return nil
}

func (m *memInvoices) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.NewNotFound("Order", id)
	}
	return o, nil
}

func setup() (*invoiceService, *memInvoices) {
	repo := &memInvoices{
		byID:   map[string]domain.Invoice{},
		orders: map[string]domain.Order{"o1": {ID: "o1", UserID: "p1"}},
	}
	return NewInvoiceService(repo, repo, validator.New()), repo
}

func input() domain.InvoiceInput {
	return domain.InvoiceInput{
		OrderID:       "o1",
		CustomerName:  "Clinic",
		CustomerEmail: "billing@clinic.test",
		Amount:        decimal.RequireFromString("100.00"),
		Tax:           decimal.RequireFromString("8.25"),
		Discount:      decimal.RequireFromString("5"),
		DueDate:       time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateInvoice_NumberAndTotal(t *testing.T) {
	svc, _ := setup()

	first, err := svc.CreateInvoice(context.Background(), input())
	require.NoError(t, err)
	assert.Equal(t, "INV-001", first.InvoiceID)
	assert.True(t, decimal.RequireFromString("103.25").Equal(first.TotalAmount))
	assert.Equal(t, domain.InvoicePending, first.Status)

	second, err := svc.CreateInvoice(context.Background(), input())
	require.NoError(t, err)
	assert.Equal(t, "INV-002", second.InvoiceID)
}

func TestCreateInvoice_RenumbersTakenNumber(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()

	_, err := svc.CreateInvoice(ctx, input())
	require.NoError(t, err)

	repo.staleCounts = 1
	inv, err := svc.CreateInvoice(ctx, input())
	require.NoError(t, err)
	assert.Equal(t, "INV-002", inv.InvoiceID)
	assert.Len(t, repo.byID, 2)
}

func TestCreateInvoice_GivesUpAfterRepeatedClashes(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()

	_, err := svc.CreateInvoice(ctx, input())
	require.NoError(t, err)

	repo.staleCounts = numberAttempts
	_, err = svc.CreateInvoice(ctx, input())
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, repo.byID, 1)
}

func TestCreateInvoice_OrderMustExist(t *testing.T) {
	svc, _ := setup()
	in := input()
	in.OrderID = "missing"

	_, err := svc.CreateInvoice(context.Background(), in)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCreateInvoice_Validation(t *testing.T) {
	svc, _ := setup()
	in := input()
	in.CustomerEmail = "nope"

	_, err := svc.CreateInvoice(context.Background(), in)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestUpdateStatus_PaidStampsTime(t *testing.T) {
	svc, _ := setup()
	fixed := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	inv, err := svc.CreateInvoice(context.Background(), input())
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), inv.ID, domain.InvoicePaid)
	require.NoError(t, err)
	require.NotNil(t, updated.PaidAt)
	assert.Equal(t, fixed, *updated.PaidAt)

	_, err = svc.UpdateStatus(context.Background(), inv.ID, "LOST")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestGetInvoice_OwnerOrAdmin(t *testing.T) {
	svc, _ := setup()
	inv, err := svc.CreateInvoice(context.Background(), input())
	require.NoError(t, err)

	_, err = svc.GetInvoice(context.Background(), inv.ID, "p1", domain.RoleProvider)
	assert.NoError(t, err)

	_, err = svc.GetInvoiceByOrder(context.Background(), "o1", "a1", domain.RoleAdmin)
	assert.NoError(t, err)

	_, err = svc.GetInvoice(context.Background(), inv.ID, "p2", domain.RoleProvider)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}
