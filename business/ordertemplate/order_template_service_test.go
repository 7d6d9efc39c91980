package ordertemplate

import (
	"context"
	"errors"
	"pharmaSupply/domain"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTemplates struct {
	byID map[string]domain.OrderTemplate
}

func (m *memTemplates) Create(ctx context.Context, t *domain.OrderTemplate) error {
	t.ID = uuid.NewString()
	m.byID[t.ID] = *t
	return nil
}

func (m *memTemplates) FindByID(ctx context.Context, id, userID string) (domain.OrderTemplate, error) {
	t, ok := m.byID[id]
	if !ok || t.UserID != userID {
		return domain.OrderTemplate{}, domain.NewNotFound("Order template", id)
	}
	return t, nil
}

func (m *memTemplates) FindByUser(ctx context.Context, userID string) ([]domain.OrderTemplate, error) {
	var out []domain.OrderTemplate
	for _, t := range m.byID {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTemplates) Update(ctx context.Context, t *domain.OrderTemplate, items []domain.OrderTemplateItem) error {
	if items != nil {
		t.Items = items
	}
	m.byID[t.ID] = *t
	return nil
}

func (m *memTemplates) Delete(ctx context.Context, id, userID string) error {
	if _, err := m.FindByID(ctx, id, userID); err != nil {
		return err
	}
	delete(m.byID, id)
	return nil
}

type catalog map[string]domain.Medicine

func (c catalog) FindByIDs(ctx context.Context, ids []string) ([]domain.Medicine, error) {
	var out []domain.Medicine
	for _, id := range ids {
		if m, ok := c[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

type placer struct {
	userID string
	lines  []domain.OrderLine
}

func (p *placer) PlaceOrder(ctx context.Context, userID string, lines []domain.OrderLine) (domain.Order, error) {
	p.userID, p.lines = userID, lines
	return domain.Order{ID: "order-1", UserID: userID}, nil
}

type noTx struct{ calls int }

func (n *noTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	n.calls++
	return fn(ctx)
}

func newSvc() (*templateService, *placer, *noTx) {
	meds := catalog{
		"m1": {ID: "m1", Name: "Paracetamol", Price: decimal.RequireFromString("5.50")},
		"m2": {ID: "m2", Name: "Ibuprofen", Price: decimal.RequireFromString("7.25")},
	}
	p := &placer{}
	tx := &noTx{}
	return NewTemplateService(&memTemplates{byID: map[string]domain.OrderTemplate{}}, meds, p, tx), p, tx
}

func TestCreateTemplate_CapturesPrices(t *testing.T) {
	svc, _, _ := newSvc()

	tpl, err := svc.CreateTemplate(context.Background(), "p1", domain.TemplateInput{
		Name:  "Weekly",
		Items: []domain.OrderLine{{MedicineID: "m1", Quantity: 2}},
	})
	require.NoError(t, err)
	require.Len(t, tpl.Items, 1)
	assert.Equal(t, "5.5", tpl.Items[0].Price.String())
}

func TestCreateTemplate_UnknownMedicine(t *testing.T) {
	svc, _, _ := newSvc()

	_, err := svc.CreateTemplate(context.Background(), "p1", domain.TemplateInput{
		Name:  "Weekly",
		Items: []domain.OrderLine{{MedicineID: "m9", Quantity: 2}},
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdateTemplate_ReplacesItemsInTransaction(t *testing.T) {
	svc, _, tx := newSvc()
	tpl, err := svc.CreateTemplate(context.Background(), "p1", domain.TemplateInput{
		Name:  "Weekly",
		Items: []domain.OrderLine{{MedicineID: "m1", Quantity: 2}},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateTemplate(context.Background(), tpl.ID, "p1", domain.TemplateInput{
		Items: []domain.OrderLine{{MedicineID: "m2", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Weekly", updated.Name)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "m2", updated.Items[0].MedicineID)
	assert.Equal(t, 1, tx.calls)
}

func TestTemplates_OwnerScoped(t *testing.T) {
	svc, _, _ := newSvc()
	tpl, err := svc.CreateTemplate(context.Background(), "p1", domain.TemplateInput{
		Name:  "Weekly",
		Items: []domain.OrderLine{{MedicineID: "m1", Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = svc.GetTemplate(context.Background(), tpl.ID, "p2")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(svc.DeleteTemplate(context.Background(), tpl.ID, "p2"), domain.ErrNotFound))
}

func TestPlaceOrderFromTemplate(t *testing.T) {
	svc, p, _ := newSvc()
	tpl, err := svc.CreateTemplate(context.Background(), "p1", domain.TemplateInput{
		Name: "Weekly",
		Items: []domain.OrderLine{
			{MedicineID: "m1", Quantity: 2},
			{MedicineID: "m2", Quantity: 3},
		},
	})
	require.NoError(t, err)

	order, err := svc.PlaceOrder(context.Background(), tpl.ID, "p1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
	assert.Equal(t, "p1", p.userID)
	assert.Equal(t, []domain.OrderLine{{MedicineID: "m1", Quantity: 2}, {MedicineID: "m2", Quantity: 3}}, p.lines)
}
