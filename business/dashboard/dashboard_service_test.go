package dashboard

import (
	"context"
	"errors"
	"pharmaSupply/domain"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

// fakeStats evaluates queries against an in-memory order list.
type fakeStats struct {
	orders   []domain.OrderPoint
	activity []domain.StockActivity
	fail     error
}

func (f *fakeStats) match(q domain.OrderQuery) []domain.OrderPoint {
	var out []domain.OrderPoint
	for _, o := range f.orders {
		if q.UserID != "" && o.UserID != q.UserID {
			continue
		}
		if len(q.Statuses) > 0 {
			ok := false
			for _, s := range q.Statuses {
				ok = ok || s == o.Status
			}
			if !ok {
				continue
			}
		}
		if !q.From.IsZero() && o.CreatedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !o.CreatedAt.Before(q.To) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (f *fakeStats) CountOrders(ctx context.Context, q domain.OrderQuery) (int64, error) {
	if f.fail != nil {
		return 0, f.fail
	}
	return int64(len(f.match(q))), nil
}

func (f *fakeStats) SumOrders(ctx context.Context, q domain.OrderQuery) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, o := range f.match(q) {
		sum = sum.Add(o.TotalPrice)
	}
	return sum, nil
}

func (f *fakeStats) OrderPoints(ctx context.Context, q domain.OrderQuery) ([]domain.OrderPoint, error) {
	return f.match(q), nil
}

func (f *fakeStats) CountUsers(ctx context.Context, q domain.UserQuery) (int64, error) {
	if q.CreatedBefore.After(now) {
		return 4, nil
	}
	return 2, nil
}

func (f *fakeStats) CountMedicines(ctx context.Context, createdBefore time.Time) (int64, error) {
	return 10, nil
}

func (f *fakeStats) TopMedicines(ctx context.Context, q domain.OrderQuery, limit int) ([]domain.MedicineUsage, error) {
	return []domain.MedicineUsage{{Name: "Paracetamol", TotalQuantity: 40}}, nil
}

func (f *fakeStats) MedicineActivity(ctx context.Context, medicineID string, since time.Time) ([]domain.StockActivity, error) {
	return f.activity, nil
}

type fakeOrders struct{ last domain.OrderFilter }

func (f *fakeOrders) FindAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	f.last = filter
	return []domain.Order{{ID: "o1"}}, 1, nil
}

type fakeMedicines map[string]domain.Medicine

func (f fakeMedicines) FindByID(ctx context.Context, id string) (domain.Medicine, error) {
	m, ok := f[id]
	if !ok {
		return domain.Medicine{}, domain.NewNotFound("Medicine", id)
	}
	return m, nil
}

func (f fakeMedicines) FindLowStock(ctx context.Context, below int) ([]domain.Medicine, error) {
	var out []domain.Medicine
	for _, m := range f {
		if m.Quantity < below {
			out = append(out, m)
		}
	}
	return out, nil
}

func point(user string, status domain.OrderStatus, total string, at time.Time) domain.OrderPoint {
	return domain.OrderPoint{UserID: user, Status: status, TotalPrice: decimal.RequireFromString(total), CreatedAt: at}
}

func newService(stats *fakeStats, meds fakeMedicines) *dashboardService {
	svc := NewDashboardService(stats, &fakeOrders{}, meds)
	svc.now = func() time.Time { return now }
	return svc
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, float64(100), domain.PercentChange(decimal.Zero, decimal.NewFromInt(3)))
	assert.Equal(t, float64(0), domain.PercentChange(decimal.Zero, decimal.Zero))
	assert.Equal(t, float64(50), domain.PercentChange(decimal.NewFromInt(2), decimal.NewFromInt(3)))
	assert.Equal(t, float64(-33), domain.PercentChange(decimal.NewFromInt(3), decimal.NewFromInt(2)))
}

func TestProviderStats(t *testing.T) {
	stats := &fakeStats{orders: []domain.OrderPoint{
		point("p1", domain.OrderPending, "10", time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)),
		point("p1", domain.OrderDelivered, "20", time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)),
		point("p1", domain.OrderDelivered, "5", time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)),
		point("p1", domain.OrderCancelled, "99", time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC)),
		point("p2", domain.OrderDelivered, "1000", time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)),
	}}
	svc := newService(stats, fakeMedicines{"m1": {ID: "m1", Quantity: 3}, "m2": {ID: "m2", Quantity: 500}})

	d, err := svc.ProviderStats(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, domain.CountChange{Current: 3, Previous: 1, Change: 200}, d.TotalOrders)
	assert.Equal(t, int64(1), d.PendingOrders.Current)
	assert.Equal(t, float64(0), d.DeliveredOrders.Change)
	assert.Equal(t, "30", d.TotalSpent.Current.String())
	assert.Equal(t, "5", d.TotalSpent.Previous.String())
	assert.Equal(t, float64(500), d.TotalSpent.Change)

	require.Len(t, d.LowStock, 1)
	assert.Equal(t, domain.StockCritical, d.LowStock[0].Level)

	require.Len(t, d.MonthlySpending, 6)
	assert.Equal(t, "May", d.MonthlySpending[0].Month)
	assert.Equal(t, "Oct", d.MonthlySpending[5].Month)
	assert.Equal(t, "20", d.MonthlySpending[5].Amount.String())
	assert.Equal(t, "5", d.MonthlySpending[4].Amount.String())
}

func TestAdminStats(t *testing.T) {
	stats := &fakeStats{orders: []domain.OrderPoint{
		point("p1", domain.OrderDelivered, "20", time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)),
		point("p2", domain.OrderPending, "50", time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)),
	}}
	svc := newService(stats, fakeMedicines{})

	d, err := svc.AdminStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.CountChange{Current: 4, Previous: 2, Change: 100}, d.TotalUsers)
	assert.Equal(t, float64(0), d.TotalMedicines.Change)
	assert.Equal(t, int64(2), d.TotalOrders.Current)
	assert.Equal(t, "20", d.Revenue.Current.String())
	assert.Equal(t, float64(100), d.Revenue.Change)
	assert.Len(t, d.TopMedicines, 1)
}

func TestAdminStats_PropagatesErrors(t *testing.T) {
	svc := newService(&fakeStats{fail: errors.New("db down")}, fakeMedicines{})

	_, err := svc.AdminStats(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestLowStock_Buckets(t *testing.T) {
	svc := newService(&fakeStats{}, fakeMedicines{
		"a": {ID: "a", Quantity: 2},
		"b": {ID: "b", Quantity: 20},
		"c": {ID: "c", Quantity: 40},
		"d": {ID: "d", Quantity: 60},
	})

	r, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, r.Total)
	assert.Len(t, r.Critical, 1)
	assert.Len(t, r.Low, 1)
	assert.Len(t, r.Warning, 1)
}

func TestStockDetails(t *testing.T) {
	stats := &fakeStats{activity: []domain.StockActivity{
		{Status: domain.OrderDelivered, Quantity: 60},
		{Status: domain.OrderPending, Quantity: 30},
		{Status: domain.OrderCancelled, Quantity: 500},
	}}
	svc := newService(stats, fakeMedicines{"m1": {ID: "m1", Quantity: 15}})

	d, err := svc.StockDetails(context.Background(), "m1")
	require.NoError(t, err)

	assert.Equal(t, 3.0, d.AvgDailyUsage)
	require.NotNil(t, d.DaysRemaining)
	assert.Equal(t, 5, *d.DaysRemaining)
	assert.Equal(t, []string{
		"Order within 1-2 days to avoid stockout",
		"Only 5 days of stock remaining at current usage rate",
	}, d.Recommendations)
}

func TestStockDetails_Adequate(t *testing.T) {
	svc := newService(&fakeStats{}, fakeMedicines{"m1": {ID: "m1", Quantity: 400}})

	d, err := svc.StockDetails(context.Background(), "m1")
	require.NoError(t, err)
	assert.Nil(t, d.DaysRemaining)
	assert.Equal(t, []string{"Stock levels are adequate"}, d.Recommendations)
}
