package analytics

import (
	"context"
	"errors"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/health"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

type fakeStats struct {
	points  []domain.OrderPoint
	emails  []string
	users   []domain.User
	spend   []domain.CategorySpend
	lastTop domain.OrderQuery
}

func (f *fakeStats) OrderPoints(ctx context.Context, q domain.OrderQuery) ([]domain.OrderPoint, error) {
	var out []domain.OrderPoint
	for _, p := range f.points {
		if q.UserID != "" && p.UserID != q.UserID {
			continue
		}
		if len(q.Statuses) > 0 {
			ok := false
			for _, s := range q.Statuses {
				ok = ok || s == p.Status
			}
			if !ok {
				continue
			}
		}
		if p.CreatedAt.Before(q.From) || !p.CreatedAt.Before(q.To) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStats) CountUsers(ctx context.Context, q domain.UserQuery) (int64, error) {
	var n int64
	for _, u := range f.users {
		if !q.CreatedFrom.IsZero() && u.CreatedAt.Before(q.CreatedFrom) {
			continue
		}
		if !q.CreatedBefore.IsZero() && !u.CreatedAt.Before(q.CreatedBefore) {
			continue
		}
		n++
	}
	return n, nil
}

func (f *fakeStats) ActiveUsers(ctx context.Context, q domain.OrderQuery) (int64, error) {
	pts, _ := f.OrderPoints(ctx, q)
	seen := map[string]bool{}
	for _, p := range pts {
		seen[p.UserID] = true
	}
	return int64(len(seen)), nil
}

func (f *fakeStats) TopMedicines(ctx context.Context, q domain.OrderQuery, limit int) ([]domain.MedicineUsage, error) {
	f.lastTop = q
	return nil, nil
}

func (f *fakeStats) ProviderTotals(ctx context.Context, limit int) ([]domain.ProviderTotal, error) {
	return nil, nil
}

func (f *fakeStats) SpendingByCategory(ctx context.Context, q domain.OrderQuery) ([]domain.CategorySpend, error) {
	return f.spend, nil
}

func (f *fakeStats) UserEmails(ctx context.Context) ([]string, error) { return f.emails, nil }

func (f *fakeStats) SearchOrders(ctx context.Context, query string, limit int) ([]domain.Order, error) {
	return []domain.Order{{ID: "ab12", Status: domain.OrderPending, TotalPrice: decimal.NewFromInt(3)}}, nil
}

func (f *fakeStats) SearchUsers(ctx context.Context, query string, limit int) ([]domain.User, error) {
	return []domain.User{{ID: "u1", Name: "Ana", Email: "ana@clinic.test"}}, nil
}

func (f *fakeStats) SearchMedicines(ctx context.Context, query string, limit int) ([]domain.Medicine, error) {
	return []domain.Medicine{{ID: "m1", Name: "Aspirin"}}, nil
}

func (f *fakeStats) PoolStats() (int, int, error) { return 4, 1, nil }

type fakeMedicines struct{ since time.Time }

func (f *fakeMedicines) FindCreatedSince(ctx context.Context, since time.Time, limit int) ([]domain.Medicine, error) {
	f.since = since
	return []domain.Medicine{{ID: "m1", Name: "New"}}, nil
}

func newService(stats *fakeStats) (*analyticsService, *fakeMedicines) {
	meds := &fakeMedicines{}
	h := health.New()
	h.AddReadinessCheck("database", time.Second, func(ctx context.Context) error { return errors.New("down") })
	svc := NewAnalyticsService(stats, meds, h)
	svc.now = func() time.Time { return now }
	return svc, meds
}

func pt(user string, status domain.OrderStatus, total int64, at time.Time) domain.OrderPoint {
	return domain.OrderPoint{UserID: user, Status: status, TotalPrice: decimal.NewFromInt(total), CreatedAt: at}
}

func day(m time.Month, d int) time.Time { return time.Date(2026, m, d, 12, 0, 0, 0, time.UTC) }

func TestRevenueTrends(t *testing.T) {
	svc, _ := newService(&fakeStats{points: []domain.OrderPoint{
		pt("p1", domain.OrderDelivered, 10, day(10, 1)),
		pt("p1", domain.OrderCancelled, 99, day(10, 2)),
		pt("p2", domain.OrderPending, 5, day(9, 20)),
	}})

	got, err := svc.RevenueTrends(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Aug 2026", got[0].Month)
	assert.Equal(t, "5", got[1].Revenue.String())
	assert.Equal(t, "10", got[2].Revenue.String())
	assert.Equal(t, int64(1), got[2].Orders)
}

func TestUserGrowth_Cumulative(t *testing.T) {
	svc, _ := newService(&fakeStats{
		users: []domain.User{
			{CreatedAt: day(1, 1)},
			{CreatedAt: day(9, 5)},
			{CreatedAt: day(10, 5)},
			{CreatedAt: day(10, 6)},
		},
		points: []domain.OrderPoint{pt("p1", domain.OrderPending, 1, day(10, 7)), pt("p1", domain.OrderPending, 1, day(10, 8))},
	})

	got, err := svc.UserGrowth(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserGrowthPoint{
		{Month: "Sep 2026", NewUsers: 1, ActiveUsers: 0, TotalUsers: 2},
		{Month: "Oct 2026", NewUsers: 2, ActiveUsers: 1, TotalUsers: 4},
	}, got)
}

func TestGeographicDistribution(t *testing.T) {
	svc, _ := newService(&fakeStats{emails: []string{"a@clinic.test", "b@Clinic.test", "c@pharm.test", "broken"}})

	got, err := svc.GeographicDistribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.RegionCount{
		{Region: "clinic.test", Users: 2},
		{Region: "pharm.test", Users: 1},
		{Region: "unknown", Users: 1},
	}, got)
}

func TestSeasonalPatterns(t *testing.T) {
	svc, _ := newService(&fakeStats{points: []domain.OrderPoint{
		pt("p1", domain.OrderDelivered, 10, day(2, 1)),
		pt("p1", domain.OrderDelivered, 15, day(2, 9)),
	}})

	got, err := svc.SeasonalPatterns(context.Background(), 2026)
	require.NoError(t, err)
	require.Len(t, got, 12)
	assert.Equal(t, "Feb", got[1].Month)
	assert.Equal(t, int64(2), got[1].Orders)
	assert.Equal(t, "25", got[1].Revenue.String())
}

func TestSearch(t *testing.T) {
	svc, _ := newService(&fakeStats{})

	hits, err := svc.Search(context.Background(), "a", "", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 0.9, hits[0].Relevance)
	assert.Equal(t, 0.8, hits[1].Relevance)

	hits, err = svc.Search(context.Background(), "a", "medicines", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "/medicines/m1", hits[0].URL)

	_, err = svc.Search(context.Background(), " ", "", 10)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = svc.Search(context.Background(), "a", "invoices", 10)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestOrderTrends_Week(t *testing.T) {
	svc, _ := newService(&fakeStats{points: []domain.OrderPoint{
		pt("p1", domain.OrderPending, 4, now.AddDate(0, 0, -1)),
		pt("p2", domain.OrderPending, 8, now.AddDate(0, 0, -1)),
	}})

	got, err := svc.OrderTrends(context.Background(), "p1", "week", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Week 1", got[0].Period)
	assert.Equal(t, int64(1), got[1].Orders)
	assert.Equal(t, "4", got[1].Revenue.String())

	_, err = svc.OrderTrends(context.Background(), "p1", "day", 2)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestSpendingAnalysis_Shares(t *testing.T) {
	svc, _ := newService(&fakeStats{spend: []domain.CategorySpend{
		{Category: "Analgesic", TotalSpent: decimal.NewFromInt(75), ItemCount: 3},
		{Category: "Antibiotic", TotalSpent: decimal.NewFromInt(25), ItemCount: 1},
	}})

	got, err := svc.SpendingAnalysis(context.Background(), "p1", 0)
	require.NoError(t, err)
	assert.Equal(t, 75.0, got[0].Percentage)
	assert.Equal(t, "25", got[0].AverageOrderValue.String())
}

func TestOrderFrequency(t *testing.T) {
	var pts []domain.OrderPoint
	pts = append(pts, pt("p1", domain.OrderPending, 1, day(5, 1)), pt("p1", domain.OrderPending, 1, day(6, 1)))
	for i := 0; i < 4; i++ {
		pts = append(pts, pt("p1", domain.OrderPending, 1, day(9, i+1)))
	}
	svc, _ := newService(&fakeStats{points: pts})

	got, err := svc.OrderFrequency(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.TotalOrders)
	assert.Equal(t, domain.TrendIncreasing, got.Trend)
	assert.Equal(t, 100.0, got.ChangePercentage)
	assert.Equal(t, 1.0, got.AverageOrdersPerMonth)
	assert.Equal(t, "6 months", got.Period)
}

func TestSystemHealth_Degraded(t *testing.T) {
	svc, _ := newService(&fakeStats{})

	h := svc.SystemHealth(context.Background())
	assert.Equal(t, "degraded", h.Overall)
	assert.Equal(t, 4, h.Database.OpenConnections)
	require.Len(t, h.Checks, 1)
	assert.Equal(t, "down", h.Checks[0].Error)
	assert.Positive(t, h.Runtime.Goroutines)
}

func TestAnnouncements(t *testing.T) {
	svc, meds := newService(&fakeStats{})

	got, err := svc.Announcements(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Uncategorized", got[0].Category)
	assert.Equal(t, now.AddDate(0, 0, -30), meds.since)
}
