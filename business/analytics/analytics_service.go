package analytics

import (
	"context"
	"fmt"
	"math"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/health"
	"pharmaSupply/pkg/logger"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type StatsReader interface {
	OrderPoints(ctx context.Context, q domain.OrderQuery) ([]domain.OrderPoint, error)
	CountUsers(ctx context.Context, q domain.UserQuery) (int64, error)
	ActiveUsers(ctx context.Context, q domain.OrderQuery) (int64, error)
	TopMedicines(ctx context.Context, q domain.OrderQuery, limit int) ([]domain.MedicineUsage, error)
	ProviderTotals(ctx context.Context, limit int) ([]domain.ProviderTotal, error)
	SpendingByCategory(ctx context.Context, q domain.OrderQuery) ([]domain.CategorySpend, error)
	UserEmails(ctx context.Context) ([]string, error)
	SearchOrders(ctx context.Context, query string, limit int) ([]domain.Order, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]domain.User, error)
	SearchMedicines(ctx context.Context, query string, limit int) ([]domain.Medicine, error)
	PoolStats() (open, inUse int, err error)
}

type MedicineReader interface {
	FindCreatedSince(ctx context.Context, since time.Time, limit int) ([]domain.Medicine, error)
}

type ReadinessChecker interface {
	Readiness(ctx context.Context) health.Report
}

type analyticsService struct {
	stats     StatsReader
	medicines MedicineReader
	health    ReadinessChecker
	now       func() time.Time
}

func NewAnalyticsService(stats StatsReader, medicines MedicineReader, health ReadinessChecker) *analyticsService {
	return &analyticsService{
		stats:     stats,
		medicines: medicines,
		health:    health,
		now:       time.Now,
	}
}

const (
	defaultTrendMonths  = 12
	defaultGrowthMonths = 6
	defaultWindow       = 6
	maxMonths           = 36
	defaultLimit        = 10
	maxLimit            = 100
	announcementDays    = 30
	announcementLimit   = 5
	frequencyThreshold  = 10
	monthLabel          = "Jan 2006"
)

var nonCancelled = []domain.OrderStatus{
	domain.OrderPending, domain.OrderProcessing, domain.OrderShipped, domain.OrderDelivered,
}

func clamp(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// monthStarts returns n consecutive month starts ending with the current month.
func (s *analyticsService) monthStarts(n int) []time.Time {
	current := domain.MonthStart(s.now().UTC())
	out := make([]time.Time, n)
	for i := range out {
		out[i] = current.AddDate(0, i-n+1, 0)
	}
	return out
}

func monthIndex(starts []time.Time, t time.Time) int {
	t = t.UTC()
	first := starts[0]
	idx := (t.Year()-first.Year())*12 + int(t.Month()) - int(first.Month())
	if idx < 0 || idx >= len(starts) {
		return -1
	}
	return idx
}

// RevenueTrends sums non-cancelled order totals per calendar month.
func (s *analyticsService) RevenueTrends(ctx context.Context, months int) ([]domain.RevenuePoint, error) {
	starts := s.monthStarts(clamp(months, defaultTrendMonths, maxMonths))
	points, err := s.stats.OrderPoints(ctx, domain.OrderQuery{
		Statuses: nonCancelled,
		From:     starts[0],
		To:       starts[len(starts)-1].AddDate(0, 1, 0),
	})
	if err != nil {
		logger.Error("Failed to load revenue trends", "error", err)
		return nil, err
	}

	out := make([]domain.RevenuePoint, len(starts))
	for i, st := range starts {
		out[i] = domain.RevenuePoint{Month: st.Format(monthLabel), Revenue: decimal.Zero}
	}
	for _, p := range points {
		if i := monthIndex(starts, p.CreatedAt); i >= 0 {
			out[i].Revenue = out[i].Revenue.Add(p.TotalPrice)
			out[i].Orders++
		}
	}
	return out, nil
}

// UserGrowth reports new, ordering and cumulative users per month.
func (s *analyticsService) UserGrowth(ctx context.Context, months int) ([]domain.UserGrowthPoint, error) {
	starts := s.monthStarts(clamp(months, defaultGrowthMonths, maxMonths))
	out := make([]domain.UserGrowthPoint, len(starts))
	var base int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		base, err = s.stats.CountUsers(gctx, domain.UserQuery{CreatedBefore: starts[0]})
		return err
	})
	for i, st := range starts {
		end := st.AddDate(0, 1, 0)
		out[i].Month = st.Format(monthLabel)
		g.Go(func() (err error) {
			out[i].NewUsers, err = s.stats.CountUsers(gctx, domain.UserQuery{CreatedFrom: st, CreatedBefore: end})
			return err
		})
		g.Go(func() (err error) {
			out[i].ActiveUsers, err = s.stats.ActiveUsers(gctx, domain.OrderQuery{From: st, To: end})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("Failed to load user growth", "error", err)
		return nil, err
	}

	total := base
	for i := range out {
		total += out[i].NewUsers
		out[i].TotalUsers = total
	}
	return out, nil
}

func (s *analyticsService) MedicinePerformance(ctx context.Context, limit int) ([]domain.MedicineUsage, error) {
	return s.stats.TopMedicines(ctx, domain.OrderQuery{}, clamp(limit, defaultLimit, maxLimit))
}

func (s *analyticsService) ProviderPerformance(ctx context.Context, limit int) ([]domain.ProviderTotal, error) {
	return s.stats.ProviderTotals(ctx, clamp(limit, defaultLimit, maxLimit))
}

// GeographicDistribution groups users by email domain.
func (s *analyticsService) GeographicDistribution(ctx context.Context) ([]domain.RegionCount, error) {
	emails, err := s.stats.UserEmails(ctx)
	if err != nil {
		logger.Error("Failed to load user emails", "error", err)
		return nil, err
	}

	counts := map[string]int64{}
	for _, e := range emails {
		region := "unknown"
		if at := strings.LastIndex(e, "@"); at >= 0 && at < len(e)-1 {
			region = strings.ToLower(e[at+1:])
		}
		counts[region]++
	}

	out := make([]domain.RegionCount, 0, len(counts))
	for r, n := range counts {
		out = append(out, domain.RegionCount{Region: r, Users: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Users != out[j].Users {
			return out[i].Users > out[j].Users
		}
		return out[i].Region < out[j].Region
	})
	return out, nil
}

// SeasonalPatterns buckets a calendar year of orders by month.
func (s *analyticsService) SeasonalPatterns(ctx context.Context, year int) ([]domain.SeasonalPoint, error) {
	if year <= 0 {
		year = s.now().UTC().Year()
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	points, err := s.stats.OrderPoints(ctx, domain.OrderQuery{From: start, To: start.AddDate(1, 0, 0)})
	if err != nil {
		logger.Error("Failed to load seasonal patterns", "year", year, "error", err)
		return nil, err
	}

	out := make([]domain.SeasonalPoint, 12)
	for i := range out {
		out[i] = domain.SeasonalPoint{Month: start.AddDate(0, i, 0).Format("Jan"), Revenue: decimal.Zero}
	}
	for _, p := range points {
		m := int(p.CreatedAt.UTC().Month()) - 1
		out[m].Orders++
		out[m].Revenue = out[m].Revenue.Add(p.TotalPrice)
	}
	return out, nil
}

func (s *analyticsService) SystemHealth(ctx context.Context) domain.SystemHealth {
	report := s.health.Readiness(ctx)

	out := domain.SystemHealth{
		Overall:   "healthy",
		Uptime:    report.Uptime,
		Timestamp: s.now().UTC(),
	}
	if !report.Healthy {
		out.Overall = "degraded"
	}
	for _, c := range report.Checks {
		out.Checks = append(out.Checks, domain.HealthCheck{Name: c.Name, Healthy: c.Healthy, Error: c.Error})
	}

	if open, inUse, err := s.stats.PoolStats(); err != nil {
		logger.Warn("Failed to read pool stats", "error", err)
	} else {
		out.Database = domain.PoolUsage{OpenConnections: open, InUse: inUse}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	out.Runtime = domain.RuntimeUsage{
		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: math.Round(float64(mem.HeapAlloc)/(1<<20)*100) / 100,
		NumGC:       mem.NumGC,
	}
	return out
}

// Search looks up orders, users and medicines. kind narrows it to one of them.
func (s *analyticsService) Search(ctx context.Context, query, kind string, limit int) ([]domain.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidation("search query is required")
	}
	switch kind {
	case "", "orders", "users", "medicines":
	default:
		return nil, domain.NewValidation("invalid search type: %s", kind)
	}
	limit = clamp(limit, defaultLimit, maxLimit)

	var hits []domain.SearchHit
	if kind == "" || kind == "orders" {
		orders, err := s.stats.SearchOrders(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			hits = append(hits, domain.SearchHit{
				ID:          o.ID,
				Type:        "order",
				Title:       "Order " + o.ID,
				Description: fmt.Sprintf("%s - $%s", o.Status, o.TotalPrice.StringFixed(2)),
				Relevance:   0.9,
				URL:         "/orders/" + o.ID,
			})
		}
	}
	if kind == "" || kind == "users" {
		users, err := s.stats.SearchUsers(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			hits = append(hits, domain.SearchHit{
				ID:          u.ID,
				Type:        "user",
				Title:       u.Name,
				Description: u.Email,
				Relevance:   0.8,
				URL:         "/users/" + u.ID,
			})
		}
	}
	if kind == "" || kind == "medicines" {
		meds, err := s.stats.SearchMedicines(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		for _, m := range meds {
			hits = append(hits, domain.SearchHit{
				ID:          m.ID,
				Type:        "medicine",
				Title:       m.Name,
				Description: m.Category,
				Relevance:   0.7,
				URL:         "/medicines/" + m.ID,
			})
		}
	}

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// OrderTrends buckets orders by week or calendar month. An empty userID covers all users.
func (s *analyticsService) OrderTrends(ctx context.Context, userID, period string, months int) ([]domain.OrderTrendPoint, error) {
	months = clamp(months, defaultWindow, maxMonths)
	now := s.now().UTC()

	type bucket struct {
		label      string
		start, end time.Time
	}
	var buckets []bucket

	switch period {
	case "week":
		start := now.AddDate(0, 0, -7*months)
		for i := 0; start.Before(now); i++ {
			buckets = append(buckets, bucket{label: fmt.Sprintf("Week %d", i+1), start: start, end: start.AddDate(0, 0, 7)})
			start = start.AddDate(0, 0, 7)
		}
	case "", "month":
		for _, st := range s.monthStarts(months) {
			buckets = append(buckets, bucket{label: st.Format(monthLabel), start: st, end: st.AddDate(0, 1, 0)})
		}
	default:
		return nil, domain.NewValidation("period must be week or month")
	}

	points, err := s.stats.OrderPoints(ctx, domain.OrderQuery{UserID: userID, From: buckets[0].start, To: buckets[len(buckets)-1].end})
	if err != nil {
		logger.Error("Failed to load order trends", "user_id", userID, "error", err)
		return nil, err
	}

	out := make([]domain.OrderTrendPoint, len(buckets))
	for i, b := range buckets {
		out[i] = domain.OrderTrendPoint{Period: b.label, Revenue: decimal.Zero}
	}
	for _, p := range points {
		for i, b := range buckets {
			if !p.CreatedAt.Before(b.start) && p.CreatedAt.Before(b.end) {
				out[i].Orders++
				out[i].Revenue = out[i].Revenue.Add(p.TotalPrice)
				break
			}
		}
	}
	return out, nil
}

func (s *analyticsService) TopOrderedMedicines(ctx context.Context, userID string, limit, months int) ([]domain.MedicineUsage, error) {
	from := s.now().UTC().AddDate(0, -clamp(months, defaultWindow, maxMonths), 0)
	return s.stats.TopMedicines(ctx, domain.OrderQuery{UserID: userID, From: from}, clamp(limit, defaultLimit, maxLimit))
}

// SpendingAnalysis splits spend by medicine category with each share of the total.
func (s *analyticsService) SpendingAnalysis(ctx context.Context, userID string, months int) ([]domain.CategoryShare, error) {
	from := s.now().UTC().AddDate(0, -clamp(months, defaultWindow, maxMonths), 0)
	spend, err := s.stats.SpendingByCategory(ctx, domain.OrderQuery{UserID: userID, From: from})
	if err != nil {
		logger.Error("Failed to load spending analysis", "user_id", userID, "error", err)
		return nil, err
	}

	total := decimal.Zero
	for _, c := range spend {
		total = total.Add(c.TotalSpent)
	}

	out := make([]domain.CategoryShare, 0, len(spend))
	for _, c := range spend {
		share := domain.CategoryShare{CategorySpend: c, AverageOrderValue: decimal.Zero}
		if total.IsPositive() {
			share.Percentage, _ = c.TotalSpent.Div(total).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		}
		if c.ItemCount > 0 {
			share.AverageOrderValue = c.TotalSpent.Div(decimal.NewFromInt(c.ItemCount)).Round(2)
		}
		out = append(out, share)
	}
	return out, nil
}

// OrderFrequency compares the two halves of the last six months.
func (s *analyticsService) OrderFrequency(ctx context.Context, userID string) (domain.OrderFrequency, error) {
	now := s.now().UTC()
	start := now.AddDate(0, -defaultWindow, 0)
	mid := start.Add(now.Sub(start) / 2)

	points, err := s.stats.OrderPoints(ctx, domain.OrderQuery{UserID: userID, From: start, To: now})
	if err != nil {
		logger.Error("Failed to load order frequency", "user_id", userID, "error", err)
		return domain.OrderFrequency{}, err
	}

	var first, second int64
	for _, p := range points {
		if p.CreatedAt.Before(mid) {
			first++
		} else {
			second++
		}
	}

	total := int64(len(points))
	weeks := math.Ceil(now.Sub(start).Hours() / (24 * 7))
	out := domain.OrderFrequency{
		TotalOrders:           total,
		AverageOrdersPerWeek:  math.Round(float64(total)/weeks*100) / 100,
		AverageOrdersPerMonth: math.Round(float64(total)/defaultWindow*100) / 100,
		Period:                "6 months",
		Trend:                 domain.TrendStable,
	}
	if first > 0 {
		change := float64(second-first) / float64(first) * 100
		switch {
		case change > frequencyThreshold:
			out.Trend = domain.TrendIncreasing
		case change < -frequencyThreshold:
			out.Trend = domain.TrendDecreasing
		}
		out.ChangePercentage = math.Round(math.Abs(change)*100) / 100
	}
	return out, nil
}

// Announcements lists medicines added in the last 30 days.
func (s *analyticsService) Announcements(ctx context.Context, limit int) ([]domain.Announcement, error) {
	since := s.now().UTC().AddDate(0, 0, -announcementDays)
	meds, err := s.medicines.FindCreatedSince(ctx, since, clamp(limit, announcementLimit, maxLimit))
	if err != nil {
		return nil, err
	}

	out := make([]domain.Announcement, 0, len(meds))
	for _, m := range meds {
		category := m.Category
		if category == "" {
			category = "Uncategorized"
		}
		out = append(out, domain.Announcement{
			MedicineID:  m.ID,
			Name:        m.Name,
			Description: m.Description,
			Category:    category,
			Price:       m.Price,
			AddedDate:   m.CreatedAt,
		})
	}
	return out, nil
}
