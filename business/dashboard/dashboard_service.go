package dashboard

import (
	"context"
	"fmt"
	"math"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type StatsReader interface {
	CountOrders(ctx context.Context, q domain.OrderQuery) (int64, error)
	SumOrders(ctx context.Context, q domain.OrderQuery) (decimal.Decimal, error)
	OrderPoints(ctx context.Context, q domain.OrderQuery) ([]domain.OrderPoint, error)
	CountUsers(ctx context.Context, q domain.UserQuery) (int64, error)
	CountMedicines(ctx context.Context, createdBefore time.Time) (int64, error)
	TopMedicines(ctx context.Context, q domain.OrderQuery, limit int) ([]domain.MedicineUsage, error)
	MedicineActivity(ctx context.Context, medicineID string, since time.Time) ([]domain.StockActivity, error)
}

type OrderLister interface {
	FindAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error)
}

type MedicineReader interface {
	FindByID(ctx context.Context, id string) (domain.Medicine, error)
	FindLowStock(ctx context.Context, below int) ([]domain.Medicine, error)
}

type dashboardService struct {
	stats     StatsReader
	orders    OrderLister
	medicines MedicineReader
	now       func() time.Time
}

func NewDashboardService(stats StatsReader, orders OrderLister, medicines MedicineReader) *dashboardService {
	return &dashboardService{
		stats:     stats,
		orders:    orders,
		medicines: medicines,
		now:       time.Now,
	}
}

const (
	trendMonths          = 6
	providerRecentOrders = 5
	adminRecentOrders    = 10
	providerLowStock     = 10
	topMedicines         = 5
	usageWindowDays      = 30
	shortSupplyDays      = 7
)

// periods returns the start of last month, this month and next month.
func (s *dashboardService) periods() (last, this, next time.Time) {
	this = domain.MonthStart(s.now().UTC())
	return this.AddDate(0, -1, 0), this, this.AddDate(0, 1, 0)
}

func (s *dashboardService) ProviderStats(ctx context.Context, userID string) (domain.ProviderDashboard, error) {
	last, this, next := s.periods()
	thisMonth := domain.OrderQuery{UserID: userID, From: this, To: next}
	lastMonth := domain.OrderQuery{UserID: userID, From: last, To: this}
	spent := []domain.OrderStatus{domain.OrderPending, domain.OrderProcessing, domain.OrderShipped, domain.OrderDelivered}

	var (
		out                         domain.ProviderDashboard
		ordersNow, ordersPrev       int64
		pendingNow, pendingPrev     int64
		deliveredNow, deliveredPrev int64
		spentNow, spentPrev         decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, q domain.OrderQuery, statuses ...domain.OrderStatus) {
		q.Statuses = statuses
		g.Go(func() (err error) {
			*dst, err = s.stats.CountOrders(gctx, q)
			return err
		})
	}
	sum := func(dst *decimal.Decimal, q domain.OrderQuery) {
		q.Statuses = spent
		g.Go(func() (err error) {
			*dst, err = s.stats.SumOrders(gctx, q)
			return err
		})
	}

	count(&ordersNow, thisMonth)
	count(&ordersPrev, lastMonth)
	count(&pendingNow, thisMonth, domain.OrderPending)
	count(&pendingPrev, lastMonth, domain.OrderPending)
	count(&deliveredNow, thisMonth, domain.OrderDelivered)
	count(&deliveredPrev, lastMonth, domain.OrderDelivered)
	sum(&spentNow, thisMonth)
	sum(&spentPrev, lastMonth)

	g.Go(func() error {
		recent, _, err := s.orders.FindAll(gctx, domain.OrderFilter{
			UserID: userID,
			Page:   domain.PageRequest{Page: 1, Limit: providerRecentOrders},
		})
		out.RecentOrders = recent
		return err
	})
	g.Go(func() error {
		low, err := s.medicines.FindLowStock(gctx, domain.StockWarningBelow)
		if err != nil {
			return err
		}
		if len(low) > providerLowStock {
			low = low[:providerLowStock]
		}
		out.LowStock = lowStockItems(low)
		return nil
	})
	g.Go(func() (err error) {
		out.MonthlySpending, err = s.monthlyTotals(gctx, userID, next)
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Failed to build provider dashboard", "user_id", userID, "error", err)
		return domain.ProviderDashboard{}, err
	}

	out.TotalOrders = domain.NewCountChange(ordersPrev, ordersNow)
	out.PendingOrders = domain.NewCountChange(pendingPrev, pendingNow)
	out.DeliveredOrders = domain.NewCountChange(deliveredPrev, deliveredNow)
	out.TotalSpent = domain.NewAmountChange(spentPrev, spentNow)
	return out, nil
}

func (s *dashboardService) AdminStats(ctx context.Context) (domain.AdminDashboard, error) {
	last, this, next := s.periods()
	delivered := []domain.OrderStatus{domain.OrderDelivered}

	var (
		out                      domain.AdminDashboard
		users, usersPrev         int64
		providers, providersPrev int64
		admins, adminsPrev       int64
		medicines, medicinesPrev int64
		orders, ordersPrev       int64
		revenue, revenuePrev     decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	countUsers := func(dst *int64, role domain.Role, before time.Time) {
		g.Go(func() (err error) {
			*dst, err = s.stats.CountUsers(gctx, domain.UserQuery{Role: role, CreatedBefore: before})
			return err
		})
	}
	countMedicines := func(dst *int64, before time.Time) {
		g.Go(func() (err error) {
			*dst, err = s.stats.CountMedicines(gctx, before)
			return err
		})
	}
	countOrders := func(dst *int64, from, to time.Time) {
		g.Go(func() (err error) {
			*dst, err = s.stats.CountOrders(gctx, domain.OrderQuery{From: from, To: to})
			return err
		})
	}
	sumRevenue := func(dst *decimal.Decimal, from, to time.Time) {
		g.Go(func() (err error) {
			*dst, err = s.stats.SumOrders(gctx, domain.OrderQuery{Statuses: delivered, From: from, To: to})
			return err
		})
	}

	countUsers(&users, "", next)
	countUsers(&usersPrev, "", this)
	countUsers(&providers, domain.RoleProvider, next)
	countUsers(&providersPrev, domain.RoleProvider, this)
	countUsers(&admins, domain.RoleAdmin, next)
	countUsers(&adminsPrev, domain.RoleAdmin, this)
	countMedicines(&medicines, next)
	countMedicines(&medicinesPrev, this)
	countOrders(&orders, this, next)
	countOrders(&ordersPrev, last, this)
	sumRevenue(&revenue, this, next)
	sumRevenue(&revenuePrev, last, this)

	g.Go(func() error {
		recent, _, err := s.orders.FindAll(gctx, domain.OrderFilter{Page: domain.PageRequest{Page: 1, Limit: adminRecentOrders}})
		out.RecentOrders = recent
		return err
	})
	g.Go(func() (err error) {
		out.TopMedicines, err = s.stats.TopMedicines(gctx, domain.OrderQuery{}, topMedicines)
		return err
	})
	g.Go(func() (err error) {
		out.MonthlyRevenue, err = s.monthlyTotals(gctx, "", next)
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Failed to build admin dashboard", "error", err)
		return domain.AdminDashboard{}, err
	}

	out.TotalUsers = domain.NewCountChange(usersPrev, users)
	out.TotalProviders = domain.NewCountChange(providersPrev, providers)
	out.TotalAdmins = domain.NewCountChange(adminsPrev, admins)
	out.TotalMedicines = domain.NewCountChange(medicinesPrev, medicines)
	out.TotalOrders = domain.NewCountChange(ordersPrev, orders)
	out.Revenue = domain.NewAmountChange(revenuePrev, revenue)
	return out, nil
}

// monthlyTotals sums DELIVERED order totals for the trendMonths months before end.
func (s *dashboardService) monthlyTotals(ctx context.Context, userID string, end time.Time) ([]domain.MonthlyAmount, error) {
	start := end.AddDate(0, -trendMonths, 0)
	points, err := s.stats.OrderPoints(ctx, domain.OrderQuery{
		UserID:   userID,
		Statuses: []domain.OrderStatus{domain.OrderDelivered},
		From:     start,
		To:       end,
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.MonthlyAmount, trendMonths)
	for i := range out {
		out[i] = domain.MonthlyAmount{Month: start.AddDate(0, i, 0).Format("Jan"), Amount: decimal.Zero}
	}
	for _, p := range points {
		created := p.CreatedAt.UTC()
		idx := (created.Year()-start.Year())*12 + int(created.Month()) - int(start.Month())
		if idx >= 0 && idx < trendMonths {
			out[idx].Amount = out[idx].Amount.Add(p.TotalPrice)
		}
	}
	return out, nil
}

func (s *dashboardService) LowStock(ctx context.Context) (domain.LowStockReport, error) {
	low, err := s.medicines.FindLowStock(ctx, domain.StockWarningBelow)
	if err != nil {
		logger.Error("Failed to load low stock", "error", err)
		return domain.LowStockReport{}, err
	}

	report := domain.LowStockReport{
		Critical: []domain.LowStockItem{},
		Low:      []domain.LowStockItem{},
		Warning:  []domain.LowStockItem{},
		Total:    len(low),
	}
	for _, item := range lowStockItems(low) {
		switch item.Level {
		case domain.StockCritical:
			report.Critical = append(report.Critical, item)
		case domain.StockLow:
			report.Low = append(report.Low, item)
		default:
			report.Warning = append(report.Warning, item)
		}
	}
	return report, nil
}

// StockDetails estimates how long current stock lasts from the last 30 days of orders.
func (s *dashboardService) StockDetails(ctx context.Context, medicineID string) (domain.StockDetails, error) {
	m, err := s.medicines.FindByID(ctx, medicineID)
	if err != nil {
		return domain.StockDetails{}, err
	}

	activity, err := s.stats.MedicineActivity(ctx, medicineID, s.now().UTC().AddDate(0, 0, -usageWindowDays))
	if err != nil {
		logger.Error("Failed to load stock activity", "medicine_id", medicineID, "error", err)
		return domain.StockDetails{}, err
	}

	used := 0
	for _, a := range activity {
		if a.Status != domain.OrderCancelled {
			used += a.Quantity
		}
	}
	avg := math.Round(float64(used)/usageWindowDays*100) / 100

	details := domain.StockDetails{
		Medicine:       m,
		Level:          domain.StockLevelOf(m.Quantity),
		AvgDailyUsage:  avg,
		RecentActivity: activity,
	}
	if avg > 0 {
		days := int(math.Floor(float64(m.Quantity) / avg))
		details.DaysRemaining = &days
	}
	details.Recommendations = recommendations(details.Level, details.DaysRemaining)
	return details, nil
}

func recommendations(level domain.StockLevel, daysRemaining *int) []string {
	var out []string
	switch level {
	case domain.StockCritical:
		out = append(out, "URGENT: Restock immediately - critical stock level")
	case domain.StockLow:
		out = append(out, "Order within 1-2 days to avoid stockout")
	case domain.StockWarning:
		out = append(out, "Consider placing an order soon")
	}
	if daysRemaining != nil && *daysRemaining < shortSupplyDays {
		out = append(out, fmt.Sprintf("Only %d days of stock remaining at current usage rate", *daysRemaining))
	}
	if len(out) == 0 {
		out = append(out, "Stock levels are adequate")
	}
	return out
}

func lowStockItems(meds []domain.Medicine) []domain.LowStockItem {
	out := make([]domain.LowStockItem, 0, len(meds))
	for _, m := range meds {
		out = append(out, domain.NewLowStockItem(m))
	}
	return out
}
