package report

import (
	"context"
	"fmt"
	"pharmaSupply/domain"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// SourceReader loads the raw records behind each data source.
type SourceReader interface {
	ReportOrders(ctx context.Context, f domain.ReportFilters) ([]domain.Order, error)
	ReportUsers(ctx context.Context, f domain.ReportFilters) ([]domain.User, error)
	ReportMedicines(ctx context.Context, f domain.ReportFilters) ([]domain.Medicine, error)
	CountOrders(ctx context.Context, q domain.OrderQuery) (int64, error)
	CountUsers(ctx context.Context, q domain.UserQuery) (int64, error)
	SumOrders(ctx context.Context, q domain.OrderQuery) (decimal.Decimal, error)
	CountLowStock(ctx context.Context, below int) (int64, error)
}

// BuildTable loads the configured data source, then projects, groups and sorts it.
func BuildTable(ctx context.Context, src SourceReader, cfg domain.ReportConfig, now time.Time) (Table, error) {
	var (
		t   Table
		err error
	)
	switch cfg.DataSource {
	case "orders":
		t, err = orderTable(ctx, src, cfg.Filters)
	case "users":
		t, err = userTable(ctx, src, cfg.Filters)
	case "medicines":
		t, err = medicineTable(ctx, src, cfg.Filters)
	case "analytics":
		t, err = analyticsTable(ctx, src, now)
	default:
		return Table{}, domain.NewValidation("Unknown data source: %s", cfg.DataSource)
	}
	if err != nil {
		return Table{}, err
	}

	t = t.Project(cfg.Fields)
	t = t.Group(cfg.GroupBy, cfg.Aggregations)
	t.Sort(cfg.Sorting)
	return t, nil
}

func orderTable(ctx context.Context, src SourceReader, f domain.ReportFilters) (Table, error) {
	orders, err := src.ReportOrders(ctx, f)
	if err != nil {
		return Table{}, err
	}

	t := Table{Columns: []string{"id", "status", "total_price", "created_at", "updated_at", "user_name", "user_email", "item_count"}}
	for _, o := range orders {
		var name, email string
		if o.User != nil {
			name, email = o.User.Name, o.User.Email
		}
		t.Rows = append(t.Rows, Row{
			"id":          o.ID,
			"status":      string(o.Status),
			"total_price": o.TotalPrice,
			"created_at":  o.CreatedAt,
			"updated_at":  o.UpdatedAt,
			"user_name":   name,
			"user_email":  email,
			"item_count":  int64(len(o.Items)),
		})
	}
	return t, nil
}

func userTable(ctx context.Context, src SourceReader, f domain.ReportFilters) (Table, error) {
	users, err := src.ReportUsers(ctx, f)
	if err != nil {
		return Table{}, err
	}

	t := Table{Columns: []string{"id", "name", "email", "role", "created_at", "updated_at"}}
	for _, u := range users {
		t.Rows = append(t.Rows, Row{
			"id":         u.ID,
			"name":       u.Name,
			"email":      u.Email,
			"role":       string(u.Role),
			"created_at": u.CreatedAt,
			"updated_at": u.UpdatedAt,
		})
	}
	return t, nil
}

func medicineTable(ctx context.Context, src SourceReader, f domain.ReportFilters) (Table, error) {
	meds, err := src.ReportMedicines(ctx, f)
	if err != nil {
		return Table{}, err
	}

	t := Table{Columns: []string{"id", "name", "description", "category", "price", "quantity", "created_at", "updated_at"}}
	for _, m := range meds {
		t.Rows = append(t.Rows, Row{
			"id":          m.ID,
			"name":        m.Name,
			"description": m.Description,
			"category":    m.Category,
			"price":       m.Price,
			"quantity":    int64(m.Quantity),
			"created_at":  m.CreatedAt,
			"updated_at":  m.UpdatedAt,
		})
	}
	return t, nil
}

// analyticsTable is a single summary row.
func analyticsTable(ctx context.Context, src SourceReader, now time.Time) (Table, error) {
	var (
		orders, users, lowStock int64
		revenue                 decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = src.CountOrders(gctx, domain.OrderQuery{})
		return err
	})
	g.Go(func() (err error) {
		users, err = src.CountUsers(gctx, domain.UserQuery{})
		return err
	})
	g.Go(func() (err error) {
		revenue, err = src.SumOrders(gctx, domain.OrderQuery{Statuses: []domain.OrderStatus{domain.OrderDelivered}})
		return err
	})
	g.Go(func() (err error) {
		lowStock, err = src.CountLowStock(gctx, domain.StockWarningBelow)
		return err
	})
	if err := g.Wait(); err != nil {
		return Table{}, fmt.Errorf("failed to build analytics summary: %w", err)
	}

	return Table{
		Columns: []string{"total_orders", "total_users", "total_revenue", "low_stock_count", "generated_at"},
		Rows: []Row{{
			"total_orders":    orders,
			"total_users":     users,
			"total_revenue":   revenue,
			"low_stock_count": lowStock,
			"generated_at":    now.UTC(),
		}},
	}, nil
}
