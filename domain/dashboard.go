package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// PercentChange is (current-previous)/previous*100 rounded to an integer.
// From zero it is 100 when anything appeared and 0 otherwise.
func PercentChange(previous, current decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsPositive() {
			return 100
		}
		return 0
	}
	pct, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Float64()
	return math.Round(pct)
}

type CountChange struct {
	Current  int64   `json:"current"`
	Previous int64   `json:"previous"`
	Change   float64 `json:"change"`
}

func NewCountChange(previous, current int64) CountChange {
	return CountChange{
		Current:  current,
		Previous: previous,
		Change:   PercentChange(decimal.NewFromInt(previous), decimal.NewFromInt(current)),
	}
}

type AmountChange struct {
	Current  decimal.Decimal `json:"current"`
	Previous decimal.Decimal `json:"previous"`
	Change   float64         `json:"change"`
}

func NewAmountChange(previous, current decimal.Decimal) AmountChange {
	return AmountChange{Current: current, Previous: previous, Change: PercentChange(previous, current)}
}

type MonthlyAmount struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

type LowStockItem struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Quantity int        `json:"quantity"`
	Level    StockLevel `json:"level"`
}

func NewLowStockItem(m Medicine) LowStockItem {
	return LowStockItem{ID: m.ID, Name: m.Name, Category: m.Category, Quantity: m.Quantity, Level: StockLevelOf(m.Quantity)}
}

type ProviderDashboard struct {
	TotalOrders     CountChange     `json:"total_orders"`
	PendingOrders   CountChange     `json:"pending_orders"`
	DeliveredOrders CountChange     `json:"delivered_orders"`
	TotalSpent      AmountChange    `json:"total_spent"`
	RecentOrders    []Order         `json:"recent_orders"`
	LowStock        []LowStockItem  `json:"low_stock"`
	MonthlySpending []MonthlyAmount `json:"monthly_spending"`
}

type AdminDashboard struct {
	TotalUsers     CountChange     `json:"total_users"`
	TotalProviders CountChange     `json:"total_providers"`
	TotalAdmins    CountChange     `json:"total_admins"`
	TotalMedicines CountChange     `json:"total_medicines"`
	TotalOrders    CountChange     `json:"total_orders"`
	Revenue        AmountChange    `json:"revenue"`
	RecentOrders   []Order         `json:"recent_orders"`
	TopMedicines   []MedicineUsage `json:"top_medicines"`
	MonthlyRevenue []MonthlyAmount `json:"monthly_revenue"`
}

type LowStockReport struct {
	Critical []LowStockItem `json:"critical"`
	Low      []LowStockItem `json:"low"`
	Warning  []LowStockItem `json:"warning"`
	Total    int            `json:"total"`
}

type StockDetails struct {
	Medicine        Medicine        `json:"medicine"`
	Level           StockLevel      `json:"level"`
	AvgDailyUsage   float64         `json:"avg_daily_usage"`
	DaysRemaining   *int            `json:"days_remaining"`
	RecentActivity  []StockActivity `json:"recent_activity"`
	Recommendations []string        `json:"recommendations"`
}

// MonthStart truncates t to the first instant of its month in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
