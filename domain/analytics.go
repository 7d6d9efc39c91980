package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RevenuePoint struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
}

type UserGrowthPoint struct {
	Month       string `json:"month"`
	NewUsers    int64  `json:"new_users"`
	ActiveUsers int64  `json:"active_users"`
	TotalUsers  int64  `json:"total_users"`
}

type RegionCount struct {
	Region string `json:"region"`
	Users  int64  `json:"users"`
}

type SeasonalPoint struct {
	Month   string          `json:"month"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type OrderTrendPoint struct {
	Period  string          `json:"period"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

type OrderFrequency struct {
	AverageOrdersPerWeek  float64        `json:"average_orders_per_week"`
	AverageOrdersPerMonth float64        `json:"average_orders_per_month"`
	TotalOrders           int64          `json:"total_orders"`
	Period                string         `json:"period"`
	Trend                 TrendDirection `json:"trend"`
	ChangePercentage      float64        `json:"change_percentage"`
}

type CategoryShare struct {
	CategorySpend
	Percentage        float64         `json:"percentage"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type SearchHit struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Relevance   float64 `json:"relevance"`
	URL         string  `json:"url"`
}

type Announcement struct {
	MedicineID  string          `json:"medicine_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	AddedDate   time.Time       `json:"added_date"`
}

type SystemHealth struct {
	Overall   string        `json:"overall"`
	Uptime    string        `json:"uptime"`
	Checks    []HealthCheck `json:"checks"`
	Database  PoolUsage     `json:"database"`
	Runtime   RuntimeUsage  `json:"runtime"`
	Timestamp time.Time     `json:"timestamp"`
}

type HealthCheck struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type PoolUsage struct {
	OpenConnections int `json:"open_connections"`
	InUse           int `json:"in_use"`
}

type RuntimeUsage struct {
	Goroutines  int     `json:"goroutines"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	NumGC       uint32  `json:"num_gc"`
}
