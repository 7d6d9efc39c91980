package report

import "pharmaSupply/domain"

// Prebuilt is a ready-made template offered to every user.
type Prebuilt struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Config      domain.ReportConfig `json:"config"`
}

func PrebuiltTemplates() []Prebuilt {
	return []Prebuilt{
		{
			ID:          "sales-summary",
			Name:        "Sales Summary Report",
			Description: "Delivered order totals grouped by status",
			Category:    "Sales",
			Config: domain.ReportConfig{
				DataSource: "orders",
				Filters:    domain.ReportFilters{Status: []string{string(domain.OrderDelivered)}},
				Fields:     []string{"id", "status", "total_price", "created_at", "user_name"},
				GroupBy:    []string{"status"},
				Aggregations: []domain.ReportAggregation{
					{Field: "total_price", Operation: "sum"},
					{Field: "id", Operation: "count"},
				},
			},
		},
		{
			ID:          "inventory-status",
			Name:        "Inventory Status Report",
			Description: "Current inventory levels and low stock alerts",
			Category:    "Inventory",
			Config: domain.ReportConfig{
				DataSource: "medicines",
				Filters:    domain.ReportFilters{LowStock: true},
				Fields:     []string{"name", "category", "quantity", "price"},
				Sorting:    []domain.ReportSort{{Field: "quantity", Direction: "asc"}},
			},
		},
		{
			ID:          "user-activity",
			Name:        "User Activity Report",
			Description: "User registrations by role",
			Category:    "Users",
			Config: domain.ReportConfig{
				DataSource:   "users",
				Fields:       []string{"id", "name", "email", "role", "created_at"},
				GroupBy:      []string{"role"},
				Aggregations: []domain.ReportAggregation{{Field: "id", Operation: "count"}},
			},
		},
		{
			ID:          "financial-summary",
			Name:        "Financial Summary Report",
			Description: "Orders, revenue, users and low stock at a glance",
			Category:    "Financial",
			Config:      domain.ReportConfig{DataSource: "analytics"},
		},
	}
}

func (s *reportService) Prebuilt() []Prebuilt {
	return PrebuiltTemplates()
}
