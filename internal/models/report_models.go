package models

import "github.com/shopspring/decimal"

// DailySales is the sales total of one UTC day.
type DailySales struct {
	Date       string          `json:"date"` // YYYY-MM-DD
	OrderCount int             `json:"order_count"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

// TopItem is one row of the best-seller rankings.
type TopItem struct {
	ItemID        int64           `json:"item_id"`
	ItemName      string          `json:"item_name"`
	TotalQuantity int             `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// InventoryReportItem is a low-stock entry.
type InventoryReportItem struct {
	ItemID            int64  `json:"item_id"`
	ItemName          string `json:"item_name"`
	CurrentStock      int    `json:"current_stock"`
	LowStockThreshold *int   `json:"low_stock_threshold,omitempty"`
	Status            string `json:"status"` // "Low Stock" or "Out of Stock"
}

// Insights bundles the admin dashboard figures for a date range.
type Insights struct {
	StartDate     string                `json:"start_date"`
	EndDate       string                `json:"end_date"`
	OrderCount    int                   `json:"order_count"`
	GrossSales    decimal.Decimal       `json:"gross_sales"`
	DailySales    []DailySales          `json:"daily_sales"`
	TopByQuantity []TopItem             `json:"top_by_quantity"`
	TopByRevenue  []TopItem             `json:"top_by_revenue"`
	LowStock      []InventoryReportItem `json:"low_stock"`
}

// ReportRequestParams holds common parameters for requesting reports.
type ReportRequestParams struct {
	StartDate string `form:"start_date"` // YYYY-MM-DD
	EndDate   string `form:"end_date"`   // YYYY-MM-DD, inclusive
}
