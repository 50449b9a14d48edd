package stats

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesStatistics is one derived rollup row per calendar date. It is
// never authoritative; CalculateForDate can rebuild it at any time.
type SalesStatistics struct {
	ID                 int64           `json:"id"`
	Date               time.Time       `json:"date"`
	TotalSales         decimal.Decimal `json:"total_sales"`
	TotalOrders        int             `json:"total_orders"`
	AverageOrderValue  decimal.Decimal `json:"average_order_value"`
	BestSellingBookID  *int64          `json:"best_selling_book_id,omitempty"`
	BestSellingGenreID *int64          `json:"best_selling_genre_id,omitempty"`
}

// ItemSale is one order item row fed into the daily aggregation.
type ItemSale struct {
	OrderID  string
	BookID   int64
	Quantity int
	Price    decimal.Decimal
}

// BookSales is a top-seller line in a range report.
type BookSales struct {
	BookID       int64           `json:"book_id"`
	Title        string          `json:"title"`
	TotalSold    int             `json:"total_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// RangeReport aggregates committed orders over [Start, End].
type RangeReport struct {
	Start               time.Time       `json:"start"`
	End                 time.Time       `json:"end"`
	TotalOrders         int             `json:"total_orders"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	AverageOrderValue   decimal.Decimal `json:"average_order_value"`
	CustomersWithOrders int             `json:"customers_with_orders"`
	TopBooks            []BookSales     `json:"top_books"`
}
