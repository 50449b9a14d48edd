package stats

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// CalculateForDate recomputes the rollup for one calendar date from the
// committed orders and upserts the row. Running it again with no new
// orders produces identical values.
func (c *Conf) CalculateForDate(ctx context.Context, date time.Time) (SalesStatistics, error) {
	day := date.Format("2006-01-02")

	sales, err := c.itemSalesForDate(ctx, day)
	if err != nil {
		return SalesStatistics{}, err
	}
	bookGenres, err := c.genresForBooks(ctx, sales)
	if err != nil {
		return SalesStatistics{}, err
	}

	totals := computeDaily(sales, bookGenres)

	queryUpsert := `
		INSERT INTO sales_statistics (date, total_sales, total_orders, average_order_value, best_selling_book_id, best_selling_genre_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (date)
		DO UPDATE SET total_sales = EXCLUDED.total_sales,
		              total_orders = EXCLUDED.total_orders,
		              average_order_value = EXCLUDED.average_order_value,
		              best_selling_book_id = EXCLUDED.best_selling_book_id,
		              best_selling_genre_id = EXCLUDED.best_selling_genre_id
		RETURNING id, date, total_sales, total_orders, average_order_value, best_selling_book_id, best_selling_genre_id
	`
	var stat SalesStatistics
	err = c.db.QueryRowContext(ctx, queryUpsert, day, totals.totalSales, totals.totalOrders,
		totals.averageOrderValue, totals.bestSellingBookID, totals.bestSellingGenreID).
		Scan(&stat.ID, &stat.Date, &stat.TotalSales, &stat.TotalOrders,
			&stat.AverageOrderValue, &stat.BestSellingBookID, &stat.BestSellingGenreID)
	if err != nil {
		return SalesStatistics{}, fmt.Errorf("failed to upsert sales statistics: %w", err)
	}
	return stat, nil
}

func (c *Conf) itemSalesForDate(ctx context.Context, day string) ([]ItemSale, error) {
	query := `
		SELECT oi.order_id, oi.book_id, oi.quantity, oi.price
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at::date = $1
		ORDER BY o.created_at, oi.id
	`
	rows, err := c.db.QueryContext(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query item sales: %w", err)
	}
	defer rows.Close()

	var sales []ItemSale
	for rows.Next() {
		var s ItemSale
		if err := rows.Scan(&s.OrderID, &s.BookID, &s.Quantity, &s.Price); err != nil {
			return nil, fmt.Errorf("failed to scan item sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (c *Conf) genresForBooks(ctx context.Context, sales []ItemSale) (map[int64][]int64, error) {
	bookGenres := make(map[int64][]int64)
	if len(sales) == 0 {
		return bookGenres, nil
	}

	seen := make(map[int64]bool)
	var bookIDs []int64
	for _, s := range sales {
		if !seen[s.BookID] {
			seen[s.BookID] = true
			bookIDs = append(bookIDs, s.BookID)
		}
	}

	query := `
		SELECT book_id, genre_id
		FROM book_genres
		WHERE book_id = ANY($1)
		ORDER BY book_id, genre_id
	`
	rows, err := c.db.QueryContext(ctx, query, bookIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query book genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookID, genreID int64
		if err := rows.Scan(&bookID, &genreID); err != nil {
			return nil, fmt.Errorf("failed to scan book genre: %w", err)
		}
		bookGenres[bookID] = append(bookGenres[bookID], genreID)
	}
	return bookGenres, rows.Err()
}

// GetForDate reads the stored rollup without recomputing it.
func (c *Conf) GetForDate(ctx context.Context, date time.Time) (SalesStatistics, error) {
	query := `
		SELECT id, date, total_sales, total_orders, average_order_value, best_selling_book_id, best_selling_genre_id
		FROM sales_statistics
		WHERE date = $1
	`
	var stat SalesStatistics
	err := c.db.QueryRowContext(ctx, query, date.Format("2006-01-02")).
		Scan(&stat.ID, &stat.Date, &stat.TotalSales, &stat.TotalOrders,
			&stat.AverageOrderValue, &stat.BestSellingBookID, &stat.BestSellingGenreID)
	if err != nil {
		return SalesStatistics{}, err
	}
	return stat, nil
}

// RangeReport re-aggregates committed orders over a date range. This is
// a filtered re-aggregation over the same rows the daily rollup reads.
func (c *Conf) RangeReport(ctx context.Context, start, end time.Time) (RangeReport, error) {
	report := RangeReport{
		Start:             start,
		End:               end,
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}
	startDay := start.Format("2006-01-02")
	endDay := end.Format("2006-01-02")

	queryTotals := `
		SELECT COUNT(DISTINCT o.id), COUNT(DISTINCT o.customer_id), COALESCE(SUM(oi.quantity * oi.price), 0)
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE o.created_at::date BETWEEN $1 AND $2
	`
	err := c.db.QueryRowContext(ctx, queryTotals, startDay, endDay).
		Scan(&report.TotalOrders, &report.CustomersWithOrders, &report.TotalRevenue)
	if err != nil {
		return RangeReport{}, fmt.Errorf("failed to query range totals: %w", err)
	}

	report.TotalRevenue = report.TotalRevenue.Round(2)
	if report.TotalOrders > 0 {
		report.AverageOrderValue = report.TotalRevenue.
			Div(decimal.NewFromInt(int64(report.TotalOrders))).Round(2)
	}

	queryTop := `
		SELECT b.id, b.title, SUM(oi.quantity) AS total_sold, SUM(oi.quantity * oi.price) AS total_revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN books b ON b.id = oi.book_id
		WHERE o.created_at::date BETWEEN $1 AND $2
		GROUP BY b.id, b.title
		ORDER BY total_sold DESC, b.id
		LIMIT 10
	`
	rows, err := c.db.QueryContext(ctx, queryTop, startDay, endDay)
	if err != nil {
		return RangeReport{}, fmt.Errorf("failed to query top books: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bs BookSales
		if err := rows.Scan(&bs.BookID, &bs.Title, &bs.TotalSold, &bs.TotalRevenue); err != nil {
			return RangeReport{}, fmt.Errorf("failed to scan top book: %w", err)
		}
		bs.TotalRevenue = bs.TotalRevenue.Round(2)
		report.TopBooks = append(report.TopBooks, bs)
	}
	if err := rows.Err(); err != nil {
		return RangeReport{}, err
	}

	return report, nil
}

// MonthlySales returns revenue per month for a year. Every month is
// present, zero when nothing sold.
func (c *Conf) MonthlySales(ctx context.Context, year int) (map[int]decimal.Decimal, error) {
	result := make(map[int]decimal.Decimal, 12)
	for month := 1; month <= 12; month++ {
		result[month] = decimal.Zero
	}

	query := `
		SELECT EXTRACT(MONTH FROM o.created_at)::int AS month, SUM(oi.quantity * oi.price)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE EXTRACT(YEAR FROM o.created_at)::int = $1
		GROUP BY month
		ORDER BY month
	`
	rows, err := c.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly sales: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var month int
		var total decimal.Decimal
		if err := rows.Scan(&month, &total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly sales: %w", err)
		}
		result[month] = total.Round(2)
	}
	return result, rows.Err()
}
