package stats

import "github.com/shopspring/decimal"

// dailyTotals is the pure aggregation result for one calendar date.
type dailyTotals struct {
	totalSales         decimal.Decimal
	totalOrders        int
	averageOrderValue  decimal.Decimal
	bestSellingBookID  *int64
	bestSellingGenreID *int64
}

// computeDaily derives the rollup from the day's order items.
// bookGenres maps each sold book to its genres. Best sellers are the
// entities with the highest summed quantity; on a tie the one
// encountered first in the input wins, keeping recomputation stable.
func computeDaily(sales []ItemSale, bookGenres map[int64][]int64) dailyTotals {
	var totals dailyTotals
	totals.totalSales = decimal.Zero
	totals.averageOrderValue = decimal.Zero

	ordersSeen := make(map[string]bool)
	bookQty := make(map[int64]int)
	var bookOrder []int64
	genreQty := make(map[int64]int)
	var genreOrder []int64

	for _, sale := range sales {
		totals.totalSales = totals.totalSales.Add(
			sale.Price.Mul(decimal.NewFromInt(int64(sale.Quantity))))
		ordersSeen[sale.OrderID] = true

		if _, ok := bookQty[sale.BookID]; !ok {
			bookOrder = append(bookOrder, sale.BookID)
		}
		bookQty[sale.BookID] += sale.Quantity

		for _, genreID := range bookGenres[sale.BookID] {
			if _, ok := genreQty[genreID]; !ok {
				genreOrder = append(genreOrder, genreID)
			}
			genreQty[genreID] += sale.Quantity
		}
	}

	totals.totalSales = totals.totalSales.Round(2)
	totals.totalOrders = len(ordersSeen)
	if totals.totalOrders > 0 {
		totals.averageOrderValue = totals.totalSales.
			Div(decimal.NewFromInt(int64(totals.totalOrders))).Round(2)
	}

	totals.bestSellingBookID = maxByQuantity(bookOrder, bookQty)
	totals.bestSellingGenreID = maxByQuantity(genreOrder, genreQty)
	return totals
}

func maxByQuantity(order []int64, quantities map[int64]int) *int64 {
	var best *int64
	bestQty := 0
	for _, id := range order {
		if quantities[id] > bestQty {
			id := id
			best = &id
			bestQty = quantities[id]
		}
	}
	return best
}
