package stats

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeDaily(t *testing.T) {
	t.Run("no sales", func(t *testing.T) {
		totals := computeDaily(nil, nil)

		assert.True(t, totals.totalSales.IsZero())
		assert.Equal(t, 0, totals.totalOrders)
		assert.True(t, totals.averageOrderValue.IsZero())
		assert.Nil(t, totals.bestSellingBookID)
		assert.Nil(t, totals.bestSellingGenreID)
	})

	t.Run("sums subtotals and counts distinct orders", func(t *testing.T) {
		sales := []ItemSale{
			{OrderID: "o1", BookID: 1, Quantity: 2, Price: price("10.50")},
			{OrderID: "o1", BookID: 2, Quantity: 1, Price: price("5.00")},
			{OrderID: "o2", BookID: 1, Quantity: 1, Price: price("10.50")},
		}
		genres := map[int64][]int64{1: {7}, 2: {8}}

		totals := computeDaily(sales, genres)

		// 2*10.50 + 5.00 + 10.50 = 36.50 over two orders
		assert.Equal(t, "36.5", totals.totalSales.String())
		assert.Equal(t, 2, totals.totalOrders)
		assert.Equal(t, "18.25", totals.averageOrderValue.String())

		require.NotNil(t, totals.bestSellingBookID)
		assert.Equal(t, int64(1), *totals.bestSellingBookID)
		require.NotNil(t, totals.bestSellingGenreID)
		assert.Equal(t, int64(7), *totals.bestSellingGenreID)
	})

	t.Run("tie goes to the entity seen first", func(t *testing.T) {
		sales := []ItemSale{
			{OrderID: "o1", BookID: 3, Quantity: 2, Price: price("1.00")},
			{OrderID: "o1", BookID: 4, Quantity: 2, Price: price("1.00")},
		}
		genres := map[int64][]int64{3: {11}, 4: {12}}

		totals := computeDaily(sales, genres)

		require.NotNil(t, totals.bestSellingBookID)
		assert.Equal(t, int64(3), *totals.bestSellingBookID)
		require.NotNil(t, totals.bestSellingGenreID)
		assert.Equal(t, int64(11), *totals.bestSellingGenreID)
	})

	t.Run("recomputation is stable", func(t *testing.T) {
		sales := []ItemSale{
			{OrderID: "o1", BookID: 5, Quantity: 1, Price: price("19.99")},
			{OrderID: "o2", BookID: 6, Quantity: 3, Price: price("4.25")},
			{OrderID: "o2", BookID: 5, Quantity: 1, Price: price("19.99")},
		}
		genres := map[int64][]int64{5: {1, 2}, 6: {2}}

		first := computeDaily(sales, genres)
		second := computeDaily(sales, genres)

		assert.True(t, first.totalSales.Equal(second.totalSales))
		assert.Equal(t, first.totalOrders, second.totalOrders)
		require.NotNil(t, first.bestSellingBookID)
		require.NotNil(t, second.bestSellingBookID)
		assert.Equal(t, *first.bestSellingBookID, *second.bestSellingBookID)
		require.NotNil(t, first.bestSellingGenreID)
		require.NotNil(t, second.bestSellingGenreID)
		assert.Equal(t, *first.bestSellingGenreID, *second.bestSellingGenreID)
	})

	t.Run("book in several genres counts toward each", func(t *testing.T) {
		sales := []ItemSale{
			{OrderID: "o1", BookID: 9, Quantity: 4, Price: price("2.00")},
			{OrderID: "o1", BookID: 10, Quantity: 3, Price: price("2.00")},
		}
		// book 9 carries genres 20 and 21, book 10 only genre 21
		genres := map[int64][]int64{9: {20, 21}, 10: {21}}

		totals := computeDaily(sales, genres)

		// genre 21 accumulates 4+3=7 and beats genre 20 at 4
		require.NotNil(t, totals.bestSellingGenreID)
		assert.Equal(t, int64(21), *totals.bestSellingGenreID)
	})

	t.Run("average rounds to cents", func(t *testing.T) {
		sales := []ItemSale{
			{OrderID: "o1", BookID: 1, Quantity: 1, Price: price("10.00")},
			{OrderID: "o2", BookID: 1, Quantity: 1, Price: price("10.00")},
			{OrderID: "o3", BookID: 1, Quantity: 1, Price: price("10.00")},
		}

		totals := computeDaily(sales, nil)

		assert.Equal(t, "10", totals.averageOrderValue.String())
		assert.Equal(t, 3, totals.totalOrders)

		uneven := computeDaily([]ItemSale{
			{OrderID: "a", BookID: 1, Quantity: 1, Price: price("10.00")},
			{OrderID: "b", BookID: 1, Quantity: 1, Price: price("0.01")},
			{OrderID: "c", BookID: 1, Quantity: 1, Price: price("0.01")},
		}, nil)
		assert.Equal(t, "3.34", uneven.averageOrderValue.String())
	})
}
