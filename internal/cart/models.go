package cart

import "github.com/shopspring/decimal"

// CartItem is a cart line joined with the live catalog row. Cost is
// computed from the current price; prices freeze only at order time.
type CartItem struct {
	BookID   int64           `json:"book_id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Cost     decimal.Decimal `json:"cost"`
}

type CartResponse struct {
	Items      []CartItem      `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalCost  decimal.Decimal `json:"total_cost"`
}
