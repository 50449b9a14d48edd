package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is immutable once committed. Item prices are value copies taken
// at order time; later catalog price changes never affect past orders.
type Order struct {
	ID              string      `json:"id"`
	CustomerID      int64       `json:"customer_id"`
	ShippingAddress string      `json:"shipping_address"`
	PromoCodeID     *int64      `json:"promo_code_id,omitempty"`
	DiscountPercent int         `json:"discount_percent,omitempty"`
	DeliveryDate    *time.Time  `json:"delivery_date,omitempty"`
	PickupPointID   *int64      `json:"pickup_point_id,omitempty"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TotalCost is the sum of the frozen item costs. The promocode discount
// stays advisory and is never folded into this value.
func (o Order) TotalCost() decimal.Decimal {
	return TotalCost(o.Items)
}

type OrderItem struct {
	ID       int64           `json:"id"`
	OrderID  string          `json:"order_id"`
	BookID   int64           `json:"book_id"`
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Cost is the frozen price times quantity.
func (i OrderItem) Cost() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func TotalCost(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Cost())
	}
	return total
}

// NewOrder is the checkout payload.
type NewOrder struct {
	ShippingAddress string     `json:"shipping_address" validate:"required"`
	PromoCode       string     `json:"promocode"`
	DeliveryDate    *time.Time `json:"delivery_date"`
	PickupPointID   *int64     `json:"pickup_point_id"`
}
