package kafka

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicOrderCreated    = `bookstore.order-created`
	TopicReviewSubmitted = `bookstore.review-submitted`
	ConsumerGroup        = `bookstore-service`
)

// OrderCreatedEvent is published once an order has been committed.
type OrderCreatedEvent struct {
	OrderId    string          `json:"order_id"`
	CustomerId int64           `json:"customer_id"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	Items      []OrderLine     `json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
}

type OrderLine struct {
	BookId   int64 `json:"book_id"`
	Quantity int   `json:"quantity"`
}

// ReviewSubmittedEvent feeds the moderation queue.
type ReviewSubmittedEvent struct {
	ReviewId   int64     `json:"review_id"`
	BookId     int64     `json:"book_id"`
	CustomerId int64     `json:"customer_id"`
	Rating     int       `json:"rating"`
	CreatedAt  time.Time `json:"created_at"`
}
