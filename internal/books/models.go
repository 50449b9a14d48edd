package books

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book is the catalog entity. Quantity is the live stock counter and is
// only decremented by committed orders.
type Book struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	ISBN        string          `json:"isbn"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	PublisherID *int64          `json:"publisher_id,omitempty"`
	Publisher   *Publisher      `json:"publisher,omitempty"`
	Authors     []Author        `json:"authors,omitempty"`
	Genres      []Genre         `json:"genres,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsAvailable reports whether at least one unit is in stock.
func (b Book) IsAvailable() bool {
	return b.Quantity > 0
}

type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Bio  string `json:"bio,omitempty"`
}

type Genre struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Publisher struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Website string `json:"website,omitempty"`
}

// NewBook is the payload for creating a catalog entry.
type NewBook struct {
	Title       string          `json:"title" validate:"required"`
	ISBN        string          `json:"isbn" validate:"max=13"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Quantity    int             `json:"quantity" validate:"min=0"`
	PublisherID *int64          `json:"publisher_id"`
	AuthorIDs   []int64         `json:"author_ids"`
	GenreIDs    []int64         `json:"genre_ids"`
}

// ListFilter narrows and orders a catalog listing.
type ListFilter struct {
	Query    string
	GenreID  int64
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Limit    int
	Offset   int
	Sort     string
	Order    string
}
