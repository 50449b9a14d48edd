package reviews

import "time"

// Review carries moderation state: it is created unapproved and becomes
// publicly visible only once approved.
type Review struct {
	ID         int64     `json:"id"`
	BookID     int64     `json:"book_id"`
	CustomerID int64     `json:"customer_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
}

type NewReview struct {
	BookID  int64  `json:"book_id" validate:"required"`
	Rating  int    `json:"rating" validate:"required"`
	Comment string `json:"comment"`
}

// ValidRating reports whether the rating falls in the closed range [1,5].
func ValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}
