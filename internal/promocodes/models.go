package promocodes

import "time"

// PromoCode is a time-windowed percentage discount. It applies on a day
// iff it is active and the day falls inside [ValidFrom, ValidTo].
type PromoCode struct {
	ID              int64     `json:"id"`
	Code            string    `json:"code"`
	DiscountPercent int       `json:"discount_percent"`
	Active          bool      `json:"active"`
	ValidFrom       time.Time `json:"valid_from"`
	ValidTo         time.Time `json:"valid_to"`
}

// ValidOn reports whether the code can be applied on the given day.
// Comparison is by calendar date, not instant.
func (p PromoCode) ValidOn(day time.Time) bool {
	if !p.Active {
		return false
	}
	d := truncateToDate(day)
	return !d.Before(truncateToDate(p.ValidFrom)) && !d.After(truncateToDate(p.ValidTo))
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewPromoCode is the payload for creating a discount code.
type NewPromoCode struct {
	Code            string    `json:"code" validate:"required,max=20"`
	DiscountPercent int       `json:"discount_percent" validate:"min=0,max=100"`
	Active          bool      `json:"active"`
	ValidFrom       time.Time `json:"valid_from" validate:"required"`
	ValidTo         time.Time `json:"valid_to" validate:"required"`
}
