package promocodes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidOn(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	code := PromoCode{
		Code:            "SPRING10",
		DiscountPercent: 10,
		Active:          true,
		ValidFrom:       from,
		ValidTo:         to,
	}

	t.Run("inside window", func(t *testing.T) {
		assert.True(t, code.ValidOn(time.Date(2026, 3, 15, 12, 30, 0, 0, time.UTC)))
	})

	t.Run("window bounds are inclusive", func(t *testing.T) {
		assert.True(t, code.ValidOn(from))
		assert.True(t, code.ValidOn(to))
	})

	t.Run("last day counts regardless of time of day", func(t *testing.T) {
		assert.True(t, code.ValidOn(time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)))
	})

	t.Run("before window", func(t *testing.T) {
		assert.False(t, code.ValidOn(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("after window", func(t *testing.T) {
		assert.False(t, code.ValidOn(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("inactive code never applies", func(t *testing.T) {
		inactive := code
		inactive.Active = false
		assert.False(t, inactive.ValidOn(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("single day window", func(t *testing.T) {
		day := time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC)
		oneDay := PromoCode{Code: "FLASH", Active: true, ValidFrom: day, ValidTo: day}
		assert.True(t, oneDay.ValidOn(day.Add(8*time.Hour)))
		assert.False(t, oneDay.ValidOn(day.AddDate(0, 0, 1)))
	})
}
