package reviews

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidRating(t *testing.T) {
	for rating := 1; rating <= 5; rating++ {
		assert.True(t, ValidRating(rating), "rating %d", rating)
	}
	assert.False(t, ValidRating(0))
	assert.False(t, ValidRating(6))
	assert.False(t, ValidRating(-1))
}
