package books

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAvailable(t *testing.T) {
	assert.True(t, Book{Quantity: 1}.IsAvailable())
	assert.True(t, Book{Quantity: 50}.IsAvailable())
	assert.False(t, Book{Quantity: 0}.IsAvailable())
}

func TestSortColumn(t *testing.T) {
	col, err := sortColumn("")
	assert.NoError(t, err)
	assert.Equal(t, "b.title", col)

	col, err = sortColumn("price")
	assert.NoError(t, err)
	assert.Equal(t, "b.price", col)

	_, err = sortColumn("id; DROP TABLE books")
	assert.Error(t, err)
}
