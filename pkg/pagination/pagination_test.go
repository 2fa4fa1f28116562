package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateClampsBounds(t *testing.T) {
	page, limit := Validate(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)

	page, limit = Validate(-3, 500)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, limit)

	page, limit = Validate(7, 50)
	assert.Equal(t, 7, page)
	assert.Equal(t, 50, limit)
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(1, 20, 45)
	assert.Equal(t, 3, m.TotalPages)
	assert.True(t, m.HasNext)
	assert.False(t, m.HasPrev)

	m = NewMeta(3, 20, 45)
	assert.False(t, m.HasNext)
	assert.True(t, m.HasPrev)

	m = NewMeta(1, 20, 0)
	assert.Zero(t, m.TotalPages)
	assert.False(t, m.HasNext)
}
