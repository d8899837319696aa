package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCategory(t *testing.T) {
	for _, cat := range Categories {
		assert.True(t, IsValidCategory(cat), "category %q should be valid", cat)
	}

	assert.False(t, IsValidCategory(""))
	assert.False(t, IsValidCategory("Billing"))
	assert.False(t, IsValidCategory("sales"))
}
