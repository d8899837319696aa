package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cret-pass", hash)

	// Hashing the same password twice produces different salts
	hash2, err := HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
}

func TestHashPassword_InvalidCostFallsBack(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", 999)
	require.NoError(t, err)

	assert.NoError(t, VerifyPassword(hash, "s3cret-pass"))
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse", 4)
	require.NoError(t, err)

	t.Run("matching password", func(t *testing.T) {
		assert.NoError(t, VerifyPassword(hash, "correct-horse"))
	})

	t.Run("wrong password", func(t *testing.T) {
		err := VerifyPassword(hash, "battery-staple")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("garbage hash", func(t *testing.T) {
		err := VerifyPassword("not-a-bcrypt-hash", "correct-horse")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrPasswordMismatch)
	})
}
