package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	h, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", h)
	assert.True(t, CheckPassword("admin123", h))
	assert.False(t, CheckPassword("admin124", h))
	assert.False(t, CheckPassword("admin123", "not-a-hash"))
}

func TestCheckCredentials(t *testing.T) {
	h, err := HashPassword("pw")
	require.NoError(t, err)
	assert.True(t, CheckCredentials("admin", "pw", "admin", h))
	assert.False(t, CheckCredentials("root", "pw", "admin", h))
	assert.False(t, CheckCredentials("admin", "bad", "admin", h))
}
