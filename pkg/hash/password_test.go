package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", h)
	require.True(t, CheckPasswordHash("s3cret-pass", h))
	require.False(t, CheckPasswordHash("wrong", h))
}
