package hashutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentHash_DeterministicAndSensitiveToBoundary(t *testing.T) {
	require.Equal(t, ContentHash("a", "b"), ContentHash("a", "b"))
	require.NotEqual(t, ContentHash("a", "b"), ContentHash("ab"))
	require.NotEqual(t, ContentHash("ab", "c"), ContentHash("a", "bc"))
	require.Len(t, ContentHash("x"), 16)
}
