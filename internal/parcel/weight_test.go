package parcel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWeightConversions(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 1.5, GramsToKg(1500), 1e-9)
	require.InDelta(t, 31500, KgToGrams(31.5), 1e-9)
	require.True(t, ExceedsKg(5001, 5))
	require.False(t, ExceedsKg(5000, 5))
	require.Equal(t, "1.25", FormatKg(1250))
	require.Equal(t, "0.00", FormatKg(0))
}

func TestMaxCeilingGrams(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0.0, MaxCeilingGrams())
	require.InDelta(t, 30000, MaxCeilingGrams(5, 30, 10), 1e-9)
}
