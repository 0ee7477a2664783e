package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEwm(t *testing.T) {
	t.Run("seeded by first observation", func(t *testing.T) {
		col := []*float64{fptr(10), fptr(20)}
		out := ewm(col, 0.5, 1)

		require.NotNil(t, out[0])
		assert.Equal(t, 10.0, *out[0])
		require.NotNil(t, out[1])
		assert.Equal(t, 15.0, *out[1])
	})

	t.Run("leading undefined rows are skipped", func(t *testing.T) {
		col := []*float64{nil, nil, fptr(10), fptr(20)}
		out := ewm(col, 0.5, 1)

		assert.Nil(t, out[0])
		assert.Nil(t, out[1])
		require.NotNil(t, out[2])
		assert.Equal(t, 10.0, *out[2])
	})

	t.Run("gap yields no value and leaves the state untouched", func(t *testing.T) {
		col := []*float64{fptr(10), fptr(20), nil, fptr(30)}
		out := ewm(col, 0.5, 1)

		assert.Nil(t, out[2], "a placeholder date has no average")
		require.NotNil(t, out[3])
		// state at the gap stays 15; the next observation blends against
		// it with the plain smoothing factor, not a gap-adjusted weight
		assert.Equal(t, 22.5, *out[3])
	})

	t.Run("masked until min periods", func(t *testing.T) {
		col := []*float64{fptr(10), nil, fptr(20), fptr(30)}
		out := ewm(col, 0.5, 3)

		assert.Nil(t, out[0])
		assert.Nil(t, out[1])
		assert.Nil(t, out[2], "only two observations consumed")
		require.NotNil(t, out[3])
	})
}

func TestRollingStdDegreesOfFreedom(t *testing.T) {
	col := []*float64{fptr(1), fptr(2), fptr(3), fptr(4)}

	sample := rollingStd(col, 3, 1)
	population := rollingStd(col, 3, 0)

	require.NotNil(t, sample[2])
	require.NotNil(t, population[2])
	assert.InDelta(t, 1.0, *sample[2], 1e-12)
	assert.Greater(t, *sample[2], *population[2])
}
