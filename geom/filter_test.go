package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInflate(t *testing.T) {
	box := Box{Min: Pt(0, 0, 0), Max: Pt(1, 1, 1)}

	t.Run("missing axes default to zero", func(t *testing.T) {
		got, err := Inflate(box, []float64{0.5})
		require.NoError(t, err)
		assert.Equal(t, Pt(-0.5, 0, 0), got.Min)
		assert.Equal(t, Pt(1.5, 1, 1), got.Max)
	})

	t.Run("all axes", func(t *testing.T) {
		got, err := Inflate(box, []float64{0.1, 0.2, 0.3})
		require.NoError(t, err)
		assert.InDelta(t, -0.3, got.Min.Z, 1e-12)
		assert.InDelta(t, 1.2, got.Max.Y, 1e-12)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, inflation := range [][]float64{
			{0, 0, 0, 0},
			{-1},
			{0, math.NaN()},
		} {
			_, err := Inflate(box, inflation)
			assert.ErrorIs(t, err, ErrInvalidInflation)
		}
	})
}

func TestFilter(t *testing.T) {
	box := Box{Min: Pt(0, 0, 0), Max: Pt(1, 1, 0)}

	t.Run("no inflation disables filtering", func(t *testing.T) {
		f, err := NewFilter(box, nil)
		require.NoError(t, err)
		assert.False(t, f.Active())
		assert.True(t, f.Contains(Pt(100, -100, 7)))
	})

	t.Run("inflated", func(t *testing.T) {
		f, err := NewFilter(box, []float64{0.25, 0.25})
		require.NoError(t, err)
		assert.True(t, f.Active())
		assert.True(t, f.Contains(Pt(1.2, 0.5, 0)))
		assert.False(t, f.Contains(Pt(1.3, 0.5, 0)))
		assert.False(t, f.Contains(Pt(0.5, 0.5, 0.01)), "z axis was not inflated")

		got, ok := f.Box()
		require.True(t, ok)
		assert.Equal(t, Pt(-0.25, -0.25, 0), got.Min)
	})

	t.Run("zero inflation still filters to the box", func(t *testing.T) {
		f, err := NewFilter(box, []float64{0})
		require.NoError(t, err)
		assert.True(t, f.Active())
		assert.False(t, f.Contains(Pt(1.01, 0, 0)))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := NewFilter(box, []float64{-0.1})
		assert.ErrorIs(t, err, ErrInvalidInflation)
	})
}
