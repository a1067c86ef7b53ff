package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	assert.InDelta(t, 0.1, Distance(Pt(0, 0.1, 0), Pt(0, 0, 0)), 1e-12)
	assert.InDelta(t, math.Sqrt(0.26), Distance(Pt(1.5, 0.1, 0), Pt(1, 0, 0)), 1e-12)
	assert.InDelta(t, 5.0, Distance(Pt(0, 0, 0), Pt(0, 3, 4)), 1e-12)
	assert.InDelta(t, 25.0, SquaredDistance(Pt(0, 0, 0), Pt(0, 3, 4)), 1e-12)
	assert.Equal(t, 0.0, Distance(Pt(1, 2, 3), Pt(1, 2, 3)))
}

func TestBox(t *testing.T) {
	b := EmptyBox()
	assert.True(t, b.IsEmpty())
	assert.False(t, b.Contains(Pt(0, 0, 0)))

	b = b.Extend(Pt(0, 0, 0)).Extend(Pt(2, 1, 0))
	assert.False(t, b.IsEmpty())
	assert.Equal(t, Pt(0, 0, 0), b.Min)
	assert.Equal(t, Pt(2, 1, 0), b.Max)

	assert.True(t, b.Contains(Pt(1, 0.5, 0)))
	assert.True(t, b.Contains(Pt(2, 1, 0)), "bounds are inclusive")
	assert.False(t, b.Contains(Pt(2.01, 1, 0)))
	assert.False(t, b.Contains(Pt(1, 1, 0.1)))
}
