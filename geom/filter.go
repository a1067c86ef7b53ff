package geom

import (
	"errors"
	"fmt"
	"math"
)

// MaxAxes is the number of axes an inflation vector may cover.
const MaxAxes = 3

// ErrInvalidInflation is returned for inflation vectors that are too long
// or hold negative or NaN distances.
var ErrInvalidInflation = errors.New("invalid inflation")

// ValidateInflation checks an inflation vector without applying it.
func ValidateInflation(inflation []float64) error {
	if len(inflation) > MaxAxes {
		return fmt.Errorf("%w: %d values, at most %d axes", ErrInvalidInflation, len(inflation), MaxAxes)
	}
	for i, d := range inflation {
		if math.IsNaN(d) || d < 0 {
			return fmt.Errorf("%w: axis %d has distance %g", ErrInvalidInflation, i, d)
		}
	}
	return nil
}

// Inflate grows b by inflation[i] on both sides of axis i.
// Missing axes are not inflated.
func Inflate(b Box, inflation []float64) (Box, error) {
	if err := ValidateInflation(inflation); err != nil {
		return Box{}, err
	}

	var d [MaxAxes]float64
	copy(d[:], inflation)

	return Box{
		Min: Pt(b.Min.X-d[0], b.Min.Y-d[1], b.Min.Z-d[2]),
		Max: Pt(b.Max.X+d[0], b.Max.Y+d[1], b.Max.Z+d[2]),
	}, nil
}

// Filter restricts boundary nodes to the region around a partition.
// The zero value applies no filtering.
type Filter struct {
	box    Box
	active bool
}

// NewFilter builds a filter from the partition bounding box and the
// configured inflation. An empty inflation vector disables filtering,
// so every point passes.
func NewFilter(box Box, inflation []float64) (Filter, error) {
	if len(inflation) == 0 {
		return Filter{}, nil
	}
	inflated, err := Inflate(box, inflation)
	if err != nil {
		return Filter{}, err
	}
	return Filter{box: inflated, active: true}, nil
}

// Active reports whether the filter culls anything.
func (f Filter) Active() bool { return f.active }

// Box returns the inflated box and whether the filter is active.
func (f Filter) Box() (Box, bool) { return f.box, f.active }

// Contains reports whether p passes the filter.
func (f Filter) Contains(p Point) bool {
	if !f.active {
		return true
	}
	return f.box.Contains(p)
}
