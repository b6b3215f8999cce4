package fuzzy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Universe is a bounded, sampled range of discourse. It is immutable once
// constructed.
type Universe struct {
	min    float64
	max    float64
	step   float64
	points []float64
}

// NewUniverse samples [min, max] at the given step. The last point is always
// max, even when the span is not an exact multiple of step.
func NewUniverse(min, max, step float64) (Universe, error) {
	if math.IsNaN(min) || math.IsNaN(max) || max < min {
		return Universe{}, fmt.Errorf("%w: bounds [%g, %g]", ErrInvalidUniverse, min, max)
	}
	if !(step > 0) {
		return Universe{}, fmt.Errorf("%w: step %g", ErrInvalidUniverse, step)
	}

	n := int(math.Round((max-min)/step)) + 1
	if n < 2 {
		n = 2
	}
	points := floats.Span(make([]float64, n), min, max)

	return Universe{min: min, max: max, step: step, points: points}, nil
}

func mustUniverse(min, max, step float64) Universe {
	u, err := NewUniverse(min, max, step)
	if err != nil {
		panic(err)
	}
	return u
}

func (u Universe) Min() float64  { return u.min }
func (u Universe) Max() float64  { return u.max }
func (u Universe) Step() float64 { return u.step }

// Points returns a copy of the sample points.
func (u Universe) Points() []float64 {
	out := make([]float64, len(u.points))
	copy(out, u.points)
	return out
}

// Contains reports whether x lies inside the closed universe bounds.
func (u Universe) Contains(x float64) bool {
	return !math.IsNaN(x) && x >= u.min && x <= u.max
}

// Clamp forces x into the universe bounds.
func (u Universe) Clamp(x float64) float64 {
	return Clamp(x, u.min, u.max)
}

// Clamp returns v limited to [lo, hi]. In-range values are returned
// unchanged. NaN clamps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Triangle is a triangular membership function. left == peak and
// peak == right produce shoulder shapes.
type Triangle struct {
	Left  float64
	Peak  float64
	Right float64
}

// NewTriangle validates left <= peak <= right.
func NewTriangle(left, peak, right float64) (Triangle, error) {
	if !(left <= peak && peak <= right) {
		return Triangle{}, fmt.Errorf("%w: (%g, %g, %g)", ErrInvalidTriangle, left, peak, right)
	}
	return Triangle{Left: left, Peak: peak, Right: right}, nil
}

// Degree evaluates the membership of x. The result is 0 outside
// [Left, Right] and 1 at Peak; each edge is linear. A vertical edge is never
// divided by because x can only be strictly below Peak when Left < Peak, and
// strictly above it when Peak < Right.
func (t Triangle) Degree(x float64) float64 {
	switch {
	case math.IsNaN(x) || x < t.Left || x > t.Right:
		return 0
	case x == t.Peak:
		return 1
	case x < t.Peak:
		return (x - t.Left) / (t.Peak - t.Left)
	default:
		return (t.Right - x) / (t.Right - t.Peak)
	}
}
