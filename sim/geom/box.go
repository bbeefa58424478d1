// Package geom holds the periodic simulation box and the rigid-body
// transforms applied to particles during cluster moves.
package geom

import (
	"fmt"
	"math"
)

// Box is an axis-aligned periodic simulation box. Lengths are fixed at
// construction; the box is safe to share read-only between goroutines.
type Box struct {
	dimension int
	lengths   []float64
	half      []float64
}

// NewBox creates a periodic box with the given per-axis lengths.
// The dimension is len(lengths) and must be 2 or 3.
func NewBox(lengths []float64) (*Box, error) {
	if len(lengths) != 2 && len(lengths) != 3 {
		return nil, fmt.Errorf("box dimension must be 2 or 3, got %d", len(lengths))
	}
	b := &Box{
		dimension: len(lengths),
		lengths:   make([]float64, len(lengths)),
		half:      make([]float64, len(lengths)),
	}
	for i, l := range lengths {
		if !(l > 0) || math.IsInf(l, 0) {
			return nil, fmt.Errorf("box length along axis %d must be a finite positive number, got %v", i, l)
		}
		b.lengths[i] = l
		b.half[i] = 0.5 * l
	}
	return b, nil
}

// Dimension returns the number of spatial axes.
func (b *Box) Dimension() int { return b.dimension }

// Lengths returns a copy of the per-axis box lengths.
func (b *Box) Lengths() []float64 {
	out := make([]float64, b.dimension)
	copy(out, b.lengths)
	return out
}

// Length returns the box length along axis i.
func (b *Box) Length(i int) float64 { return b.lengths[i] }

// MinLength returns the shortest box length.
func (b *Box) MinLength() float64 {
	m := b.lengths[0]
	for _, l := range b.lengths[1:] {
		m = math.Min(m, l)
	}
	return m
}

// Volume returns the box area (2D) or volume (3D).
func (b *Box) Volume() float64 {
	v := 1.0
	for _, l := range b.lengths {
		v *= l
	}
	return v
}

// MinimumImage reduces a separation vector in place so that every
// component lies in [-L/2, L/2).
func (b *Box) MinimumImage(sep []float64) {
	for i := 0; i < b.dimension; i++ {
		l := b.lengths[i]
		d := sep[i]
		if d < -b.half[i] || d >= b.half[i] {
			d -= l * math.Floor(d/l+0.5)
			// Floor rounding can land exactly on +L/2.
			if d >= b.half[i] {
				d -= l
			} else if d < -b.half[i] {
				d += l
			}
		}
		sep[i] = d
	}
}

// Wrap reduces a position in place into [0, L) along every axis.
func (b *Box) Wrap(pos []float64) {
	for i := 0; i < b.dimension; i++ {
		l := b.lengths[i]
		x := pos[i]
		if x < 0 || x >= l {
			x -= l * math.Floor(x/l)
			if x >= l {
				x = 0
			}
		}
		pos[i] = x
	}
}

// Separation writes the minimum-image vector from a to b into out
// and returns it. out may alias neither a nor b.
func (b *Box) Separation(from, to, out []float64) []float64 {
	for i := 0; i < b.dimension; i++ {
		out[i] = to[i] - from[i]
	}
	b.MinimumImage(out)
	return out
}

// Distance2 returns the squared minimum-image distance between two points.
func (b *Box) Distance2(p, q []float64) float64 {
	var r2 float64
	for i := 0; i < b.dimension; i++ {
		d := q[i] - p[i]
		l := b.lengths[i]
		if d < -b.half[i] || d >= b.half[i] {
			d -= l * math.Floor(d/l+0.5)
		}
		r2 += d * d
	}
	return r2
}
