// Package particle holds the committed particle state as contiguous,
// capacity-bounded buffers indexed by a stable particle index.
package particle

import (
	"fmt"
	"math"
)

// State is a read-only snapshot of one particle handed to pair-energy
// evaluation. Position and Orientation alias engine buffers and must not
// be retained or modified.
type State struct {
	Index          int
	Position       []float64
	Orientation    []float64
	Type           int
	HasOrientation bool
}

// Store is an arena of particles. Capacity is fixed at construction and
// particles are never added or removed.
type Store struct {
	n, dim         int
	positions      []float64 // n*dim
	orientations   []float64 // n*dim, zero for isotropic particles
	types          []int
	hasOrientation []bool
}

// NewStore copies the supplied buffers into a new store. isotropic may be
// nil, making every particle isotropic; orientations must then be nil too.
func NewStore(n, dim int, positions []float64, types []int, orientations []float64, isotropic []bool) (*Store, error) {
	if n < 1 {
		return nil, fmt.Errorf("particle count must be positive, got %d", n)
	}
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("dimension must be 2 or 3, got %d", dim)
	}
	if len(positions) != n*dim {
		return nil, fmt.Errorf("coordinate buffer has %d values, want %d", len(positions), n*dim)
	}
	if len(types) != n {
		return nil, fmt.Errorf("type buffer has %d values, want %d", len(types), n)
	}
	if orientations != nil && len(orientations) != n*dim {
		return nil, fmt.Errorf("orientation buffer has %d values, want %d", len(orientations), n*dim)
	}
	if isotropic != nil && len(isotropic) != n {
		return nil, fmt.Errorf("isotropic flag buffer has %d values, want %d", len(isotropic), n)
	}
	if orientations != nil && isotropic == nil {
		return nil, fmt.Errorf("orientation buffer supplied without isotropic flags")
	}

	s := &Store{
		n:              n,
		dim:            dim,
		positions:      make([]float64, n*dim),
		orientations:   make([]float64, n*dim),
		types:          make([]int, n),
		hasOrientation: make([]bool, n),
	}
	copy(s.types, types)
	for i, x := range positions {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("particle %d has non-finite coordinate %v", i/dim, x)
		}
		s.positions[i] = x
	}
	for i := 0; i < n; i++ {
		if isotropic == nil || isotropic[i] {
			continue
		}
		if orientations == nil {
			return nil, fmt.Errorf("particle %d is anisotropic but no orientations were supplied", i)
		}
		o := s.orientations[i*dim : (i+1)*dim]
		copy(o, orientations[i*dim:(i+1)*dim])
		var n2 float64
		for _, x := range o {
			n2 += x * x
		}
		if !(n2 > 0) || math.IsInf(n2, 0) {
			return nil, fmt.Errorf("particle %d is anisotropic but has orientation %v", i, o)
		}
		for k := range o {
			o[k] /= math.Sqrt(n2)
		}
		s.hasOrientation[i] = true
	}
	return s, nil
}

// Len returns the number of particles.
func (s *Store) Len() int { return s.n }

// Dimension returns the number of spatial axes.
func (s *Store) Dimension() int { return s.dim }

// Position returns particle i's committed position. The slice aliases the
// store and must not be modified.
func (s *Store) Position(i int) []float64 { return s.positions[i*s.dim : (i+1)*s.dim] }

// Orientation returns particle i's committed orientation.
func (s *Store) Orientation(i int) []float64 { return s.orientations[i*s.dim : (i+1)*s.dim] }

// Type returns particle i's type tag.
func (s *Store) Type(i int) int { return s.types[i] }

// HasOrientation reports whether particle i is anisotropic.
func (s *Store) HasOrientation(i int) bool { return s.hasOrientation[i] }

// State returns a snapshot view of particle i.
func (s *Store) State(i int) State {
	return State{
		Index:          i,
		Position:       s.Position(i),
		Orientation:    s.Orientation(i),
		Type:           s.types[i],
		HasOrientation: s.hasOrientation[i],
	}
}

// Set overwrites particle i's committed position and orientation.
// The orientation is ignored for isotropic particles.
func (s *Store) Set(i int, position, orientation []float64) {
	copy(s.Position(i), position)
	if s.hasOrientation[i] && orientation != nil {
		copy(s.Orientation(i), orientation)
	}
}

// Positions returns a copy of all committed positions as n*dim values.
func (s *Store) Positions() []float64 {
	out := make([]float64, len(s.positions))
	copy(out, s.positions)
	return out
}

// Orientations returns a copy of all committed orientations.
func (s *Store) Orientations() []float64 {
	out := make([]float64, len(s.orientations))
	copy(out, s.orientations)
	return out
}

// Types returns a copy of the type buffer.
func (s *Store) Types() []int {
	out := make([]int, s.n)
	copy(out, s.types)
	return out
}
