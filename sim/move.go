package sim

import (
	"math"

	"github.com/vmmc-sim/vmmc-sim/sim/geom"
)

// MoveKind distinguishes the two rigid-body move variants.
type MoveKind int

const (
	// MoveTranslation displaces every cluster member by the same vector.
	MoveTranslation MoveKind = iota
	// MoveRotation rotates every cluster member about the seed particle.
	MoveRotation
)

func (k MoveKind) String() string {
	switch k {
	case MoveTranslation:
		return "translation"
	case MoveRotation:
		return "rotation"
	default:
		return "unknown"
	}
}

// Move is one rigid-body transform, drawn once per step and applied
// identically to every particle admitted to the cluster.
type Move struct {
	Kind         MoveKind
	Displacement []float64 // translation vector (MoveTranslation)
	Axis         []float64 // unit rotation axis, z in 2D (MoveRotation)
	Angle        float64   // rotation angle in radians (MoveRotation)

	rotation geom.Rotation
	inverse  geom.Rotation
}

// NewTranslationMove builds a translation by d.
func NewTranslationMove(d []float64) Move {
	return Move{Kind: MoveTranslation, Displacement: append([]float64(nil), d...)}
}

// NewRotationMove builds a rotation by angle about axis. axis is ignored in 2D.
func NewRotationMove(dimension int, axis []float64, angle float64) Move {
	r := geom.NewRotation(dimension, axis, angle)
	return Move{
		Kind:     MoveRotation,
		Axis:     r.Axis(),
		Angle:    angle,
		rotation: r,
		inverse:  r.Inverse(),
	}
}

// proposeMove draws a move. Translations are uniform in the ball of radius
// maxTranslation; rotations use a uniform axis and an angle uniform in
// (-maxRotation, maxRotation). Each move and its inverse are equally likely.
func proposeMove(rng RandomSource, dimension int, probTranslate, maxTranslation, maxRotation float64) Move {
	if rng.Float64() < probTranslate {
		d := make([]float64, dimension)
		r2max := maxTranslation * maxTranslation
		for {
			var r2 float64
			for k := range d {
				d[k] = maxTranslation * (2*rng.Float64() - 1)
				r2 += d[k] * d[k]
			}
			if r2 <= r2max {
				break
			}
		}
		return Move{Kind: MoveTranslation, Displacement: d}
	}

	var axis []float64
	if dimension == 3 {
		axis = make([]float64, 3)
		for {
			for k := range axis {
				axis[k] = rng.NormFloat64()
			}
			if geom.Normalise(axis) > 1e-12 {
				break
			}
		}
	}
	angle := maxRotation * (2*rng.Float64() - 1)
	return NewRotationMove(dimension, axis, angle)
}

// apply writes the transformed position and orientation of a particle
// into outPos/outOrient. center is the rotation pivot; reverse applies
// the inverse transform. Positions are wrapped into the box.
func (m *Move) apply(box *geom.Box, center, pos, orient []float64, hasOrientation, reverse bool, outPos, outOrient []float64) {
	dim := box.Dimension()
	switch m.Kind {
	case MoveTranslation:
		sign := 1.0
		if reverse {
			sign = -1
		}
		for k := 0; k < dim; k++ {
			outPos[k] = pos[k] + sign*m.Displacement[k]
		}
		copy(outOrient, orient)
	case MoveRotation:
		r := m.rotation
		if reverse {
			r = m.inverse
		}
		box.Separation(center, pos, outPos)
		r.Apply(outPos, outPos)
		for k := 0; k < dim; k++ {
			outPos[k] += center[k]
		}
		if hasOrientation {
			r.Apply(orient, outOrient)
		} else {
			copy(outOrient, orient)
		}
	}
	box.Wrap(outPos)
}

// magnitude returns the translation length or absolute rotation angle.
func (m *Move) magnitude() float64 {
	if m.Kind == MoveRotation {
		return math.Abs(m.Angle)
	}
	var n2 float64
	for _, x := range m.Displacement {
		n2 += x * x
	}
	return math.Sqrt(n2)
}
