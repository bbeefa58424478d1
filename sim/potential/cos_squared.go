package potential

import (
	"fmt"
	"math"

	"github.com/vmmc-sim/vmmc-sim/sim/geom"
	"github.com/vmmc-sim/vmmc-sim/sim/particle"
)

// CosSquared is a type-aware potential with a WCA-like repulsive core for
// r < 1 and a cos² attractive tail out to the interaction range:
//   - type 0 with type 0: depth epsilon
//   - type 1 with type 1: depth 5*epsilon
//   - unlike types:       depth epsilon, reaching sqrt(2) times further
//
// Other like-type pairs only feel the core.
type CosSquared struct {
	*Pairwise
	epsilon  float64
	rc, rc2  float64
	halfSpan float64 // pi / (2(rc - 1))
}

// NewCosSquared builds a cosine-squared model. interactionRange must exceed
// the unit diameter; the cell range needed is sqrt(2)*interactionRange.
func NewCosSquared(box *geom.Box, epsilon, interactionRange float64) (*CosSquared, error) {
	if !(epsilon >= 0) {
		return nil, fmt.Errorf("interaction energy must be non-negative, got %v", epsilon)
	}
	if !(interactionRange > 1) {
		return nil, fmt.Errorf("interaction range must exceed the particle diameter, got %v", interactionRange)
	}
	m := &CosSquared{
		epsilon:  epsilon,
		rc:       interactionRange,
		rc2:      interactionRange * interactionRange,
		halfSpan: math.Pi / (2 * (interactionRange - 1)),
	}
	pw, err := NewPairwise(box, math.Sqrt2*interactionRange, m.pair)
	if err != nil {
		return nil, err
	}
	m.Pairwise = pw
	return m, nil
}

func (m *CosSquared) pair(a, b particle.State, r2 float64) float64 {
	if r2 < 1 {
		r6 := 1 / (r2 * r2 * r2)
		return m.epsilon * (r6*r6 - 2*r6 + 1)
	}
	var depth float64
	switch {
	case a.Type != b.Type:
		// cut-off check against 2*rc² is done by Pairwise
		depth = m.epsilon
	case r2 >= m.rc2:
		return 0
	case a.Type == 0:
		depth = m.epsilon
	case a.Type == 1:
		depth = 5 * m.epsilon
	default:
		return 0
	}
	c := math.Cos(m.halfSpan * (math.Sqrt(r2) - 1))
	return -depth * c * c
}
