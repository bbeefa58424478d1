package potential

import (
	"fmt"
	"math"

	"github.com/vmmc-sim/vmmc-sim/sim/geom"
	"github.com/vmmc-sim/vmmc-sim/sim/particle"
)

// LennardJones is the truncated and shifted 12-6 potential with unit
// particle diameter, zero at the cut-off.
type LennardJones struct {
	*Pairwise
	epsilon float64
	shift   float64
}

// NewLennardJones builds a Lennard-Jones model with well depth epsilon
// (in kBT) cut off at interactionRange diameters.
func NewLennardJones(box *geom.Box, epsilon, interactionRange float64) (*LennardJones, error) {
	if !(epsilon >= 0) {
		return nil, fmt.Errorf("interaction energy must be non-negative, got %v", epsilon)
	}
	m := &LennardJones{epsilon: epsilon}
	rc6 := 1 / math.Pow(interactionRange, 6)
	m.shift = 4 * epsilon * (rc6*rc6 - rc6)
	pw, err := NewPairwise(box, interactionRange, m.pair)
	if err != nil {
		return nil, err
	}
	m.Pairwise = pw
	return m, nil
}

func (m *LennardJones) pair(_, _ particle.State, r2 float64) float64 {
	r6 := 1 / (r2 * r2 * r2)
	return 4*m.epsilon*(r6*r6-r6) - m.shift
}
