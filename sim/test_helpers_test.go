package sim

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmmc-sim/vmmc-sim/sim/geom"
	"github.com/vmmc-sim/vmmc-sim/sim/particle"
)

// pairModel is a minimal isotropic test model: a pair function of distance
// cut off at cutOff. Interactions are returned sorted so link draws happen
// in a known order.
type pairModel struct {
	box    *geom.Box
	cutOff float64
	pair   func(r float64) float64

	// Optional fault injection.
	energyHook       func(i int) (float64, bool)
	interactionsHook func(i int, buf []int) ([]int, bool)

	accepted []int
	buf      []int
}

func newPairModel(t *testing.T, boxSize []float64, cutOff float64, pair func(r float64) float64) *pairModel {
	t.Helper()
	box, err := geom.NewBox(boxSize)
	require.NoError(t, err)
	return &pairModel{box: box, cutOff: cutOff, pair: pair}
}

func (m *pairModel) at(p, q []float64) float64 {
	r := math.Sqrt(m.box.Distance2(p, q))
	if r >= m.cutOff {
		return 0
	}
	return m.pair(r)
}

func (m *pairModel) PairEnergy(a, b particle.State) (float64, error) {
	return m.at(a.Position, b.Position), nil
}

func (m *pairModel) Energy(v View, i int) (float64, error) {
	if m.energyHook != nil {
		if u, ok := m.energyHook(i); ok {
			return u, nil
		}
	}
	st := v.State(i)
	m.buf = v.Neighbors(st.Position, m.buf[:0])
	var u float64
	for _, j := range m.buf {
		if j != i {
			u += m.at(st.Position, v.State(j).Position)
		}
	}
	return u, nil
}

func (m *pairModel) Interactions(v View, i int, position, _ []float64, buf []int) ([]int, error) {
	if m.interactionsHook != nil {
		if out, ok := m.interactionsHook(i, buf); ok {
			return out, nil
		}
	}
	start := len(buf)
	m.buf = v.Neighbors(position, m.buf[:0])
	for _, j := range m.buf {
		if j != i && m.box.Distance2(position, v.State(j).Position) < m.cutOff*m.cutOff {
			buf = append(buf, j)
		}
	}
	sort.Ints(buf[start:])
	return buf, nil
}

func (m *pairModel) OnAccept(i int, _, _ float64) { m.accepted = append(m.accepted, i) }

// squareWell returns -depth inside width and 0 beyond.
func squareWell(depth, width float64) func(r float64) float64 {
	return func(r float64) float64 {
		if r < width {
			return -depth
		}
		return 0
	}
}

// parabolicWell is (r-1)^2 - 1 inside r < 2, continuous at the cut-off.
func parabolicWell(r float64) float64 { return (r-1)*(r-1) - 1 }

// testConfig returns a valid 2D configuration for the given positions.
func testConfig(boxSize []float64, positions ...float64) Config {
	n := len(positions) / len(boxSize)
	return Config{
		NumParticles:        n,
		Dimension:           len(boxSize),
		Coordinates:         positions,
		Types:               make([]int, n),
		MaxTrialTranslation: 0.5,
		MaxTrialRotation:    0.5,
		ProbTranslate:       0.5,
		ReferenceRadius:     0.5,
		MaxInteractions:     20,
		BoxSize:             boxSize,
		InteractionRange:    2.5,
		Seed:                42,
	}
}

func mustEngine(t *testing.T, cfg Config, m Model) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, m)
	require.NoError(t, err)
	return e
}

// linkProb mirrors the link probability for a pair model at explicit positions.
func linkProb(m *pairModel, pOld, pNew, q []float64) float64 {
	return math.Max(0, math.Min(1, 1-math.Exp(m.at(pOld, q)-m.at(pNew, q))))
}
