// Package potential provides short-ranged pair potentials implementing the
// sim.Model callback contract.
package potential

import (
	"fmt"

	"github.com/vmmc-sim/vmmc-sim/sim"
	"github.com/vmmc-sim/vmmc-sim/sim/geom"
	"github.com/vmmc-sim/vmmc-sim/sim/particle"
)

// PairFunc evaluates the energy of one pair at squared separation r2.
type PairFunc func(a, b particle.State, r2 float64) float64

// Pairwise implements the parts of sim.Model shared by every isotropic
// short-ranged potential: per-particle energy sums, candidate lists from
// the cell list, and a running total energy.
type Pairwise struct {
	box     *geom.Box
	cutOff  float64
	cutOff2 float64
	pair    PairFunc

	total   float64
	scratch []int
}

// NewPairwise wraps a pair function with cut-off distance cutOff.
func NewPairwise(box *geom.Box, cutOff float64, pair PairFunc) (*Pairwise, error) {
	if !(cutOff > 0) {
		return nil, fmt.Errorf("cut-off must be positive, got %v", cutOff)
	}
	if cutOff > 0.5*box.MinLength() {
		return nil, fmt.Errorf("cut-off %v exceeds half the smallest box length %v", cutOff, box.MinLength())
	}
	return &Pairwise{box: box, cutOff: cutOff, cutOff2: cutOff * cutOff, pair: pair}, nil
}

// Range returns the distance beyond which every pair energy vanishes.
func (m *Pairwise) Range() float64 { return m.cutOff }

// PairEnergy returns the interaction energy of a and b.
func (m *Pairwise) PairEnergy(a, b particle.State) (float64, error) {
	r2 := m.box.Distance2(a.Position, b.Position)
	if r2 >= m.cutOff2 {
		return 0, nil
	}
	if r2 == 0 {
		return 0, fmt.Errorf("particles %d and %d coincide", a.Index, b.Index)
	}
	return m.pair(a, b, r2), nil
}

// Energy returns particle i's energy against all particles within range.
func (m *Pairwise) Energy(v sim.View, i int) (float64, error) {
	st := v.State(i)
	m.scratch = v.Neighbors(st.Position, m.scratch[:0])
	var u float64
	for _, j := range m.scratch {
		if j == i {
			continue
		}
		e, err := m.PairEnergy(st, v.State(j))
		if err != nil {
			return 0, err
		}
		u += e
	}
	return u, nil
}

// Interactions appends the particles within the cut-off of position.
func (m *Pairwise) Interactions(v sim.View, i int, position, orientation []float64, buf []int) ([]int, error) {
	m.scratch = v.Neighbors(position, m.scratch[:0])
	for _, j := range m.scratch {
		if j == i {
			continue
		}
		if m.box.Distance2(position, v.State(j).Position) < m.cutOff2 {
			buf = append(buf, j)
		}
	}
	return buf, nil
}

// OnAccept folds a moved particle's energy change into the running total.
func (m *Pairwise) OnAccept(i int, oldEnergy, newEnergy float64) {
	m.total += newEnergy - oldEnergy
}

// Initialise recomputes the running total energy from scratch.
func (m *Pairwise) Initialise(v sim.View) error {
	total, err := m.ComputeTotal(v)
	if err != nil {
		return err
	}
	m.total = total
	return nil
}

// ComputeTotal sums every pair energy once.
func (m *Pairwise) ComputeTotal(v sim.View) (float64, error) {
	var sum float64
	for i := 0; i < v.NumParticles(); i++ {
		u, err := m.Energy(v, i)
		if err != nil {
			return 0, err
		}
		sum += u
	}
	return 0.5 * sum, nil
}

// TotalEnergy returns the running total energy.
func (m *Pairwise) TotalEnergy() float64 { return m.total }

// MeanEnergy returns the running total energy per particle.
func (m *Pairwise) MeanEnergy(v sim.View) float64 {
	return m.total / float64(v.NumParticles())
}
