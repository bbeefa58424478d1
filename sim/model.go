package sim

import (
	"github.com/vmmc-sim/vmmc-sim/sim/geom"
	"github.com/vmmc-sim/vmmc-sim/sim/particle"
)

// Model supplies pair energies to the engine. Implementations live outside
// this package (see sim/potential) and are passed to NewEngine.
//
// Energies are in units of kBT. All methods see committed state only;
// trial positions reach the model exclusively through PairEnergy and the
// position argument of Interactions.
type Model interface {
	// Energy returns the total interaction energy of particle i against
	// its current neighbors.
	Energy(v View, i int) (float64, error)

	// PairEnergy returns the interaction energy of two particles. It must
	// be symmetric under swapping a and b and depend only on its arguments.
	PairEnergy(a, b particle.State) (float64, error)

	// Interactions appends to buf the indices of particles that may
	// interact with particle i were it located at position/orientation.
	// Entries equal to i are ignored; the list may over-approximate.
	Interactions(v View, i int, position, orientation []float64, buf []int) ([]int, error)

	// OnAccept is called once per moved particle after a cluster move has
	// been committed. It is never called for rejected moves.
	OnAccept(i int, oldEnergy, newEnergy float64)
}

// View is a read-only window on the engine's committed state.
type View interface {
	Box() *geom.Box
	Dimension() int
	NumParticles() int
	State(i int) particle.State
	// Neighbors appends the cell-list neighbors of position (including any
	// particle located there) to buf.
	Neighbors(position []float64, buf []int) []int
}
