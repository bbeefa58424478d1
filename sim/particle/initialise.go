package particle

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/phil-mansfield/table"

	"github.com/vmmc-sim/vmmc-sim/sim/cells"
	"github.com/vmmc-sim/vmmc-sim/sim/geom"
)

// maxPlacementAttempts bounds the trial insertions per particle in
// RandomConfiguration before giving up on a too-dense system.
const maxPlacementAttempts = 100000

// Configuration is a set of initial coordinate buffers ready for an engine.
type Configuration struct {
	Positions    []float64
	Orientations []float64
	Types        []int
}

// RandomConfiguration places n particles of unit diameter uniformly at
// random in the box without overlaps and gives each a random unit
// orientation. All particles are type 0.
func RandomConfiguration(box *geom.Box, n int, rng *rand.Rand) (*Configuration, error) {
	dim := box.Dimension()
	cfg := &Configuration{
		Positions:    make([]float64, n*dim),
		Orientations: make([]float64, n*dim),
		Types:        make([]int, n),
	}

	const diameter = 1.0
	// The cell list needs at least two cells per axis; tiny boxes fall back
	// to a full scan over placed particles.
	var cl *cells.List
	if diameter <= 0.5*box.MinLength() {
		var err error
		cl, err = cells.New(box.Lengths(), diameter, n)
		if err != nil {
			return nil, fmt.Errorf("building placement cell list: %w", err)
		}
	}

	var buf []int
	for i := 0; i < n; i++ {
		pos := cfg.Positions[i*dim : (i+1)*dim]
		placed := false
		for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
			for k := range pos {
				pos[k] = rng.Float64() * box.Length(k)
			}
			box.Wrap(pos)

			var candidates []int
			if cl != nil {
				buf = cl.Neighbors(pos, buf[:0])
				candidates = buf
			} else {
				buf = buf[:0]
				for j := 0; j < i; j++ {
					buf = append(buf, j)
				}
				candidates = buf
			}
			overlap := false
			for _, j := range candidates {
				if box.Distance2(pos, cfg.Positions[j*dim:(j+1)*dim]) < diameter*diameter {
					overlap = true
					break
				}
			}
			if !overlap {
				placed = true
				break
			}
		}
		if !placed {
			return nil, fmt.Errorf("could not place particle %d of %d after %d attempts; density too high", i, n, maxPlacementAttempts)
		}
		if cl != nil {
			cl.Register(i, pos)
		}
		randomUnitVector(rng, cfg.Orientations[i*dim:(i+1)*dim])
	}
	return cfg, nil
}

// randomUnitVector fills v with a direction uniform on the unit sphere.
func randomUnitVector(rng *rand.Rand, v []float64) {
	for {
		for k := range v {
			v[k] = rng.NormFloat64()
		}
		if geom.Normalise(v) > 1e-12 {
			return
		}
	}
}

// ReadConfiguration loads an initial configuration from a whitespace
// separated text table. Column 0 is the type tag, the next dim columns
// are coordinates and, when withOrientations is set, the following dim
// columns are orientation components.
func ReadConfiguration(path string, dim int, withOrientations bool) (*Configuration, error) {
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("dimension must be 2 or 3, got %d", dim)
	}
	ncols := 1 + dim
	if withOrientations {
		ncols += dim
	}
	colIdxs := make([]int, ncols)
	for i := range colIdxs {
		colIdxs[i] = i
	}
	cols, err := table.ReadTable(path, colIdxs, nil)
	if err != nil {
		return nil, fmt.Errorf("reading configuration table %s: %w", path, err)
	}
	if len(cols) != ncols {
		return nil, fmt.Errorf("configuration table %s: got %d columns, want %d", path, len(cols), ncols)
	}

	n := len(cols[0])
	cfg := &Configuration{
		Positions: make([]float64, n*dim),
		Types:     make([]int, n),
	}
	if withOrientations {
		cfg.Orientations = make([]float64, n*dim)
	}
	for i := 0; i < n; i++ {
		t := cols[0][i]
		if t != math.Trunc(t) || t < 0 {
			return nil, fmt.Errorf("configuration table %s: row %d has non-integer type %v", path, i, t)
		}
		cfg.Types[i] = int(t)
		for k := 0; k < dim; k++ {
			cfg.Positions[i*dim+k] = cols[1+k][i]
			if withOrientations {
				cfg.Orientations[i*dim+k] = cols[1+dim+k][i]
			}
		}
	}
	return cfg, nil
}
