package trajectory

import (
	"fmt"
	"os"
	"strings"
)

// WriteVMDScript writes a Tcl script that loads the xyz trajectory into VMD
// and draws the periodic simulation box. 2D boxes are drawn flat at z = 0.
func WriteVMDScript(path, trajectory string, boxSize []float64) error {
	if len(boxSize) != 2 && len(boxSize) != 3 {
		return fmt.Errorf("vmd script: unsupported dimension %d", len(boxSize))
	}
	lx, ly, lz := boxSize[0], boxSize[1], 0.0
	if len(boxSize) == 3 {
		lz = boxSize[2]
	}

	var b strings.Builder
	b.WriteString("# Load with: vmd -e " + path + "\n")
	fmt.Fprintf(&b, "mol new %s type xyz waitfor all\n", trajectory)
	b.WriteString("mol delrep 0 top\n")
	b.WriteString("mol representation VDW 0.5 16\n")
	b.WriteString("mol color Name\n")
	b.WriteString("mol addrep top\n")
	b.WriteString("display projection orthographic\n")
	b.WriteString("axes location off\n")
	b.WriteString("color Display Background white\n")
	b.WriteString("draw color black\n")

	corners := [][3]float64{
		{0, 0, 0}, {lx, 0, 0}, {lx, ly, 0}, {0, ly, 0},
		{0, 0, lz}, {lx, 0, lz}, {lx, ly, lz}, {0, ly, lz},
	}
	edges := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
	if lz > 0 {
		edges = append(edges,
			[2]int{4, 5}, [2]int{5, 6}, [2]int{6, 7}, [2]int{7, 4},
			[2]int{0, 4}, [2]int{1, 5}, [2]int{2, 6}, [2]int{3, 7})
	}
	for _, e := range edges {
		a, c := corners[e[0]], corners[e[1]]
		fmt.Fprintf(&b, "draw line \"%g %g %g\" \"%g %g %g\" width 2\n", a[0], a[1], a[2], c[0], c[1], c[2])
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing vmd script: %w", err)
	}
	return nil
}
