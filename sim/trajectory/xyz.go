package trajectory

import (
	"bufio"
	"fmt"
	"os"
)

// Frame is one snapshot of committed particle state.
type Frame struct {
	Sweeps    int64
	Dimension int
	Positions []float64 // n*Dimension
	Types     []int
}

// AppendXYZ writes f to the xyz trajectory at path. truncate starts a new
// file; otherwise the frame is appended. 2D frames are written with z = 0.
func AppendXYZ(path string, f Frame, truncate bool) error {
	if f.Dimension != 2 && f.Dimension != 3 {
		return fmt.Errorf("xyz frame: unsupported dimension %d", f.Dimension)
	}
	n := len(f.Positions) / f.Dimension
	if len(f.Types) != n {
		return fmt.Errorf("xyz frame: %d types for %d particles", len(f.Types), n)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("opening xyz trajectory: %w", err)
	}
	defer func() { _ = file.Close() }()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "%d\n", n)
	fmt.Fprintf(w, "sweeps=%d\n", f.Sweeps)
	for i := 0; i < n; i++ {
		p := f.Positions[i*f.Dimension : (i+1)*f.Dimension]
		z := 0.0
		if f.Dimension == 3 {
			z = p[2]
		}
		fmt.Fprintf(w, "%d %.5f %.5f %.5f\n", f.Types[i], p[0], p[1], z)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing xyz frame: %w", err)
	}
	return nil
}
