// Package cells implements a periodic cell list: the box is partitioned
// into cells whose edge is at least the interaction range, so every pair
// of particles within range lies in the same or an adjacent cell.
package cells

import (
	"fmt"
	"math"
)

// List is a cell list over a periodic box.
//
// Thread-safety: NOT thread-safe. Mutated only by the owning engine.
type List struct {
	dimension int
	counts    []int     // cells per axis
	widths    []float64 // cell edge per axis
	strides   []int

	// members[c] lists the particles in cell c; slot[i] is particle i's
	// position within members[cellOf[i]], giving O(1) removal.
	members [][]int
	cellOf  []int
	slot    []int

	neighbours [][]int // per cell, distinct adjacent cells including itself
}

// New initialises a cell list for a box with the given lengths, sized so
// that every cell edge is at least interactionRange. capacity is the
// number of particles that may be registered.
func New(boxLengths []float64, interactionRange float64, capacity int) (*List, error) {
	dim := len(boxLengths)
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("cell list dimension must be 2 or 3, got %d", dim)
	}
	if !(interactionRange > 0) || math.IsInf(interactionRange, 0) {
		return nil, fmt.Errorf("interaction range must be a finite positive number, got %v", interactionRange)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("capacity must be non-negative, got %d", capacity)
	}
	l := &List{
		dimension: dim,
		counts:    make([]int, dim),
		widths:    make([]float64, dim),
		strides:   make([]int, dim),
	}
	total := 1
	for i, length := range boxLengths {
		if !(length > 0) {
			return nil, fmt.Errorf("box length along axis %d must be positive, got %v", i, length)
		}
		if interactionRange > 0.5*length {
			return nil, fmt.Errorf("interaction range %v exceeds half the box length %v along axis %d", interactionRange, length, i)
		}
		n := int(math.Floor(length / interactionRange))
		if n < 1 {
			n = 1
		}
		l.counts[i] = n
		l.widths[i] = length / float64(n)
		l.strides[i] = total
		total *= n
	}

	l.members = make([][]int, total)
	l.cellOf = make([]int, capacity)
	l.slot = make([]int, capacity)
	for i := range l.cellOf {
		l.cellOf[i] = -1
	}
	l.neighbours = make([][]int, total)
	for c := 0; c < total; c++ {
		l.neighbours[c] = l.adjacent(c)
	}
	return l, nil
}

// adjacent enumerates the distinct cells touching c (itself included),
// wrapping periodically. With fewer than three cells along an axis the
// periodic images coincide and are reported once.
func (l *List) adjacent(c int) []int {
	coords := l.coordsOf(c)
	seen := make(map[int]bool)
	var out []int
	offsets := make([]int, l.dimension)
	for i := range offsets {
		offsets[i] = -1
	}
	for {
		idx := 0
		for k := 0; k < l.dimension; k++ {
			x := (coords[k] + offsets[k] + l.counts[k]) % l.counts[k]
			idx += x * l.strides[k]
		}
		if !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
		// odometer over {-1,0,1}^dim
		k := 0
		for ; k < l.dimension; k++ {
			offsets[k]++
			if offsets[k] <= 1 {
				break
			}
			offsets[k] = -1
		}
		if k == l.dimension {
			break
		}
	}
	return out
}

func (l *List) coordsOf(c int) []int {
	coords := make([]int, l.dimension)
	for k := l.dimension - 1; k >= 0; k-- {
		coords[k] = c / l.strides[k]
		c %= l.strides[k]
	}
	return coords
}

// NumCells returns the total number of cells.
func (l *List) NumCells() int { return len(l.members) }

// Counts returns the number of cells along each axis.
func (l *List) Counts() []int {
	out := make([]int, l.dimension)
	copy(out, l.counts)
	return out
}

// Index returns the cell containing a position already wrapped into the box.
func (l *List) Index(position []float64) int {
	idx := 0
	for k := 0; k < l.dimension; k++ {
		x := int(position[k] / l.widths[k])
		// guard against positions a rounding error outside [0, L)
		if x < 0 {
			x = 0
		} else if x >= l.counts[k] {
			x = l.counts[k] - 1
		}
		idx += x * l.strides[k]
	}
	return idx
}

// Register places particle i in the cell containing position.
func (l *List) Register(i int, position []float64) {
	if l.cellOf[i] >= 0 {
		l.remove(i)
	}
	l.insert(i, l.Index(position))
}

// Update moves particle i to the cell containing newPosition. It is a
// no-op when the cell is unchanged.
func (l *List) Update(i int, newPosition []float64) {
	c := l.Index(newPosition)
	if c == l.cellOf[i] {
		return
	}
	if l.cellOf[i] >= 0 {
		l.remove(i)
	}
	l.insert(i, c)
}

func (l *List) insert(i, c int) {
	l.slot[i] = len(l.members[c])
	l.members[c] = append(l.members[c], i)
	l.cellOf[i] = c
}

func (l *List) remove(i int) {
	c := l.cellOf[i]
	s := l.slot[i]
	last := len(l.members[c]) - 1
	moved := l.members[c][last]
	l.members[c][s] = moved
	l.slot[moved] = s
	l.members[c] = l.members[c][:last]
	l.cellOf[i] = -1
}

// CellOf returns the cell particle i is registered in, or -1.
func (l *List) CellOf(i int) int { return l.cellOf[i] }

// Members returns the particles registered in cell c. The slice is owned
// by the list and must not be modified.
func (l *List) Members(c int) []int { return l.members[c] }

// Neighbors appends to buf every particle registered in the cell holding
// position and in all cells adjacent to it. The result over-approximates
// the particles within range; callers filter by exact distance.
func (l *List) Neighbors(position []float64, buf []int) []int {
	for _, c := range l.neighbours[l.Index(position)] {
		buf = append(buf, l.members[c]...)
	}
	return buf
}
