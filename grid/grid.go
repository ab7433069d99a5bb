// Package grid provides the cell grid storage and neighborhood counting for
// the simulation.
package grid

import "fmt"

// Species identifies what occupies a cell.
type Species uint8

const (
	Empty Species = iota
	Red
	Green
	Blue
	Quantum

	// NumSpecies is the number of Species values including Empty.
	NumSpecies = 5
)

// LiveSpecies lists the non-Empty species in birth-priority order: when an
// empty cell has multiple birth candidates with equal neighbor counts, the
// earliest species in this list wins.
var LiveSpecies = [4]Species{Red, Green, Blue, Quantum}

// String returns the lowercase species name.
func (s Species) String() string {
	switch s {
	case Empty:
		return "empty"
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	case Quantum:
		return "quantum"
	default:
		return fmt.Sprintf("species(%d)", uint8(s))
	}
}

// ParseSpecies resolves a species name as used in configuration files.
func ParseSpecies(name string) (Species, error) {
	switch name {
	case "empty":
		return Empty, nil
	case "red":
		return Red, nil
	case "green":
		return Green, nil
	case "blue":
		return Blue, nil
	case "quantum":
		return Quantum, nil
	default:
		return Empty, fmt.Errorf("unknown species %q", name)
	}
}

// Cell is the value stored at each grid position. Empty cells always have
// zero energy, phase and age; Phase is only meaningful for Quantum cells.
type Cell struct {
	Species Species
	Energy  float64
	Phase   float64
	Age     int32
}

// EdgePolicy controls how neighbor lookups treat grid borders.
type EdgePolicy uint8

const (
	// Wrap indexes neighbors modulo the grid dimensions (toroidal).
	Wrap EdgePolicy = iota
	// Bounded treats out-of-range neighbors as Empty.
	Bounded
)

// ParseEdgePolicy resolves an edge policy name as used in configuration files.
func ParseEdgePolicy(name string) (EdgePolicy, error) {
	switch name {
	case "wrap":
		return Wrap, nil
	case "bounded":
		return Bounded, nil
	default:
		return Wrap, fmt.Errorf("unknown edge policy %q", name)
	}
}

// NeighborCounts holds, per species, how many of a cell's 8 Moore neighbors
// are occupied by that species.
type NeighborCounts [NumSpecies]int

// Of returns the count for one species.
func (n NeighborCounts) Of(s Species) int { return n[s] }

// TotalLive returns the count of all non-Empty neighbors.
func (n NeighborCounts) TotalLive() int {
	total := 0
	for _, s := range LiveSpecies {
		total += n[s]
	}
	return total
}

// mooreOffsets enumerates the 8-cell Moore neighborhood.
var mooreOffsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Grid is a fixed-size rectangular field of cells. Row 0 is the top row.
type Grid struct {
	w, h  int
	cells []Cell
}

// New creates a grid of the given dimensions with all cells Empty. Dimension
// validation is the caller's responsibility; New clamps nothing.
func New(width, height int) *Grid {
	return &Grid{
		w:     width,
		h:     height,
		cells: make([]Cell, width*height),
	}
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.w }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.h }

// InBounds reports whether (row, col) addresses a cell.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.h && col >= 0 && col < g.w
}

// At returns the cell at (row, col). The caller must ensure bounds.
func (g *Grid) At(row, col int) Cell {
	return g.cells[row*g.w+col]
}

// Set stores a cell at (row, col). The caller must ensure bounds.
func (g *Grid) Set(row, col int, c Cell) {
	g.cells[row*g.w+col] = c
}

// Clear resets every cell to Empty.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = Cell{}
	}
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	c := New(g.w, g.h)
	copy(c.cells, g.cells)
	return c
}

// CountLive returns the number of non-Empty cells.
func (g *Grid) CountLive() int {
	n := 0
	for i := range g.cells {
		if g.cells[i].Species != Empty {
			n++
		}
	}
	return n
}

// CountNeighbors returns per-species counts of the Moore neighborhood of
// (row, col) under the given edge policy. Pure with respect to the grid.
func (g *Grid) CountNeighbors(row, col int, policy EdgePolicy) NeighborCounts {
	var counts NeighborCounts
	for _, off := range mooreOffsets {
		r, c := row+off[0], col+off[1]
		if policy == Wrap {
			r = (r + g.h) % g.h
			c = (c + g.w) % g.w
		} else if r < 0 || r >= g.h || c < 0 || c >= g.w {
			continue
		}
		counts[g.At(r, c).Species]++
	}
	counts[Empty] = 0 // only live neighbors are counted
	return counts
}
