package maze

import (
	"fmt"
	"strings"
)

type Cell int8

const (
	Open Cell = iota
	Wall
)

func (c Cell) String() string {
	switch c {
	case Open:
		return "."
	case Wall:
		return "#"
	default:
		return "!"
	}
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Grid is a square, arena-indexed array of cells. Cells are addressed as
// y*size+x. A Grid is never modified once a generator has returned it.
type Grid struct {
	size  int
	cells []Cell
}

func newGrid(size int, fill Cell) *Grid {
	cells := make([]Cell, size*size)
	if fill != Open {
		for i := range cells {
			cells[i] = fill
		}
	}
	return &Grid{size: size, cells: cells}
}

// GridFromRows builds a grid from its textual form, one string per row,
// '#' for walls and anything else for open cells.
func GridFromRows(rows []string) (*Grid, error) {
	size := len(rows)
	if size < minSize {
		return nil, &ConfigError{Field: "size", Err: ErrInvalidSize}
	}
	g := newGrid(size, Open)
	for y, row := range rows {
		if len(row) != size {
			return nil, fmt.Errorf("row %d has %d cells, want %d", y, len(row), size)
		}
		for x, ch := range row {
			if ch == '#' {
				g.cells[g.index(x, y)] = Wall
			}
		}
	}
	return g, nil
}

func (g *Grid) Size() int {
	return g.size
}

func (g *Grid) index(x, y int) int {
	return y*g.size + x
}

func (g *Grid) InBounds(x, y int) bool {
	return 0 <= x && x < g.size && 0 <= y && y < g.size
}

// CellAt reports Wall for coordinates outside the grid.
func (g *Grid) CellAt(x, y int) Cell {
	if !g.InBounds(x, y) {
		return Wall
	}
	return g.cells[g.index(x, y)]
}

func (g *Grid) IsOpen(x, y int) bool {
	return g.InBounds(x, y) && g.cells[g.index(x, y)] == Open
}

func (g *Grid) OpenAt(p Position) bool {
	return g.IsOpen(p.X, p.Y)
}

func (g *Grid) Walls() (count int) {
	for _, c := range g.cells {
		if c == Wall {
			count++
		}
	}
	return
}

func (g *Grid) Rows() []string {
	rows := make([]string, 0, g.size)
	var b strings.Builder
	for y := range g.size {
		b.Reset()
		for x := range g.size {
			b.WriteString(g.cells[g.index(x, y)].String())
		}
		rows = append(rows, b.String())
	}
	return rows
}

func (g *Grid) String() string {
	return strings.Join(g.Rows(), "\n") + "\n"
}
