package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Cell is the content of one grid square.
type Cell uint8

const (
	Open Cell = iota
	Wall
)

// Wall and open glyphs used by the textual grid format.
const (
	WallGlyph = '#'
	OpenGlyph = '.'
)

// Grid is a rectangular obstacle map. The start cell is (0,0) and the goal is the
// bottom-right corner. A Grid is not safe for concurrent mutation; the facade hands
// each run its own clone.
type Grid struct {
	rows  int
	cols  int
	cells []Cell
}

// NewGrid creates an all-open grid.
func NewGrid(rows, cols int) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	if rows > math.MaxInt/cols {
		return nil, fmt.Errorf("%w: %dx%d cells overflow", ErrInvalidDimensions, rows, cols)
	}
	return &Grid{rows: rows, cols: cols, cells: make([]Cell, rows*cols)}, nil
}

// GridFromMask builds a grid where mask[r][c] == true marks a wall.
func GridFromMask(mask [][]bool) (*Grid, error) {
	if len(mask) == 0 {
		return nil, fmt.Errorf("%w: empty mask", ErrInvalidDimensions)
	}
	g, err := NewGrid(len(mask), len(mask[0]))
	if err != nil {
		return nil, err
	}
	if err := g.ApplyMask(mask); err != nil {
		return nil, err
	}
	return g, nil
}

// ParseGrid reads the textual format: one line per row, WallGlyph for walls and any
// other rune for open cells. Blank lines are ignored.
func ParseGrid(lines []string) (*Grid, error) {
	mask := make([][]bool, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		row := make([]bool, 0, len(line))
		for _, r := range line {
			row = append(row, r == WallGlyph)
		}
		mask = append(mask, row)
	}
	return GridFromMask(mask)
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Start is the fixed entry cell.
func (g *Grid) Start() Pos { return Pos{} }

// Goal is the fixed exit cell.
func (g *Grid) Goal() Pos { return Pos{Row: g.rows - 1, Col: g.cols - 1} }

// InBounds reports whether p addresses a cell of the grid.
func (g *Grid) InBounds(p Pos) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

// IsOpen reports whether (r, c) is inside the grid and not a wall.
// Out-of-bounds coordinates are simply closed.
func (g *Grid) IsOpen(r, c int) bool {
	p := Pos{Row: r, Col: c}
	return g.InBounds(p) && g.cells[g.index(p)] == Open
}

// At returns the cell at p. Out-of-bounds positions read as Wall.
func (g *Grid) At(p Pos) Cell {
	if !g.InBounds(p) {
		return Wall
	}
	return g.cells[g.index(p)]
}

// Set overwrites the cell at p.
func (g *Grid) Set(p Pos, c Cell) error {
	if !g.InBounds(p) {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, p)
	}
	g.cells[g.index(p)] = c
	return nil
}

// Toggle flips the cell at p between Open and Wall and returns the new value.
func (g *Grid) Toggle(p Pos) (Cell, error) {
	if !g.InBounds(p) {
		return Open, fmt.Errorf("%w: %s", ErrOutOfBounds, p)
	}
	i := g.index(p)
	if g.cells[i] == Open {
		g.cells[i] = Wall
	} else {
		g.cells[i] = Open
	}
	return g.cells[i], nil
}

// Clear opens every cell.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = Open
	}
}

// ApplyMask overwrites every cell from mask, which must match the grid shape.
func (g *Grid) ApplyMask(mask [][]bool) error {
	if len(mask) != g.rows {
		return fmt.Errorf("%w: got %d rows, want %d", ErrInvalidWallMask, len(mask), g.rows)
	}
	for r, row := range mask {
		if len(row) != g.cols {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidWallMask, r, len(row), g.cols)
		}
		for c, wall := range row {
			if wall {
				g.cells[r*g.cols+c] = Wall
			} else {
				g.cells[r*g.cols+c] = Open
			}
		}
	}
	return nil
}

// Walls returns the grid as a wall mask.
func (g *Grid) Walls() [][]bool {
	mask := make([][]bool, g.rows)
	for r := range mask {
		mask[r] = make([]bool, g.cols)
		for c := range mask[r] {
			mask[r][c] = g.cells[r*g.cols+c] == Wall
		}
	}
	return mask
}

// WallCount returns the number of wall cells.
func (g *Grid) WallCount() int {
	n := 0
	for _, c := range g.cells {
		if c == Wall {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (g *Grid) Clone() *Grid {
	cells := make([]Cell, len(g.cells))
	copy(cells, g.cells)
	return &Grid{rows: g.rows, cols: g.cols, cells: cells}
}

// String renders the grid in the textual format accepted by ParseGrid.
func (g *Grid) String() string {
	var sb strings.Builder
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if g.cells[r*g.cols+c] == Wall {
				sb.WriteRune(WallGlyph)
			} else {
				sb.WriteRune(OpenGlyph)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (g *Grid) index(p Pos) int {
	return p.Row*g.cols + p.Col
}

type gridJSON struct {
	Rows  int      `json:"rows"`
	Cols  int      `json:"cols"`
	Walls [][]bool `json:"walls"`
}

// MarshalJSON encodes the grid as its dimensions plus a wall mask.
func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(gridJSON{Rows: g.rows, Cols: g.cols, Walls: g.Walls()})
}

// UnmarshalJSON decodes the format produced by MarshalJSON. A missing wall mask
// yields an all-open grid.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var raw gridJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ng, err := NewGrid(raw.Rows, raw.Cols)
	if err != nil {
		return err
	}
	if raw.Walls != nil {
		if err := ng.ApplyMask(raw.Walls); err != nil {
			return err
		}
	}
	*g = *ng
	return nil
}

// CheckCellLimit rejects grids with more than limit cells.
func CheckCellLimit(rows, cols, limit int) error {
	if rows > 0 && cols > 0 && rows > limit/cols {
		return fmt.Errorf("%w: %dx%d exceeds %d cells", ErrInvalidDimensions, rows, cols, limit)
	}
	return nil
}
