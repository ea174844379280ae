package domain

import "fmt"

// Pos addresses a cell by row and column. Coordinates may fall outside the grid.
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Add returns p translated by d.
func (p Pos) Add(d Pos) Pos {
	return Pos{Row: p.Row + d.Row, Col: p.Col + d.Col}
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Directions is the fixed exploration order: Down, Right, Up, Left.
// Changing it changes which path is found first.
var Directions = [4]Pos{
	{Row: 1, Col: 0},
	{Row: 0, Col: 1},
	{Row: -1, Col: 0},
	{Row: 0, Col: -1},
}

// Adjacent reports whether a and b differ by exactly one unit move.
func Adjacent(a, b Pos) bool {
	for _, d := range Directions {
		if a.Add(d) == b {
			return true
		}
	}
	return false
}
