package domain

// Path is the active depth-first stack: the cells currently on the route from the
// start. It grows on advance and shrinks on backtrack.
type Path struct {
	cells []Pos
}

// Push appends p to the path.
func (p *Path) Push(pos Pos) {
	p.cells = append(p.cells, pos)
}

// Pop removes and returns the last position.
func (p *Path) Pop() (Pos, bool) {
	if len(p.cells) == 0 {
		return Pos{}, false
	}
	last := p.cells[len(p.cells)-1]
	p.cells = p.cells[:len(p.cells)-1]
	return last, true
}

// Len returns the number of positions on the path.
func (p *Path) Len() int { return len(p.cells) }

// Snapshot returns a copy safe to hand to other goroutines.
func (p *Path) Snapshot() []Pos {
	out := make([]Pos, len(p.cells))
	copy(out, p.cells)
	return out
}
