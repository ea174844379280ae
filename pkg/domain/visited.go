package domain

// VisitedSet records the cells a run has expanded. It is owned by a single run and
// discarded when the run ends.
type VisitedSet struct {
	rows  int
	cols  int
	marks []bool
	count int
}

// NewVisitedSet creates an all-false set sized for a rows x cols grid.
func NewVisitedSet(rows, cols int) *VisitedSet {
	return &VisitedSet{rows: rows, cols: cols, marks: make([]bool, rows*cols)}
}

// Has reports whether p has been marked. Out-of-bounds positions are never marked.
func (v *VisitedSet) Has(p Pos) bool {
	if !v.inBounds(p) {
		return false
	}
	return v.marks[p.Row*v.cols+p.Col]
}

// Mark records p. It reports false if p was already marked or is out of bounds.
func (v *VisitedSet) Mark(p Pos) bool {
	if !v.inBounds(p) {
		return false
	}
	i := p.Row*v.cols + p.Col
	if v.marks[i] {
		return false
	}
	v.marks[i] = true
	v.count++
	return true
}

// Len returns the number of marked cells.
func (v *VisitedSet) Len() int { return v.count }

// Positions lists marked cells in row-major order.
func (v *VisitedSet) Positions() []Pos {
	out := make([]Pos, 0, v.count)
	for i, m := range v.marks {
		if m {
			out = append(out, Pos{Row: i / v.cols, Col: i % v.cols})
		}
	}
	return out
}

func (v *VisitedSet) inBounds(p Pos) bool {
	return p.Row >= 0 && p.Row < v.rows && p.Col >= 0 && p.Col < v.cols
}
