package domain

const (
	// MinDimension is the smallest number of rows or columns a configured maze may have.
	MinDimension = 2

	// DefaultRows and DefaultCols match the board shown on first launch.
	DefaultRows = 5
	DefaultCols = 5

	// MaxServedCells caps the grids accepted over HTTP and MCP.
	MaxServedCells = 1 << 20

	// DefaultDensity is the wall probability used for random hurdles.
	DefaultDensity = 0.3
)
