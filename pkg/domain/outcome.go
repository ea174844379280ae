package domain

// OutcomeStatus is the terminal state of a run.
type OutcomeStatus string

const (
	OutcomePathFound OutcomeStatus = "path_found"
	OutcomeNoPath    OutcomeStatus = "no_path"
	OutcomeCancelled OutcomeStatus = "cancelled"
)

// Outcome is the result of a run.
type Outcome struct {
	Status OutcomeStatus `json:"status"`

	// Path is the route from start to goal when Status is OutcomePathFound.
	Path []Pos `json:"path,omitempty"`

	// Steps is the number of events emitted, terminal event included.
	Steps int `json:"steps"`

	// Visited is the number of cells expanded.
	Visited int `json:"visited"`
}

// Message returns the user-facing summary of the outcome.
func (o Outcome) Message() string {
	switch o.Status {
	case OutcomePathFound:
		return "Path found!"
	case OutcomeNoPath:
		return "No path found."
	case OutcomeCancelled:
		return "Run cancelled."
	default:
		return ""
	}
}
