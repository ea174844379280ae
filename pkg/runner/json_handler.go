package runner

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/aretw0/ratmaze/pkg/domain"
)

// Record types emitted by JSONHandler.
const (
	RecordStart   = "start"
	RecordEvent   = "event"
	RecordOutcome = "outcome"
)

// Record is one line of JSONHandler output.
type Record struct {
	Type    string            `json:"type"`
	Run     *RunInfo          `json:"run,omitempty"`
	Event   *domain.StepEvent `json:"event,omitempty"`
	Outcome *domain.Outcome   `json:"outcome,omitempty"`
	Message string            `json:"message,omitempty"`
}

// JSONHandler writes newline-delimited JSON records.
type JSONHandler struct {
	mu      sync.Mutex
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler writing to w (Stdout when nil).
func NewJSONHandler(w io.Writer) *JSONHandler {
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{Encoder: json.NewEncoder(w)}
}

func (h *JSONHandler) Start(ctx context.Context, info RunInfo) error {
	return h.write(Record{Type: RecordStart, Run: &info})
}

func (h *JSONHandler) Event(ctx context.Context, ev domain.StepEvent) error {
	return h.write(Record{Type: RecordEvent, Event: &ev})
}

func (h *JSONHandler) Finish(ctx context.Context, outcome domain.Outcome) error {
	return h.write(Record{Type: RecordOutcome, Outcome: &outcome, Message: outcome.Message()})
}

func (h *JSONHandler) write(rec Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(rec)
}
