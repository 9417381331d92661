package types

import (
	"slices"
	"time"
)

// SelectionEvent is emitted by a chart when its selection changes.
type SelectionEvent struct {
	Id      string    `json:"id,omitempty"`
	Chart   string    `json:"chart"`
	Values  []string  `json:"values"`
	Initial bool      `json:"initial,omitempty"`
	Time    time.Time `json:"time,omitempty"`
}

func (e *SelectionEvent) IsEmpty() bool {
	return len(e.Values) == 0
}

func SameSelection(a, b []string) bool {
	return slices.Equal(a, b)
}

// StateChange is published after a selection narrowed the shared state.
type StateChange struct {
	Chart  string   `json:"chart"`
	Event  string   `json:"event,omitempty"`
	Before int      `json:"before"`
	After  int      `json:"after"`
	Values []string `json:"values"`
}
