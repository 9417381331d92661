package crossfilter

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/matst80/slask-crossfilter/pkg/state"
	"github.com/matst80/slask-crossfilter/pkg/table"
	"github.com/matst80/slask-crossfilter/pkg/types"
)

// Binding connects one chart's selection events to a reference table and a
// shared state store.
type Binding struct {
	Chart    string           `json:"chart"`
	Table    *table.Table     `json:"-"`
	IdColumn string           `json:"idColumn"`
	State    state.Store      `json:"-"`
	Filter   types.FilterSpec `json:"filter"`
}

type Status int32

const (
	Idle Status = iota
	Resolving
)

func (s Status) String() string {
	if s == Resolving {
		return "resolving"
	}
	return "idle"
}

// Registration is the live binding kept by a Dispatcher.
type Registration struct {
	Binding
	Id     string `json:"id"`
	status atomic.Int32
	mu     sync.Mutex
	last   []string
	seen   bool
}

func (r *Registration) Status() Status {
	return Status(r.status.Load())
}

func (r *Registration) setStatus(s Status) {
	r.status.Store(int32(s))
}

// LastSelection returns the most recent selection that was handled for the
// chart, failed resolutions excluded.
func (r *Registration) LastSelection() []string {
	last, _ := r.lastSelection()
	return last
}

func (r *Registration) lastSelection() ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.last), r.seen
}

func (r *Registration) remember(values []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = slices.Clone(values)
	r.seen = true
}
