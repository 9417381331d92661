package crossfilter

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/matst80/slask-crossfilter/pkg/resolver"
	"github.com/matst80/slask-crossfilter/pkg/state"
	"github.com/matst80/slask-crossfilter/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Outcome string

const (
	OutcomeApplied        Outcome = "applied"
	OutcomeIgnoredInitial Outcome = "initial"
	OutcomeUnchanged      Outcome = "unchanged"
	OutcomeEmpty          Outcome = "empty"
	OutcomeFailed         Outcome = "failed"
)

var (
	events = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossfilter_events_total",
		Help: "The total number of selection events by outcome",
	}, []string{"chart", "outcome"})
	stateSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "crossfilter_state_ids",
		Help: "Number of selected ids after the last applied event",
	}, []string{"chart"})
)

// ChangeHandler is called after a selection has narrowed the shared state.
type ChangeHandler func(ctx context.Context, change types.StateChange)

// Dispatcher handles selection events one at a time across all registered
// charts, so every event is resolved and written before the next one starts.
type Dispatcher struct {
	mu            sync.Mutex
	registrations map[string]*Registration
	Resolve       resolver.Func
	OnError       func(event types.SelectionEvent, err error)
	OnChange      ChangeHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		registrations: make(map[string]*Registration),
		Resolve:       resolver.Resolve,
		OnError: func(event types.SelectionEvent, err error) {
			log.Printf("selection event for chart %s failed: %v", event.Chart, err)
		},
	}
}

// Register binds a chart. The columns the binding refers to are checked
// right away so a misconfigured chart fails at setup.
func (d *Dispatcher) Register(b Binding) (*Registration, error) {
	if b.State == nil {
		return nil, types.ErrMissingStateStore
	}
	if err := resolver.Validate(b.Filter, b.Table, b.IdColumn); err != nil {
		return nil, fmt.Errorf("chart %s: %w", b.Chart, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.registrations[b.Chart]; ok {
		return nil, fmt.Errorf("%w: %s", types.ErrChartRegistered, b.Chart)
	}
	reg := &Registration{
		Binding: b,
		Id:      uuid.NewString(),
	}
	d.registrations[b.Chart] = reg
	log.Printf("registered chart %s (%s, id column %s)", b.Chart, b.Filter.Mode(), b.IdColumn)
	return reg, nil
}

func (d *Dispatcher) Unregister(chart string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.registrations[chart]; !ok {
		return false
	}
	delete(d.registrations, chart)
	stateSize.DeleteLabelValues(chart)
	return true
}

func (d *Dispatcher) Registration(chart string) (*Registration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	reg, ok := d.registrations[chart]
	return reg, ok
}

func (d *Dispatcher) Charts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ret := make([]string, 0, len(d.registrations))
	for chart := range d.registrations {
		ret = append(ret, chart)
	}
	slices.Sort(ret)
	return ret
}

// Dispatch handles one selection event. Initial firings, repeated
// selections and empty selections leave the state untouched. On error the
// state is not written.
func (d *Dispatcher) Dispatch(ctx context.Context, event types.SelectionEvent) (Outcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	reg, ok := d.registrations[event.Chart]
	if !ok {
		err := fmt.Errorf("%w: %s", types.ErrUnknownChart, event.Chart)
		d.fail(event, err)
		return OutcomeFailed, err
	}
	outcome, err := d.handle(ctx, reg, event)
	events.WithLabelValues(event.Chart, string(outcome)).Inc()
	if err != nil {
		d.fail(event, err)
	}
	return outcome, err
}

func (d *Dispatcher) handle(ctx context.Context, reg *Registration, event types.SelectionEvent) (Outcome, error) {
	if event.Initial {
		return OutcomeIgnoredInitial, nil
	}
	if last, seen := reg.lastSelection(); seen && types.SameSelection(last, event.Values) {
		return OutcomeUnchanged, nil
	}
	if event.IsEmpty() {
		reg.remember(event.Values)
		return OutcomeEmpty, nil
	}

	reg.setStatus(Resolving)
	defer reg.setStatus(Idle)

	candidates, err := d.Resolve(ctx, event.Values, reg.Filter, reg.Table, reg.IdColumn)
	if err != nil {
		return OutcomeFailed, err
	}
	current, err := reg.State.Load(ctx)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load state: %w", err)
	}
	next := state.Reduce(current, candidates)
	if err = reg.State.Save(ctx, next); err != nil {
		return OutcomeFailed, fmt.Errorf("save state: %w", err)
	}
	reg.remember(event.Values)
	stateSize.WithLabelValues(reg.Chart).Set(float64(next.Len()))

	if d.OnChange != nil {
		d.OnChange(ctx, types.StateChange{
			Chart:  reg.Chart,
			Event:  event.Id,
			Before: current.Len(),
			After:  next.Len(),
			Values: next.Values(),
		})
	}
	return OutcomeApplied, nil
}

func (d *Dispatcher) fail(event types.SelectionEvent, err error) {
	if d.OnError != nil {
		d.OnError(event, err)
	}
}

// Run dispatches events until the channel is closed or ctx is done.
func (d *Dispatcher) Run(ctx context.Context, in <-chan types.SelectionEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-in:
			if !ok {
				return nil
			}
			// errors are reported through OnError
			d.Dispatch(ctx, event)
		}
	}
}
