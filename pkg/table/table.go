package table

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/matst80/slask-crossfilter/pkg/types"
)

// Table is an ordered collection of records sharing one schema. It is filled
// by a loader and only read while selections are resolved.
type Table struct {
	mu      sync.RWMutex
	columns []*Column
	byName  map[string]*Column
	rows    [][]any
}

func New(columns ...string) *Table {
	t := &Table{
		columns: make([]*Column, 0, len(columns)),
		byName:  make(map[string]*Column, len(columns)),
		rows:    make([][]any, 0),
	}
	for _, name := range columns {
		t.addColumn(name)
	}
	return t
}

func (t *Table) addColumn(name string) *Column {
	if c, ok := t.byName[name]; ok {
		return c
	}
	c := &Column{Name: name, pos: len(t.columns), table: t}
	t.columns = append(t.columns, c)
	t.byName[name] = c
	return c
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

func (t *Table) Columns() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ret := make([]string, len(t.columns))
	for i, c := range t.columns {
		ret[i] = c.Name
	}
	return ret
}

func (t *Table) HasColumn(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.byName[name]
	return ok
}

// Column returns the named column or a *types.ColumnNotFoundError.
func (t *Table) Column(name string) (*Column, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if c, ok := t.byName[name]; ok {
		return c, nil
	}
	return nil, &types.ColumnNotFoundError{Column: name}
}

// AddRow appends a row, values given in column order.
func (t *Table) AddRow(values ...any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(values) != len(t.columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.columns))
	}
	row := slices.Clone(values)
	t.rows = append(t.rows, row)
	t.indexRow(len(t.rows)-1, row)
	return nil
}

// AddRecord appends a row from a column name to value mapping. Columns not
// present in the record are stored as nil.
func (t *Table) AddRecord(record map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	row := make([]any, len(t.columns))
	for name, value := range record {
		c, ok := t.byName[name]
		if !ok {
			return &types.ColumnNotFoundError{Column: name}
		}
		row[c.pos] = value
	}
	t.rows = append(t.rows, row)
	t.indexRow(len(t.rows)-1, row)
	return nil
}

// Record returns a copy of the row at position i as a mapping.
func (t *Table) Record(i int) (map[string]any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.rows) {
		return nil, false
	}
	ret := make(map[string]any, len(t.columns))
	for _, c := range t.columns {
		ret[c.Name] = t.rows[i][c.pos]
	}
	return ret, true
}

// AddCompositeColumn derives a key column whose value is the source values
// joined with an underscore. Existing rows are filled in.
func (t *Table) AddCompositeColumn(name string, sources ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byName[name]; ok {
		return fmt.Errorf("column %q already exists", name)
	}
	positions := make([]int, len(sources))
	for i, src := range sources {
		c, ok := t.byName[src]
		if !ok {
			return &types.ColumnNotFoundError{Column: src}
		}
		positions[i] = c.pos
	}
	t.addColumn(name)
	parts := make([]string, len(positions))
	for i, row := range t.rows {
		for j, pos := range positions {
			parts[j] = ValueString(row[pos])
		}
		t.rows[i] = append(row, strings.Join(parts, types.CompositeSeparator))
	}
	return nil
}

// indexRow keeps already built column indexes current. Caller holds the write lock.
func (t *Table) indexRow(i int, row []any) {
	for _, c := range t.columns {
		if c.keys != nil {
			c.add(uint32(i), row[c.pos])
		}
	}
}
