package main

import (
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/matst80/slask-crossfilter/pkg/crossfilter"
	"github.com/matst80/slask-crossfilter/pkg/state"
	"github.com/matst80/slask-crossfilter/pkg/table"
	"github.com/matst80/slask-crossfilter/pkg/types"
)

// ChartConfig is one entry of the charts file.
type ChartConfig struct {
	Id        string   `json:"id"`
	Columns   []string `json:"columns,omitempty"`
	KeyColumn string   `json:"keyColumn,omitempty"`
	IdColumn  string   `json:"idColumn,omitempty"`
	// Derive builds the composite key column from Columns when the table
	// does not have it.
	Derive bool `json:"derive,omitempty"`
}

func (c ChartConfig) Filter() types.FilterSpec {
	return types.FilterSpec{Columns: c.Columns, KeyColumn: c.KeyColumn}
}

func parseCharts(r io.Reader) ([]ChartConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	charts := make([]ChartConfig, 0)
	if err = sonic.Unmarshal(data, &charts); err != nil {
		return nil, err
	}
	for i, c := range charts {
		if c.Id == "" {
			return nil, fmt.Errorf("chart %d has no id", i)
		}
	}
	return charts, nil
}

func loadCharts(path string) ([]ChartConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseCharts(f)
}

// registerCharts binds every configured chart to the shared store.
func registerCharts(d *crossfilter.Dispatcher, tbl *table.Table, store state.Store, idColumn string, charts []ChartConfig) error {
	for _, c := range charts {
		filter := c.Filter()
		if c.Derive && filter.Mode() == types.CompositeColumnMode && !tbl.HasColumn(filter.CompositeColumnName()) {
			if err := tbl.AddCompositeColumn(filter.CompositeColumnName(), c.Columns...); err != nil {
				return fmt.Errorf("chart %s: %w", c.Id, err)
			}
		}
		col := idColumn
		if c.IdColumn != "" {
			col = c.IdColumn
		}
		if _, err := d.Register(crossfilter.Binding{
			Chart:    c.Id,
			Table:    tbl,
			IdColumn: col,
			State:    store,
			Filter:   filter,
		}); err != nil {
			return err
		}
	}
	return nil
}

// allIds returns every identifier in the table, the usual starting state.
func allIds(tbl *table.Table, idColumn string) (types.IdSet, error) {
	col, err := tbl.Column(idColumn)
	if err != nil {
		return nil, err
	}
	ret := types.IdSet{}
	for i := range tbl.Len() {
		rec, _ := tbl.Record(i)
		ret.Add(table.ValueString(rec[col.Name]))
	}
	return ret, nil
}
