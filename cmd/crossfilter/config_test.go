package main

import (
	"strings"
	"testing"

	"github.com/matst80/slask-crossfilter/pkg/crossfilter"
	"github.com/matst80/slask-crossfilter/pkg/state"
	"github.com/matst80/slask-crossfilter/pkg/table"
	"github.com/matst80/slask-crossfilter/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const carsCsv = `name,cyl,gear
Mazda RX4,6,4
Datsun 710,4,4
Hornet 4 Drive,6,3
`

func TestParseCharts(t *testing.T) {
	charts, err := parseCharts(strings.NewReader(`[
		{"id":"scatter"},
		{"id":"gears","columns":["gear"]},
		{"id":"cyl-gear","columns":["cyl","gear"],"derive":true}
	]`))
	require.NoError(t, err)
	require.Len(t, charts, 3)
	assert.Equal(t, types.DirectMode, charts[0].Filter().Mode())
	assert.Equal(t, "gear", charts[1].Filter().MatchColumn())
	assert.Equal(t, "cyl_gear", charts[2].Filter().MatchColumn())

	_, err = parseCharts(strings.NewReader(`[{"columns":["gear"]}]`))
	assert.Error(t, err)
}

func TestRegisterCharts(t *testing.T) {
	tbl, err := table.LoadCSV(strings.NewReader(carsCsv), 0)
	require.NoError(t, err)
	initial, err := allIds(tbl, "name")
	require.NoError(t, err)
	assert.Equal(t, 3, initial.Len())

	store := state.NewMemoryStore(initial.Values()...)
	d := crossfilter.NewDispatcher()
	charts := []ChartConfig{
		{Id: "gears", Columns: []string{"gear"}},
		{Id: "cyl-gear", Columns: []string{"cyl", "gear"}, Derive: true},
	}
	require.NoError(t, registerCharts(d, tbl, store, "name", charts))
	assert.True(t, tbl.HasColumn("cyl_gear"))
	assert.Equal(t, []string{"cyl-gear", "gears"}, d.Charts())

	err = registerCharts(crossfilter.NewDispatcher(), tbl, store, "name", []ChartConfig{{Id: "trims", Columns: []string{"trim"}}})
	assert.True(t, types.IsColumnNotFound(err))

	_, err = allIds(tbl, "model")
	assert.True(t, types.IsColumnNotFound(err))
}
