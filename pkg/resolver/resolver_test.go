package resolver

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/matst80/slask-crossfilter/pkg/table"
	"github.com/matst80/slask-crossfilter/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeCars(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New("name", "cyl", "gear")
	rows := [][]any{
		{"Mazda RX4", 6, 4},
		{"Mazda RX4 Wag", 6, 4},
		{"Datsun 710", 4, 4},
		{"Hornet 4 Drive", 6, 3},
		{"Valiant", 6, 3},
		{"Duster 360", 8, 3},
		{"Porsche 914-2", 4, 5},
	}
	for _, r := range rows {
		require.NoError(t, tbl.AddRow(r...))
	}
	require.NoError(t, tbl.AddCompositeColumn("cyl_gear", "cyl", "gear"))
	return tbl
}

func TestResolveDirect(t *testing.T) {
	tbl := makeCars(t)
	raw := []string{"Datsun 710", "Datsun 710", "Not in table"}
	ids, err := Resolve(context.Background(), raw, types.FilterSpec{}, tbl, "name")
	require.NoError(t, err)
	assert.True(t, ids.Equal(types.NewIdSet("Datsun 710", "Not in table")))
	assert.Len(t, raw, 3, "input should not change")
}

func TestResolveSingleColumn(t *testing.T) {
	tbl := makeCars(t)
	ids, err := Resolve(context.Background(), []string{"4"}, types.FilterSpec{Columns: []string{"gear"}}, tbl, "name")
	require.NoError(t, err)
	assert.Equal(t, []string{"Datsun 710", "Mazda RX4", "Mazda RX4 Wag"}, ids.Values())
}

func TestResolveSingleColumnSoundAndComplete(t *testing.T) {
	tbl := makeCars(t)
	selections := [][]string{{"3"}, {"4", "5"}, {"3", "4", "5"}, {"6"}}
	for _, raw := range selections {
		ids, err := Resolve(context.Background(), raw, types.FilterSpec{Columns: []string{"gear"}}, tbl, "name")
		require.NoError(t, err)

		expected := types.IdSet{}
		for i := range tbl.Len() {
			rec, _ := tbl.Record(i)
			if slices.Contains(raw, table.ValueString(rec["gear"])) {
				expected.Add(rec["name"].(string))
			}
		}
		assert.True(t, expected.Equal(ids), "selection %v: expected %v, got %v", raw, expected.Values(), ids.Values())
	}
}

func TestResolveComposite(t *testing.T) {
	tbl := makeCars(t)
	spec := types.FilterSpec{Columns: []string{"cyl", "gear"}}
	ids, err := Resolve(context.Background(), []string{"6_3", "4_5"}, spec, tbl, "name")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hornet 4 Drive", "Porsche 914-2", "Valiant"}, ids.Values())
}

func TestResolveExplicitKeyColumn(t *testing.T) {
	tbl := makeCars(t)
	spec := types.FilterSpec{Columns: []string{"gear", "cyl"}, KeyColumn: "cyl_gear"}
	ids, err := Resolve(context.Background(), []string{"8_3"}, spec, tbl, "name")
	require.NoError(t, err)
	assert.Equal(t, []string{"Duster 360"}, ids.Values())

	_, err = Resolve(context.Background(), []string{"3_8"}, types.FilterSpec{Columns: []string{"gear", "cyl"}}, tbl, "name")
	assert.True(t, types.IsColumnNotFound(err), "gear_cyl is not a column")
}

func TestResolveNoMatch(t *testing.T) {
	tbl := makeCars(t)
	ids, err := Resolve(context.Background(), []string{"7"}, types.FilterSpec{Columns: []string{"gear"}}, tbl, "name")
	require.NoError(t, err)
	assert.True(t, ids.IsEmpty())
}

func TestResolveMissingColumns(t *testing.T) {
	tbl := makeCars(t)
	cases := []struct {
		spec     types.FilterSpec
		idColumn string
		missing  string
	}{
		{types.FilterSpec{Columns: []string{"trim"}}, "name", "trim"},
		{types.FilterSpec{Columns: []string{"cyl", "trim"}}, "name", "cyl_trim"},
		{types.FilterSpec{}, "model", "model"},
		{types.FilterSpec{Columns: []string{"gear"}}, "model", "model"},
	}
	for _, c := range cases {
		_, err := Resolve(context.Background(), []string{"4"}, c.spec, tbl, c.idColumn)
		var cnf *types.ColumnNotFoundError
		if assert.ErrorAs(t, err, &cnf) {
			assert.Equal(t, c.missing, cnf.Column)
		}
		assert.Error(t, Validate(c.spec, tbl, c.idColumn))
	}
}

func TestValidate(t *testing.T) {
	tbl := makeCars(t)
	assert.NoError(t, Validate(types.FilterSpec{}, tbl, "name"))
	assert.NoError(t, Validate(types.FilterSpec{Columns: []string{"gear"}}, tbl, "name"))
	assert.NoError(t, Validate(types.FilterSpec{Columns: []string{"cyl", "gear"}}, tbl, "name"))
	assert.ErrorIs(t, Validate(types.FilterSpec{}, nil, "name"), types.ErrMissingTable)

	assert.NoError(t, Validate(types.FilterSpec{KeyColumn: "cyl_gear"}, tbl, "name"))
	assert.True(t, types.IsColumnNotFound(Validate(types.FilterSpec{KeyColumn: "trim_gear"}, tbl, "name")))
}

func TestResolveKeyColumnOnly(t *testing.T) {
	tbl := makeCars(t)
	ids, err := Resolve(context.Background(), []string{"6_4"}, types.FilterSpec{KeyColumn: "cyl_gear"}, tbl, "name")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mazda RX4", "Mazda RX4 Wag"}, ids.Values())
}

func TestResolveLargeJsonIds(t *testing.T) {
	input := `[{"id":9007199254740993,"gear":4},{"id":9007199254740992,"gear":3}]`
	tbl, err := table.LoadJSON(strings.NewReader(input))
	require.NoError(t, err)

	ids, err := Resolve(context.Background(), []string{"4"}, types.FilterSpec{Columns: []string{"gear"}}, tbl, "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"9007199254740993"}, ids.Values())
}
