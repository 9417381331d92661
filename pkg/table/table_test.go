package table

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/matst80/slask-crossfilter/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeCars(t *testing.T) *Table {
	t.Helper()
	tbl := New("name", "cyl", "gear")
	require.NoError(t, tbl.AddRow("Mazda RX4", 6, 4))
	require.NoError(t, tbl.AddRow("Datsun 710", 4, 4))
	require.NoError(t, tbl.AddRow("Hornet 4 Drive", 6, 3))
	return tbl
}

func TestColumnMatch(t *testing.T) {
	tbl := makeCars(t)
	gear, err := tbl.Column("gear")
	require.NoError(t, err)

	rows := gear.Match([]string{"4"})
	assert.Equal(t, []uint32{0, 1}, rows.ToArray())

	name, err := tbl.Column("name")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mazda RX4", "Datsun 710"}, name.Values(rows))

	assert.True(t, gear.Match([]string{"5"}).IsEmpty())
	assert.Equal(t, 2, gear.UniqueCount())
}

func TestMissingColumn(t *testing.T) {
	tbl := makeCars(t)
	_, err := tbl.Column("trim")
	assert.True(t, types.IsColumnNotFound(err))
	assert.False(t, tbl.HasColumn("trim"))
}

func TestAddRowArity(t *testing.T) {
	tbl := New("a", "b")
	assert.Error(t, tbl.AddRow("only one"))
	assert.Equal(t, 0, tbl.Len())
}

func TestIndexKeptCurrentAfterAdd(t *testing.T) {
	tbl := makeCars(t)
	gear, _ := tbl.Column("gear")
	assert.Equal(t, uint64(1), gear.Match([]string{"3"}).GetCardinality())

	require.NoError(t, tbl.AddRecord(map[string]any{"name": "Valiant", "gear": 3}))
	assert.Equal(t, []uint32{2, 3}, gear.Match([]string{"3"}).ToArray())

	rec, ok := tbl.Record(3)
	require.True(t, ok)
	assert.Nil(t, rec["cyl"])
}

func TestAddRecordUnknownColumn(t *testing.T) {
	tbl := makeCars(t)
	err := tbl.AddRecord(map[string]any{"trim": "GT"})
	assert.True(t, types.IsColumnNotFound(err))
}

func TestAddCompositeColumn(t *testing.T) {
	tbl := makeCars(t)
	require.NoError(t, tbl.AddCompositeColumn("cyl_gear", "cyl", "gear"))

	c, err := tbl.Column("cyl_gear")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, c.Match([]string{"6_4"}).ToArray())

	require.NoError(t, tbl.AddRow("Merc 240D", 4, 4, "4_4"))
	assert.Equal(t, []uint32{1, 3}, c.Match([]string{"4_4"}).ToArray())

	assert.Error(t, tbl.AddCompositeColumn("cyl_gear", "cyl", "gear"))
	assert.True(t, types.IsColumnNotFound(tbl.AddCompositeColumn("x", "trim")))
}

func TestValueString(t *testing.T) {
	cases := map[string]any{
		"":                 nil,
		"4":                4.0,
		"4.5":              4.5,
		"true":             true,
		"12":               int64(12),
		"hello":            []byte("hello"),
		"9007199254740993": json.Number("9007199254740993"),
		"3":                json.Number("3.0"),
		"1000":             json.Number("1e3"),
	}
	for expected, v := range cases {
		if got := ValueString(v); got != expected {
			t.Errorf("expected %q, got %q", expected, got)
		}
	}
}

func TestConcurrentMatch(t *testing.T) {
	tbl := makeCars(t)
	gear, _ := tbl.Column("gear")
	wg := sync.WaitGroup{}
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gear.Match([]string{"4"}).GetCardinality() != 2 {
				t.Error("expected two rows")
			}
		}()
	}
	wg.Wait()
}

func TestLoadCSV(t *testing.T) {
	input := "name,cyl,gear\nMazda RX4,6,4\nDatsun 710,4,4\n"
	tbl, err := LoadCSV(strings.NewReader(input), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "cyl", "gear"}, tbl.Columns())
	assert.Equal(t, 2, tbl.Len())

	_, err = LoadCSV(strings.NewReader(""), 0)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestLoadJSON(t *testing.T) {
	input := `[{"name":"Mazda RX4","gear":4},{"name":"Hornet 4 Drive","gear":3}]`
	tbl, err := LoadJSON(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"gear", "name"}, tbl.Columns())

	gear, _ := tbl.Column("gear")
	assert.Equal(t, []uint32{0}, gear.Match([]string{"4"}).ToArray())

	_, err = LoadJSON(strings.NewReader(`[{"name":"a"},{"trim":"b"}]`))
	assert.True(t, types.IsColumnNotFound(err))
}

func TestLoadJSONKeepsLargeIntegers(t *testing.T) {
	input := `[{"id":9007199254740993,"gear":4},{"id":9007199254740992,"gear":3},{"id":1.5,"gear":4.0}]`
	tbl, err := LoadJSON(strings.NewReader(input))
	require.NoError(t, err)

	id, err := tbl.Column("id")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, id.Match([]string{"9007199254740993"}).ToArray())
	assert.Equal(t, []uint32{1}, id.Match([]string{"9007199254740992"}).ToArray())
	assert.Equal(t, []uint32{2}, id.Match([]string{"1.5"}).ToArray())

	gear, _ := tbl.Column("gear")
	assert.Equal(t, []string{"9007199254740993", "1.5"}, id.Values(gear.Match([]string{"4"})))
}
