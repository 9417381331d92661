package table

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// Column gives name based access to one column of a Table. The value index
// (value -> row positions) is built on first lookup.
type Column struct {
	Name  string
	pos   int
	table *Table
	once  sync.Once
	keys  map[string]*roaring.Bitmap
}

func (c *Column) add(row uint32, value any) {
	key := ValueString(value)
	if bm, ok := c.keys[key]; ok {
		bm.Add(row)
	} else {
		c.keys[key] = roaring.BitmapOf(row)
	}
}

func (c *Column) buildIndex() {
	c.once.Do(func() {
		c.table.mu.Lock()
		defer c.table.mu.Unlock()
		keys := make(map[string]*roaring.Bitmap)
		c.keys = keys
		for i, row := range c.table.rows {
			c.add(uint32(i), row[c.pos])
		}
	})
}

// Match returns the positions of all rows whose value is one of values.
func (c *Column) Match(values []string) *roaring.Bitmap {
	c.buildIndex()
	c.table.mu.RLock()
	defer c.table.mu.RUnlock()
	ret := roaring.New()
	for _, v := range values {
		if bm, ok := c.keys[v]; ok {
			ret.Or(bm)
		}
	}
	return ret
}

// Values projects the column for the given row positions.
func (c *Column) Values(rows *roaring.Bitmap) []string {
	c.table.mu.RLock()
	defer c.table.mu.RUnlock()
	ret := make([]string, 0, rows.GetCardinality())
	it := rows.Iterator()
	for it.HasNext() {
		i := int(it.Next())
		if i >= len(c.table.rows) {
			break
		}
		ret = append(ret, ValueString(c.table.rows[i][c.pos]))
	}
	return ret
}

// UniqueCount returns the number of distinct values in the column.
func (c *Column) UniqueCount() int {
	c.buildIndex()
	c.table.mu.RLock()
	defer c.table.mu.RUnlock()
	return len(c.keys)
}

// ValueString is the canonical string form used to compare stored values
// with selection values coming from a chart.
func ValueString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return numberString(v)
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}

// numberString keeps integer literals as written and renders other numbers
// the same way as float64 values.
func numberString(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return n.String()
}
