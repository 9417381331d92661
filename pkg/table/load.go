package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
)

var ErrEmptyInput = errors.New("no header or records in input")

// numbers are kept as json.Number so large integer ids survive unchanged
var jsonApi = sonic.Config{UseNumber: true}.Froze()

// LoadCSV reads a table where the first record is the header. Comma is the
// field delimiter, use 0 for the default ','.
func LoadCSV(r io.Reader, comma rune) (*Table, error) {
	reader := csv.NewReader(r)
	if comma != 0 {
		reader.Comma = comma
	}
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, err
	}
	t := New(header...)
	values := make([]any, len(header))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, v := range record {
			values[i] = v
		}
		if err = t.AddRow(values...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// LoadJSON reads a table from an array of objects. The schema is the sorted
// key set of the first object; later objects may only use those keys.
func LoadJSON(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	records := make([]map[string]any, 0)
	if err = jsonApi.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	t := New(slices.Sorted(maps.Keys(records[0]))...)
	for i, rec := range records {
		if err = t.AddRecord(rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return t, nil
}

// LoadFile picks a loader from the file extension.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(f)
	case ".tsv":
		return LoadCSV(f, '\t')
	case ".csv":
		return LoadCSV(f, 0)
	}
	return nil, fmt.Errorf("unsupported table format %q", filepath.Ext(path))
}
