package types

import "strings"

type FilterMode int

const (
	DirectMode FilterMode = iota
	SingleColumnMode
	CompositeColumnMode
)

func (m FilterMode) String() string {
	switch m {
	case DirectMode:
		return "direct"
	case SingleColumnMode:
		return "single-column"
	case CompositeColumnMode:
		return "composite-column"
	}
	return "unknown"
}

const CompositeSeparator = "_"

// FilterSpec describes how selection values from a chart map onto the
// reference table. Without columns the values are identifiers themselves.
type FilterSpec struct {
	Columns []string `json:"columns,omitempty"`
	// KeyColumn names the precomputed composite key column. When empty the
	// name is derived by joining Columns with an underscore. Setting it
	// always selects composite mode.
	KeyColumn string `json:"keyColumn,omitempty"`
}

func (f FilterSpec) Mode() FilterMode {
	if f.KeyColumn != "" {
		return CompositeColumnMode
	}
	switch len(f.Columns) {
	case 0:
		return DirectMode
	case 1:
		return SingleColumnMode
	}
	return CompositeColumnMode
}

func (f FilterSpec) CompositeColumnName() string {
	if f.KeyColumn != "" {
		return f.KeyColumn
	}
	return strings.Join(f.Columns, CompositeSeparator)
}

// MatchColumn returns the column selection values are compared against, or
// an empty string in direct mode.
func (f FilterSpec) MatchColumn() string {
	switch f.Mode() {
	case SingleColumnMode:
		return f.Columns[0]
	case CompositeColumnMode:
		return f.CompositeColumnName()
	}
	return ""
}
