package types

import (
	"errors"
	"fmt"
)

// ColumnNotFoundError is returned when a named column is missing from a
// reference table.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found in reference table", e.Column)
}

func IsColumnNotFound(err error) bool {
	var cnf *ColumnNotFoundError
	return errors.As(err, &cnf)
}

var (
	ErrUnknownChart      = errors.New("no registration for chart")
	ErrChartRegistered   = errors.New("chart already registered")
	ErrMissingStateStore = errors.New("registration has no state store")
	ErrMissingTable      = errors.New("registration has no reference table")
)
