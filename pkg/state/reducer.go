package state

import "github.com/matst80/slask-crossfilter/pkg/types"

// Reduce narrows the current selection to the ids that are also candidates.
// The result is a new set; neither input is modified.
func Reduce(current, candidates types.IdSet) types.IdSet {
	return current.Intersection(candidates)
}
