package types

import (
	"maps"
	"slices"
)

// IdSet is a set of record identifiers.
type IdSet map[string]struct{}

var empty = struct{}{}

func NewIdSet(values ...string) IdSet {
	ret := make(IdSet, len(values))
	for _, v := range values {
		ret[v] = empty
	}
	return ret
}

func (s IdSet) Add(id string) {
	s[id] = empty
}

func (s IdSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IdSet) Len() int {
	return len(s)
}

func (s IdSet) IsEmpty() bool {
	return len(s) == 0
}

// Intersect removes every id in s that is not present in other.
func (s IdSet) Intersect(other IdSet) {
	for id := range s {
		if _, ok := other[id]; !ok {
			delete(s, id)
		}
	}
}

// Intersection returns a new set with the ids present in both sets.
// Neither input is modified.
func (s IdSet) Intersection(other IdSet) IdSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	ret := make(IdSet, len(small))
	for id := range small {
		if _, ok := large[id]; ok {
			ret[id] = empty
		}
	}
	return ret
}

func (s IdSet) Merge(other IdSet) {
	maps.Copy(s, other)
}

func (s IdSet) Clone() IdSet {
	if s == nil {
		return IdSet{}
	}
	return maps.Clone(s)
}

func (s IdSet) Equal(other IdSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if _, ok := other[id]; !ok {
			return false
		}
	}
	return true
}

// Values returns the ids in sorted order.
func (s IdSet) Values() []string {
	ret := make([]string, 0, len(s))
	for id := range s {
		ret = append(ret, id)
	}
	slices.Sort(ret)
	return ret
}
