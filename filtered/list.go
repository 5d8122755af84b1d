package filtered

import (
	"fmt"
	"slices"

	"github.com/vinayprograms/recents/errors"
)

// Filter decides whether item, found at index in the raw sequence, is part of
// the projection. byID maps every raw item's numeric id to the item so a
// filter can consult related items; it is only valid during the call.
type Filter[T any] func(byID map[int]T, item T, index int) bool

// List is a raw ordered sequence with a filtered projection.
type List[K comparable, T any] struct {
	keyOf func(T) K
	idOf  func(T) int

	raw      []T
	filtered []T
	indices  map[K]int
	filter   Filter[T]

	// scratch id map reused across recomputations
	byID map[int]T
}

// New creates an empty list. keyOf returns the identity used for indexing
// and removal; idOf returns the numeric id exposed to filters.
func New[K comparable, T any](keyOf func(T) K, idOf func(T) int) *List[K, T] {
	return &List[K, T]{
		keyOf:   keyOf,
		idOf:    idOf,
		indices: make(map[K]int),
		byID:    make(map[int]T),
	}
}

// SetFilter replaces the filter and reports whether the ordered content of
// the projection changed.
func (l *List[K, T]) SetFilter(f Filter[T]) bool {
	prev := make([]K, len(l.filtered))
	for i, item := range l.filtered {
		prev[i] = l.keyOf(item)
	}
	l.filter = f
	l.update()

	if len(prev) != len(l.filtered) {
		return true
	}
	for i, item := range l.filtered {
		if l.keyOf(item) != prev[i] {
			return true
		}
	}
	return false
}

// RemoveFilter clears the filter so the projection equals the raw sequence.
func (l *List[K, T]) RemoveFilter() {
	l.filter = nil
	l.update()
}

// HasFilter reports whether a filter is installed.
func (l *List[K, T]) HasFilter() bool {
	return l.filter != nil
}

// Reset clears the raw sequence and projection but keeps the filter.
func (l *List[K, T]) Reset() {
	l.raw = nil
	l.filtered = nil
	clear(l.indices)
	clear(l.byID)
}

// Add appends item to the raw sequence.
func (l *List[K, T]) Add(item T) {
	l.raw = append(l.raw, item)
	l.update()
}

// Set replaces the raw sequence.
func (l *List[K, T]) Set(items []T) {
	l.raw = slices.Clone(items)
	l.update()
}

// Remove removes item from the raw sequence only if it is currently in the
// projection. It returns false, leaving the raw sequence untouched, when the
// item is hidden by the filter or absent.
func (l *List[K, T]) Remove(item T) bool {
	key := l.keyOf(item)
	if _, ok := l.indices[key]; !ok {
		return false
	}
	idx := l.rawIndex(key)
	if idx < 0 {
		return false
	}
	l.raw = slices.Delete(l.raw, idx, idx+1)
	l.update()
	return true
}

// Move relocates a visible item so that it lands at insertIndex of the
// projection, calls mutate on it, then recomputes the projection. mutate
// runs before recomputation so the filter sees the moved state.
//
// insertIndex is in [0, Len()]; Len() means after the last visible item.
// Moving an item that is not visible is an error and changes nothing.
func (l *List[K, T]) Move(item T, insertIndex int, mutate func(T)) error {
	key := l.keyOf(item)
	if _, ok := l.indices[key]; !ok {
		return errors.TaskNotVisible(l.idOf(item), "filtered list")
	}
	if insertIndex < 0 || insertIndex > len(l.filtered) {
		return errors.InvalidInput(fmt.Sprintf("insert index %d out of range [0, %d]", insertIndex, len(l.filtered)),
			errors.WithTaskID(l.idOf(item)))
	}

	from := l.rawIndex(key)
	to := len(l.raw)
	if insertIndex < len(l.filtered) {
		to = l.rawIndex(l.keyOf(l.filtered[insertIndex]))
	}

	moved := l.raw[from]
	if from != to {
		l.raw = slices.Delete(l.raw, from, from+1)
		if from < to {
			to--
		}
		l.raw = slices.Insert(l.raw, to, moved)
	}

	if mutate != nil {
		mutate(moved)
	}
	l.update()
	return nil
}

// IndexOf returns the position of item in the projection, or -1.
func (l *List[K, T]) IndexOf(item T) int {
	if idx, ok := l.indices[l.keyOf(item)]; ok {
		return idx
	}
	return -1
}

// Contains reports whether item is in the projection.
func (l *List[K, T]) Contains(item T) bool {
	_, ok := l.indices[l.keyOf(item)]
	return ok
}

// Len returns the size of the projection.
func (l *List[K, T]) Len() int {
	return len(l.filtered)
}

// Items returns a copy of the projection in raw order.
func (l *List[K, T]) Items() []T {
	return slices.Clone(l.filtered)
}

// Last returns the last item of the projection.
func (l *List[K, T]) Last() (T, bool) {
	if len(l.filtered) == 0 {
		var zero T
		return zero, false
	}
	return l.filtered[len(l.filtered)-1], true
}

// Raw returns a copy of the raw sequence.
func (l *List[K, T]) Raw() []T {
	return slices.Clone(l.raw)
}

func (l *List[K, T]) rawIndex(key K) int {
	for i, item := range l.raw {
		if l.keyOf(item) == key {
			return i
		}
	}
	return -1
}

// update recomputes the projection and index map from the raw sequence.
func (l *List[K, T]) update() {
	l.filtered = l.filtered[:0]
	if l.filter != nil {
		clear(l.byID)
		for _, item := range l.raw {
			l.byID[l.idOf(item)] = item
		}
		for i, item := range l.raw {
			if l.filter(l.byID, item, i) {
				l.filtered = append(l.filtered, item)
			}
		}
	} else {
		l.filtered = append(l.filtered, l.raw...)
	}

	clear(l.indices)
	for i, item := range l.filtered {
		l.indices[l.keyOf(item)] = i
	}
}
