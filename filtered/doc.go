// Package filtered provides an ordered collection with an attached predicate
// that keeps a derived, order-preserving projection of the accepted items
// plus an index from item identity to projection position.
//
// The projection is recomputed synchronously after every mutation, so it is
// always consistent with the raw sequence and the current filter:
//
//	l := filtered.New(func(t *task.Task) task.Identity { return t.Identity() },
//	    func(t *task.Task) int { return t.ID() })
//	l.SetFilter(func(byID map[int]*task.Task, t *task.Task, i int) bool {
//	    return !t.IsHistorical
//	})
//	l.Set(tasks)
//	visible := l.Items()
//
// Remove only removes items that are currently visible. An item hidden by
// the filter stays in the raw sequence and Remove reports false; callers
// that need to drop hidden items must replace the raw sequence with Set.
//
// A List is not safe for concurrent use; it assumes a single writer.
package filtered
