// Package stack holds the recents model: one raw collection of tasks
// projected into an active view and a historical view, plus the affiliation
// groups derived from the active view.
//
// # Views
//
// Both views are filtered lists over the whole raw collection.
// A task is shown in the active view when its effective historical flag is
// false and its stack is not docked; the historical view takes the opposite
// flag under the same docking rule. The effective flag of an affiliated task
// is its parent's flag when the parent is in the model. Every mutation
// recomputes both views, so a flag changed in place on a task handle takes
// effect on the next one.
//
// # Reconciliation
//
// SetTasks merges a fresh snapshot against the current collection:
//
//	err := s.SetTasks(snapshot, true)
//
// Tasks whose identity (id, stack, user) is already known keep their
// existing handle, new identities are adopted, and the result is sorted by
// last active time before both views are recomputed. Observers learn
// about removals and additions only after the new state is installed.
//
// # Concurrency
//
// A TaskStack has a single logical writer. Callers serialize access; no
// method takes a lock.
package stack
