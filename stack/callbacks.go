package stack

import "github.com/vinayprograms/recents/task"

// Callbacks observes changes to a TaskStack.
type Callbacks interface {
	// OnStackTaskAdded is called for every task new to the collection.
	OnStackTaskAdded(s *TaskStack, t *task.Task)

	// OnStackTaskRemoved is called when a task leaves the active view or the
	// collection. newFrontMost is nil during reconciliation or when the
	// view is empty.
	OnStackTaskRemoved(s *TaskStack, t *task.Task, wasFrontMost bool, newFrontMost *task.Task)

	// OnHistoryTaskRemoved is called when a task leaves the historical view.
	OnHistoryTaskRemoved(s *TaskStack, t *task.Task)
}

// CallbacksFuncs adapts plain functions to Callbacks. Nil fields are
// skipped.
type CallbacksFuncs struct {
	Added          func(s *TaskStack, t *task.Task)
	Removed        func(s *TaskStack, t *task.Task, wasFrontMost bool, newFrontMost *task.Task)
	HistoryRemoved func(s *TaskStack, t *task.Task)
}

func (f CallbacksFuncs) OnStackTaskAdded(s *TaskStack, t *task.Task) {
	if f.Added != nil {
		f.Added(s, t)
	}
}

func (f CallbacksFuncs) OnStackTaskRemoved(s *TaskStack, t *task.Task, wasFrontMost bool, newFrontMost *task.Task) {
	if f.Removed != nil {
		f.Removed(s, t, wasFrontMost, newFrontMost)
	}
}

func (f CallbacksFuncs) OnHistoryTaskRemoved(s *TaskStack, t *task.Task) {
	if f.HistoryRemoved != nil {
		f.HistoryRemoved(s, t)
	}
}

// MultiCallbacks fans every notification out in slice order.
type MultiCallbacks []Callbacks

func (m MultiCallbacks) OnStackTaskAdded(s *TaskStack, t *task.Task) {
	for _, cb := range m {
		cb.OnStackTaskAdded(s, t)
	}
}

func (m MultiCallbacks) OnStackTaskRemoved(s *TaskStack, t *task.Task, wasFrontMost bool, newFrontMost *task.Task) {
	for _, cb := range m {
		cb.OnStackTaskRemoved(s, t, wasFrontMost, newFrontMost)
	}
}

func (m MultiCallbacks) OnHistoryTaskRemoved(s *TaskStack, t *task.Task) {
	for _, cb := range m {
		cb.OnHistoryTaskRemoved(s, t)
	}
}
