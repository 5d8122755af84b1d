package stack

import (
	"slices"
	"strings"

	"github.com/vinayprograms/recents/task"
)

// StackFrontMostTask returns the last task of the active view, or nil.
func (s *TaskStack) StackFrontMostTask() *task.Task {
	t, ok := s.active.Last()
	if !ok {
		return nil
	}
	return t
}

// StackTasks returns the active view.
func (s *TaskStack) StackTasks() []*task.Task {
	return s.active.Items()
}

// HistoricalTasks returns the historical view.
func (s *TaskStack) HistoricalTasks() []*task.Task {
	return s.history.Items()
}

// ComputeAllTasksList merges both views ordered by last active time.
func (s *TaskStack) ComputeAllTasksList() []*task.Task {
	tasks := append(s.active.Items(), s.history.Items()...)
	sortByLastActiveTime(tasks)
	return tasks
}

// TaskKeys returns the keys of ComputeAllTasksList.
func (s *TaskStack) TaskKeys() []task.Key {
	tasks := s.ComputeAllTasksList()
	keys := make([]task.Key, len(tasks))
	for i, t := range tasks {
		keys[i] = t.Key
	}
	return keys
}

// StackTaskCount returns the size of the active view.
func (s *TaskStack) StackTaskCount() int {
	return s.active.Len()
}

// StackTaskFreeformCount counts freeform tasks in the active view.
func (s *TaskStack) StackTaskFreeformCount() int {
	n := 0
	for _, t := range s.active.Items() {
		if t.IsFreeform(s.cfg.FreeformStackID) {
			n++
		}
	}
	return n
}

// LaunchTarget returns the active task flagged as launch target, or nil.
func (s *TaskStack) LaunchTarget() *task.Task {
	for _, t := range s.active.Items() {
		if t.IsLaunchTarget {
			return t
		}
	}
	return nil
}

// IndexOfStackTask returns the position of t in the active view, or -1.
func (s *TaskStack) IndexOfStackTask(t *task.Task) int {
	if t == nil {
		return -1
	}
	return s.active.IndexOf(t)
}

// FindTaskWithID looks a task up by id across both views.
func (s *TaskStack) FindTaskWithID(id int) (*task.Task, bool) {
	for _, t := range s.ComputeAllTasksList() {
		if t.Key.ID == id {
			return t, true
		}
	}
	return nil, false
}

// ComputeComponentsRemoved returns the components of pkg, owned by userID,
// that no longer resolve. Each distinct component is looked up once. The
// result is sorted by component name.
func (s *TaskStack) ComputeComponentsRemoved(pkg string, userID int) []task.ComponentName {
	checked := make(map[task.ComponentName]bool) // component -> exists
	var removed []task.ComponentName
	for _, k := range s.TaskKeys() {
		if k.UserID != userID || k.Component.Package != pkg {
			continue
		}
		if _, seen := checked[k.Component]; seen {
			continue
		}
		_, exists := s.cfg.Services.ActivityInfo(k.Component, userID)
		checked[k.Component] = exists
		if !exists {
			removed = append(removed, k.Component)
		}
	}
	slices.SortFunc(removed, func(a, b task.ComponentName) int {
		return strings.Compare(a.String(), b.String())
	})
	return removed
}
