package stack

import (
	"slices"
	"strconv"

	"github.com/vinayprograms/recents/errors"
	"github.com/vinayprograms/recents/task"
)

type removal struct {
	task         *task.Task
	wasFrontMost bool
}

// SetTasks reconciles the collection against a fresh snapshot.
//
// Known identities keep their existing handle; the incoming duplicate is
// dropped. The merged list is sorted by last active time and partitioned by
// each task's own historical flag. Groups are cleared and must be rebuilt
// with CreateAffiliatedGroupings.
//
// When notify is set and callbacks are installed, removals are reported
// first (wasFrontMost means the task was last in the previous collection),
// then additions in snapshot order, after the new state is in place.
// A nil task or a repeated identity in the snapshot is rejected before
// anything changes.
func (s *TaskStack) SetTasks(tasks []*task.Task, notify bool) error {
	incoming := make(map[task.Identity]*task.Task, len(tasks))
	for i, t := range tasks {
		if t == nil {
			return errors.Newf(errors.ErrCodeInvalidInput, "task %d of snapshot is nil", i)
		}
		id := t.Identity()
		if _, dup := incoming[id]; dup {
			return errors.DuplicateTask(t.ID(), errors.WithMetadata("stack_id", strconv.Itoa(id.StackID)),
				errors.WithMetadata("user_id", strconv.Itoa(id.UserID)))
		}
		incoming[id] = t
	}

	current := make(map[task.Identity]*task.Task, len(s.raw))
	for _, t := range s.raw {
		current[t.Identity()] = t
	}

	if s.cb == nil {
		notify = false
	}

	var removed []removal
	for i, t := range s.raw {
		if _, ok := incoming[t.Identity()]; !ok {
			removed = append(removed, removal{task: t, wasFrontMost: i == len(s.raw)-1})
		}
	}

	merged := make([]*task.Task, 0, len(tasks))
	var added []*task.Task
	for _, t := range tasks {
		if existing, ok := current[t.Identity()]; ok {
			merged = append(merged, existing)
			continue
		}
		merged = append(merged, t)
		added = append(added, t)
	}

	sortByLastActiveTime(merged)

	s.install(merged)
	s.registry.Clear()

	s.log.StackReconciled(len(added), len(removed), s.active.Len(), s.history.Len())

	if notify {
		for _, r := range removed {
			s.cb.OnStackTaskRemoved(s, r.task, r.wasFrontMost, nil)
		}
		for _, t := range added {
			s.cb.OnStackTaskAdded(s, t)
		}
	}
	return nil
}

// MoveTaskToStack moves an active task between the freeform and fullscreen
// stacks.
//
// A non-freeform task moved to the freeform stack becomes front-most. A
// freeform task moved to the fullscreen stack lands just past the last
// non-freeform task, or at the back when there is none. Any other
// combination leaves the model unchanged. Moving a task that is not in the
// active view is an error.
func (s *TaskStack) MoveTaskToStack(t *task.Task, newStackID int) error {
	if t == nil || !s.active.Contains(t) {
		id := 0
		if t != nil {
			id = t.ID()
		}
		return errors.TaskNotVisible(id, ViewActive)
	}

	tasks := s.active.Items()
	freeform := t.IsFreeform(s.cfg.FreeformStackID)
	setStack := func(moved *task.Task) { moved.SetStackID(newStackID) }

	switch {
	case !freeform && newStackID == s.cfg.FreeformStackID:
		return s.move(t, len(tasks), setStack)

	case freeform && newStackID == s.cfg.FullscreenStackID:
		insertIndex := 0
		for i := len(tasks) - 1; i >= 0; i-- {
			if !tasks[i].IsFreeform(s.cfg.FreeformStackID) {
				insertIndex = i + 1
				break
			}
		}
		return s.move(t, insertIndex, setStack)
	}
	return nil
}

// move reorders t within the active view and carries the new order over to
// the historical view.
func (s *TaskStack) move(t *task.Task, insertIndex int, mutate func(*task.Task)) error {
	if err := s.active.Move(t, insertIndex, mutate); err != nil {
		return err
	}
	s.install(s.active.Raw())
	return nil
}

// RemoveTask removes a task from whichever view shows it, detaches it from
// its group and clears its lock-to-task flag. Removing the front-most active
// task pins the new front-most task if it is eligible. It reports whether a
// view contained the task.
func (s *TaskStack) RemoveTask(t *task.Task) bool {
	if t == nil {
		return false
	}

	switch {
	case s.active.Contains(t):
		t = s.canonical(s.active, t)
		front, _ := s.active.Last()
		wasFrontMost := front == t

		s.removeFromView(t)

		newFront, ok := s.active.Last()
		if ok && newFront.LockToTaskEnabled {
			newFront.LockToThisTask = true
		}
		if !ok {
			newFront = nil
		}

		s.log.TaskRemoved(t.ID(), ViewActive, wasFrontMost)
		if s.cb != nil {
			s.cb.OnStackTaskRemoved(s, t, wasFrontMost, newFront)
		}
		return true

	case s.history.Contains(t):
		t = s.canonical(s.history, t)
		s.removeFromView(t)

		s.log.TaskRemoved(t.ID(), ViewHistorical, false)
		if s.cb != nil {
			s.cb.OnHistoryTaskRemoved(s, t)
		}
		return true
	}
	return false
}

func (s *TaskStack) removeFromView(t *task.Task) {
	if g, emptied := s.registry.Detach(t); emptied {
		s.log.Debug("group emptied", map[string]interface{}{
			"affiliation": g.Affiliation,
		})
	}
	t.LockToThisTask = false

	if idx := slices.Index(s.raw, t); idx >= 0 {
		s.install(slices.Delete(slices.Clone(s.raw), idx, idx+1))
	}
}

// canonical returns the handle the view holds for t's identity.
func (s *TaskStack) canonical(view *taskList, t *task.Task) *task.Task {
	items := view.Items()
	return items[view.IndexOf(t)]
}
