package stack

import (
	"slices"
	"testing"

	"github.com/vinayprograms/recents/errors"
	"github.com/vinayprograms/recents/task"
)

func TestSetTasks_OrdersByLastActiveTime(t *testing.T) {
	s, svc, rec := newStack(t)
	a, b, c := mkTask(1, 1), mkTask(2, 3), mkTask(3, 2)
	mustSet(t, s, []*task.Task{a, b, c}, true)

	if got := ids(s.StackTasks()); !slices.Equal(got, []int{1, 3, 2}) {
		t.Errorf("active view = %v, want [1 3 2]", got)
	}
	if n := rec.count("added"); n != 3 {
		t.Errorf("added notifications = %d, want 3", n)
	}
	if s.StackFrontMostTask() != b {
		t.Errorf("front-most = %v, want task 2", s.StackFrontMostTask())
	}
	checkPartition(t, s, svc, []*task.Task{a, b, c})
}

func TestSetTasks_PreservesExistingHandles(t *testing.T) {
	s, _, rec := newStack(t)
	a, b := mkTask(1, 1), mkTask(2, 2)
	mustSet(t, s, []*task.Task{a, b}, true)
	rec.events = nil

	a2 := mkTask(1, 1)
	a2.Title = "incoming"
	c := mkTask(3, 3)
	mustSet(t, s, []*task.Task{a2, c}, true)

	got := s.StackTasks()
	if len(got) != 2 || got[0] != a || got[1] != c {
		t.Fatalf("active view = %v, want [a c] with a's original handle", ids(got))
	}
	if a.Title == "incoming" {
		t.Error("existing handle was overwritten by the incoming task")
	}

	want := []event{
		{kind: "removed", id: 2, frontMost: true, newFront: -1},
		{kind: "added", id: 3},
	}
	if !slices.Equal(rec.events, want) {
		t.Errorf("events = %+v, want %+v", rec.events, want)
	}
}

func TestSetTasks_RemovalFrontMostFlag(t *testing.T) {
	s, _, rec := newStack(t)
	mustSet(t, s, []*task.Task{mkTask(1, 1), mkTask(2, 2), mkTask(3, 3)}, true)
	rec.events = nil

	mustSet(t, s, nil, true)

	want := []event{
		{kind: "removed", id: 1, newFront: -1},
		{kind: "removed", id: 2, newFront: -1},
		{kind: "removed", id: 3, frontMost: true, newFront: -1},
	}
	if !slices.Equal(rec.events, want) {
		t.Errorf("events = %+v, want %+v", rec.events, want)
	}
}

func TestSetTasks_NotifyDisabled(t *testing.T) {
	s, _, rec := newStack(t)
	mustSet(t, s, []*task.Task{mkTask(1, 1)}, false)
	mustSet(t, s, []*task.Task{mkTask(2, 2)}, false)
	if len(rec.events) != 0 {
		t.Errorf("events with notify=false: %+v", rec.events)
	}

	quiet := New(Config{})
	if err := quiet.SetTasks([]*task.Task{mkTask(1, 1)}, true); err != nil {
		t.Fatalf("SetTasks without callbacks: %v", err)
	}
}

func TestSetTasks_RejectsDuplicateIdentity(t *testing.T) {
	s, _, rec := newStack(t)
	a := mkTask(1, 1)
	mustSet(t, s, []*task.Task{a}, true)
	rec.events = nil

	err := s.SetTasks([]*task.Task{mkTask(2, 2), mkTask(2, 5)}, true)
	if !errors.Is(err, errors.ErrCodeDuplicateTask) {
		t.Fatalf("err = %v, want DUPLICATE_TASK", err)
	}
	coded, _ := errors.As(err)
	if id, ok := coded.TaskID(); !ok || id != 2 {
		t.Errorf("TaskID = %d, %v", id, ok)
	}
	if got := s.StackTasks(); len(got) != 1 || got[0] != a {
		t.Errorf("state changed after rejected snapshot: %v", ids(got))
	}
	if len(rec.events) != 0 {
		t.Errorf("events after rejected snapshot: %+v", rec.events)
	}

	// same id in another stack is a different identity
	other := mkTask(2, 5)
	other.SetStackID(freeform)
	if err := s.SetTasks([]*task.Task{mkTask(2, 2), other}, false); err != nil {
		t.Errorf("distinct identities rejected: %v", err)
	}
}

func TestSetTasks_Partition(t *testing.T) {
	s, svc, _ := newStack(t)
	active := mkTask(1, 1)
	hist := mkTask(2, 2)
	hist.IsHistorical = true
	dockedActive := mkTask(3, 3)
	dockedActive.SetStackID(docked)
	dockedHist := mkTask(4, 4)
	dockedHist.SetStackID(docked)
	dockedHist.IsHistorical = true
	all := []*task.Task{active, hist, dockedActive, dockedHist}

	mustSet(t, s, all, false)

	if got := ids(s.StackTasks()); !slices.Equal(got, []int{1}) {
		t.Errorf("active view = %v, want [1]", got)
	}
	if got := ids(s.HistoricalTasks()); !slices.Equal(got, []int{2}) {
		t.Errorf("historical view = %v, want [2]", got)
	}
	checkPartition(t, s, svc, all)
}

func TestEffectiveHistorical(t *testing.T) {
	parent := mkTask(10, 1)
	parent.IsHistorical = true
	child := mkTask(11, 2)
	child.AffiliationID = 10
	self := mkTask(12, 3)
	self.AffiliationID = 12
	self.IsHistorical = true

	byID := map[int]*task.Task{10: parent, 11: child, 12: self}
	if !effectiveHistorical(byID, child) {
		t.Error("child should take the parent's historical flag")
	}
	if !effectiveHistorical(byID, self) {
		t.Error("self-affiliated task should use its own flag")
	}
	if effectiveHistorical(map[int]*task.Task{11: child}, child) {
		t.Error("child without a parent in the model should use its own flag")
	}
}

func TestSetTasks_ChildFollowsHistoricalParent(t *testing.T) {
	s, svc, _ := newStack(t)
	parent := mkTask(10, 1)
	parent.IsHistorical = true
	child := mkTask(11, 2)
	child.AffiliationID = 10
	other := mkTask(12, 3)
	all := []*task.Task{parent, child, other}

	mustSet(t, s, all, false)

	if got := ids(s.HistoricalTasks()); !slices.Equal(got, []int{10, 11}) {
		t.Errorf("historical view = %v, want [10 11]", got)
	}
	if got := ids(s.StackTasks()); !slices.Equal(got, []int{12}) {
		t.Errorf("active view = %v, want [12]", got)
	}
	checkPartition(t, s, svc, all)
}

func TestViewsFollowParentAfterMutation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, s *TaskStack, other *task.Task)
	}{
		{"remove", func(t *testing.T, s *TaskStack, other *task.Task) {
			if !s.RemoveTask(other) {
				t.Fatal("RemoveTask(other) failed")
			}
		}},
		{"move", func(t *testing.T, s *TaskStack, other *task.Task) {
			if err := s.MoveTaskToStack(other, freeform); err != nil {
				t.Fatalf("MoveTaskToStack: %v", err)
			}
		}},
		{"regroup", func(t *testing.T, s *TaskStack, _ *task.Task) {
			s.CreateAffiliatedGroupings(true)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, svc, _ := newStack(t)
			parent := mkTask(10, 1)
			child := mkTask(11, 2)
			child.AffiliationID = 10
			other := mkTask(12, 3)
			mustSet(t, s, []*task.Task{parent, child, other}, false)

			parent.IsHistorical = true
			tt.mutate(t, s, other)

			if got := ids(s.HistoricalTasks()); !slices.Equal(got, []int{10, 11}) {
				t.Errorf("historical view = %v, want [10 11]", got)
			}
			if s.active.Contains(parent) || s.active.Contains(child) {
				t.Errorf("active view = %v, want parent and child hidden", ids(s.StackTasks()))
			}
			checkPartition(t, s, svc, []*task.Task{parent, child})

			// flipping back restores both on the next mutation
			parent.IsHistorical = false
			s.CreateAffiliatedGroupings(false)
			if len(s.HistoricalTasks()) != 0 {
				t.Errorf("historical view = %v, want empty", ids(s.HistoricalTasks()))
			}
			checkPartition(t, s, svc, []*task.Task{parent, child})
		})
	}
}

func TestMoveTaskToStack_ToFreeformBecomesFrontMost(t *testing.T) {
	s, _, _ := newStack(t)
	a, b, c := mkTask(1, 1), mkTask(2, 2), mkTask(3, 3)
	mustSet(t, s, []*task.Task{a, b, c}, false)

	if err := s.MoveTaskToStack(a, freeform); err != nil {
		t.Fatalf("MoveTaskToStack: %v", err)
	}
	if got := ids(s.StackTasks()); !slices.Equal(got, []int{2, 3, 1}) {
		t.Errorf("active view = %v, want [2 3 1]", got)
	}
	if a.Key.StackID != freeform {
		t.Errorf("StackID = %d, want %d", a.Key.StackID, freeform)
	}
	if s.StackFrontMostTask() != a {
		t.Error("moved task is not front-most")
	}
	if s.StackTaskFreeformCount() != 1 {
		t.Errorf("freeform count = %d, want 1", s.StackTaskFreeformCount())
	}
}

func TestMoveTaskToStack_ToFullscreen(t *testing.T) {
	tests := []struct {
		name     string
		freeform []bool
		move     int
		want     []int
	}{
		// lands just past the last non-freeform task
		{"interleaved", []bool{false, true, false, true}, 1, []int{0, 2, 1, 3}},
		{"freeform first", []bool{true, false, false}, 0, []int{1, 2, 0}},
		{"already past", []bool{false, false, true}, 2, []int{0, 1, 2}},
		// no non-freeform task: goes to the back
		{"all freeform", []bool{true, true}, 1, []int{1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newStack(t)
			var tasks []*task.Task
			for i, ff := range tt.freeform {
				tk := mkTask(i, int64(i+1))
				if ff {
					tk.SetStackID(freeform)
				}
				tasks = append(tasks, tk)
			}
			mustSet(t, s, tasks, false)

			if err := s.MoveTaskToStack(tasks[tt.move], fullscreen); err != nil {
				t.Fatalf("MoveTaskToStack: %v", err)
			}
			if got := ids(s.StackTasks()); !slices.Equal(got, tt.want) {
				t.Errorf("active view = %v, want %v", got, tt.want)
			}
			if tasks[tt.move].Key.StackID != fullscreen {
				t.Errorf("StackID = %d, want %d", tasks[tt.move].Key.StackID, fullscreen)
			}
		})
	}
}

func TestMoveTaskToStack_OtherCombinationsAreNoOps(t *testing.T) {
	s, _, _ := newStack(t)
	a, b := mkTask(1, 1), mkTask(2, 2)
	b.SetStackID(freeform)
	mustSet(t, s, []*task.Task{a, b}, false)

	for _, move := range []struct {
		t  *task.Task
		to int
	}{{a, fullscreen}, {b, freeform}, {a, 42}} {
		if err := s.MoveTaskToStack(move.t, move.to); err != nil {
			t.Errorf("MoveTaskToStack(%d, %d): %v", move.t.ID(), move.to, err)
		}
	}
	if got := ids(s.StackTasks()); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("active view = %v, want [1 2]", got)
	}
	if a.Key.StackID != fullscreen || b.Key.StackID != freeform {
		t.Error("no-op move changed a stack id")
	}
}

func TestMoveTaskToStack_NotVisible(t *testing.T) {
	s, _, _ := newStack(t)
	h := mkTask(1, 1)
	h.IsHistorical = true
	mustSet(t, s, []*task.Task{h, mkTask(2, 2)}, false)

	err := s.MoveTaskToStack(h, freeform)
	if !errors.Is(err, errors.ErrCodeTaskNotVisible) {
		t.Errorf("historical task: err = %v, want TASK_NOT_VISIBLE", err)
	}
	if err := s.MoveTaskToStack(mkTask(9, 9), freeform); err == nil {
		t.Error("unknown task: expected an error")
	}
	if err := s.MoveTaskToStack(nil, freeform); err == nil {
		t.Error("nil task: expected an error")
	}
	if h.Key.StackID != fullscreen {
		t.Error("failed move changed the stack id")
	}
}

func TestRemoveTask_Active(t *testing.T) {
	s, _, rec := newStack(t)
	a, b, c := mkTask(1, 1), mkTask(2, 2), mkTask(3, 3)
	b.LockToTaskEnabled = true
	c.LockToThisTask = true
	mustSet(t, s, []*task.Task{a, b, c}, false)

	if !s.RemoveTask(c) {
		t.Fatal("RemoveTask(front-most) = false")
	}
	if c.LockToThisTask {
		t.Error("removed task still locked")
	}
	if !b.LockToThisTask {
		t.Error("eligible new front-most task was not locked")
	}

	if !s.RemoveTask(a) {
		t.Fatal("RemoveTask(a) = false")
	}

	want := []event{
		{kind: "removed", id: 3, frontMost: true, newFront: 2},
		{kind: "removed", id: 1, frontMost: false, newFront: 2},
	}
	if !slices.Equal(rec.events, want) {
		t.Errorf("events = %+v, want %+v", rec.events, want)
	}

	// removing the last task reports no new front-most task
	rec.events = nil
	s.RemoveTask(b)
	if len(rec.events) != 1 || rec.events[0].newFront != -1 || !rec.events[0].frontMost {
		t.Errorf("events = %+v", rec.events)
	}
}

func TestRemoveTask_ByEqualHandle(t *testing.T) {
	s, _, rec := newStack(t)
	a := mkTask(1, 1)
	a.LockToThisTask = true
	mustSet(t, s, []*task.Task{a}, false)

	if !s.RemoveTask(mkTask(1, 1)) {
		t.Fatal("RemoveTask with an equal identity = false")
	}
	if a.LockToThisTask {
		t.Error("stored handle was not updated")
	}
	if len(rec.events) != 1 || rec.events[0].id != 1 {
		t.Errorf("events = %+v", rec.events)
	}
}

func TestRemoveTask_Historical(t *testing.T) {
	s, _, rec := newStack(t)
	h := mkTask(1, 1)
	h.IsHistorical = true
	mustSet(t, s, []*task.Task{h, mkTask(2, 2)}, false)

	if !s.RemoveTask(h) {
		t.Fatal("RemoveTask(historical) = false")
	}
	if len(s.HistoricalTasks()) != 0 {
		t.Error("historical view still holds the task")
	}
	want := []event{{kind: "history_removed", id: 1}}
	if !slices.Equal(rec.events, want) {
		t.Errorf("events = %+v, want %+v", rec.events, want)
	}
}

func TestRemoveTask_UnknownOrHidden(t *testing.T) {
	s, _, rec := newStack(t)
	d := mkTask(1, 1)
	d.SetStackID(docked)
	mustSet(t, s, []*task.Task{d, mkTask(2, 2)}, false)

	if s.RemoveTask(d) {
		t.Error("removed a task hidden by its docked stack")
	}
	if s.RemoveTask(mkTask(9, 9)) || s.RemoveTask(nil) {
		t.Error("removed an unknown task")
	}
	if len(rec.events) != 0 {
		t.Errorf("events = %+v", rec.events)
	}
}

func TestRemoveTask_LeavesRawCollection(t *testing.T) {
	s, _, rec := newStack(t)
	a, b := mkTask(1, 1), mkTask(2, 2)
	mustSet(t, s, []*task.Task{a, b}, true)
	s.RemoveTask(b)
	rec.events = nil

	mustSet(t, s, []*task.Task{a}, true)
	if len(rec.events) != 0 {
		t.Errorf("reconciling after RemoveTask reported %+v", rec.events)
	}
}

func TestRemoveTask_CollapsesEmptiedGroup(t *testing.T) {
	s, _, _ := newStack(t)
	a, b := mkTask(1, 1), mkTask(2, 2)
	a.AffiliationID = 100
	b.AffiliationID = 100
	mustSet(t, s, []*task.Task{a, b}, false)
	s.CreateAffiliatedGroupings(false)

	g, ok := s.GroupWithAffiliation(100)
	if !ok || g.TaskCount() != 2 {
		t.Fatalf("group 100 = %v, %v", g, ok)
	}

	s.RemoveTask(a)
	if g.TaskCount() != 1 {
		t.Errorf("TaskCount = %d, want 1", g.TaskCount())
	}
	if _, ok := s.GroupWithAffiliation(100); !ok {
		t.Fatal("group removed while it still has a member")
	}

	s.RemoveTask(b)
	if _, ok := s.GroupWithAffiliation(100); ok {
		t.Error("emptied group still registered")
	}
}
