// Package grouping buckets tasks that share an affiliation id and keeps the
// registry of live buckets. Groups hold member keys, never task pointers; the
// registry answers "which group is this task in" through a side map keyed by
// task id.
package grouping

import (
	"slices"

	"github.com/vinayprograms/recents/task"
)

// Group is a named bucket of tasks sharing an affiliation.
type Group struct {
	// Affiliation is the shared id of the members.
	Affiliation int

	// LatestActiveTime is the most recent LastActiveTime among members.
	LatestActiveTime int64

	keys []task.Key
}

// New creates an empty group.
func New(affiliation int) *Group {
	return &Group{Affiliation: affiliation}
}

// AddTask appends a snapshot of the task's key.
func (g *Group) AddTask(t *task.Task) {
	g.keys = append(g.keys, t.Key)
	if t.Key.LastActiveTime > g.LatestActiveTime {
		g.LatestActiveTime = t.Key.LastActiveTime
	}
}

// RemoveTask removes the member with the task's id and recomputes
// LatestActiveTime. It reports whether a member was removed.
func (g *Group) RemoveTask(t *task.Task) bool {
	idx := g.IndexOf(t)
	if idx < 0 {
		return false
	}
	g.keys = slices.Delete(g.keys, idx, idx+1)
	g.LatestActiveTime = 0
	for _, k := range g.keys {
		if k.LastActiveTime > g.LatestActiveTime {
			g.LatestActiveTime = k.LastActiveTime
		}
	}
	return true
}

// IndexOf returns the member position of the task, or -1.
func (g *Group) IndexOf(t *task.Task) int {
	for i, k := range g.keys {
		if k.ID == t.Key.ID {
			return i
		}
	}
	return -1
}

// Contains reports whether the task is a member.
func (g *Group) Contains(t *task.Task) bool {
	return g.IndexOf(t) >= 0
}

// IsFrontMost reports whether the task is the last member.
func (g *Group) IsFrontMost(t *task.Task) bool {
	return len(g.keys) > 0 && g.keys[len(g.keys)-1].ID == t.Key.ID
}

// TaskCount returns the number of members.
func (g *Group) TaskCount() int {
	return len(g.keys)
}

// Keys returns a copy of the member keys in member order.
func (g *Group) Keys() []task.Key {
	return slices.Clone(g.keys)
}

// SortByFirstActiveTime orders members by ascending first-active time.
func (g *Group) SortByFirstActiveTime() {
	slices.SortStableFunc(g.keys, func(a, b task.Key) int {
		switch {
		case a.FirstActiveTime < b.FirstActiveTime:
			return -1
		case a.FirstActiveTime > b.FirstActiveTime:
			return 1
		}
		return 0
	})
}
