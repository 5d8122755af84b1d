package grouping

import (
	"slices"

	"github.com/vinayprograms/recents/task"
)

// Registry keeps groups in insertion order and indexes them by affiliation.
type Registry struct {
	groups        []*Group
	byAffiliation map[int]*Group
	memberOf      map[int]int // task id -> affiliation
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byAffiliation: make(map[int]*Group),
		memberOf:      make(map[int]int),
	}
}

// Add registers a group. A group already registered under the same
// affiliation is replaced.
func (r *Registry) Add(g *Group) {
	if prev, ok := r.byAffiliation[g.Affiliation]; ok {
		r.Remove(prev)
	}
	r.groups = append(r.groups, g)
	r.byAffiliation[g.Affiliation] = g
	for _, k := range g.keys {
		r.memberOf[k.ID] = g.Affiliation
	}
}

// Remove unregisters a group and forgets its members' membership.
func (r *Registry) Remove(g *Group) {
	idx := slices.Index(r.groups, g)
	if idx < 0 {
		return
	}
	r.groups = slices.Delete(r.groups, idx, idx+1)
	delete(r.byAffiliation, g.Affiliation)
	for id, aff := range r.memberOf {
		if aff == g.Affiliation {
			delete(r.memberOf, id)
		}
	}
}

// WithAffiliation returns the group registered for an affiliation.
func (r *Registry) WithAffiliation(affiliation int) (*Group, bool) {
	g, ok := r.byAffiliation[affiliation]
	return g, ok
}

// GroupOf returns the group the task currently belongs to.
func (r *Registry) GroupOf(t *task.Task) (*Group, bool) {
	aff, ok := r.memberOf[t.Key.ID]
	if !ok {
		return nil, false
	}
	return r.WithAffiliation(aff)
}

// Assign adds the task to g, first detaching it from any other group so a
// task belongs to at most one group. g is registered if it is not yet.
func (r *Registry) Assign(g *Group, t *task.Task) {
	if cur, ok := r.GroupOf(t); ok {
		if cur == g && g.Contains(t) {
			return
		}
		r.Detach(t)
	}
	if existing, ok := r.byAffiliation[g.Affiliation]; !ok || existing != g {
		r.Add(g)
	}
	g.AddTask(t)
	r.memberOf[t.Key.ID] = g.Affiliation
}

// Detach removes the task from its group. When that empties the group, the
// group is removed from the registry and emptied is true.
func (r *Registry) Detach(t *task.Task) (g *Group, emptied bool) {
	g, ok := r.GroupOf(t)
	if !ok {
		return nil, false
	}
	g.RemoveTask(t)
	delete(r.memberOf, t.Key.ID)
	if g.TaskCount() == 0 {
		r.Remove(g)
		return g, true
	}
	return g, false
}

// Groups returns the registered groups in registry order.
func (r *Registry) Groups() []*Group {
	return slices.Clone(r.groups)
}

// Len returns the number of registered groups.
func (r *Registry) Len() int {
	return len(r.groups)
}

// Clear drops every group.
func (r *Registry) Clear() {
	r.groups = nil
	clear(r.byAffiliation)
	clear(r.memberOf)
}

// SortByLatestActiveTime orders groups by ascending LatestActiveTime.
func (r *Registry) SortByLatestActiveTime() {
	slices.SortStableFunc(r.groups, func(a, b *Group) int {
		switch {
		case a.LatestActiveTime < b.LatestActiveTime:
			return -1
		case a.LatestActiveTime > b.LatestActiveTime:
			return 1
		}
		return 0
	})
}
