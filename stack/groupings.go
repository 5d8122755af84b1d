package stack

import (
	"github.com/vinayprograms/recents/grouping"
	"github.com/vinayprograms/recents/palette"
	"github.com/vinayprograms/recents/task"
)

// AddGroup registers a group under its affiliation.
func (s *TaskStack) AddGroup(g *grouping.Group) {
	s.registry.Add(g)
}

// RemoveGroup unregisters a group.
func (s *TaskStack) RemoveGroup(g *grouping.Group) {
	s.registry.Remove(g)
}

// GroupWithAffiliation returns the group registered for an affiliation.
func (s *TaskStack) GroupWithAffiliation(affiliation int) (*grouping.Group, bool) {
	return s.registry.WithAffiliation(affiliation)
}

// Groups returns the registered groups in registry order.
func (s *TaskStack) Groups() []*grouping.Group {
	return s.registry.Groups()
}

// GroupOf returns the group t belongs to.
func (s *TaskStack) GroupOf(t *task.Task) (*grouping.Group, bool) {
	return s.registry.GroupOf(t)
}

// CreateAffiliatedGroupings groups the active view by affiliation.
//
// In the default mode every task joins the group of its affiliation id, or
// a singleton group keyed IndividualTaskIDOffset+id when it has none, and
// members of groups larger than one get a primary color fading from the
// first member's affiliation color towards white.
//
// In simulated mode existing groups are discarded and the active view,
// ordered by first active time, is cut into runs of at most
// SimulatedGroupRunLength+1 tasks. Groups are then ordered by their latest
// active time and the active view is rewritten to follow them.
//
// Both views are recomputed first, so a flag flipped on a task since the
// last mutation decides its view before grouping.
func (s *TaskStack) CreateAffiliatedGroupings(simulated bool) {
	s.install(s.raw)
	if simulated {
		s.createSimulatedGroupings()
	} else {
		s.createAffiliationGroupings()
	}
	s.log.GroupsBuilt(s.registry.Len(), s.active.Len(), simulated)
}

func (s *TaskStack) createAffiliationGroupings() {
	tasks := s.active.Items()
	byID := make(map[int]*task.Task, len(tasks))
	for _, t := range tasks {
		affiliation := t.AffiliationID
		if affiliation <= 0 {
			affiliation = IndividualTaskIDOffset + t.ID()
		}
		g, ok := s.registry.WithAffiliation(affiliation)
		if !ok {
			g = grouping.New(affiliation)
			s.registry.Add(g)
		}
		s.registry.Assign(g, t)
		byID[t.ID()] = t
	}

	for _, g := range s.registry.Groups() {
		n := g.TaskCount()
		if n <= 1 {
			continue
		}
		keys := g.Keys()
		first, ok := byID[keys[0].ID]
		if !ok {
			continue
		}
		base := first.AffiliationColor
		step := (1 - s.cfg.MinAlphaFraction) / float64(n)
		alpha := 1.0
		for _, k := range keys {
			if t, ok := byID[k.ID]; ok {
				t.ColorPrimary = s.cfg.Blender.Overlay(base, palette.White, alpha)
			}
			alpha -= step
		}
	}
}

func (s *TaskStack) createSimulatedGroupings() {
	s.registry.Clear()

	tasks := s.active.Items()
	sortByFirstActiveTime(tasks)

	byID := make(map[int]*task.Task, len(tasks))
	var g *grouping.Group
	budget := 0
	for _, t := range tasks {
		if g != nil && budget > 0 {
			budget--
		} else {
			g = grouping.New(IndividualTaskIDOffset + t.ID())
			s.registry.Add(g)
			budget = s.cfg.SimulatedGroupRunLength
		}
		s.registry.Assign(g, t)
		byID[t.ID()] = t
	}

	s.registry.SortByLatestActiveTime()

	// hidden entries stay in the raw list, ahead of the regrouped tasks
	var ordered []*task.Task
	for _, t := range s.active.Raw() {
		if !s.active.Contains(t) {
			ordered = append(ordered, t)
		}
	}
	for _, g := range s.registry.Groups() {
		g.SortByFirstActiveTime()
		for _, k := range g.Keys() {
			ordered = append(ordered, byID[k.ID])
		}
	}
	s.install(ordered)
}
