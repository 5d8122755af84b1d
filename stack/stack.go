package stack

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vinayprograms/recents/filtered"
	"github.com/vinayprograms/recents/grouping"
	"github.com/vinayprograms/recents/logging"
	"github.com/vinayprograms/recents/palette"
	"github.com/vinayprograms/recents/task"
)

// IndividualTaskIDOffset is added to a task id to form the affiliation of a
// task that has none of its own.
const IndividualTaskIDOffset = 1 << 16

// Defaults used when the corresponding Config field is zero.
const (
	DefaultFullscreenStackID       = 1
	DefaultFreeformStackID         = 2
	DefaultMinAlphaFraction        = 0.2
	DefaultSimulatedGroupRunLength = 3
)

// View names used in logs and errors.
const (
	ViewActive     = "active"
	ViewHistorical = "historical"
)

// ActivityInfo describes a launchable component that still exists.
type ActivityInfo struct {
	Component task.ComponentName
	Label     string
}

// Services answers questions about the host the model cannot answer itself.
type Services interface {
	// IsDockedStack reports whether the stack is a docked split container.
	IsDockedStack(stackID int) bool

	// ActivityInfo looks up a component for a user. ok is false when the
	// component no longer resolves.
	ActivityInfo(component task.ComponentName, userID int) (info ActivityInfo, ok bool)
}

// NoServices reports no docked stacks and resolves every component.
type NoServices struct{}

// IsDockedStack always reports false.
func (NoServices) IsDockedStack(int) bool { return false }

// ActivityInfo resolves c with an empty label.
func (NoServices) ActivityInfo(c task.ComponentName, _ int) (ActivityInfo, bool) {
	return ActivityInfo{Component: c}, true
}

// Config configures a TaskStack.
type Config struct {
	// Services defaults to NoServices.
	Services Services

	// Blender computes group colors. Defaults to palette.ColorfulBlender.
	Blender palette.Blender

	// MinAlphaFraction is the opacity of the last member of a colored group.
	// Values outside (0, 1] fall back to DefaultMinAlphaFraction.
	MinAlphaFraction float64

	FreeformStackID   int
	FullscreenStackID int

	// SimulatedGroupRunLength is the number of tasks that join a simulated
	// group after the one that starts it.
	SimulatedGroupRunLength int

	Logger *logging.Logger
}

func (c Config) withDefaults() Config {
	if c.Services == nil {
		c.Services = NoServices{}
	}
	if c.Blender == nil {
		c.Blender = palette.ColorfulBlender{}
	}
	if c.MinAlphaFraction <= 0 || c.MinAlphaFraction > 1 {
		c.MinAlphaFraction = DefaultMinAlphaFraction
	}
	if c.FreeformStackID == 0 {
		c.FreeformStackID = DefaultFreeformStackID
	}
	if c.FullscreenStackID == 0 {
		c.FullscreenStackID = DefaultFullscreenStackID
	}
	if c.SimulatedGroupRunLength <= 0 {
		c.SimulatedGroupRunLength = DefaultSimulatedGroupRunLength
	}
	if c.Logger == nil {
		c.Logger = logging.Discard()
	}
	return c
}

type taskList = filtered.List[task.Identity, *task.Task]

// TaskStack is the recents model.
type TaskStack struct {
	cfg Config
	log *logging.Logger
	cb  Callbacks

	raw      []*task.Task
	active   *taskList
	history  *taskList
	registry *grouping.Registry
}

// New creates an empty TaskStack with both view filters installed.
func New(cfg Config) *TaskStack {
	cfg = cfg.withDefaults()
	s := &TaskStack{
		cfg:      cfg,
		log:      cfg.Logger.WithComponent("stack"),
		active:   newTaskList(),
		history:  newTaskList(),
		registry: grouping.NewRegistry(),
	}
	s.active.SetFilter(s.viewFilter(false))
	s.history.SetFilter(s.viewFilter(true))
	return s
}

// install makes raw the task collection of both views.
func (s *TaskStack) install(raw []*task.Task) {
	s.raw = raw
	s.active.Set(raw)
	s.history.Set(raw)
}

func newTaskList() *taskList {
	return filtered.New((*task.Task).Identity, (*task.Task).ID)
}

// viewFilter accepts non-docked tasks whose effective historical flag
// equals historical. Both views hold every task, so byID covers the whole
// collection.
func (s *TaskStack) viewFilter(historical bool) filtered.Filter[*task.Task] {
	return func(byID map[int]*task.Task, t *task.Task, _ int) bool {
		return effectiveHistorical(byID, t) == historical &&
			!s.cfg.Services.IsDockedStack(t.Key.StackID)
	}
}

// effectiveHistorical substitutes the parent's flag for an affiliated task
// whose parent is in the model.
func effectiveHistorical(byID map[int]*task.Task, t *task.Task) bool {
	if t.IsAffiliated() {
		if parent, ok := byID[t.AffiliationID]; ok {
			return parent.IsHistorical
		}
	}
	return t.IsHistorical
}

// Config returns the effective configuration.
func (s *TaskStack) Config() Config {
	return s.cfg
}

// SetCallbacks installs the observer. A nil observer disables notifications.
func (s *TaskStack) SetCallbacks(cb Callbacks) {
	s.cb = cb
}

// Reset drops the observer, every task and every group. Filters stay.
func (s *TaskStack) Reset() {
	s.cb = nil
	s.raw = nil
	s.active.Reset()
	s.history.Reset()
	s.registry.Clear()
}

// String dumps both views.
func (s *TaskStack) String() string {
	var b strings.Builder
	b.WriteString("Stack Tasks:\n")
	for _, t := range s.active.Items() {
		fmt.Fprintf(&b, "  %s\n", t)
	}
	b.WriteString("Historical Tasks:\n")
	for _, t := range s.history.Items() {
		fmt.Fprintf(&b, "  %s\n", t)
	}
	return b.String()
}

func sortByLastActiveTime(tasks []*task.Task) {
	slices.SortStableFunc(tasks, func(a, b *task.Task) int {
		return compareInt64(a.Key.LastActiveTime, b.Key.LastActiveTime)
	})
}

func sortByFirstActiveTime(tasks []*task.Task) {
	slices.SortStableFunc(tasks, func(a, b *task.Task) int {
		return compareInt64(a.Key.FirstActiveTime, b.Key.FirstActiveTime)
	})
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
