// Package task defines the records held by the recents model: the task key
// (identity, owning container and user, activity timestamps, launchable
// component) and the mutable task entry built around it.
package task

import (
	"fmt"
	"strings"

	"github.com/vinayprograms/recents/palette"
)

// ComponentName identifies a launchable unit inside a package.
type ComponentName struct {
	Package string
	Class   string
}

// String renders the component as package/class.
func (c ComponentName) String() string {
	if c.Class == "" {
		return c.Package
	}
	return c.Package + "/" + c.Class
}

// ParseComponentName parses a "package/class" string. A class starting with
// "." is taken as relative to the package.
func ParseComponentName(s string) (ComponentName, bool) {
	pkg, class, ok := strings.Cut(s, "/")
	if !ok || pkg == "" || class == "" {
		return ComponentName{}, false
	}
	if strings.HasPrefix(class, ".") {
		class = pkg + class
	}
	return ComponentName{Package: pkg, Class: class}, true
}

// Identity is the comparable part of a Key. Two keys with the same
// identity refer to the same task.
type Identity struct {
	ID      int
	StackID int
	UserID  int
}

// Key identifies a task and carries its activity timestamps.
type Key struct {
	// ID is unique within a task collection.
	ID int

	// StackID is the container the task currently lives in.
	StackID int

	// UserID owns the task.
	UserID int

	// FirstActiveTime and LastActiveTime are monotonic activity stamps.
	FirstActiveTime int64
	LastActiveTime  int64

	// Component is the launchable unit backing the task.
	Component ComponentName
}

// Identity returns the comparable identity of the key.
func (k Key) Identity() Identity {
	return Identity{ID: k.ID, StackID: k.StackID, UserID: k.UserID}
}

// String renders the key for debug dumps.
func (k Key) String() string {
	return fmt.Sprintf("Task.Key: %d, s: %d, u: %d, lat: %d, %s",
		k.ID, k.StackID, k.UserID, k.LastActiveTime, k.Component)
}

// Task is one entry in the recents model.
type Task struct {
	Key Key

	// Title is a display label used in dumps and logs.
	Title string

	IsHistorical   bool
	IsLaunchTarget bool

	// LockToThisTask marks the task as pinned on screen. LockToTaskEnabled
	// marks it eligible to be pinned once it becomes front-most.
	LockToThisTask    bool
	LockToTaskEnabled bool

	// AffiliationID links related tasks; zero means unaffiliated.
	AffiliationID    int
	AffiliationColor palette.Color

	// ColorPrimary is derived from the affiliation group during grouping.
	ColorPrimary palette.Color
}

// New creates a task with the given key.
func New(key Key) *Task {
	return &Task{Key: key}
}

// Identity is shorthand for t.Key.Identity().
func (t *Task) Identity() Identity {
	return t.Key.Identity()
}

// ID returns the numeric task id.
func (t *Task) ID() int {
	return t.Key.ID
}

// SetStackID moves the task to another container.
func (t *Task) SetStackID(stackID int) {
	t.Key.StackID = stackID
}

// SetLastActiveTime updates the last activity stamp.
func (t *Task) SetLastActiveTime(at int64) {
	t.Key.LastActiveTime = at
}

// IsAffiliated reports whether the task is affiliated with a different task.
func (t *Task) IsAffiliated() bool {
	return t.AffiliationID != 0 && t.AffiliationID != t.Key.ID
}

// IsFreeform reports whether the task lives in the given freeform container.
func (t *Task) IsFreeform(freeformStackID int) bool {
	return t.Key.StackID == freeformStackID
}

// String renders the task for debug dumps.
func (t *Task) String() string {
	group := "none"
	if t.AffiliationID != 0 {
		group = fmt.Sprintf("%d", t.AffiliationID)
	}
	title := t.Title
	if title == "" {
		title = t.Key.Component.String()
	}
	return fmt.Sprintf("[%s] %s (affiliation: %s, historical: %v)", t.Key, title, group, t.IsHistorical)
}
