package task

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/vinayprograms/recents/errors"
	"github.com/vinayprograms/recents/palette"
)

// Record is the on-disk form of a task in a snapshot file:
//
//	[[task]]
//	id = 7
//	stack = 1
//	component = "com.mail/.Inbox"
//	first_active = 100
//	last_active = 250
//	affiliation = 7
//	color = "#3f51b5"
type Record struct {
	ID           int    `toml:"id"`
	Stack        int    `toml:"stack"`
	User         int    `toml:"user"`
	Component    string `toml:"component"`
	Title        string `toml:"title"`
	FirstActive  int64  `toml:"first_active"`
	LastActive   int64  `toml:"last_active"`
	Historical   bool   `toml:"historical"`
	LaunchTarget bool   `toml:"launch_target"`
	LockEnabled  bool   `toml:"lock_enabled"`
	Affiliation  int    `toml:"affiliation"`
	Color        string `toml:"color"`
}

type snapshotFile struct {
	Tasks []Record `toml:"task"`
}

// Task builds the task the record describes.
func (r Record) Task() (*Task, error) {
	comp, ok := ParseComponentName(r.Component)
	if !ok {
		return nil, errors.InvalidInput(fmt.Sprintf("task %d: component %q is not package/class", r.ID, r.Component),
			errors.WithTaskID(r.ID))
	}
	t := New(Key{
		ID:              r.ID,
		StackID:         r.Stack,
		UserID:          r.User,
		FirstActiveTime: r.FirstActive,
		LastActiveTime:  r.LastActive,
		Component:       comp,
	})
	t.Title = r.Title
	t.IsHistorical = r.Historical
	t.IsLaunchTarget = r.LaunchTarget
	t.LockToTaskEnabled = r.LockEnabled
	t.AffiliationID = r.Affiliation
	if r.Color != "" {
		c, err := palette.ParseHex(r.Color)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("task %d: color %q", r.ID, r.Color),
				errors.WithTaskID(r.ID), errors.WithCause(err))
		}
		t.AffiliationColor = c
	}
	return t, nil
}

// ParseSnapshot decodes a TOML snapshot into tasks, in file order.
func ParseSnapshot(content string) ([]*Task, error) {
	var f snapshotFile
	if _, err := toml.Decode(content, &f); err != nil {
		return nil, errors.InvalidInput("parse snapshot", errors.WithCause(err))
	}
	tasks := make([]*Task, 0, len(f.Tasks))
	for _, r := range f.Tasks {
		t, err := r.Task()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// LoadSnapshot reads and decodes a snapshot file.
func LoadSnapshot(path string) ([]*Task, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return ParseSnapshot(string(content))
}
