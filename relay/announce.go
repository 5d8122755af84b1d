package relay

import (
	"context"
	"strconv"

	"github.com/vinayprograms/recents/stack"
	"github.com/vinayprograms/recents/task"
)

// KeyFrontMostTask is the setting announcing the front-most task id. An
// empty value means the active view is empty.
const KeyFrontMostTask = "recents.front_most_task"

// FrontMostAnnouncer is a stack.Callbacks that dispatches KeyFrontMostTask
// whenever the front-most task leaves the active view.
type FrontMostAnnouncer struct {
	client *Client
	ctx    context.Context
}

var _ stack.Callbacks = (*FrontMostAnnouncer)(nil)

// NewFrontMostAnnouncer dispatches through c using ctx.
func NewFrontMostAnnouncer(ctx context.Context, c *Client) *FrontMostAnnouncer {
	return &FrontMostAnnouncer{client: c, ctx: ctx}
}

func (a *FrontMostAnnouncer) OnStackTaskAdded(*stack.TaskStack, *task.Task) {}

// OnStackTaskRemoved reads the front-most task from s rather than
// newFrontMost, which is nil during reconciliation.
func (a *FrontMostAnnouncer) OnStackTaskRemoved(s *stack.TaskStack, _ *task.Task, wasFrontMost bool, _ *task.Task) {
	if !wasFrontMost {
		return
	}
	value := ""
	if front := s.StackFrontMostTask(); front != nil {
		value = strconv.Itoa(front.ID())
	}
	a.client.DispatchValueChanged(a.ctx, KeyFrontMostTask, value)
}

func (a *FrontMostAnnouncer) OnHistoryTaskRemoved(*stack.TaskStack, *task.Task) {}
