package tui

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakbranch-dev/raven-remediator/internal/queue"
	"github.com/oakbranch-dev/raven-remediator/internal/remediation"
	"github.com/oakbranch-dev/raven-remediator/internal/workflow"
)

// TestNewEventBridge verifies that NewEventBridge returns a usable EventBridge.
func TestNewEventBridge(t *testing.T) {
	t.Parallel()
	b := NewEventBridge()
	assert.NotNil(t, b)
}

// TestEventBridge_WorkflowEventCmd_ReceivesEvent verifies that the returned
// tea.Cmd converts a workflow.WorkflowEvent to a WorkflowEventMsg.
func TestEventBridge_WorkflowEventCmd_ReceivesEvent(t *testing.T) {
	t.Parallel()

	b := NewEventBridge()
	ch := make(chan workflow.WorkflowEvent, 1)

	ts := time.Now()
	ch <- workflow.WorkflowEvent{
		WorkflowID: "wf-1",
		Step:       "implement",
		Event:      "success",
		Message:    "step done",
		Timestamp:  ts,
	}

	ctx := context.Background()
	cmd := b.WorkflowEventCmd(ctx, ch)
	require.NotNil(t, cmd)

	msg := cmd()
	wfMsg, ok := msg.(WorkflowEventMsg)
	require.True(t, ok, "expected WorkflowEventMsg, got %T", msg)

	assert.Equal(t, "wf-1", wfMsg.WorkflowID)
	assert.Equal(t, "implement", wfMsg.Step)
	assert.Equal(t, "success", wfMsg.Event)
	assert.Equal(t, "step done", wfMsg.Detail)
	assert.Equal(t, ts, wfMsg.Timestamp)
}

// TestEventBridge_WorkflowEventCmd_ClosedChannel verifies that the command
// returns nil when the channel is closed.
func TestEventBridge_WorkflowEventCmd_ClosedChannel(t *testing.T) {
	t.Parallel()

	b := NewEventBridge()
	ch := make(chan workflow.WorkflowEvent)
	close(ch)

	ctx := context.Background()
	cmd := b.WorkflowEventCmd(ctx, ch)
	require.NotNil(t, cmd)

	msg := cmd()
	assert.Nil(t, msg)
}

// TestEventBridge_WorkflowEventCmd_CancelledContext verifies that the command
// returns nil when the context is cancelled.
func TestEventBridge_WorkflowEventCmd_CancelledContext(t *testing.T) {
	t.Parallel()

	b := NewEventBridge()
	ch := make(chan workflow.WorkflowEvent) // never receives

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	cmd := b.WorkflowEventCmd(ctx, ch)
	require.NotNil(t, cmd)

	msg := cmd()
	assert.Nil(t, msg)
}

// TestMapQueueEventType_AllTypes verifies the mapping from queue.EventType
// to tui.LoopEventType for all defined queue event type constants.
func TestMapQueueEventType_AllTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  queue.EventType
		expect LoopEventType
	}{
		{name: "item_queued", input: queue.EventItemQueued, expect: LoopTaskSelected},
		{name: "item_started", input: queue.EventItemStarted, expect: LoopIterationStarted},
		{name: "item_retrying", input: queue.EventItemRetrying, expect: LoopResumedAfterWait},
		{name: "item_completed", input: queue.EventItemCompleted, expect: LoopTaskCompleted},
		{name: "item_failed", input: queue.EventItemFailed, expect: LoopError},
		{name: "unknown_defaults", input: queue.EventType("unknown_type"), expect: LoopIterationStarted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := mapQueueEventType(tt.input)
			assert.Equal(t, tt.expect, got)
		})
	}
}

// TestEventBridge_QueueEventCmd_ConvertsToLoopEventMsg verifies that a
// queue.Event is converted to a LoopEventMsg carrying the group's branch
// name, attempt number, and error detail.
func TestEventBridge_QueueEventCmd_ConvertsToLoopEventMsg(t *testing.T) {
	t.Parallel()

	b := NewEventBridge()
	ch := make(chan queue.Event, 1)

	ts := time.Now()
	ch <- queue.Event{
		Type:      queue.EventItemCompleted,
		Group:     remediation.Group{BranchName: "fix/widget-1"},
		Attempt:   2,
		Timestamp: ts,
	}

	ctx := context.Background()
	cmd := b.QueueEventCmd(ctx, ch)
	require.NotNil(t, cmd)

	msg := cmd()
	loopMsg, ok := msg.(LoopEventMsg)
	require.True(t, ok, "expected LoopEventMsg for queue event, got %T", msg)

	assert.Equal(t, LoopTaskCompleted, loopMsg.Type)
	assert.Equal(t, "fix/widget-1", loopMsg.TaskID)
	assert.Equal(t, 2, loopMsg.Iteration)
}

// TestEventBridge_QueueEventCmd_ClosedChannel verifies that the command
// returns nil when the queue event channel is closed.
func TestEventBridge_QueueEventCmd_ClosedChannel(t *testing.T) {
	t.Parallel()

	b := NewEventBridge()
	ch := make(chan queue.Event)
	close(ch)

	ctx := context.Background()
	cmd := b.QueueEventCmd(ctx, ch)
	require.NotNil(t, cmd)

	msg := cmd()
	assert.Nil(t, msg)
}

// TestEventBridge_AgentOutputCmd_ReceivesMsg verifies that AgentOutputCmd
// forwards AgentOutputMsg values unchanged.
func TestEventBridge_AgentOutputCmd_ReceivesMsg(t *testing.T) {
	t.Parallel()

	b := NewEventBridge()
	ch := make(chan AgentOutputMsg, 1)

	ts := time.Now()
	ch <- AgentOutputMsg{
		Agent:     "claude",
		Line:      "hello world",
		Stream:    "stdout",
		Timestamp: ts,
	}

	ctx := context.Background()
	cmd := b.AgentOutputCmd(ctx, ch)
	require.NotNil(t, cmd)

	msg := cmd()
	aoMsg, ok := msg.(AgentOutputMsg)
	require.True(t, ok, "expected AgentOutputMsg, got %T", msg)

	assert.Equal(t, "claude", aoMsg.Agent)
	assert.Equal(t, "hello world", aoMsg.Line)
	assert.Equal(t, "stdout", aoMsg.Stream)
	assert.Equal(t, ts, aoMsg.Timestamp)
}

// TestEventBridge_TaskProgressCmd_ReceivesMsg verifies that TaskProgressCmd
// forwards TaskProgressMsg values unchanged.
func TestEventBridge_TaskProgressCmd_ReceivesMsg(t *testing.T) {
	t.Parallel()

	b := NewEventBridge()
	ch := make(chan TaskProgressMsg, 1)

	ts := time.Now()
	ch <- TaskProgressMsg{
		TaskID:    "T-001",
		TaskTitle: "first task",
		Status:    "completed",
		Phase:     1,
		Completed: 5,
		Total:     10,
		Timestamp: ts,
	}

	ctx := context.Background()
	cmd := b.TaskProgressCmd(ctx, ch)
	require.NotNil(t, cmd)

	msg := cmd()
	tpMsg, ok := msg.(TaskProgressMsg)
	require.True(t, ok, "expected TaskProgressMsg, got %T", msg)

	assert.Equal(t, "T-001", tpMsg.TaskID)
	assert.Equal(t, "completed", tpMsg.Status)
	assert.Equal(t, 5, tpMsg.Completed)
	assert.Equal(t, 10, tpMsg.Total)
}
