package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oakbranch-dev/raven-remediator/internal/queue"
	"github.com/oakbranch-dev/raven-remediator/internal/workflow"
)

// EventBridge converts backend event types (workflow.WorkflowEvent,
// queue.Event) into TUI messages that the Bubble Tea runtime can dispatch
// to the App model. It is intended to be used as a tea.Cmd producer that reads
// from backend channels and forwards events into the Bubble Tea program.
//
// The Cmd methods start no goroutine of their own: each returns a tea.Cmd that
// can be placed in a Batch and that, when the Bubble Tea runtime runs it, reads
// one value from the given channel. The command returns nil once the provided
// context is done.
type EventBridge struct{}

// NewEventBridge creates a new EventBridge. No internal state is maintained;
// the struct exists to provide a namespaced API for the bridge helpers.
func NewEventBridge() EventBridge {
	return EventBridge{}
}

// WorkflowEventCmd returns a tea.Cmd that reads a single WorkflowEvent from
// ch and converts it to a WorkflowEventMsg. The command sends nil when the
// channel is closed or ctx is done.
//
// Usage: call repeatedly inside App.Update to keep draining the channel:
//
//	case WorkflowEventMsg:
//	    // handle...
//	    return a, bridge.WorkflowEventCmd(ctx, ch)
func (b EventBridge) WorkflowEventCmd(ctx context.Context, ch <-chan workflow.WorkflowEvent) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			return WorkflowEventMsg{
				WorkflowID:   ev.WorkflowID,
				WorkflowName: ev.WorkflowID, // WorkflowEvent has no separate Name field; use ID
				Step:         ev.Step,
				Event:        ev.Event,
				Detail:       ev.Message,
				Timestamp:    ev.Timestamp,
			}
		}
	}
}

// QueueEventCmd returns a tea.Cmd that reads a single queue.Event from ch
// and converts it to a LoopEventMsg (the TUI's generic background-work
// event message — named for the teacher's implementation-loop origin, now
// also carrying remediation queue lifecycle events). The command sends nil
// when the channel is closed or ctx is done.
//
// Usage: call repeatedly inside App.Update after receiving a LoopEventMsg:
//
//	case LoopEventMsg:
//	    // handle...
//	    return a, bridge.QueueEventCmd(ctx, ch)
func (b EventBridge) QueueEventCmd(ctx context.Context, ch <-chan queue.Event) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			return convertQueueEvent(ev)
		}
	}
}

// convertQueueEvent maps a queue.Event to a LoopEventMsg using
// mapQueueEventType. The issue group's branch name stands in for the TaskID
// field since the queue has no separate task concept.
func convertQueueEvent(ev queue.Event) tea.Msg {
	return LoopEventMsg{
		Type:      mapQueueEventType(ev.Type),
		TaskID:    ev.Group.BranchName,
		Iteration: ev.Attempt,
		Detail:    ev.Error,
		Timestamp: ev.Timestamp,
	}
}

// mapQueueEventType converts a queue.EventType (string) to the TUI
// LoopEventType (int iota). Unmapped types default to LoopIterationStarted.
func mapQueueEventType(t queue.EventType) LoopEventType {
	switch t {
	case queue.EventItemQueued:
		return LoopTaskSelected
	case queue.EventItemStarted:
		return LoopIterationStarted
	case queue.EventItemRetrying:
		return LoopResumedAfterWait
	case queue.EventItemCompleted:
		return LoopTaskCompleted
	case queue.EventItemFailed:
		return LoopError
	default:
		return LoopIterationStarted
	}
}

// AgentOutputCmd returns a tea.Cmd that reads a single AgentOutputMsg from
// ch and forwards it unchanged. The command sends nil when the channel is
// closed or ctx is done.
//
// Because AgentOutputMsg is already a TUI message type, no conversion is
// needed. This helper exists for symmetry with the other bridge methods.
func (b EventBridge) AgentOutputCmd(ctx context.Context, ch <-chan AgentOutputMsg) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			return msg
		}
	}
}

// TaskProgressCmd returns a tea.Cmd that reads a single TaskProgressMsg from
// ch and forwards it unchanged. The command sends nil when the channel is
// closed or ctx is done.
func (b EventBridge) TaskProgressCmd(ctx context.Context, ch <-chan TaskProgressMsg) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			return msg
		}
	}
}

// SendWorkflowEvent is a convenience function that sends a WorkflowEvent to
// the Bubble Tea program p by converting it to a WorkflowEventMsg. It is
// intended for use outside the Elm update loop (e.g., from a goroutine that
// monitors the workflow engine) when direct channel bridging is not used.
func SendWorkflowEvent(p *tea.Program, ev workflow.WorkflowEvent) {
	p.Send(WorkflowEventMsg{
		WorkflowID:   ev.WorkflowID,
		WorkflowName: ev.WorkflowID,
		Step:         ev.Step,
		Event:        ev.Event,
		Detail:       ev.Message,
		Timestamp:    ev.Timestamp,
	})
}

// SendQueueEvent is a convenience function that converts a queue.Event and
// sends the resulting TUI message to the Bubble Tea program p. It is intended
// for use from a monitoring goroutine when direct channel bridging is not used.
func SendQueueEvent(p *tea.Program, ev queue.Event) {
	p.Send(convertQueueEvent(ev))
}

// SendAgentOutput is a convenience function that sends an AgentOutputMsg to
// the Bubble Tea program p with the given agent name, output line, stream
// label, and timestamp.
func SendAgentOutput(p *tea.Program, agent, line, stream string, ts time.Time) {
	p.Send(AgentOutputMsg{
		Agent:     agent,
		Line:      line,
		Stream:    stream,
		Timestamp: ts,
	})
}
