package event

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hivelabs/campaignd/internal/agent"
	"github.com/hivelabs/campaignd/internal/provider"
)

const projectorBufferSize = 64

// Projector flattens the agent loop's stream events into the ordered
// boundary event stream. Ordering is preserved exactly as emitted by the
// loop; the buffered output channel keeps emission from stalling loop
// progress under a briefly slow consumer.
type Projector struct {
	logger *slog.Logger

	// OnUsage, when set, is invoked for every usage report from the loop.
	// Used by the gateway to feed token metrics.
	OnUsage func(provider.TokenUsage)

	// OnToolDone, when set, is invoked with the tool name and execution
	// duration in seconds after every completed tool call.
	OnToolDone func(name string, seconds float64)

	// OnFinal, when set, is invoked with the loop's final response on a
	// successful run.
	OnFinal func(*agent.Response)
}

// NewProjector creates a Projector.
func NewProjector(logger *slog.Logger) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{logger: logger}
}

// Project consumes loop events from in and returns the boundary event
// stream. The returned channel is closed after the terminal done event.
//
// Guarantees, per request:
//   - agent_step{analyzing, running} is always the first event.
//   - every tool start/end pair becomes a running/done pair for the
//     tool's declared phase, with the structured result event (when the
//     tool declares one and execution succeeded) following the done.
//   - agent_step{analyzing, done} fires once, when the loop completes its
//     final reasoning step.
//   - exactly one done event closes the stream; an error event, when
//     present, immediately precedes it.
//
// When ctx is cancelled (client disconnect), projection stops without
// emitting further events: there is no one left to observe them.
func (p *Projector) Project(ctx context.Context, in <-chan agent.StreamEvent) <-chan Event {
	out := make(chan Event, projectorBufferSize)

	go func() {
		defer close(out)

		if !p.emit(ctx, out, AgentStep(NodeAnalyzing, StatusRunning)) {
			p.drain(in)
			return
		}

		for ev := range in {
			switch ev.Type {
			case agent.StreamEventText:
				if !p.emit(ctx, out, Token(ev.Content)) {
					p.drain(in)
					return
				}

			case agent.StreamEventToolStart:
				if !p.emit(ctx, out, AgentStep(Node(ev.ToolCall.Phase), StatusRunning)) {
					p.drain(in)
					return
				}

			case agent.StreamEventToolEnd:
				if p.OnToolDone != nil {
					p.OnToolDone(ev.ToolCall.Name, ev.ToolCall.Duration.Seconds())
				}
				if !p.emit(ctx, out, AgentStep(Node(ev.ToolCall.Phase), StatusDone)) {
					p.drain(in)
					return
				}
				structured, ok := p.structuredFor(ev.ToolCall)
				if ok && !p.emit(ctx, out, structured) {
					p.drain(in)
					return
				}

			case agent.StreamEventUsage:
				if p.OnUsage != nil && ev.Usage != nil {
					p.OnUsage(*ev.Usage)
				}

			case agent.StreamEventDone:
				if p.OnFinal != nil && ev.Final != nil {
					p.OnFinal(ev.Final)
				}
				p.emit(ctx, out, AgentStep(NodeAnalyzing, StatusDone))
				p.emit(ctx, out, Done())
				p.drain(in)
				return

			case agent.StreamEventError:
				// A cancelled request has no observer; drop silently.
				if errors.Is(ev.Err, context.Canceled) {
					p.drain(in)
					return
				}
				p.logger.Warn("agent loop failed", "error", ev.Err)
				p.emit(ctx, out, Error(ev.Err.Error()))
				p.emit(ctx, out, Done())
				p.drain(in)
				return
			}
		}

		// The loop channel closed without a terminal event. Close the
		// stream properly regardless.
		p.emit(ctx, out, Done())
	}()

	return out
}

// structuredFor derives the structured result event for a completed tool
// call. Tools that declare no result kind, failed executions, and outputs
// without structured data produce no event; the phase-done event already
// fired.
func (p *Projector) structuredFor(rec *agent.ToolCallRecord) (Event, bool) {
	if rec.Output.IsError || rec.Output.Data == nil {
		return Event{}, false
	}
	return Structured(rec.Kind, rec.Output.Data)
}

// emit sends ev unless the request has been cancelled. It reports whether
// projection should continue.
func (p *Projector) emit(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// drain empties the loop channel so the loop goroutine can exit.
func (p *Projector) drain(in <-chan agent.StreamEvent) {
	for range in {
	}
}
