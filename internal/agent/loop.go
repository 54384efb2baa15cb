package agent

import (
	"context"
	"errors"

	"github.com/hivelabs/campaignd/internal/provider"
	"github.com/hivelabs/campaignd/internal/tool"
)

// Sentinel errors for agent loop termination.
var (
	ErrTokenBudgetExceeded = errors.New("agent: token budget exceeded")
	ErrMaxTurnsReached     = errors.New("agent: max turns reached")
	ErrLoopDetected        = errors.New("agent: loop detected")
)

// Loop implements the ReAct (Reason + Act) reasoning loop.
type Loop struct {
	provider provider.Provider
	registry *tool.Registry
	executor *ToolExecutor
	tools    []provider.ToolDefinition
	config   LoopConfig
}

// NewLoop creates a Loop with the given provider, tool registry, and config.
// The registry's tool set is captured once; tools registered after this call
// are not visible to the loop.
func NewLoop(p provider.Provider, registry *tool.Registry, cfg LoopConfig) *Loop {
	return &Loop{
		provider: p,
		registry: registry,
		executor: NewToolExecutor(registry),
		tools:    registry.Definitions(),
		config:   cfg.withDefaults(),
	}
}

// appendToolResults adds tool execution results to the conversation.
func appendToolResults(conv *Conversation, records []ToolCallRecord) {
	for _, rec := range records {
		conv.Append(provider.LLMMessage{
			Role:    provider.MessageRoleTool,
			Content: rec.Output.Content,
			ToolID:  rec.ID,
			IsError: rec.Output.IsError,
		})
	}
}

// Run executes the ReAct loop synchronously and returns the final response.
//
// A context.WithTimeout is applied using l.config.Timeout. If the caller's
// context already carries a shorter deadline, the shorter one takes effect.
func (l *Loop) Run(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, l.config.Timeout)
	defer cancel()

	detector := newLoopDetector(l.config.LoopThreshold)
	tracker := newTokenTracker(l.config.TokenBudget)
	conv := NewConversation(req.SystemPrompt, req.Messages)

	var allToolCalls []ToolCallRecord

	for turn := 0; turn < l.config.MaxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			stopReason := StopReasonError
			if errors.Is(err, context.DeadlineExceeded) {
				stopReason = StopReasonTimeout
			}
			return Response{
				ToolCalls:  allToolCalls,
				TotalUsage: tracker.total(),
				Turns:      turn,
				StopReason: stopReason,
			}, err
		}

		if tracker.exceeded() {
			return Response{
				ToolCalls:  allToolCalls,
				TotalUsage: tracker.total(),
				Turns:      turn,
				StopReason: StopReasonTokenBudget,
			}, ErrTokenBudgetExceeded
		}

		resp, err := l.provider.Complete(ctx, provider.CompletionRequest{
			Messages: conv.Messages(),
			Tools:    l.tools,
		})
		if err != nil {
			return Response{
				ToolCalls:  allToolCalls,
				TotalUsage: tracker.total(),
				Turns:      turn,
				StopReason: StopReasonError,
			}, err
		}

		tracker.add(resp.Usage)
		if tracker.exceeded() {
			return Response{
				ToolCalls:  allToolCalls,
				TotalUsage: tracker.total(),
				Turns:      turn + 1,
				StopReason: StopReasonTokenBudget,
			}, ErrTokenBudgetExceeded
		}

		// No tool calls → the model is done reasoning.
		if len(resp.ToolCalls) == 0 {
			return Response{
				Content:    resp.Content,
				ToolCalls:  allToolCalls,
				TotalUsage: tracker.total(),
				Turns:      turn + 1,
				StopReason: StopReasonComplete,
			}, nil
		}

		// Check for loops before appending the assistant message to avoid
		// leaving an orphan assistant message without tool results.
		for _, tc := range resp.ToolCalls {
			if detector.record(tc.Name, tc.Arguments) {
				return Response{
					ToolCalls:  allToolCalls,
					TotalUsage: tracker.total(),
					Turns:      turn + 1,
					StopReason: StopReasonLoopDetected,
				}, ErrLoopDetected
			}
		}

		conv.Append(provider.LLMMessage{
			Role:      provider.MessageRoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		records, err := l.executor.Execute(ctx, resp.ToolCalls)
		allToolCalls = append(allToolCalls, records...)
		if err != nil {
			return Response{
				ToolCalls:  allToolCalls,
				TotalUsage: tracker.total(),
				Turns:      turn + 1,
				StopReason: StopReasonError,
			}, err
		}

		appendToolResults(conv, records)
	}

	return Response{
		ToolCalls:  allToolCalls,
		TotalUsage: tracker.total(),
		Turns:      l.config.MaxTurns,
		StopReason: StopReasonMaxTurns,
	}, ErrMaxTurnsReached
}

// RunStream executes the ReAct loop and streams events over a channel.
// Text deltas are forwarded as received from the provider; tool calls are
// dispatched one at a time in the order the model requested them, with a
// tool_start/tool_end pair bracketing each execution.
//
// A context.WithTimeout is applied using l.config.Timeout. If the caller's
// context already carries a shorter deadline, the shorter one takes effect.
func (l *Loop) RunStream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	ch := make(chan StreamEvent, 16)

	go func() {
		defer close(ch)

		ctx, cancel := context.WithTimeout(ctx, l.config.Timeout)
		defer cancel()

		detector := newLoopDetector(l.config.LoopThreshold)
		tracker := newTokenTracker(l.config.TokenBudget)
		conv := NewConversation(req.SystemPrompt, req.Messages)

		var allToolCalls []ToolCallRecord

		for turn := 0; turn < l.config.MaxTurns; turn++ {
			if err := ctx.Err(); err != nil {
				ch <- StreamEvent{Type: StreamEventError, Err: err}
				return
			}

			if tracker.exceeded() {
				ch <- StreamEvent{Type: StreamEventError, Err: ErrTokenBudgetExceeded}
				return
			}

			streamCh, err := l.provider.Stream(ctx, provider.CompletionRequest{
				Messages: conv.Messages(),
				Tools:    l.tools,
			})
			if err != nil {
				ch <- StreamEvent{Type: StreamEventError, Err: err}
				return
			}

			// Consume the stream, forwarding text chunks as they arrive
			// and accumulating tool calls for dispatch.
			var content string
			var toolCalls []provider.ToolCall
			var usage *provider.TokenUsage

			var streamErr error
			for chunk := range streamCh {
				if chunk.Err != nil {
					streamErr = chunk.Err
					break
				}
				if chunk.Content != "" {
					content += chunk.Content
					ch <- StreamEvent{Type: StreamEventText, Content: chunk.Content}
				}
				if len(chunk.ToolCalls) > 0 {
					toolCalls = append(toolCalls, chunk.ToolCalls...)
				}
				if chunk.Usage != nil {
					usage = chunk.Usage
				}
			}

			// Drain remaining chunks to prevent provider goroutine leak.
			if streamErr != nil {
				for range streamCh { //nolint:revive // intentional empty drain loop
				}
				ch <- StreamEvent{Type: StreamEventError, Err: streamErr}
				return
			}

			if usage != nil {
				tracker.add(*usage)
				ch <- StreamEvent{Type: StreamEventUsage, Usage: usage}
				if tracker.exceeded() {
					ch <- StreamEvent{Type: StreamEventError, Err: ErrTokenBudgetExceeded}
					return
				}
			}

			// No tool calls → done.
			if len(toolCalls) == 0 {
				ch <- StreamEvent{Type: StreamEventDone, Final: &Response{
					Content:    content,
					ToolCalls:  allToolCalls,
					TotalUsage: tracker.total(),
					Turns:      turn + 1,
					StopReason: StopReasonComplete,
				}}
				return
			}

			// Check for loops before appending the assistant message to avoid
			// leaving an orphan assistant message without tool results.
			for _, tc := range toolCalls {
				if detector.record(tc.Name, tc.Arguments) {
					ch <- StreamEvent{Type: StreamEventError, Err: ErrLoopDetected}
					return
				}
			}

			conv.Append(provider.LLMMessage{
				Role:      provider.MessageRoleAssistant,
				Content:   content,
				ToolCalls: toolCalls,
			})

			records := make([]ToolCallRecord, 0, len(toolCalls))
			for _, tc := range toolCalls {
				t, err := l.registry.Get(tc.Name)
				if err != nil {
					ch <- StreamEvent{Type: StreamEventError, Err: err}
					return
				}

				ch <- StreamEvent{
					Type: StreamEventToolStart,
					ToolCall: &ToolCallRecord{
						ID:        tc.ID,
						Name:      tc.Name,
						Arguments: tc.Arguments,
						Phase:     t.Phase(),
						Kind:      t.ResultKind(),
					},
				}

				rec := l.executor.run(ctx, t, tc)

				// Discard the in-flight result if the caller went away
				// while the tool was running.
				if err := ctx.Err(); err != nil {
					ch <- StreamEvent{Type: StreamEventError, Err: err}
					return
				}

				ch <- StreamEvent{Type: StreamEventToolEnd, ToolCall: &rec}
				records = append(records, rec)
			}
			allToolCalls = append(allToolCalls, records...)

			appendToolResults(conv, records)
		}

		ch <- StreamEvent{Type: StreamEventError, Err: ErrMaxTurnsReached}
	}()

	return ch, nil
}
