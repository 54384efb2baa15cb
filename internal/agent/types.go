// Package agent implements the ReAct (Reason + Act) loop that drives one
// chat request: alternating reasoning steps and sequential tool dispatch
// until the model produces a final answer, streaming every transition as
// events for boundary projection.
package agent

import (
	"encoding/json"
	"time"

	"github.com/hivelabs/campaignd/internal/provider"
	"github.com/hivelabs/campaignd/internal/tool"
)

// StopReason describes why the agent loop terminated.
type StopReason string

// StopReason constants for agent loop termination.
const (
	StopReasonComplete     StopReason = "complete"
	StopReasonMaxTurns     StopReason = "max_turns"
	StopReasonLoopDetected StopReason = "loop_detected"
	StopReasonTokenBudget  StopReason = "token_budget"
	StopReasonTimeout      StopReason = "timeout"
	StopReasonError        StopReason = "error"
)

// ToolCallRecord tracks one tool invocation during the agent loop.
type ToolCallRecord struct {
	ID        string
	Name      string
	Arguments json.RawMessage
	Phase     tool.Phase
	Kind      tool.ResultKind
	Output    tool.Output
	Duration  time.Duration
	Panicked  bool
}

// StreamEventType identifies the kind of streaming event.
type StreamEventType string

// StreamEventType constants for streaming events.
const (
	StreamEventText      StreamEventType = "text"
	StreamEventToolStart StreamEventType = "tool_start"
	StreamEventToolEnd   StreamEventType = "tool_end"
	StreamEventUsage     StreamEventType = "usage"
	StreamEventDone      StreamEventType = "done"
	StreamEventError     StreamEventType = "error"
)

// StreamEvent is a single event emitted during a streaming agent loop.
type StreamEvent struct {
	Type     StreamEventType
	Content  string
	ToolCall *ToolCallRecord
	Usage    *provider.TokenUsage
	// Final is set on StreamEventDone with the aggregated loop response.
	Final *Response
	Err   error
}

// Request is the input to the agent loop.
type Request struct {
	Messages     []provider.LLMMessage
	SystemPrompt string
}

// Response is the output of the agent loop.
type Response struct {
	Content    string
	ToolCalls  []ToolCallRecord
	TotalUsage provider.TokenUsage
	Turns      int
	StopReason StopReason
}
