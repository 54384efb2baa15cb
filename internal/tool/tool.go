// Package tool defines the tool interface and registry for campaignd.
// Tools are the fixed, startup-registered capabilities the reasoning
// model may request; each declares its input schema, the pipeline phase
// it represents, and the kind of structured result it produces.
package tool

import (
	"context"
	"encoding/json"
)

// Phase is the coarse pipeline label a tool's execution surfaces to clients.
type Phase string

// Phase values for the campaign pipeline.
const (
	PhaseAudienceResearch Phase = "audience_research"
	PhaseCopyWriting      Phase = "copy_writing"
	PhaseScheduling       Phase = "scheduling"
)

// ResultKind tags the structured payload a tool produces. The event
// projector switches on this declared tag rather than duck-typing the
// payload shape.
type ResultKind string

// ResultKind values.
const (
	KindNone      ResultKind = ""
	KindAudience  ResultKind = "audience"
	KindDraft     ResultKind = "draft"
	KindScheduled ResultKind = "scheduled"
)

// Tool is the interface all campaignd tools implement.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns what the tool does, written for the model.
	Description() string

	// Schema returns a JSON Schema describing the tool's parameters.
	Schema() json.RawMessage

	// Phase returns the pipeline phase this tool's execution represents.
	Phase() Phase

	// ResultKind returns the structured result tag this tool produces.
	ResultKind() ResultKind

	// Execute runs the tool with the given arguments.
	Execute(ctx context.Context, args json.RawMessage) (Output, error)
}

// Output is the result of a tool execution.
type Output struct {
	// Content is the text fed back into the conversation for the model.
	Content string

	// Data is the structured payload for boundary projection. Nil when
	// the tool produced no recognizable structure (the phase-done event
	// still fires; the structured event is simply omitted).
	Data any

	// IsError indicates the output represents an error condition.
	IsError bool
}
