// Package event defines the boundary event stream: the typed, ordered
// events a client observes while the agent loop works on its request,
// and the Projector that derives them from loop stream events.
package event

import "github.com/hivelabs/campaignd/internal/tool"

// Type identifies the kind of boundary event.
type Type string

// Boundary event types.
const (
	TypeAgentStep      Type = "agent_step"
	TypeAudienceResult Type = "audience_result"
	TypeCampaignDraft  Type = "campaign_draft"
	TypeScheduled      Type = "scheduled"
	TypeToken          Type = "token"
	TypeError          Type = "error"
	TypeDone           Type = "done"
)

// Node is the workflow phase reported by agent_step events.
type Node string

// Workflow nodes. The tool-backed nodes mirror tool.Phase values; analyzing
// covers the reasoning steps between tool dispatches.
const (
	NodeAnalyzing        Node = "analyzing"
	NodeAudienceResearch Node = Node(tool.PhaseAudienceResearch)
	NodeCopyWriting      Node = Node(tool.PhaseCopyWriting)
	NodeScheduling       Node = Node(tool.PhaseScheduling)
)

// Status is the state of a node within an agent_step event.
type Status string

// Node statuses.
const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
)

// Event is one boundary event. Fields not used by a given type are omitted
// from the JSON encoding.
type Event struct {
	Type    Type   `json:"type"`
	Node    Node   `json:"node,omitempty"`
	Status  Status `json:"status,omitempty"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// AgentStep builds a phase-transition event.
func AgentStep(node Node, status Status) Event {
	return Event{Type: TypeAgentStep, Node: node, Status: status}
}

// Token builds an incremental reasoning-output event. Chunk boundaries are
// preserved as received.
func Token(content string) Event {
	return Event{Type: TypeToken, Content: content}
}

// Error builds a terminal error event.
func Error(message string) Event {
	return Event{Type: TypeError, Message: message}
}

// Done builds the stream-closing event.
func Done() Event {
	return Event{Type: TypeDone}
}

// Structured builds the payload event for a tool-declared result kind.
// It returns false when the kind has no corresponding boundary event.
func Structured(kind tool.ResultKind, data any) (Event, bool) {
	switch kind {
	case tool.KindAudience:
		return Event{Type: TypeAudienceResult, Data: data}, true
	case tool.KindDraft:
		return Event{Type: TypeCampaignDraft, Data: data}, true
	case tool.KindScheduled:
		return Event{Type: TypeScheduled, Data: data}, true
	default:
		return Event{}, false
	}
}
