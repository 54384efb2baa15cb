// Package provider defines the interface and wire types for communicating
// with an LLM. Concrete implementations live in subpackages
// (e.g. provider/anthropic).
package provider

import "context"

// Role describes the purpose a provider serves in the system.
type Role string

// Role constants for provider configuration.
const (
	// RolePrimary drives the agent reasoning loop.
	RolePrimary Role = "primary"

	// RoleCopywriter serves the campaign copy generation tool.
	RoleCopywriter Role = "copywriter"
)

// Provider is the interface for communicating with an LLM.
type Provider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// Stream sends a completion request and returns a channel of chunks.
	// Initial connection errors are returned directly. Mid-stream errors
	// are delivered via StreamChunk.Err.
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)

	// ModelName returns the identifier of the underlying model.
	ModelName() string
}
