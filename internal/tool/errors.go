package tool

import "errors"

// Sentinel errors for registry operations.
var (
	// ErrToolNotFound is returned when the model requests a tool name
	// absent from the registry. This reflects a model hallucination, not
	// a programming bug, and is surfaced as a request-level error.
	ErrToolNotFound = errors.New("tool not found")

	// ErrDuplicateTool is returned when registering a name twice.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrEmptyToolName is returned when registering a tool with no name.
	ErrEmptyToolName = errors.New("tool name must not be empty")

	// ErrInvalidArgs is returned when arguments fail schema validation.
	ErrInvalidArgs = errors.New("invalid tool arguments")
)
