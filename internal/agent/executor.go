package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hivelabs/campaignd/internal/provider"
	"github.com/hivelabs/campaignd/internal/tool"
)

// ToolExecutor dispatches tool calls sequentially, in the order the model
// requested them, with panic recovery. A tool failure is recorded as an
// error output so the model can react to it on the next reasoning step;
// only a call naming an unregistered tool aborts dispatch.
type ToolExecutor struct {
	registry *tool.Registry
}

// NewToolExecutor creates a ToolExecutor backed by the given registry.
func NewToolExecutor(registry *tool.Registry) *ToolExecutor {
	return &ToolExecutor{registry: registry}
}

// Execute runs the calls one at a time and returns a record per completed
// call. When a call names an unknown tool, the records of the calls that
// already ran are returned together with the lookup error.
func (e *ToolExecutor) Execute(ctx context.Context, calls []provider.ToolCall) ([]ToolCallRecord, error) {
	records := make([]ToolCallRecord, 0, len(calls))
	for _, call := range calls {
		rec, err := e.ExecuteCall(ctx, call)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ExecuteCall runs a single tool call. The returned error is non-nil only
// when the named tool is not registered; execution failures and panics are
// reported through the record's Output with IsError set.
func (e *ToolExecutor) ExecuteCall(ctx context.Context, tc provider.ToolCall) (ToolCallRecord, error) {
	t, err := e.registry.Get(tc.Name)
	if err != nil {
		return ToolCallRecord{}, err
	}
	return e.run(ctx, t, tc), nil
}

func (e *ToolExecutor) run(ctx context.Context, t tool.Tool, tc provider.ToolCall) (record ToolCallRecord) {
	record.ID = tc.ID
	record.Name = tc.Name
	record.Arguments = tc.Arguments
	record.Phase = t.Phase()
	record.Kind = t.ResultKind()

	start := time.Now()

	defer func() {
		record.Duration = time.Since(start)
		if r := recover(); r != nil {
			record.Panicked = true
			record.Output = tool.Output{
				Content: fmt.Sprintf("panic: %v", r),
				IsError: true,
			}
		}
	}()

	out, err := e.registry.Execute(ctx, tc.Name, tc.Arguments)
	if err != nil {
		record.Output = tool.Output{
			Content: err.Error(),
			IsError: true,
		}
		return record
	}

	record.Output = out
	return record
}
