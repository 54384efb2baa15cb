// Package tools implements the campaign agent's domain tools: audience
// segmentation against the CRM, campaign copy generation, and campaign
// scheduling.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hivelabs/campaignd/internal/crm"
	"github.com/hivelabs/campaignd/internal/tool"
)

// AudienceTool queries the fan CRM for a segment matching natural-language
// derived filters.
type AudienceTool struct {
	store *crm.Store
}

// NewAudienceTool creates the query_audience tool.
func NewAudienceTool(store *crm.Store) *AudienceTool {
	return &AudienceTool{store: store}
}

var _ tool.Tool = (*AudienceTool)(nil)

// Name implements tool.Tool.
func (t *AudienceTool) Name() string { return "query_audience" }

// Description implements tool.Tool. The model reads this to decide when
// and how to call the tool.
func (t *AudienceTool) Description() string {
	return "Query the fan CRM to find a segment matching the given filters. " +
		"Use this when the user asks to find, identify, or target fans based on their " +
		"event history, purchase recency, spending, or location. " +
		"Returns count, segment_id, avg_spent, open_rate, and a preview of up to 5 fans."
}

// Schema implements tool.Tool.
func (t *AudienceTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"genres": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Filter to fans who attended events in these genres (e.g. [\"Jazz\", \"Blues\"])"
			},
			"min_months_since_purchase": {
				"type": "number",
				"description": "Fans whose last purchase was at least this many months ago"
			},
			"max_months_since_purchase": {
				"type": "number",
				"description": "Fans whose last purchase was at most this many months ago"
			},
			"min_total_spent": {
				"type": "number",
				"description": "Fans who have spent at least this amount in USD"
			},
			"city": {
				"type": "string",
				"description": "Filter to fans in this city (case-insensitive, partial match)"
			}
		}
	}`)
}

// Phase implements tool.Tool.
func (t *AudienceTool) Phase() tool.Phase { return tool.PhaseAudienceResearch }

// ResultKind implements tool.Tool.
func (t *AudienceTool) ResultKind() tool.ResultKind { return tool.KindAudience }

// Execute implements tool.Tool.
func (t *AudienceTool) Execute(ctx context.Context, args json.RawMessage) (tool.Output, error) {
	var filter crm.Filter
	if err := json.Unmarshal(args, &filter); err != nil {
		return tool.Output{}, fmt.Errorf("query_audience: decode arguments: %w", err)
	}

	segment, err := t.store.FilterFans(ctx, filter)
	if err != nil {
		return tool.Output{}, fmt.Errorf("query_audience: %w", err)
	}

	content, err := json.Marshal(segment)
	if err != nil {
		return tool.Output{}, fmt.Errorf("query_audience: encode segment: %w", err)
	}

	return tool.Output{Content: string(content), Data: segment}, nil
}
