package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hivelabs/campaignd/internal/scheduler"
	"github.com/hivelabs/campaignd/internal/tool"
)

type scheduleArgs struct {
	SegmentID    string `json:"segment_id"`
	EventName    string `json:"event_name"`
	AudienceSize int    `json:"audience_size"`
	SendAt       string `json:"send_at"`
}

// ScheduleTool persists a campaign for delivery at the requested time.
// The send time is normalized to UTC but never validated against the
// clock: promoters sometimes backfill campaigns, so past-dated send_at
// values are accepted (the dispatcher picks them up on its next tick).
type ScheduleTool struct {
	store *scheduler.Store
}

// NewScheduleTool creates the schedule_campaign tool.
func NewScheduleTool(store *scheduler.Store) *ScheduleTool {
	return &ScheduleTool{store: store}
}

var _ tool.Tool = (*ScheduleTool)(nil)

// Name implements tool.Tool.
func (t *ScheduleTool) Name() string { return "schedule_campaign" }

// Description implements tool.Tool.
func (t *ScheduleTool) Description() string {
	return "Schedule a campaign to be delivered to a fan segment. " +
		"Use this when the user has reviewed the campaign draft and confirmed they want to send it. " +
		"The send_at time should be ISO 8601 format. Returns a campaign_id and confirmation."
}

// Schema implements tool.Tool.
func (t *ScheduleTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"segment_id": {
				"type": "string",
				"description": "The segment ID returned by query_audience"
			},
			"event_name": {
				"type": "string",
				"description": "Name of the event being promoted"
			},
			"audience_size": {
				"type": "integer",
				"description": "Number of fans in the segment"
			},
			"send_at": {
				"type": "string",
				"description": "Delivery time in ISO 8601 (e.g. \"2026-09-14T10:00:00\")"
			}
		},
		"required": ["segment_id", "event_name", "audience_size", "send_at"]
	}`)
}

// Phase implements tool.Tool.
func (t *ScheduleTool) Phase() tool.Phase { return tool.PhaseScheduling }

// ResultKind implements tool.Tool.
func (t *ScheduleTool) ResultKind() tool.ResultKind { return tool.KindScheduled }

// Execute implements tool.Tool.
func (t *ScheduleTool) Execute(ctx context.Context, args json.RawMessage) (tool.Output, error) {
	var in scheduleArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return tool.Output{}, fmt.Errorf("schedule_campaign: decode arguments: %w", err)
	}

	campaign := scheduler.Campaign{
		CampaignID:   scheduler.NewCampaignID(),
		SegmentID:    in.SegmentID,
		EventName:    in.EventName,
		AudienceSize: in.AudienceSize,
		SendAt:       scheduler.NormalizeSendAt(in.SendAt),
		Status:       scheduler.StatusScheduled,
	}
	if err := t.store.Insert(ctx, campaign); err != nil {
		return tool.Output{}, fmt.Errorf("schedule_campaign: %w", err)
	}

	content, err := json.Marshal(campaign)
	if err != nil {
		return tool.Output{}, fmt.Errorf("schedule_campaign: encode campaign: %w", err)
	}

	return tool.Output{Content: string(content), Data: campaign}, nil
}
