package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hivelabs/campaignd/internal/provider"
	"github.com/hivelabs/campaignd/internal/tool"
)

// maxSMSRunes is the length cap for SMS copy.
const maxSMSRunes = 155

// Draft is the structured campaign copy a CopyTool produces.
type Draft struct {
	Email EmailCopy `json:"email"`
	SMS   SMSCopy   `json:"sms"`
}

// EmailCopy is the email half of a campaign draft.
type EmailCopy struct {
	Subject     string `json:"subject"`
	PreviewText string `json:"preview_text"`
	Body        string `json:"body"`
}

// SMSCopy is the SMS half of a campaign draft.
type SMSCopy struct {
	Body string `json:"body"`
}

type copyArgs struct {
	AudienceDescription string `json:"audience_description"`
	EventName           string `json:"event_name"`
	EventDate           string `json:"event_date"`
	Tone                string `json:"tone"`
}

// jsonObjectRe finds the outermost JSON object in model output, tolerating
// prose or markdown fences around it.
var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// CopyTool generates email and SMS campaign copy by calling a writing model.
// When the model's output cannot be parsed into the expected structure, the
// tool degrades to templated copy rather than failing: a draft always comes
// back.
type CopyTool struct {
	provider provider.Provider
}

// NewCopyTool creates the generate_campaign_copy tool backed by the given
// provider (typically a smaller, cheaper model than the agent's).
func NewCopyTool(p provider.Provider) *CopyTool {
	return &CopyTool{provider: p}
}

var _ tool.Tool = (*CopyTool)(nil)

// Name implements tool.Tool.
func (t *CopyTool) Name() string { return "generate_campaign_copy" }

// Description implements tool.Tool.
func (t *CopyTool) Description() string {
	return "Generate personalized email and SMS campaign copy for an event. " +
		"Use this after query_audience returns results and the user wants to create a campaign. " +
		"Returns structured email (subject, preview_text, body) and sms (body) copy."
}

// Schema implements tool.Tool.
func (t *CopyTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"audience_description": {
				"type": "string",
				"description": "Who this audience is (e.g. \"jazz fans who haven't bought in 3 months\")"
			},
			"event_name": {
				"type": "string",
				"description": "The name of the event to promote"
			},
			"event_date": {
				"type": "string",
				"description": "The event date (e.g. \"April 15, 2026\")"
			},
			"tone": {
				"type": "string",
				"enum": ["enthusiastic", "exclusive", "casual"],
				"description": "Writing tone"
			}
		},
		"required": ["audience_description", "event_name", "event_date"]
	}`)
}

// Phase implements tool.Tool.
func (t *CopyTool) Phase() tool.Phase { return tool.PhaseCopyWriting }

// ResultKind implements tool.Tool.
func (t *CopyTool) ResultKind() tool.ResultKind { return tool.KindDraft }

// Execute implements tool.Tool.
func (t *CopyTool) Execute(ctx context.Context, args json.RawMessage) (tool.Output, error) {
	var in copyArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return tool.Output{}, fmt.Errorf("generate_campaign_copy: decode arguments: %w", err)
	}
	if in.Tone == "" {
		in.Tone = "enthusiastic"
	}

	resp, err := t.provider.Complete(ctx, provider.CompletionRequest{
		Messages: []provider.LLMMessage{{
			Role:    provider.MessageRoleUser,
			Content: buildCopyPrompt(in),
		}},
	})
	if err != nil {
		return tool.Output{}, fmt.Errorf("generate_campaign_copy: %w", err)
	}

	draft := parseDraft(resp.Content, in)
	draft.SMS.Body = clampSMS(draft.SMS.Body)

	content, err := json.Marshal(draft)
	if err != nil {
		return tool.Output{}, fmt.Errorf("generate_campaign_copy: encode draft: %w", err)
	}

	return tool.Output{Content: string(content), Data: draft}, nil
}

func buildCopyPrompt(in copyArgs) string {
	return fmt.Sprintf(`Generate email and SMS marketing copy for an event.

Audience: %s
Event: %s
Date: %s
Tone: %s

Return ONLY valid JSON with this exact structure (no markdown fences, no explanation):
{
  "email": {
    "subject": "...",
    "preview_text": "...",
    "body": "..."
  },
  "sms": {
    "body": "..."
  }
}

Guidelines:
- Subject: compelling, personalized, under 50 characters
- Preview text: 1 sentence that complements the subject
- Email body: 3 short paragraphs — personal greeting, event highlight, clear CTA. Plain text.
- SMS: under 155 characters, punchy, includes a CTA verb (Get, Grab, Join, etc.)`,
		in.AudienceDescription, in.EventName, in.EventDate, in.Tone)
}

// parseDraft extracts the structured draft from model output, falling back
// to templated copy when no usable JSON is found.
func parseDraft(text string, in copyArgs) Draft {
	text = strings.TrimSpace(text)
	if match := jsonObjectRe.FindString(text); match != "" {
		var draft Draft
		if err := json.Unmarshal([]byte(match), &draft); err == nil && draft.Email.Subject != "" {
			return draft
		}
	}
	return fallbackDraft(text, in)
}

// fallbackDraft builds templated copy around whatever text the model
// produced.
func fallbackDraft(text string, in copyArgs) Draft {
	return Draft{
		Email: EmailCopy{
			Subject:     "You're invited: " + in.EventName,
			PreviewText: fmt.Sprintf("Don't miss %s on %s", in.EventName, in.EventDate),
			Body:        text,
		},
		SMS: SMSCopy{
			Body: fmt.Sprintf("%s — %s. Get your tickets now!", in.EventName, in.EventDate),
		},
	}
}

// clampSMS trims SMS copy to the length cap, preserving the trailing CTA
// when one is present.
func clampSMS(body string) string {
	runes := []rune(body)
	if len(runes) <= maxSMSRunes {
		return body
	}

	const cta = ". Get your tickets now!"
	if strings.HasSuffix(body, cta) {
		head := runes[:maxSMSRunes-len([]rune(cta))]
		return strings.TrimRight(string(head), " .,—-") + cta
	}
	return string(runes[:maxSMSRunes])
}
