package agent

import (
	"slices"

	"github.com/hivelabs/campaignd/internal/provider"
)

// Conversation is the append-only message transcript the loop reasons over.
// Messages are never reordered or rewritten; every reasoning step submits
// the full transcript to the provider.
type Conversation struct {
	msgs []provider.LLMMessage
}

// NewConversation seeds a transcript with the system prompt (when non-empty)
// followed by the request history.
func NewConversation(systemPrompt string, history []provider.LLMMessage) *Conversation {
	c := &Conversation{}
	if systemPrompt != "" {
		c.msgs = append(c.msgs, provider.LLMMessage{
			Role:    provider.MessageRoleSystem,
			Content: systemPrompt,
		})
	}
	c.msgs = append(c.msgs, history...)
	return c
}

// Append adds messages to the end of the transcript.
func (c *Conversation) Append(msgs ...provider.LLMMessage) {
	c.msgs = append(c.msgs, msgs...)
}

// Messages returns a copy of the transcript. Callers cannot mutate the
// conversation through the returned slice.
func (c *Conversation) Messages() []provider.LLMMessage {
	return slices.Clone(c.msgs)
}

// Len reports the number of messages in the transcript.
func (c *Conversation) Len() int {
	return len(c.msgs)
}
