package gateway

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/hivelabs/campaignd/internal/provider"
)

// ChatMessage is one prior turn of the conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// handleChat serves POST /api/chat: it runs the agent loop over the given
// history and streams boundary events as Server-Sent Events, one
// `data: {json}` frame per event, flushed immediately.
func (g *Gateway) handleChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.metrics.ChatRequests.Inc()

		if err := g.limiter.Allow(clientKey(r)); err != nil {
			g.metrics.RateLimited.Inc()
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		msgs, err := toProviderMessages(req.Messages)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		events, err := g.streamEvents(r.Context(), msgs)
		if err != nil {
			g.logger.Error("start agent stream", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		// Disable nginx buffering so events reach the client as emitted.
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		g.metrics.ActiveStreams.Inc()
		defer g.metrics.ActiveStreams.Dec()

		for ev := range events {
			data, err := json.Marshal(ev)
			if err != nil {
				g.logger.Error("encode event", "type", ev.Type, "error", err)
				continue
			}
			g.metrics.Events.WithLabelValues(string(ev.Type)).Inc()
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				// Client went away; the projector stops via r.Context().
				return
			}
			flusher.Flush()
		}
	}
}

// toProviderMessages validates and converts the request history.
func toProviderMessages(msgs []ChatMessage) ([]provider.LLMMessage, error) {
	if len(msgs) == 0 {
		return nil, fmt.Errorf("messages must not be empty")
	}

	out := make([]provider.LLMMessage, 0, len(msgs))
	for i, m := range msgs {
		var role provider.MessageRole
		switch m.Role {
		case "user":
			role = provider.MessageRoleUser
		case "assistant":
			role = provider.MessageRoleAssistant
		default:
			return nil, fmt.Errorf("messages[%d]: role %q not one of user|assistant", i, m.Role)
		}
		if m.Content == "" {
			return nil, fmt.Errorf("messages[%d]: content must not be empty", i)
		}
		out = append(out, provider.LLMMessage{Role: role, Content: m.Content})
	}
	return out, nil
}

// clientKey identifies the caller for rate limiting.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
