package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
)

// handleWS serves GET /ws/chat: the client sends one ChatRequest as a JSON
// text message and receives the same boundary events as POST /api/chat,
// one JSON text message per event. The connection closes after done.
func (g *Gateway) handleWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.metrics.ChatRequests.Inc()

		if err := g.limiter.Allow(clientKey(r)); err != nil {
			g.metrics.RateLimited.Inc()
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			g.logger.Error("websocket accept failed", "error", err)
			return
		}
		defer func() {
			_ = conn.Close(websocket.StatusInternalError, "unexpected close")
		}()

		ctx := r.Context()

		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var req ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			_ = conn.Close(websocket.StatusUnsupportedData, "invalid request")
			return
		}

		msgs, err := toProviderMessages(req.Messages)
		if err != nil {
			_ = conn.Close(websocket.StatusUnsupportedData, err.Error())
			return
		}

		events, err := g.streamEvents(ctx, msgs)
		if err != nil {
			g.logger.Error("start agent stream", "error", err)
			_ = conn.Close(websocket.StatusInternalError, "internal error")
			return
		}

		g.metrics.ActiveStreams.Inc()
		defer g.metrics.ActiveStreams.Dec()

		for ev := range events {
			frame, err := json.Marshal(ev)
			if err != nil {
				g.logger.Error("encode event", "type", ev.Type, "error", err)
				continue
			}
			g.metrics.Events.WithLabelValues(string(ev.Type)).Inc()
			if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
				return
			}
		}

		_ = conn.Close(websocket.StatusNormalClosure, "stream complete")
	}
}
