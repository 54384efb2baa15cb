package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   g.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", g.handleHealth())
	r.Get("/api/health", g.handleHealth())
	r.Handle("/metrics", g.metrics.Handler())

	r.Post("/api/chat", g.handleChat())
	r.Get("/ws/chat", g.handleWS())

	return r
}

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string `json:"status"` // "ok" or "degraded"
	Fans   int    `json:"fans,omitempty"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 200 when the CRM answers, 503 when it does not.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok"}

		if g.fans != nil {
			n, err := g.fans.CountFans(r.Context())
			if err != nil {
				g.logger.Warn("health check: crm unreachable", "error", err)
				resp.Status = "degraded"
			}
			resp.Fans = n
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
