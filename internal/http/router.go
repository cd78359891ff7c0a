package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dictation-turn-service/internal/app"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application, hub *Hub) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if !application.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Post("/recording/start", func(w http.ResponseWriter, _ *http.Request) {
			if err := application.StartRecording(); err != nil {
				writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, application.Status())
		})

		r.Post("/recording/stop", func(w http.ResponseWriter, _ *http.Request) {
			application.StopRecording()
			writeJSON(w, http.StatusOK, application.Status())
		})

		r.Get("/recording/status", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, application.Status())
		})

		r.Get("/turns/current", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, application.CurrentTurn())
		})

		r.Get("/turns/live", hub.handleLive)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
