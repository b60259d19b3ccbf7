package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"coinheist/internal/storage"
)

// Handler serves the small read-only HTTP API next to the bot.
type Handler struct {
	store *storage.Store
	log   *zap.Logger
}

// New creates the HTTP handler set.
func New(store *storage.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, log: log}
}

// Register attaches all routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/api/leaderboard", h.Leaderboard)
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	respondWithJSON(w, statusCode, map[string]string{"error": message})
}
