package handlers

import (
	"net/http"
)

// HealthResponse is the response for the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Users  int64  `json:"users"`
}

// Health handles GET /api/health. It pings the database by counting users so
// a stuck store shows up as a failed check.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := h.store.CountUsers(r.Context())
	if err != nil {
		respondWithError(w, "Database unavailable", http.StatusServiceUnavailable)
		return
	}

	respondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok", Users: count})
}
