package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// LeaderboardEntry is one row of the public leaderboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Balance  int64  `json:"balance"`
}

// Leaderboard handles GET /api/leaderboard. Returns the top 20 users by
// balance.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	users, err := h.store.TopUsers(r.Context(), 20)
	if err != nil {
		h.log.Error("leaderboard query failed", zap.Error(err))
		respondWithError(w, "Failed to fetch leaderboard", http.StatusInternalServerError)
		return
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		name := u.Username
		if name == "" {
			name = u.FirstName
		}
		entries = append(entries, LeaderboardEntry{
			Rank:     i + 1,
			Username: name,
			Balance:  u.Balance,
		})
	}

	respondWithJSON(w, http.StatusOK, entries)
}
