package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"coinheist/internal/storage"
)

func setupHandler(t *testing.T) (*Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store, nil), store
}

func TestHealth(t *testing.T) {
	h, store := setupHandler(t)
	if _, err := store.EnsureUser(context.Background(), 1, "u", "u"); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Users != 1 {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestHealthMethodNotAllowed(t *testing.T) {
	h, _ := setupHandler(t)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodPost, "/api/health", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Expected 405, got %d", rec.Code)
	}
}

func TestLeaderboard(t *testing.T) {
	h, store := setupHandler(t)
	ctx := context.Background()

	for _, row := range []struct {
		id      int64
		name    string
		balance int64
	}{{1, "rich", 100}, {2, "", 50}} {
		if _, err := store.EnsureUser(ctx, row.id, row.name, "First"+row.name); err != nil {
			t.Fatalf("EnsureUser failed: %v", err)
		}
		if _, err := store.DB().Exec(`UPDATE users SET balance = ? WHERE user_id = ?`, row.balance, row.id); err != nil {
			t.Fatalf("Failed to set balance: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	h.Leaderboard(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var entries []LeaderboardEntry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Rank != 1 || entries[0].Username != "rich" || entries[0].Balance != 100 {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	// A user without a username falls back to their first name.
	if entries[1].Username != "First" {
		t.Errorf("Expected first-name fallback, got %q", entries[1].Username)
	}
}
