package economy

import (
	"context"
	"errors"
	"testing"
	"time"

	"coinheist/internal/storage"
)

func insertTheftRecord(t *testing.T, store *storage.Store, victimID, robberID, amount int64, at time.Time) {
	t.Helper()
	_, err := store.DB().Exec(`
		INSERT INTO theft_history (victim_id, robber_id, amount, stolen_at)
		VALUES (?, ?, ?, ?)
	`, victimID, robberID, amount, at)
	if err != nil {
		t.Fatalf("Failed to insert theft record: %v", err)
	}
}

func TestDetectiveWithoutItem(t *testing.T) {
	engine, store, _, _ := newTestEngine(t)
	makeUser(t, store, 1, "victim", 0)

	if _, err := engine.UseDetective(context.Background(), 1); !errors.Is(err, ErrMissingTool) {
		t.Fatalf("Expected ErrMissingTool, got %v", err)
	}
}

func TestDetectiveNoHistoryKeepsCharge(t *testing.T) {
	engine, store, _, _ := newTestEngine(t)
	makeUser(t, store, 1, "victim", 0)
	detective := itemByKind(t, store, storage.KindDetective)
	grantItem(t, store, 1, detective.ID, 0, 1)

	record, err := engine.UseDetective(context.Background(), 1)
	if err != nil {
		t.Fatalf("UseDetective failed: %v", err)
	}
	if record != nil {
		t.Fatalf("Expected no record, got %+v", record)
	}
	if _, uses, exists := inventoryOf(t, store, 1, detective.ID); !exists || uses != 1 {
		t.Errorf("Expected charge kept when nothing was found, got exists=%v uses=%d", exists, uses)
	}
}

func TestDetectiveRevealsLatestThief(t *testing.T) {
	engine, store, clock, _ := newTestEngine(t)
	makeUser(t, store, 1, "victim", 0)
	detective := itemByKind(t, store, storage.KindDetective)
	grantItem(t, store, 1, detective.ID, 0, 1)

	insertTheftRecord(t, store, 1, 7, 3, clock.now.Add(-2*time.Hour))
	insertTheftRecord(t, store, 1, 8, 5, clock.now.Add(-time.Hour))
	insertTheftRecord(t, store, 2, 9, 4, clock.now) // someone else's robbery

	record, err := engine.UseDetective(context.Background(), 1)
	if err != nil {
		t.Fatalf("UseDetective failed: %v", err)
	}
	if record == nil {
		t.Fatal("Expected a record")
	}
	if record.RobberID != 8 || record.Amount != 5 {
		t.Errorf("Expected the latest thief (8, 5), got (%d, %d)", record.RobberID, record.Amount)
	}

	// The charge was spent; a second investigation needs a new detective.
	if _, _, exists := inventoryOf(t, store, 1, detective.ID); exists {
		t.Error("Expected detective charge to be consumed")
	}
	if _, err := engine.UseDetective(context.Background(), 1); !errors.Is(err, ErrMissingTool) {
		t.Fatalf("Expected ErrMissingTool after the charge is gone, got %v", err)
	}
}
