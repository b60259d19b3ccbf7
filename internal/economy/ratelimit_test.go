package economy

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"coinheist/internal/storage"
)

const limitDay = "2026-08-31"

func checkLimits(t *testing.T, store *storage.Store, actorID, targetID int64) (*Budget, error) {
	t.Helper()
	var budget *Budget
	var checkErr error
	err := store.RunTx(context.Background(), func(tx *sql.Tx) error {
		budget, checkErr = RateLimiter{}.CheckAndReserve(tx, actorID, targetID, limitDay)
		return nil
	})
	if err != nil {
		t.Fatalf("RunTx failed: %v", err)
	}
	return budget, checkErr
}

func TestRateLimiterFreshPair(t *testing.T) {
	_, store, _, _ := newTestEngine(t)

	budget, err := checkLimits(t, store, 1, 2)
	if err != nil {
		t.Fatalf("CheckAndReserve failed: %v", err)
	}
	if budget.Attempts != 0 || budget.Stolen != 0 || budget.Remaining != MaxStolenPerDay {
		t.Errorf("Unexpected fresh budget: %+v", budget)
	}
}

func TestRateLimiterCommitAccumulates(t *testing.T) {
	_, store, _, _ := newTestEngine(t)

	for i, stolen := range []int64{3, 0, 4} {
		err := store.RunTx(context.Background(), func(tx *sql.Tx) error {
			return RateLimiter{}.Commit(tx, 1, 2, limitDay, stolen)
		})
		if err != nil {
			t.Fatalf("Commit %d failed: %v", i, err)
		}
	}

	budget, err := checkLimits(t, store, 1, 2)
	if err != nil {
		t.Fatalf("CheckAndReserve failed: %v", err)
	}
	if budget.Attempts != 3 || budget.Stolen != 7 || budget.Remaining != 3 {
		t.Errorf("Unexpected budget after commits: %+v", budget)
	}
}

func TestRateLimiterAttemptCap(t *testing.T) {
	_, store, _, _ := newTestEngine(t)
	setDailyStats(t, store, 1, 2, limitDay, MaxAttemptsPerDay, 0)

	_, err := checkLimits(t, store, 1, 2)
	var rl *RateLimitedError
	if !errors.As(err, &rl) || rl.Reason != AttemptsExceeded {
		t.Fatalf("Expected AttemptsExceeded, got %v", err)
	}
}

func TestRateLimiterAmountCap(t *testing.T) {
	_, store, _, _ := newTestEngine(t)
	setDailyStats(t, store, 1, 2, limitDay, 1, MaxStolenPerDay)

	_, err := checkLimits(t, store, 1, 2)
	var rl *RateLimitedError
	if !errors.As(err, &rl) || rl.Reason != AmountExceeded {
		t.Fatalf("Expected AmountExceeded, got %v", err)
	}
}

func TestRateLimiterPairsAreIndependent(t *testing.T) {
	_, store, _, _ := newTestEngine(t)
	setDailyStats(t, store, 1, 2, limitDay, MaxAttemptsPerDay, MaxStolenPerDay)

	// A different target, and the reverse direction, have fresh budgets.
	if _, err := checkLimits(t, store, 1, 3); err != nil {
		t.Errorf("Expected fresh budget for a new target, got %v", err)
	}
	if _, err := checkLimits(t, store, 2, 1); err != nil {
		t.Errorf("Expected fresh budget for the reverse pair, got %v", err)
	}
}
