package economy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"coinheist/internal/storage"
)

// Twenty simultaneous thefts against one pair must settle exactly the daily
// attempt cap and deny the rest, with the two balances conserved.
func TestConcurrentTheftsRespectDailyCaps(t *testing.T) {
	engine, store, _, _ := newTestEngine(t)
	setupTheft(t, store, 1000, 1000)
	tool := itemByKind(t, store, storage.KindTool)
	grantItem(t, store, actorID, tool.ID, 0, 40)

	const workers = 20
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.ResolveTheft(context.Background(), actorID, targetID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var settled, limited int
	for err := range results {
		var rl *RateLimitedError
		switch {
		case err == nil:
			settled++
		case errors.As(err, &rl):
			limited++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if settled+limited != workers {
		t.Fatalf("Expected every call to settle or be rate limited, got %d+%d", settled, limited)
	}

	// The unseeded test RNG makes every roll a hit stealing 1 coin, so the
	// attempt cap is what stops the run.
	attempts, stolen := dailyStats(t, store, actorID, targetID, "2026-08-31")
	if attempts != MaxAttemptsPerDay {
		t.Errorf("Expected exactly %d attempts, got %d", MaxAttemptsPerDay, attempts)
	}
	if stolen > MaxStolenPerDay {
		t.Errorf("Daily amount cap exceeded: %d", stolen)
	}
	if settled != int(attempts) {
		t.Errorf("Expected %d settled thefts, got %d", attempts, settled)
	}

	actorBalance := balanceOf(t, store, actorID)
	targetBalance := balanceOf(t, store, targetID)
	if actorBalance+targetBalance != 2000 {
		t.Errorf("Balances not conserved: %d + %d", actorBalance, targetBalance)
	}
	if actorBalance != 1000+stolen || targetBalance != 1000-stolen {
		t.Errorf("Expected the stolen total moved, got actor=%d target=%d stolen=%d",
			actorBalance, targetBalance, stolen)
	}
}

// Concurrent bets larger than a fair share of the balance must never drive it
// negative: each draw loses, so only three 30-coin debits fit into 100.
func TestConcurrentBetsNeverOverdraw(t *testing.T) {
	engine, store, _, _ := newTestEngine(t)
	makeUser(t, store, 1, "gambler", 100)

	const workers = 10
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.PlaceBet(context.Background(), 1, 30)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var lost, denied int
	for err := range results {
		switch {
		case err == nil:
			lost++
		case errors.Is(err, ErrInsufficientFunds):
			denied++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if lost != 3 || denied != workers-3 {
		t.Errorf("Expected 3 losses and %d denials, got %d and %d", workers-3, lost, denied)
	}

	balance := balanceOf(t, store, 1)
	if balance < 0 {
		t.Fatalf("Balance went negative: %d", balance)
	}
	if balance != 10 {
		t.Errorf("Expected balance 10 after three lost bets, got %d", balance)
	}
}
