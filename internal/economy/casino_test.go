package economy

import (
	"context"
	"errors"
	"testing"
)

func TestPlaceBetWin(t *testing.T) {
	engine, store, _, rng := newTestEngine(t)
	makeUser(t, store, 1, "gambler", 100)
	rng.floats = []float64{0.29}

	outcome, err := engine.PlaceBet(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if !outcome.Won {
		t.Fatal("Expected a win")
	}
	if outcome.Payout != 20 {
		t.Errorf("Expected payout 20, got %d", outcome.Payout)
	}
	if outcome.Balance != 110 {
		t.Errorf("Expected balance 110, got %d", outcome.Balance)
	}
	if got := balanceOf(t, store, 1); got != 110 {
		t.Errorf("Expected stored balance 110, got %d", got)
	}
}

func TestPlaceBetLoss(t *testing.T) {
	engine, store, _, rng := newTestEngine(t)
	makeUser(t, store, 1, "gambler", 100)
	rng.floats = []float64{0.30}

	outcome, err := engine.PlaceBet(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if outcome.Won {
		t.Fatal("Expected a loss at the threshold draw")
	}
	if outcome.Payout != 0 {
		t.Errorf("Expected no payout, got %d", outcome.Payout)
	}
	if got := balanceOf(t, store, 1); got != 90 {
		t.Errorf("Expected stored balance 90, got %d", got)
	}
}

func TestPlaceBetOverBalance(t *testing.T) {
	engine, store, _, _ := newTestEngine(t)
	makeUser(t, store, 1, "gambler", 5)

	_, err := engine.PlaceBet(context.Background(), 1, 10)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	if got := balanceOf(t, store, 1); got != 5 {
		t.Errorf("Expected balance untouched, got %d", got)
	}
}

func TestPlaceBetInvalidAmount(t *testing.T) {
	engine, store, _, _ := newTestEngine(t)
	makeUser(t, store, 1, "gambler", 100)

	for _, amount := range []int64{0, -7} {
		if _, err := engine.PlaceBet(context.Background(), 1, amount); !errors.Is(err, ErrInvalidBet) {
			t.Errorf("Expected ErrInvalidBet for %d, got %v", amount, err)
		}
	}
}
