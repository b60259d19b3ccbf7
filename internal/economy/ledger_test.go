package economy

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func TestLedgerAdjust(t *testing.T) {
	_, store, _, _ := newTestEngine(t)
	makeUser(t, store, 1, "payer", 20)

	err := store.RunTx(context.Background(), func(tx *sql.Tx) error {
		var ledger Ledger
		if err := ledger.Adjust(tx, 1, 30); err != nil {
			t.Errorf("Credit failed: %v", err)
		}
		if err := ledger.Adjust(tx, 1, -50); err != nil {
			t.Errorf("Full debit failed: %v", err)
		}
		balance, err := ledger.Balance(tx, 1)
		if err != nil {
			t.Errorf("Balance failed: %v", err)
		}
		if balance != 0 {
			t.Errorf("Expected balance 0, got %d", balance)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunTx failed: %v", err)
	}
}

func TestLedgerOverdraftDenied(t *testing.T) {
	_, store, _, _ := newTestEngine(t)
	makeUser(t, store, 1, "payer", 20)

	err := store.RunTx(context.Background(), func(tx *sql.Tx) error {
		return Ledger{}.Adjust(tx, 1, -21)
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	if got := balanceOf(t, store, 1); got != 20 {
		t.Errorf("Expected balance untouched, got %d", got)
	}
}

func TestLedgerUnknownUser(t *testing.T) {
	_, store, _, _ := newTestEngine(t)

	err := store.RunTx(context.Background(), func(tx *sql.Tx) error {
		return Ledger{}.Adjust(tx, 999, 10)
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on credit, got %v", err)
	}

	err = store.RunTx(context.Background(), func(tx *sql.Tx) error {
		return Ledger{}.Adjust(tx, 999, -10)
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on debit, got %v", err)
	}
}

func TestLedgerTransfer(t *testing.T) {
	_, store, _, _ := newTestEngine(t)
	makeUser(t, store, 1, "from", 30)
	makeUser(t, store, 2, "to", 0)

	err := store.RunTx(context.Background(), func(tx *sql.Tx) error {
		return Ledger{}.Transfer(tx, 1, 2, 12)
	})
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if got := balanceOf(t, store, 1); got != 18 {
		t.Errorf("Expected sender balance 18, got %d", got)
	}
	if got := balanceOf(t, store, 2); got != 12 {
		t.Errorf("Expected receiver balance 12, got %d", got)
	}

	err = store.RunTx(context.Background(), func(tx *sql.Tx) error {
		return Ledger{}.Transfer(tx, 1, 2, 0)
	})
	if err == nil {
		t.Fatal("Expected non-positive transfer to fail")
	}
}

func TestLedgerTransferInsufficientLeavesNoPartialState(t *testing.T) {
	_, store, _, _ := newTestEngine(t)
	makeUser(t, store, 1, "from", 5)
	makeUser(t, store, 2, "to", 0)

	err := store.RunTx(context.Background(), func(tx *sql.Tx) error {
		return Ledger{}.Transfer(tx, 1, 2, 10)
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	if got := balanceOf(t, store, 1); got != 5 {
		t.Errorf("Expected sender balance untouched, got %d", got)
	}
	if got := balanceOf(t, store, 2); got != 0 {
		t.Errorf("Expected receiver balance untouched, got %d", got)
	}
}
