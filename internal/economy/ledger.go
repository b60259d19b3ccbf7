package economy

import (
	"database/sql"
	"fmt"
)

// Ledger owns the balance column. Balances are non-negative integers; every
// debit is guarded in SQL so a balance can never be observed negative, even
// transiently.
type Ledger struct{}

// Balance returns the current balance of a user.
func (Ledger) Balance(tx *sql.Tx, userID int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(`SELECT balance FROM users WHERE user_id = ?`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}

// Adjust applies delta to the user's balance. A negative delta that would
// drive the balance below zero fails with ErrInsufficientFunds.
func (l Ledger) Adjust(tx *sql.Tx, userID, delta int64) error {
	if delta >= 0 {
		res, err := tx.Exec(`UPDATE users SET balance = balance + ? WHERE user_id = ?`, delta, userID)
		if err != nil {
			return fmt.Errorf("failed to credit user %d: %w", userID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	}

	debit := -delta
	res, err := tx.Exec(`
		UPDATE users SET balance = balance - ?
		WHERE user_id = ? AND balance >= ?
	`, debit, userID, debit)
	if err != nil {
		return fmt.Errorf("failed to debit user %d: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := l.Balance(tx, userID); err != nil {
			return err
		}
		return ErrInsufficientFunds
	}
	return nil
}

// Transfer debits from and credits to as one logical operation. Amount must be
// a positive integer.
func (l Ledger) Transfer(tx *sql.Tx, from, to, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", amount)
	}
	if err := l.Adjust(tx, from, -amount); err != nil {
		return err
	}
	return l.Adjust(tx, to, amount)
}
