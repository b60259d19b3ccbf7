package economy

import (
	"database/sql"
	"fmt"
)

// Daily theft caps per (actor, target) pair.
const (
	MaxAttemptsPerDay = 4
	MaxStolenPerDay   = 10
	MaxStealAmount    = 5
)

// RateLimiter owns the daily_theft_stats counters. Check and commit both run
// inside the settlement transaction, so check-then-reserve is atomic with
// respect to concurrent attempts on the same pair.
type RateLimiter struct{}

// Budget is the allowance remaining for an (actor, target) pair today.
type Budget struct {
	Attempts  int64
	Stolen    int64
	Remaining int64 // amount budget left today
}

// CheckAndReserve reads today's counters and denies the attempt when either
// cap is reached. The counters are only advanced by Commit.
func (RateLimiter) CheckAndReserve(tx *sql.Tx, actorID, targetID int64, day string) (*Budget, error) {
	var attempts, stolen int64
	err := tx.QueryRow(`
		SELECT attempts, stolen_today FROM daily_theft_stats
		WHERE robber_id = ? AND victim_id = ? AND date = ?
	`, actorID, targetID, day).Scan(&attempts, &stolen)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read theft limits: %w", err)
	}

	if attempts >= MaxAttemptsPerDay {
		return nil, &RateLimitedError{Reason: AttemptsExceeded, Attempts: attempts, Stolen: stolen}
	}
	if stolen >= MaxStolenPerDay {
		return nil, &RateLimitedError{Reason: AmountExceeded, Attempts: attempts, Stolen: stolen}
	}
	return &Budget{Attempts: attempts, Stolen: stolen, Remaining: MaxStolenPerDay - stolen}, nil
}

// Commit records one attempt and the amount stolen for the pair, creating the
// day row when absent.
func (RateLimiter) Commit(tx *sql.Tx, actorID, targetID int64, day string, stolen int64) error {
	_, err := tx.Exec(`
		INSERT INTO daily_theft_stats (robber_id, victim_id, date, attempts, stolen_today)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(robber_id, victim_id, date) DO UPDATE SET
			attempts = attempts + 1,
			stolen_today = stolen_today + ?
	`, actorID, targetID, day, stolen, stolen)
	if err != nil {
		return fmt.Errorf("failed to commit theft limits: %w", err)
	}
	return nil
}
