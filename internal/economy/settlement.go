package economy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"coinheist/internal/storage"
)

// Retry policy for write conflicts. One resolution never holds a transaction
// longer than its own read-decide-write sequence.
const (
	maxCommitRetries = 3
	commitBackoff    = 25 * time.Millisecond
)

// Intent is one mutation a resolver wants applied. A settlement is a list of
// intents committed all-or-nothing.
type Intent interface {
	apply(tx *sql.Tx) error
}

type creditIntent struct {
	UserID int64
	Amount int64
}

func (in creditIntent) apply(tx *sql.Tx) error {
	return Ledger{}.Adjust(tx, in.UserID, in.Amount)
}

type debitIntent struct {
	UserID int64
	Amount int64
}

func (in debitIntent) apply(tx *sql.Tx) error {
	return Ledger{}.Adjust(tx, in.UserID, -in.Amount)
}

type transferIntent struct {
	From   int64
	To     int64
	Amount int64
}

func (in transferIntent) apply(tx *sql.Tx) error {
	return Ledger{}.Transfer(tx, in.From, in.To, in.Amount)
}

type consumeIntent struct {
	UserID   int64
	ItemID   int64
	Quantity int64
	Uses     int64
}

func (in consumeIntent) apply(tx *sql.Tx) error {
	return Inventory{}.Consume(tx, in.UserID, in.ItemID, in.Quantity, in.Uses)
}

type grantIntent struct {
	UserID   int64
	ItemID   int64
	Quantity int64
	Charges  int64
}

func (in grantIntent) apply(tx *sql.Tx) error {
	return Inventory{}.Acquire(tx, in.UserID, in.ItemID, in.Quantity, in.Charges)
}

type rateCommitIntent struct {
	ActorID  int64
	TargetID int64
	Day      string
	Stolen   int64
}

func (in rateCommitIntent) apply(tx *sql.Tx) error {
	return RateLimiter{}.Commit(tx, in.ActorID, in.TargetID, in.Day, in.Stolen)
}

// statsIntent bumps the lifetime theft counters on a user row.
type statsIntent struct {
	UserID    int64
	Attempts  int64
	Success   int64
	Failed    int64
	Protected int64
}

func (in statsIntent) apply(tx *sql.Tx) error {
	_, err := tx.Exec(`
		UPDATE users SET
			theft_attempts = theft_attempts + ?,
			theft_success = theft_success + ?,
			theft_failed = theft_failed + ?,
			theft_protected = theft_protected + ?
		WHERE user_id = ?
	`, in.Attempts, in.Success, in.Failed, in.Protected, in.UserID)
	if err != nil {
		return fmt.Errorf("failed to update theft stats: %w", err)
	}
	return nil
}

type historyIntent struct {
	VictimID int64
	RobberID int64
	Amount   int64
	At       time.Time
}

func (in historyIntent) apply(tx *sql.Tx) error {
	_, err := tx.Exec(`
		INSERT INTO theft_history (victim_id, robber_id, amount, stolen_at)
		VALUES (?, ?, ?, ?)
	`, in.VictimID, in.RobberID, in.Amount, in.At)
	if err != nil {
		return fmt.Errorf("failed to append theft history: %w", err)
	}
	return nil
}

type purchaseRecordIntent struct {
	UserID int64
	ItemID int64
	At     time.Time
}

func (in purchaseRecordIntent) apply(tx *sql.Tx) error {
	_, err := tx.Exec(`
		INSERT INTO purchases (user_id, item_id, purchased_at)
		VALUES (?, ?, ?)
	`, in.UserID, in.ItemID, in.At)
	if err != nil {
		return fmt.Errorf("failed to record purchase: %w", err)
	}
	return nil
}

type stockDecrementIntent struct {
	ItemID int64
}

func (in stockDecrementIntent) apply(tx *sql.Tx) error {
	// Guarded so concurrent purchases of the last unit conflict instead of
	// driving stock negative.
	res, err := tx.Exec(`
		UPDATE shop_items SET stock = stock - 1
		WHERE id = ? AND stock > 0
	`, in.ItemID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOutOfStock
	}
	return nil
}

type promoUseIntent struct {
	Code string
}

func (in promoUseIntent) apply(tx *sql.Tx) error {
	res, err := tx.Exec(`
		UPDATE promocodes SET used_count = used_count + 1
		WHERE code = ? AND used_count < max_uses
	`, in.Code)
	if err != nil {
		return fmt.Errorf("failed to count promo use: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPromoExhausted
	}
	return nil
}

type bonusStampIntent struct {
	UserID int64
	At     time.Time
}

func (in bonusStampIntent) apply(tx *sql.Tx) error {
	_, err := tx.Exec(`UPDATE users SET last_bonus = ? WHERE user_id = ?`, in.At, in.UserID)
	if err != nil {
		return fmt.Errorf("failed to stamp bonus: %w", err)
	}
	return nil
}

func applyIntents(tx *sql.Tx, intents []Intent) error {
	for _, in := range intents {
		if err := in.apply(tx); err != nil {
			return err
		}
	}
	return nil
}

// Coordinator commits a resolution as one atomic unit: fn reads its snapshot,
// decides, and applies intents inside a single serializable transaction.
// Write conflicts are retried with backoff; domain denials pass through
// unchanged; anything else is a PersistenceError.
type Coordinator struct {
	store *storage.Store
	log   *zap.Logger
}

// NewCoordinator creates a settlement coordinator.
func NewCoordinator(store *storage.Store, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{store: store, log: log}
}

// Run executes fn transactionally with bounded retry on conflict.
func (c *Coordinator) Run(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxCommitRetries; attempt++ {
		if attempt > 0 {
			c.log.Debug("settlement retry",
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * commitBackoff):
			}
		}

		err := c.store.RunTx(ctx, fn)
		if err == nil {
			return nil
		}
		if isDomainError(err) {
			return err
		}
		if isRetryable(err) {
			lastErr = err
			continue
		}
		return &PersistenceError{Err: err}
	}
	return fmt.Errorf("%w: retries exhausted: %v", ErrConflict, lastErr)
}

// isDomainError reports whether err is a denial decided by game rules rather
// than a storage problem.
func isDomainError(err error) bool {
	for _, sentinel := range []error{
		ErrInvalidTarget,
		ErrInsufficientFunds,
		ErrMissingTool,
		ErrNothingToSteal,
		ErrInvalidBet,
		ErrNotFound,
		ErrOutOfStock,
		ErrPromoExhausted,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return true
	}
	var bc *BonusCooldownError
	return errors.As(err, &bc)
}

// isRetryable reports whether err is a transient write conflict.
func isRetryable(err error) bool {
	if errors.Is(err, ErrConflict) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
