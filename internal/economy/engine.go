package economy

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"coinheist/internal/storage"
)

// Engine is the economy transaction engine. All collaborators are injected;
// the engine keeps no mutable state of its own.
type Engine struct {
	store    *storage.Store
	settle   *Coordinator
	ledger   Ledger
	inv      Inventory
	limits   RateLimiter
	clock    Clock
	rng      Rand
	notifier Notifier
	log      *zap.Logger
}

// New creates an engine. Nil clock, rng, notifier and log fall back to
// production defaults.
func New(store *storage.Store, clock Clock, rng Rand, notifier Notifier, log *zap.Logger) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	if rng == nil {
		rng = NewRand()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		store:    store,
		settle:   NewCoordinator(store, log),
		clock:    clock,
		rng:      rng,
		notifier: notifier,
		log:      log,
	}
}

// SetNotifier swaps the outbound notifier. Used at startup when the notifier
// needs a handle on the bot, which in turn needs the engine. Must be called
// before the engine starts serving.
func (e *Engine) SetNotifier(n Notifier) {
	if n == nil {
		n = NopNotifier{}
	}
	e.notifier = n
}

// AdminAdjust credits or debits a balance through the settlement path so it
// serializes with in-flight thefts and bets against the same account. Returns
// the balance after the adjustment.
func (e *Engine) AdminAdjust(ctx context.Context, userID, delta int64) (int64, error) {
	var balance int64
	err := e.settle.Run(ctx, func(tx *sql.Tx) error {
		if err := e.ledger.Adjust(tx, userID, delta); err != nil {
			return err
		}
		var err error
		balance, err = e.ledger.Balance(tx, userID)
		return err
	})
	if err != nil {
		return 0, err
	}
	e.log.Info("balance adjusted",
		zap.Int64("user_id", userID),
		zap.Int64("delta", delta),
		zap.Int64("balance", balance))
	return balance, nil
}

// Profile returns the user's account, or ErrNotFound.
func (e *Engine) Profile(ctx context.Context, userID int64) (*storage.User, error) {
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// InventoryOf returns the user's inventory joined with item names.
func (e *Engine) InventoryOf(ctx context.Context, userID int64) ([]storage.InventoryItem, error) {
	rows, err := e.store.DB().QueryContext(ctx, `
		SELECT i.item_id, s.name, s.kind, i.quantity, i.uses_left
		FROM inventory i
		JOIN shop_items s ON i.item_id = s.id
		WHERE i.user_id = ?
		ORDER BY i.item_id
	`, userID)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	defer rows.Close()

	var items []storage.InventoryItem
	for rows.Next() {
		var it storage.InventoryItem
		if err := rows.Scan(&it.ItemID, &it.Name, &it.Kind, &it.Quantity, &it.UsesLeft); err != nil {
			return nil, &PersistenceError{Err: err}
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Err: err}
	}
	return items, nil
}
