package economy

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"coinheist/internal/storage"
)

// UseDetective consumes one detective charge and reveals the most recent theft
// against the user. The charge is only spent when a record exists; with no
// history the item is kept and (nil, nil) is returned. ErrMissingTool is
// returned when the user holds no detective item.
func (e *Engine) UseDetective(ctx context.Context, userID int64) (*storage.TheftRecord, error) {
	var record *storage.TheftRecord
	err := e.settle.Run(ctx, func(tx *sql.Tx) error {
		item, err := e.inv.itemByKind(tx, storage.KindDetective)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrMissingTool
		}
		usable, err := e.inv.HasUsable(tx, userID, item.ID, 1)
		if err != nil {
			return err
		}
		if !usable {
			return ErrMissingTool
		}

		var rec storage.TheftRecord
		var at time.Time
		err = tx.QueryRow(`
			SELECT id, victim_id, robber_id, amount, stolen_at
			FROM theft_history
			WHERE victim_id = ?
			ORDER BY stolen_at DESC, id DESC
			LIMIT 1
		`, userID).Scan(&rec.ID, &rec.VictimID, &rec.RobberID, &rec.Amount, &at)
		if err == sql.ErrNoRows {
			record = nil
			return nil
		}
		if err != nil {
			return err
		}
		rec.StolenAt = at
		record = &rec

		return applyIntents(tx, []Intent{
			consumeIntent{UserID: userID, ItemID: item.ID, Uses: 1},
		})
	})
	if err != nil {
		return nil, err
	}

	if record != nil {
		e.log.Info("detective used",
			zap.Int64("user_id", userID),
			zap.Int64("robber_id", record.RobberID))
	}
	return record, nil
}
