package economy

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Daily bonus parameters: a random credit once per 24 hours per user.
const (
	bonusMin      = 5
	bonusMax      = 15
	bonusCooldown = 24 * time.Hour
)

// BonusOutcome describes one claimed daily bonus.
type BonusOutcome struct {
	Amount  int64
	Balance int64
}

// ClaimBonus credits a random daily bonus. Claiming before the cooldown has
// elapsed fails with BonusCooldownError carrying the remaining wait.
func (e *Engine) ClaimBonus(ctx context.Context, userID int64) (*BonusOutcome, error) {
	var outcome BonusOutcome
	err := e.settle.Run(ctx, func(tx *sql.Tx) error {
		var lastBonus sql.NullTime
		err := tx.QueryRow(`SELECT last_bonus FROM users WHERE user_id = ?`, userID).Scan(&lastBonus)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read last bonus: %w", err)
		}

		now := e.clock.Now()
		if lastBonus.Valid {
			if elapsed := now.Sub(lastBonus.Time); elapsed < bonusCooldown {
				return &BonusCooldownError{RemainingSeconds: int64((bonusCooldown - elapsed).Seconds())}
			}
		}

		amount := int64(bonusMin + e.rng.Intn(bonusMax-bonusMin+1))
		balance, err := e.ledger.Balance(tx, userID)
		if err != nil {
			return err
		}
		outcome = BonusOutcome{Amount: amount, Balance: balance + amount}
		return applyIntents(tx, []Intent{
			creditIntent{UserID: userID, Amount: amount},
			bonusStampIntent{UserID: userID, At: now},
		})
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("bonus claimed",
		zap.Int64("user_id", userID),
		zap.Int64("amount", outcome.Amount))
	return &outcome, nil
}
