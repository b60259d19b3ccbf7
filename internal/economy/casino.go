package economy

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
)

// casinoWinProbability is the fixed win chance for a bet, independent of any
// inventory state.
const casinoWinProbability = 0.30

// BetOutcome describes one resolved casino bet.
type BetOutcome struct {
	Won     bool
	Amount  int64 // the stake
	Payout  int64 // reported win figure: 2x the stake on a win, zero on a loss
	Balance int64 // balance after settlement
}

// PlaceBet resolves a fixed-odds bet. On a win the user is credited by the
// stake (net profit equals the bet); on a loss the stake is debited. The bet
// is rejected before any mutation when it exceeds the current balance.
func (e *Engine) PlaceBet(ctx context.Context, userID, amount int64) (*BetOutcome, error) {
	if amount <= 0 {
		return nil, ErrInvalidBet
	}

	var outcome BetOutcome
	err := e.settle.Run(ctx, func(tx *sql.Tx) error {
		balance, err := e.ledger.Balance(tx, userID)
		if err != nil {
			return err
		}
		if amount > balance {
			return ErrInsufficientFunds
		}

		outcome = BetOutcome{Amount: amount}
		if e.rng.Float64() < casinoWinProbability {
			outcome.Won = true
			outcome.Payout = amount * 2
			outcome.Balance = balance + amount
			return applyIntents(tx, []Intent{creditIntent{UserID: userID, Amount: amount}})
		}
		outcome.Balance = balance - amount
		return applyIntents(tx, []Intent{debitIntent{UserID: userID, Amount: amount}})
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("bet settled",
		zap.Int64("user_id", userID),
		zap.Int64("amount", amount),
		zap.Bool("won", outcome.Won),
		zap.Int64("balance", outcome.Balance))
	return &outcome, nil
}
