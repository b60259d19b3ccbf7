package economy

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"coinheist/internal/storage"
)

// Theft chance parameters. The final chance is always clamped to
// [minChance, maxChance] regardless of item tiers.
const (
	baseChance = 40
	minChance  = 10
	maxChance  = 90
)

// TheftResult is the settled outcome of a theft attempt.
type TheftResult int

const (
	// TheftSucceeded means coins moved from target to actor. Amount may be
	// zero when the daily budget was already drained by the clamp.
	TheftSucceeded TheftResult = iota
	// TheftFailed means the roll missed; no coins moved.
	TheftFailed
	// TrapTriggered means the target's trap fired and the actor paid instead.
	TrapTriggered
)

// TheftOutcome describes one settled theft attempt.
type TheftOutcome struct {
	Result    TheftResult
	Amount    int64 // coins moved (to actor on success, from actor on trap)
	Chance    int   // success chance used; zero on the trap branch
	Protected bool  // target held a protect charge
}

// theftSnapshot is the state read under the settlement transaction before the
// outcome is decided.
type theftSnapshot struct {
	day           string
	actorBalance  int64
	targetBalance int64
	budget        int64 // remaining daily amount budget
	tool          *storage.ShopItem
	protect       *storage.ShopItem
	trap          *storage.ShopItem
	protectHeld   bool
	trapHeld      bool
}

type theftDecision struct {
	outcome TheftOutcome
	intents []Intent
}

func clampChance(chance int) int {
	if chance < minChance {
		return minChance
	}
	if chance > maxChance {
		return maxChance
	}
	return chance
}

// loadTheftSnapshot walks the validation states in order: target exists,
// limits allow, actor holds a tool, target has coins. Each failure is a
// domain denial with no mutation.
func (e *Engine) loadTheftSnapshot(tx *sql.Tx, actorID, targetID int64) (*theftSnapshot, error) {
	snap := &theftSnapshot{day: dayOf(e.clock.Now())}

	targetBalance, err := e.ledger.Balance(tx, targetID)
	if err == ErrNotFound {
		return nil, ErrInvalidTarget
	}
	if err != nil {
		return nil, err
	}
	snap.targetBalance = targetBalance

	budget, err := e.limits.CheckAndReserve(tx, actorID, targetID, snap.day)
	if err != nil {
		return nil, err
	}
	snap.budget = budget.Remaining

	snap.tool, err = e.inv.itemByKind(tx, storage.KindTool)
	if err != nil {
		return nil, err
	}
	if snap.tool == nil {
		return nil, ErrMissingTool
	}
	hasTool, err := e.inv.HasUsable(tx, actorID, snap.tool.ID, 1)
	if err != nil {
		return nil, err
	}
	if !hasTool {
		return nil, ErrMissingTool
	}

	if snap.targetBalance <= 0 {
		return nil, ErrNothingToSteal
	}

	snap.actorBalance, err = e.ledger.Balance(tx, actorID)
	if err != nil {
		return nil, err
	}

	snap.trap, err = e.inv.itemByKind(tx, storage.KindTrap)
	if err != nil {
		return nil, err
	}
	if snap.trap != nil {
		snap.trapHeld, err = e.inv.HasUsable(tx, targetID, snap.trap.ID, 1)
		if err != nil {
			return nil, err
		}
	}

	snap.protect, err = e.inv.itemByKind(tx, storage.KindProtect)
	if err != nil {
		return nil, err
	}
	if snap.protect != nil {
		snap.protectHeld, err = e.inv.HasUsable(tx, targetID, snap.protect.ID, 1)
		if err != nil {
			return nil, err
		}
	}

	return snap, nil
}

// resolveTheft decides the outcome of a validated theft attempt. Pure over the
// snapshot and the injected randomness; all mutations come back as intents.
func resolveTheft(snap *theftSnapshot, rng Rand, actorID, targetID int64, now time.Time) theftDecision {
	// Trap branch pre-empts everything: no roll, no tool or protect use.
	if snap.trapHeld {
		var amount int64
		if maxTake := min64(MaxStealAmount, snap.actorBalance); maxTake > 0 {
			amount = int64(1 + rng.Intn(int(maxTake)))
		}
		d := theftDecision{
			outcome: TheftOutcome{Result: TrapTriggered, Amount: amount},
		}
		if amount > 0 {
			d.intents = append(d.intents,
				transferIntent{From: actorID, To: targetID, Amount: amount},
				historyIntent{VictimID: actorID, RobberID: targetID, Amount: amount, At: now},
			)
		}
		d.intents = append(d.intents,
			consumeIntent{UserID: targetID, ItemID: snap.trap.ID, Uses: 1},
			statsIntent{UserID: actorID, Attempts: 1, Failed: 1},
			statsIntent{UserID: targetID, Protected: 1},
			rateCommitIntent{ActorID: actorID, TargetID: targetID, Day: snap.day, Stolen: 0},
		)
		return d
	}

	// Normal branch. The tool charge is spent regardless of the roll, and so
	// is the target's protect charge when present.
	chance := baseChance + snap.tool.Tier
	intents := []Intent{
		consumeIntent{UserID: actorID, ItemID: snap.tool.ID, Uses: 1},
	}
	if snap.protectHeld {
		chance -= snap.protect.Tier
		intents = append(intents, consumeIntent{UserID: targetID, ItemID: snap.protect.ID, Uses: 1})
	}
	chance = clampChance(chance)

	roll := 1 + rng.Intn(100)
	if roll > chance {
		intents = append(intents,
			statsIntent{UserID: actorID, Attempts: 1, Failed: 1},
			rateCommitIntent{ActorID: actorID, TargetID: targetID, Day: snap.day, Stolen: 0},
		)
		if snap.protectHeld {
			intents = append(intents, statsIntent{UserID: targetID, Protected: 1})
		}
		return theftDecision{
			outcome: TheftOutcome{Result: TheftFailed, Chance: chance, Protected: snap.protectHeld},
			intents: intents,
		}
	}

	// The draw is taken against the target's balance first and only then
	// clamped to the remaining daily budget; a clamp to zero still settles as
	// a successful attempt with no funds moved.
	amount := int64(1 + rng.Intn(int(min64(MaxStealAmount, snap.targetBalance))))
	if amount > snap.budget {
		amount = snap.budget
	}

	if amount > 0 {
		intents = append(intents,
			transferIntent{From: targetID, To: actorID, Amount: amount},
			historyIntent{VictimID: targetID, RobberID: actorID, Amount: amount, At: now},
		)
	}
	intents = append(intents,
		statsIntent{UserID: actorID, Attempts: 1, Success: 1},
		rateCommitIntent{ActorID: actorID, TargetID: targetID, Day: snap.day, Stolen: amount},
	)
	return theftDecision{
		outcome: TheftOutcome{Result: TheftSucceeded, Amount: amount, Chance: chance, Protected: snap.protectHeld},
		intents: intents,
	}
}

// ResolveTheft runs one theft attempt by actorID against targetID to a
// terminal state and settles it atomically. Victim notifications go out only
// after the commit succeeds.
func (e *Engine) ResolveTheft(ctx context.Context, actorID, targetID int64) (*TheftOutcome, error) {
	if actorID == targetID {
		return nil, ErrInvalidTarget
	}

	var outcome TheftOutcome
	err := e.settle.Run(ctx, func(tx *sql.Tx) error {
		snap, err := e.loadTheftSnapshot(tx, actorID, targetID)
		if err != nil {
			return err
		}
		decision := resolveTheft(snap, e.rng, actorID, targetID, e.clock.Now())
		outcome = decision.outcome
		return applyIntents(tx, decision.intents)
	})
	if err != nil {
		return nil, err
	}

	switch outcome.Result {
	case TheftSucceeded:
		if outcome.Amount > 0 {
			e.notifier.TheftSucceeded(targetID, actorID, outcome.Amount)
		}
	case TrapTriggered:
		e.notifier.TrapTriggered(targetID, actorID, outcome.Amount)
	}

	e.log.Info("theft settled",
		zap.Int64("actor_id", actorID),
		zap.Int64("target_id", targetID),
		zap.Int("result", int(outcome.Result)),
		zap.Int64("amount", outcome.Amount),
		zap.Int("chance", outcome.Chance))
	return &outcome, nil
}

// LastTheftAgainst returns the most recent theft record where the user was the
// victim, or (nil, nil) when there is none.
func (e *Engine) LastTheftAgainst(ctx context.Context, userID int64) (*storage.TheftRecord, error) {
	var rec storage.TheftRecord
	err := e.store.DB().QueryRowContext(ctx, `
		SELECT id, victim_id, robber_id, amount, stolen_at
		FROM theft_history
		WHERE victim_id = ?
		ORDER BY stolen_at DESC, id DESC
		LIMIT 1
	`, userID).Scan(&rec.ID, &rec.VictimID, &rec.RobberID, &rec.Amount, &rec.StolenAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	return &rec, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
