package economy

import (
	"errors"
	"fmt"
)

// Domain denials. These are decided before any mutation is attempted and never
// leave partial state behind. The bot layer owns the user-facing wording.
var (
	// ErrInvalidTarget means the theft target does not exist or is the actor.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrInsufficientFunds means a debit would drive a balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrMissingTool means the actor holds no usable tool charge.
	ErrMissingTool = errors.New("missing tool")
	// ErrNothingToSteal means the target's balance is zero.
	ErrNothingToSteal = errors.New("nothing to steal")
	// ErrInvalidBet means the bet amount is not a positive integer.
	ErrInvalidBet = errors.New("invalid bet")
	// ErrNotFound means the referenced user, item or code does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOutOfStock means a gift item's stock is exhausted.
	ErrOutOfStock = errors.New("out of stock")
	// ErrPromoExhausted means the promo code reached its max uses.
	ErrPromoExhausted = errors.New("promo code exhausted")
	// ErrConflict means a concurrent settlement won the race. It is retried
	// internally with backoff and surfaced only when retries are exhausted.
	ErrConflict = errors.New("concurrency conflict")
)

// RateLimitReason explains which daily cap denied a theft attempt.
type RateLimitReason int

const (
	AttemptsExceeded RateLimitReason = iota
	AmountExceeded
)

// RateLimitedError is returned when the per-(actor,target,day) caps deny an
// attempt. Attempts and Stolen carry the counters at denial time.
type RateLimitedError struct {
	Reason   RateLimitReason
	Attempts int64
	Stolen   int64
}

func (e *RateLimitedError) Error() string {
	if e.Reason == AttemptsExceeded {
		return fmt.Sprintf("rate limited: %d attempts used today", e.Attempts)
	}
	return fmt.Sprintf("rate limited: %d coins stolen today", e.Stolen)
}

// PersistenceError wraps a fatal store failure. The settlement is guaranteed
// to have left no partial mutation visible.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// BonusCooldownError is returned when the daily bonus is claimed early.
type BonusCooldownError struct {
	RemainingSeconds int64
}

func (e *BonusCooldownError) Error() string {
	return fmt.Sprintf("bonus on cooldown: %ds remaining", e.RemainingSeconds)
}
