package economy

import (
	"math/rand"
	"time"
)

// Clock provides the current time. Day bucketing for rate limits uses the
// clock's local calendar date, which resets strictly at midnight.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Rand is the source of randomness for outcome rolls. Seedable for
// deterministic tests. Intn returns a uniform int in [0, n).
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// NewRand returns a production randomness source.
func NewRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Notifier receives best-effort messages after a settlement commits. Calls are
// made off the critical path; failures must not propagate back.
type Notifier interface {
	TheftSucceeded(victimID, robberID, amount int64)
	TrapTriggered(ownerID, attackerID, amount int64)
	GiftPurchased(userID int64, itemName string, price int64)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) TheftSucceeded(victimID, robberID, amount int64)          {}
func (NopNotifier) TrapTriggered(ownerID, attackerID, amount int64)          {}
func (NopNotifier) GiftPurchased(userID int64, itemName string, price int64) {}

func dayOf(t time.Time) string {
	return t.Format("2006-01-02")
}
