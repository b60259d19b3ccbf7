package bot

import (
	"sync"
)

// dialogKind identifies what a pending free-text reply will be parsed as.
type dialogKind int

const (
	dialogNone dialogKind = iota
	dialogBetAmount
	dialogPromoCode
	dialogStealTarget
)

// dialogState tracks at most one pending prompt per user. Any command resets
// the pending prompt so users never get stuck mid-dialog.
type dialogState struct {
	mu      sync.Mutex
	pending map[int64]dialogKind
}

func newDialogState() *dialogState {
	return &dialogState{pending: make(map[int64]dialogKind)}
}

func (d *dialogState) Set(userID int64, kind dialogKind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if kind == dialogNone {
		delete(d.pending, userID)
		return
	}
	d.pending[userID] = kind
}

// Take returns and clears the pending prompt for the user.
func (d *dialogState) Take(userID int64) dialogKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	kind, ok := d.pending[userID]
	if !ok {
		return dialogNone
	}
	delete(d.pending, userID)
	return kind
}
