package storage

import (
	"time"
)

// User represents a player account. Balance is in whole coins and is only
// mutated through the economy ledger.
type User struct {
	ID             int64     `json:"user_id" db:"user_id"`
	Username       string    `json:"username" db:"username"`
	FirstName      string    `json:"first_name" db:"first_name"`
	Balance        int64     `json:"balance" db:"balance"`
	JoinedAt       time.Time `json:"joined_at" db:"joined_at"`
	LastBonus      time.Time `json:"last_bonus,omitempty" db:"last_bonus"`
	TheftAttempts  int64     `json:"theft_attempts" db:"theft_attempts"`
	TheftSuccess   int64     `json:"theft_success" db:"theft_success"`
	TheftFailed    int64     `json:"theft_failed" db:"theft_failed"`
	TheftProtected int64     `json:"theft_protected" db:"theft_protected"`
}

// ItemKind identifies the gameplay role of a shop item.
type ItemKind string

const (
	KindTool      ItemKind = "tool"
	KindProtect   ItemKind = "protect"
	KindTrap      ItemKind = "trap"
	KindDetective ItemKind = "detective"
	KindGift      ItemKind = "gift"
)

// ShopItem is a purchasable item. Crime items grant charges, gifts are
// quantity-based fulfillment goods. Stock of -1 means unlimited.
type ShopItem struct {
	ID          int64    `json:"id" db:"id"`
	Name        string   `json:"name" db:"name"`
	Description string   `json:"description" db:"description"`
	Price       int64    `json:"price" db:"price"`
	Category    string   `json:"category" db:"category"` // 'gift' or 'crime'
	Kind        ItemKind `json:"kind" db:"kind"`
	Tier        int      `json:"tier" db:"tier"`       // chance modifier for tool/protect
	Charges     int      `json:"charges" db:"charges"` // charges granted per purchase
	Stock       int64    `json:"stock" db:"stock"`
}

// InventoryEntry is one (user, item) row. Exactly one of Quantity or UsesLeft
// is meaningful depending on the item kind.
type InventoryEntry struct {
	UserID   int64 `json:"user_id" db:"user_id"`
	ItemID   int64 `json:"item_id" db:"item_id"`
	Quantity int64 `json:"quantity" db:"quantity"`
	UsesLeft int64 `json:"uses_left" db:"uses_left"`
}

// InventoryItem is an inventory row joined with its shop item, for display.
type InventoryItem struct {
	ItemID   int64
	Name     string
	Kind     ItemKind
	Quantity int64
	UsesLeft int64
}

// Purchase is a fulfillment record for a gift purchase.
type Purchase struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	ItemID       int64     `json:"item_id" db:"item_id"`
	PurchasedAt  time.Time `json:"purchased_at" db:"purchased_at"`
	Status       string    `json:"status" db:"status"` // 'pending', 'completed', 'rejected'
	AdminComment string    `json:"admin_comment,omitempty" db:"admin_comment"`
}

// PromoCode is a redeemable code crediting a fixed reward.
type PromoCode struct {
	Code      string `json:"code" db:"code"`
	Reward    int64  `json:"reward" db:"reward"`
	MaxUses   int64  `json:"max_uses" db:"max_uses"`
	UsedCount int64  `json:"used_count" db:"used_count"`
}

// TheftRecord is an append-only log entry for a settled theft.
type TheftRecord struct {
	ID       int64     `json:"id" db:"id"`
	VictimID int64     `json:"victim_id" db:"victim_id"`
	RobberID int64     `json:"robber_id" db:"robber_id"`
	Amount   int64     `json:"amount" db:"amount"`
	StolenAt time.Time `json:"stolen_at" db:"stolen_at"`
}

// Channel is a Telegram channel users must be subscribed to.
type Channel struct {
	ID         int64  `json:"id" db:"id"`
	ChatID     string `json:"chat_id" db:"chat_id"`
	Title      string `json:"title" db:"title"`
	InviteLink string `json:"invite_link" db:"invite_link"`
}
