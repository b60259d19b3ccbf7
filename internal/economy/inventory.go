package economy

import (
	"database/sql"
	"fmt"

	"coinheist/internal/storage"
)

// Inventory owns the per-user consumable item rows. Entries are either
// quantity-based (gifts) or charge-based (crime items); a row is deleted when
// its counter reaches zero.
type Inventory struct{}

// itemByKind resolves the shop item implementing a crime kind. Returns
// (nil, nil) when the catalog has no such item.
func (Inventory) itemByKind(tx *sql.Tx, kind storage.ItemKind) (*storage.ShopItem, error) {
	var item storage.ShopItem
	err := tx.QueryRow(`
		SELECT id, name, price, kind, tier, charges
		FROM shop_items
		WHERE kind = ?
		ORDER BY id
		LIMIT 1
	`, kind).Scan(&item.ID, &item.Name, &item.Price, &item.Kind, &item.Tier, &item.Charges)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve item for kind %s: %w", kind, err)
	}
	return &item, nil
}

// Peek returns the user's entry for an item, or (nil, nil) when absent.
func (Inventory) Peek(tx *sql.Tx, userID, itemID int64) (*storage.InventoryEntry, error) {
	entry := storage.InventoryEntry{UserID: userID, ItemID: itemID}
	err := tx.QueryRow(`
		SELECT quantity, uses_left FROM inventory
		WHERE user_id = ? AND item_id = ?
	`, userID, itemID).Scan(&entry.Quantity, &entry.UsesLeft)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to peek inventory: %w", err)
	}
	return &entry, nil
}

// HasUsable reports whether the user can redeem the item: a charge-based entry
// with uses_left >= minCharges, or a quantity-based entry with quantity >= 1.
func (i Inventory) HasUsable(tx *sql.Tx, userID, itemID int64, minCharges int64) (bool, error) {
	entry, err := i.Peek(tx, userID, itemID)
	if err != nil || entry == nil {
		return false, err
	}
	if entry.UsesLeft > 0 {
		return entry.UsesLeft >= minCharges, nil
	}
	return entry.Quantity >= 1, nil
}

// Acquire adds quantity or charges to an entry, creating it when absent.
// Charge-based kinds sum charges, quantity-based kinds sum quantity.
func (i Inventory) Acquire(tx *sql.Tx, userID, itemID, quantity, charges int64) error {
	entry, err := i.Peek(tx, userID, itemID)
	if err != nil {
		return err
	}
	if entry == nil {
		_, err := tx.Exec(`
			INSERT INTO inventory (user_id, item_id, quantity, uses_left)
			VALUES (?, ?, ?, ?)
		`, userID, itemID, quantity, charges)
		if err != nil {
			return fmt.Errorf("failed to insert inventory entry: %w", err)
		}
		return nil
	}
	if charges > 0 {
		_, err = tx.Exec(`
			UPDATE inventory SET uses_left = uses_left + ?
			WHERE user_id = ? AND item_id = ?
		`, charges, userID, itemID)
	} else {
		_, err = tx.Exec(`
			UPDATE inventory SET quantity = quantity + ?
			WHERE user_id = ? AND item_id = ?
		`, quantity, userID, itemID)
	}
	if err != nil {
		return fmt.Errorf("failed to update inventory entry: %w", err)
	}
	return nil
}

// Consume decrements quantity or charges and deletes the entry at zero or
// below. Consuming an absent entry is a no-op; callers check HasUsable first.
func (i Inventory) Consume(tx *sql.Tx, userID, itemID, quantity, uses int64) error {
	entry, err := i.Peek(tx, userID, itemID)
	if err != nil || entry == nil {
		return err
	}

	newQty, newUses := entry.Quantity, entry.UsesLeft
	if uses > 0 {
		newUses = entry.UsesLeft - uses
	} else {
		newQty = entry.Quantity - quantity
	}

	if (uses > 0 && newUses <= 0) || (uses <= 0 && newQty <= 0) {
		_, err = tx.Exec(`DELETE FROM inventory WHERE user_id = ? AND item_id = ?`, userID, itemID)
	} else {
		_, err = tx.Exec(`
			UPDATE inventory SET quantity = ?, uses_left = ?
			WHERE user_id = ? AND item_id = ?
		`, newQty, newUses, userID, itemID)
	}
	if err != nil {
		return fmt.Errorf("failed to consume inventory entry: %w", err)
	}
	return nil
}
