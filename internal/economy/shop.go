package economy

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"coinheist/internal/storage"
)

// PurchaseOutcome describes one settled shop purchase.
type PurchaseOutcome struct {
	Item    storage.ShopItem
	Gift    bool  // true when a fulfillment record was queued instead of inventory
	Balance int64 // balance after the purchase
}

func itemForPurchase(tx *sql.Tx, itemID int64) (*storage.ShopItem, error) {
	var item storage.ShopItem
	var desc sql.NullString
	err := tx.QueryRow(`
		SELECT id, name, description, price, category, kind, tier, charges, stock
		FROM shop_items
		WHERE id = ?
	`, itemID).Scan(&item.ID, &item.Name, &desc, &item.Price, &item.Category,
		&item.Kind, &item.Tier, &item.Charges, &item.Stock)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if desc.Valid {
		item.Description = desc.String
	}
	return &item, nil
}

// Purchase debits the item price and either grants inventory (crime items) or
// queues a pending fulfillment record and decrements stock (gifts), as one
// settlement.
func (e *Engine) Purchase(ctx context.Context, userID, itemID int64) (*PurchaseOutcome, error) {
	var outcome PurchaseOutcome
	err := e.settle.Run(ctx, func(tx *sql.Tx) error {
		item, err := itemForPurchase(tx, itemID)
		if err != nil {
			return err
		}

		gift := item.Kind == storage.KindGift
		if gift && item.Stock == 0 {
			return ErrOutOfStock
		}

		balance, err := e.ledger.Balance(tx, userID)
		if err != nil {
			return err
		}
		if balance < item.Price {
			return ErrInsufficientFunds
		}

		intents := []Intent{debitIntent{UserID: userID, Amount: item.Price}}
		if gift {
			intents = append(intents, purchaseRecordIntent{UserID: userID, ItemID: item.ID, At: e.clock.Now()})
			if item.Stock != -1 {
				intents = append(intents, stockDecrementIntent{ItemID: item.ID})
			}
		} else {
			switch EffectOf(item).(type) {
			case ToolEffect, ProtectEffect, TrapEffect, DetectiveEffect:
				intents = append(intents, grantIntent{UserID: userID, ItemID: item.ID, Charges: int64(item.Charges)})
			default:
				intents = append(intents, grantIntent{UserID: userID, ItemID: item.ID, Quantity: 1})
			}
		}

		outcome = PurchaseOutcome{Item: *item, Gift: gift, Balance: balance - item.Price}
		return applyIntents(tx, intents)
	})
	if err != nil {
		return nil, err
	}

	if outcome.Gift {
		e.notifier.GiftPurchased(userID, outcome.Item.Name, outcome.Item.Price)
	}
	e.log.Info("purchase settled",
		zap.Int64("user_id", userID),
		zap.Int64("item_id", itemID),
		zap.Int64("price", outcome.Item.Price),
		zap.Bool("gift", outcome.Gift))
	return &outcome, nil
}

// RedeemPromo credits the promo reward and counts the use atomically. Codes
// are case-insensitive.
func (e *Engine) RedeemPromo(ctx context.Context, userID int64, code string) (int64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return 0, ErrNotFound
	}

	var reward int64
	err := e.settle.Run(ctx, func(tx *sql.Tx) error {
		var maxUses, used int64
		err := tx.QueryRow(`
			SELECT reward, max_uses, used_count FROM promocodes WHERE code = ?
		`, code).Scan(&reward, &maxUses, &used)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load promo code: %w", err)
		}
		if used >= maxUses {
			return ErrPromoExhausted
		}
		return applyIntents(tx, []Intent{
			creditIntent{UserID: userID, Amount: reward},
			promoUseIntent{Code: code},
		})
	})
	if err != nil {
		return 0, err
	}

	e.log.Info("promo redeemed",
		zap.Int64("user_id", userID),
		zap.String("code", code),
		zap.Int64("reward", reward))
	return reward, nil
}
