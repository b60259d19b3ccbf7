package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SeedItems inserts catalog items that are not present yet, matched by name.
// Existing rows are left untouched so admin price edits survive restarts.
func (s *Store) SeedItems(ctx context.Context, items []ShopItem) error {
	for _, item := range items {
		var id int64
		err := s.db.QueryRowContext(ctx, `SELECT id FROM shop_items WHERE name = ?`, item.Name).Scan(&id)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to check item %q: %w", item.Name, err)
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO shop_items (name, description, price, category, kind, tier, charges, stock)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, item.Name, item.Description, item.Price, item.Category, item.Kind, item.Tier, item.Charges, item.Stock)
		if err != nil {
			return fmt.Errorf("failed to seed item %q: %w", item.Name, err)
		}
	}
	return nil
}

const itemColumns = `id, name, description, price, category, kind, tier, charges, stock`

func scanItem(scan func(dest ...any) error) (*ShopItem, error) {
	var item ShopItem
	var desc sql.NullString
	err := scan(&item.ID, &item.Name, &desc, &item.Price, &item.Category,
		&item.Kind, &item.Tier, &item.Charges, &item.Stock)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		item.Description = desc.String
	}
	return &item, nil
}

// GetItem retrieves a shop item by id. Returns (nil, nil) when absent.
func (s *Store) GetItem(ctx context.Context, itemID int64) (*ShopItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM shop_items WHERE id = ?`, itemID)
	item, err := scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ListItems returns shop items, optionally filtered by category.
func (s *Store) ListItems(ctx context.Context, category string) ([]ShopItem, error) {
	query := `SELECT ` + itemColumns + ` FROM shop_items ORDER BY id`
	args := []any{}
	if category != "" {
		query = `SELECT ` + itemColumns + ` FROM shop_items WHERE category = ? ORDER BY id`
		args = append(args, category)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []ShopItem
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ListPurchases returns a user's fulfillment records, newest first.
func (s *Store) ListPurchases(ctx context.Context, userID int64) ([]Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, item_id, purchased_at, status, admin_comment
		FROM purchases
		WHERE user_id = ?
		ORDER BY purchased_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		var comment sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &p.ItemID, &p.PurchasedAt, &p.Status, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		if comment.Valid {
			p.AdminComment = comment.String
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// ListPendingPurchases returns unfulfilled purchases across all users, oldest
// first, for the admin queue.
func (s *Store) ListPendingPurchases(ctx context.Context) ([]Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, item_id, purchased_at, status, admin_comment
		FROM purchases
		WHERE status = 'pending'
		ORDER BY purchased_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		var comment sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &p.ItemID, &p.PurchasedAt, &p.Status, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		if comment.Valid {
			p.AdminComment = comment.String
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// SetPurchaseStatus marks a fulfillment record completed or rejected.
func (s *Store) SetPurchaseStatus(ctx context.Context, purchaseID int64, status, comment string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE purchases SET status = ?, admin_comment = ? WHERE id = ?
	`, status, comment, purchaseID)
	if err != nil {
		return fmt.Errorf("failed to update purchase: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreatePromoCode registers a new promo code.
func (s *Store) CreatePromoCode(ctx context.Context, code string, reward, maxUses int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO promocodes (code, reward, max_uses)
		VALUES (?, ?, ?)
	`, code, reward, maxUses)
	if err != nil {
		return fmt.Errorf("failed to create promo code: %w", err)
	}
	return nil
}

// ListPromoCodes returns all promo codes.
func (s *Store) ListPromoCodes(ctx context.Context) ([]PromoCode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, reward, max_uses, used_count
		FROM promocodes
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}
	defer rows.Close()

	var codes []PromoCode
	for rows.Next() {
		var p PromoCode
		if err := rows.Scan(&p.Code, &p.Reward, &p.MaxUses, &p.UsedCount); err != nil {
			return nil, fmt.Errorf("failed to scan promo code: %w", err)
		}
		codes = append(codes, p)
	}
	return codes, rows.Err()
}
