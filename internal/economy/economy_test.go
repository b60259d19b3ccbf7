package economy

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"coinheist/internal/storage"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// fakeRand pops scripted values. Intn caps the scripted value at n-1 so a test
// can ask for "the largest draw" without knowing the bound.
type fakeRand struct {
	ints   []int
	floats []float64
}

func (r *fakeRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	if v >= n {
		v = n - 1
	}
	return v
}

func (r *fakeRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func testCatalog() []storage.ShopItem {
	return []storage.ShopItem{
		{Name: "Teddy Bear", Description: "plush", Price: 50, Category: "gift", Kind: storage.KindGift, Stock: 2},
		{Name: "Crowbar", Price: 100, Category: "crime", Kind: storage.KindTool, Tier: 20, Charges: 1, Stock: -1},
		{Name: "Guard Dog", Price: 150, Category: "crime", Kind: storage.KindProtect, Tier: 20, Charges: 4, Stock: -1},
		{Name: "Bear Trap", Price: 200, Category: "crime", Kind: storage.KindTrap, Charges: 10, Stock: -1},
		{Name: "Detective", Price: 50, Category: "crime", Kind: storage.KindDetective, Charges: 1, Stock: -1},
	}
}

func newTestEngine(t *testing.T) (*Engine, *storage.Store, *fakeClock, *fakeRand) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.SeedItems(context.Background(), testCatalog()); err != nil {
		t.Fatalf("Failed to seed items: %v", err)
	}

	clock := &fakeClock{now: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)}
	rng := &fakeRand{}
	engine := New(store, clock, rng, NopNotifier{}, nil)
	return engine, store, clock, rng
}

func makeUser(t *testing.T, store *storage.Store, userID int64, username string, balance int64) {
	t.Helper()
	if _, err := store.EnsureUser(context.Background(), userID, username, username); err != nil {
		t.Fatalf("Failed to create user %d: %v", userID, err)
	}
	if _, err := store.DB().Exec(`UPDATE users SET balance = ? WHERE user_id = ?`, balance, userID); err != nil {
		t.Fatalf("Failed to set balance: %v", err)
	}
}

func itemByKind(t *testing.T, store *storage.Store, kind storage.ItemKind) storage.ShopItem {
	t.Helper()
	items, err := store.ListItems(context.Background(), "")
	if err != nil {
		t.Fatalf("Failed to list items: %v", err)
	}
	for _, item := range items {
		if item.Kind == kind {
			return item
		}
	}
	t.Fatalf("No item of kind %s in catalog", kind)
	return storage.ShopItem{}
}

func grantItem(t *testing.T, store *storage.Store, userID, itemID, quantity, charges int64) {
	t.Helper()
	err := store.RunTx(context.Background(), func(tx *sql.Tx) error {
		return Inventory{}.Acquire(tx, userID, itemID, quantity, charges)
	})
	if err != nil {
		t.Fatalf("Failed to grant item: %v", err)
	}
}

func balanceOf(t *testing.T, store *storage.Store, userID int64) int64 {
	t.Helper()
	var balance int64
	if err := store.DB().QueryRow(`SELECT balance FROM users WHERE user_id = ?`, userID).Scan(&balance); err != nil {
		t.Fatalf("Failed to read balance: %v", err)
	}
	return balance
}

func inventoryOf(t *testing.T, store *storage.Store, userID, itemID int64) (quantity, usesLeft int64, exists bool) {
	t.Helper()
	err := store.DB().QueryRow(`
		SELECT quantity, uses_left FROM inventory WHERE user_id = ? AND item_id = ?
	`, userID, itemID).Scan(&quantity, &usesLeft)
	if err == sql.ErrNoRows {
		return 0, 0, false
	}
	if err != nil {
		t.Fatalf("Failed to read inventory: %v", err)
	}
	return quantity, usesLeft, true
}

func dailyStats(t *testing.T, store *storage.Store, actorID, targetID int64, day string) (attempts, stolen int64) {
	t.Helper()
	err := store.DB().QueryRow(`
		SELECT attempts, stolen_today FROM daily_theft_stats
		WHERE robber_id = ? AND victim_id = ? AND date = ?
	`, actorID, targetID, day).Scan(&attempts, &stolen)
	if err == sql.ErrNoRows {
		return 0, 0
	}
	if err != nil {
		t.Fatalf("Failed to read daily stats: %v", err)
	}
	return attempts, stolen
}

func setDailyStats(t *testing.T, store *storage.Store, actorID, targetID int64, day string, attempts, stolen int64) {
	t.Helper()
	_, err := store.DB().Exec(`
		INSERT INTO daily_theft_stats (robber_id, victim_id, date, attempts, stolen_today)
		VALUES (?, ?, ?, ?, ?)
	`, actorID, targetID, day, attempts, stolen)
	if err != nil {
		t.Fatalf("Failed to set daily stats: %v", err)
	}
}
