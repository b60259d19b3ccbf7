package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database. All multi-row mutations go through RunTx so
// the economy layer can settle atomically.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at dbPath with WAL mode and runs
// migrations. Use ":memory:" for tests.
func Open(dbPath string) (*Store, error) {
	path := dbPath
	if path != ":memory:" {
		abs, err := filepath.Abs(dbPath)
		if err != nil {
			return nil, err
		}
		path = abs
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite serializes writers anyway, and an in-memory database exists per
	// connection, so the pool is pinned to a single connection.
	db.SetMaxOpenConns(1)

	// WAL mode for better concurrency, busy timeout so writers queue instead
	// of failing immediately.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying connection for read-only queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// RunTx runs fn inside a serializable transaction. The transaction is rolled
// back when fn returns an error and committed otherwise. Retry on conflict is
// the caller's concern.
func (s *Store) RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// runMigrations creates the necessary tables
func (s *Store) runMigrations() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			username TEXT,
			first_name TEXT NOT NULL,
			balance INTEGER NOT NULL DEFAULT 0,
			joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_bonus DATETIME,
			theft_attempts INTEGER NOT NULL DEFAULT 0,
			theft_success INTEGER NOT NULL DEFAULT 0,
			theft_failed INTEGER NOT NULL DEFAULT 0,
			theft_protected INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS shop_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT,
			price INTEGER NOT NULL,
			category TEXT NOT NULL DEFAULT 'gift',
			kind TEXT NOT NULL DEFAULT 'gift',
			tier INTEGER NOT NULL DEFAULT 0,
			charges INTEGER NOT NULL DEFAULT 0,
			stock INTEGER NOT NULL DEFAULT -1
		)`,
		`CREATE TABLE IF NOT EXISTS inventory (
			user_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0,
			uses_left INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, item_id),
			FOREIGN KEY (user_id) REFERENCES users(user_id),
			FOREIGN KEY (item_id) REFERENCES shop_items(id)
		)`,
		`CREATE TABLE IF NOT EXISTS daily_theft_stats (
			robber_id INTEGER NOT NULL,
			victim_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			stolen_today INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (robber_id, victim_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS theft_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			victim_id INTEGER NOT NULL,
			robber_id INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			stolen_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS purchases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			purchased_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			status TEXT NOT NULL DEFAULT 'pending',
			admin_comment TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS promocodes (
			code TEXT PRIMARY KEY,
			reward INTEGER NOT NULL,
			max_uses INTEGER NOT NULL,
			used_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS channels (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id TEXT UNIQUE NOT NULL,
			title TEXT,
			invite_link TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS admins (
			user_id INTEGER PRIMARY KEY,
			added_by INTEGER,
			added_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS banned_users (
			user_id INTEGER PRIMARY KEY,
			banned_by INTEGER,
			banned_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_inventory_user ON inventory(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_theft_robber ON daily_theft_stats(robber_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_theft_history_victim ON theft_history(victim_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

const userColumns = `user_id, username, first_name, balance, joined_at, last_bonus,
		theft_attempts, theft_success, theft_failed, theft_protected`

func scanUser(row *sql.Row) (*User, error) {
	var user User
	var username sql.NullString
	var lastBonus sql.NullTime
	err := row.Scan(
		&user.ID,
		&username,
		&user.FirstName,
		&user.Balance,
		&user.JoinedAt,
		&lastBonus,
		&user.TheftAttempts,
		&user.TheftSuccess,
		&user.TheftFailed,
		&user.TheftProtected,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if username.Valid {
		user.Username = username.String
	}
	if lastBonus.Valid {
		user.LastBonus = lastBonus.Time
	}
	return &user, nil
}

// GetUser retrieves a user by their Telegram ID. Returns (nil, nil) when the
// user does not exist.
func (s *Store) GetUser(ctx context.Context, userID int64) (*User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE user_id = ?
	`, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// GetUserByName retrieves a user by case-insensitive username match. When two
// accounts share a case-folded name the oldest account wins.
func (s *Store) GetUserByName(ctx context.Context, username string) (*User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(username) = LOWER(?)
		ORDER BY user_id
		LIMIT 1
	`, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by name: %w", err)
	}
	return user, nil
}

// EnsureUser creates the user on first interaction and refreshes the Telegram
// profile fields on subsequent ones.
func (s *Store) EnsureUser(ctx context.Context, userID int64, username, firstName string) (*User, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, first_name)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name
	`, userID, username, firstName)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return s.GetUser(ctx, userID)
}

// TopUsers returns the richest users for the leaderboard.
func (s *Store) TopUsers(ctx context.Context, limit int) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY balance DESC, user_id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		var username sql.NullString
		var lastBonus sql.NullTime
		err := rows.Scan(
			&user.ID,
			&username,
			&user.FirstName,
			&user.Balance,
			&user.JoinedAt,
			&lastBonus,
			&user.TheftAttempts,
			&user.TheftSuccess,
			&user.TheftFailed,
			&user.TheftProtected,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if username.Valid {
			user.Username = username.String
		}
		if lastBonus.Valid {
			user.LastBonus = lastBonus.Time
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CountUsers returns the total number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
