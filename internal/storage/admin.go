package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// AddChannel registers a required-subscription channel.
func (s *Store) AddChannel(ctx context.Context, chatID, title, inviteLink string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channels (chat_id, title, invite_link)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			title = excluded.title,
			invite_link = excluded.invite_link
	`, chatID, title, inviteLink)
	if err != nil {
		return fmt.Errorf("failed to add channel: %w", err)
	}
	return nil
}

// RemoveChannel deletes a channel by chat id.
func (s *Store) RemoveChannel(ctx context.Context, chatID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM channels WHERE chat_id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("failed to remove channel: %w", err)
	}
	return nil
}

// ListChannels returns all required-subscription channels.
func (s *Store) ListChannels(ctx context.Context) ([]Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, title, invite_link
		FROM channels
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var ch Channel
		var title, link sql.NullString
		if err := rows.Scan(&ch.ID, &ch.ChatID, &title, &link); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		if title.Valid {
			ch.Title = title.String
		}
		if link.Valid {
			ch.InviteLink = link.String
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// AddAdmin grants junior admin rights.
func (s *Store) AddAdmin(ctx context.Context, userID, addedBy int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO admins (user_id, added_by)
		VALUES (?, ?)
	`, userID, addedBy)
	if err != nil {
		return fmt.Errorf("failed to add admin: %w", err)
	}
	return nil
}

// RemoveAdmin revokes junior admin rights.
func (s *Store) RemoveAdmin(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admins WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to remove admin: %w", err)
	}
	return nil
}

// ListAdmins returns all junior admin user ids.
func (s *Store) ListAdmins(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM admins ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// BanUser blocks a user from the bot.
func (s *Store) BanUser(ctx context.Context, userID, bannedBy int64, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO banned_users (user_id, banned_by, reason)
		VALUES (?, ?, ?)
	`, userID, bannedBy, reason)
	if err != nil {
		return fmt.Errorf("failed to ban user: %w", err)
	}
	return nil
}

// UnbanUser lifts a ban.
func (s *Store) UnbanUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM banned_users WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to unban user: %w", err)
	}
	return nil
}

// ListBanned returns all banned user ids.
func (s *Store) ListBanned(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM banned_users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list banned users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan banned user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
