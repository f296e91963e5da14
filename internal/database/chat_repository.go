package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DefaultReminderHour is used for chats that never chose one
const DefaultReminderHour = 9

// ChatRepository stores chat to user bindings and reminder settings
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository creates a new repository instance
func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

const chatColumns = `chat_id, user_id, username, native_language, reminders_enabled, reminder_hour, created_at, updated_at`

// Get returns the session of a chat, or nil when the chat never registered
func (r *ChatRepository) Get(ctx context.Context, chatID int64) (*ChatSession, error) {
	var s ChatSession
	query := r.db.Rebind(`SELECT ` + chatColumns + ` FROM chat_sessions WHERE chat_id = ?`)
	err := r.db.GetContext(ctx, &s, query, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}
	return &s, nil
}

// Save inserts the session or updates the bound user. Reminder settings of
// an existing chat are kept.
func (r *ChatRepository) Save(ctx context.Context, s *ChatSession) error {
	if s.ReminderHour == 0 {
		s.ReminderHour = DefaultReminderHour
	}
	query := r.db.Rebind(`
		INSERT INTO chat_sessions (chat_id, user_id, username, native_language, reminders_enabled, reminder_hour)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET
			user_id = excluded.user_id,
			username = excluded.username,
			native_language = excluded.native_language,
			updated_at = CURRENT_TIMESTAMP
	`)
	_, err := r.db.ExecContext(ctx, query,
		s.ChatID,
		s.UserID,
		s.Username,
		s.NativeLanguage,
		s.RemindersEnabled,
		s.ReminderHour,
	)
	if err != nil {
		return fmt.Errorf("failed to save chat session: %w", err)
	}
	return nil
}

// SetReminders updates the reminder settings of a registered chat
func (r *ChatRepository) SetReminders(ctx context.Context, chatID int64, enabled bool, hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("invalid reminder hour %d", hour)
	}
	query := r.db.Rebind(`
		UPDATE chat_sessions
		SET reminders_enabled = ?, reminder_hour = ?, updated_at = CURRENT_TIMESTAMP
		WHERE chat_id = ?
	`)
	res, err := r.db.ExecContext(ctx, query, enabled, hour, chatID)
	if err != nil {
		return fmt.Errorf("failed to update reminders: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update reminders: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListForReminder returns the chats that want a reminder at hour
func (r *ChatRepository) ListForReminder(ctx context.Context, hour int) ([]ChatSession, error) {
	var sessions []ChatSession
	query := r.db.Rebind(`SELECT ` + chatColumns + ` FROM chat_sessions
		WHERE reminders_enabled = ? AND reminder_hour = ?
		ORDER BY chat_id`)
	if err := r.db.SelectContext(ctx, &sessions, query, true, hour); err != nil {
		return nil, fmt.Errorf("failed to list chats for reminder: %w", err)
	}
	return sessions, nil
}

// Delete forgets the chat
func (r *ChatRepository) Delete(ctx context.Context, chatID int64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM chat_sessions WHERE chat_id = ?`), chatID)
	if err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	return nil
}
