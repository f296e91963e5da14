package database

import (
	"time"

	"github.com/example/spanishbot/pkg/models"
)

// ChatSession binds a Telegram chat to the backend user registered from it
type ChatSession struct {
	ChatID           int64                 `db:"chat_id"`
	UserID           int64                 `db:"user_id"`
	Username         string                `db:"username"`
	NativeLanguage   models.NativeLanguage `db:"native_language"`
	RemindersEnabled bool                  `db:"reminders_enabled"`
	ReminderHour     int                   `db:"reminder_hour"`
	CreatedAt        time.Time             `db:"created_at"`
	UpdatedAt        time.Time             `db:"updated_at"`
}

// User returns the backend user of the chat
func (c ChatSession) User() models.User {
	return models.User{ID: c.UserID, Username: c.Username, NativeLanguage: c.NativeLanguage}
}

// Answer is one graded quiz answer
type Answer struct {
	UserID       int64
	VocabularyID int64
	IsCorrect    bool
}
