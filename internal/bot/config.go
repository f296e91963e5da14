package bot

import (
	"time"

	"github.com/example/spanishbot/internal/scheduler"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Long polling timeout in seconds
	UpdateTimeout int
	// Largest photo, voice or document the bot downloads
	MaxFileSize int64
	// Deadline for handling a single update
	HandlerTimeout time.Duration
	// Words shown per vocabulary message
	WordsPerMessage int
	// Import errors listed in the summary
	MaxImportErrors int
	// Hours offered by the reminder settings keyboard
	ReminderHours []int
	// Hours the reminder job runs, inclusive. Chosen hours must fall inside.
	ReminderStartHour int
	ReminderEndHour   int
}

func (c *BotConfig) reminderHourAllowed(h int) bool {
	return h >= c.ReminderStartHour && h <= c.ReminderEndHour
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		UpdateTimeout:   60,
		MaxFileSize:     20 << 20,
		HandlerTimeout:  2 * time.Minute,
		WordsPerMessage: 50,
		MaxImportErrors: 10,
		ReminderHours:   []int{8, 12, 18, 21},

		ReminderStartHour: scheduler.DefaultStartHour,
		ReminderEndHour:   scheduler.DefaultEndHour,
	}
}
