package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/spanishbot/internal/database"
	"github.com/example/spanishbot/internal/logger"
)

// Default reminder window, inclusive
const (
	DefaultStartHour = 8
	DefaultEndHour   = 22
)

// ChatSource finds the chats that asked for a reminder at a given hour
type ChatSource interface {
	ListForReminder(ctx context.Context, hour int) ([]database.ChatSession, error)
}

// Notifier delivers a practice reminder to a chat
type Notifier interface {
	SendReminder(ctx context.Context, chat database.ChatSession) error
}

// Options configures the reminder window
type Options struct {
	StartHour int
	EndHour   int
}

// Scheduler runs the hourly practice reminder job
type Scheduler struct {
	scheduler *gocron.Scheduler
	chats     ChatSource
	notifier  Notifier
	opts      Options
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new scheduler instance
func New(chats ChatSource, notifier Notifier, opts Options, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	if opts.StartHour == 0 && opts.EndHour == 0 {
		opts = Options{StartHour: DefaultStartHour, EndHour: DefaultEndHour}
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		chats:     chats,
		notifier:  notifier,
		opts:      opts,
		log:       log,
		now:       time.Now,
	}
}

// Start schedules the hourly check and returns immediately
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Hour().StartAt(nextHour(s.now())).Do(s.checkAndSendReminders)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.log.Info("reminder scheduler started", "start_hour", s.opts.StartHour, "end_hour", s.opts.EndHour)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	s.sendDue(ctx, s.now().Hour())
}

// sendDue notifies every chat due at hour and returns how many were reached
func (s *Scheduler) sendDue(ctx context.Context, hour int) int {
	if hour < s.opts.StartHour || hour > s.opts.EndHour {
		s.log.Debug("outside reminder hours, skipping", "hour", hour,
			"start_hour", s.opts.StartHour, "end_hour", s.opts.EndHour)
		return 0
	}

	chats, err := s.chats.ListForReminder(ctx, hour)
	if err != nil {
		s.log.Error("error getting chats for reminder", "hour", hour, "error", err)
		return 0
	}

	sent := 0
	for _, chat := range chats {
		if err := s.notifier.SendReminder(ctx, chat); err != nil {
			s.log.Warn("error sending reminder", "chat_id", chat.ChatID, "error", err)
			continue
		}
		sent++
	}
	if sent > 0 {
		s.log.Info("reminders sent", "hour", hour, "count", sent)
	}
	return sent
}

func nextHour(t time.Time) time.Time {
	return t.Truncate(time.Hour).Add(time.Hour)
}
