package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/spanishbot/internal/logger"
)

// Sweeper forgets sessions idle for longer than maxIdle
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

// Janitor periodically drops idle front-end sessions
type Janitor struct {
	scheduler *gocron.Scheduler
	sessions  Sweeper
	every     time.Duration
	maxIdle   time.Duration
	log       *logger.Logger
}

// NewJanitor sweeps sessions every interval
func NewJanitor(sessions Sweeper, every, maxIdle time.Duration, log *logger.Logger) *Janitor {
	if log == nil {
		log = logger.Nop()
	}
	return &Janitor{
		scheduler: gocron.NewScheduler(time.UTC),
		sessions:  sessions,
		every:     every,
		maxIdle:   maxIdle,
		log:       log,
	}
}

// Start schedules the sweep and returns immediately
func (j *Janitor) Start() error {
	if _, err := j.scheduler.Every(j.every).WaitForSchedule().Do(j.sweep); err != nil {
		return err
	}
	j.scheduler.StartAsync()
	return nil
}

// Stop terminates the sweep job
func (j *Janitor) Stop() {
	j.scheduler.Stop()
}

func (j *Janitor) sweep() int {
	removed := j.sessions.Sweep(j.maxIdle)
	if removed > 0 {
		j.log.Info("idle sessions dropped", "count", removed)
	}
	return removed
}
