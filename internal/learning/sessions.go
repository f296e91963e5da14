package learning

import (
	"sync"
	"time"

	"github.com/example/spanishbot/internal/logger"
)

type sessionEntry struct {
	screen   *Screen
	lastSeen time.Time
}

// Sessions keeps one Screen per front-end session key (a web cookie or a chat id)
type Sessions struct {
	backend Backend
	log     *logger.Logger
	now     func() time.Time

	mu      sync.Mutex
	screens map[string]*sessionEntry
}

// NewSessions creates an empty registry
func NewSessions(backend Backend, log *logger.Logger) *Sessions {
	if log == nil {
		log = logger.Nop()
	}
	return &Sessions{
		backend: backend,
		log:     log,
		now:     time.Now,
		screens: make(map[string]*sessionEntry),
	}
}

// Get returns the screen for key, if one exists
func (s *Sessions) Get(key string) (*Screen, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.screens[key]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.screen, true
}

// GetOrCreate returns the screen for key, creating an unauthenticated one when missing.
// The boolean is true when a new screen was created.
func (s *Sessions) GetOrCreate(key string) (*Screen, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.screens[key]; ok {
		e.lastSeen = s.now()
		return e.screen, false
	}
	sc := NewScreen(s.backend, s.log.With("session", key))
	s.screens[key] = &sessionEntry{screen: sc, lastSeen: s.now()}
	return sc, true
}

// Delete forgets the screen for key
func (s *Sessions) Delete(key string) {
	s.mu.Lock()
	delete(s.screens, key)
	s.mu.Unlock()
}

// Sweep drops sessions not used for longer than maxIdle and returns how many went
func (s *Sessions) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-maxIdle)
	removed := 0
	for key, e := range s.screens {
		if e.lastSeen.Before(cutoff) {
			delete(s.screens, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.screens)
}
