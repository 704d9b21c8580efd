// Package autosave coalesces bursts of document edits into single
// debounced persist calls with at most one save in flight per document.
//
// Each editing surface owns one Scheduler; there is no process-wide
// state. The scheduler is "latest wins": a timer fire that lands while a
// save is outstanding is swallowed and the next edit starts a fresh
// cycle, so no queue of stale saves can build up.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const (
	StatusIdle   = "idle"
	StatusSaving = "saving"
	StatusSaved  = "saved"
	StatusError  = "error"
)

const (
	DefaultInterval     = 3 * time.Second
	DefaultRetryDelay   = 5 * time.Second
	DefaultSavedDisplay = 2 * time.Second
)

// PersistFunc pushes content to the backend. It is called outside the
// scheduler lock and must be safe to invoke repeatedly.
type PersistFunc func(ctx context.Context, content string) error

// Options tune one scheduler. Zero values fall back to the defaults.
type Options struct {
	// Interval is the debounce window restarted on every edit.
	Interval time.Duration
	// RetryDelay is the fixed backoff before re-attempting a failed
	// save. Retries repeat on every failure while autosave is enabled;
	// unsaved work is never silently given up on.
	RetryDelay time.Duration
	// SavedDisplay is how long the saved status is shown before the
	// scheduler returns to idle.
	SavedDisplay time.Duration
	// Clock defaults to the runtime clock.
	Clock Clock
}

// Snapshot is the externally visible scheduler state.
type Snapshot struct {
	Status      string
	LastSavedAt time.Time
	Dirty       bool
}

// Scheduler debounces edits for one document and guarantees a single
// in-flight persist call.
type Scheduler struct {
	mu      sync.Mutex
	persist PersistFunc
	clock   Clock

	interval     time.Duration
	retryDelay   time.Duration
	savedDisplay time.Duration

	enabled bool
	closed  bool

	status      string
	lastSaved   string
	lastSavedAt time.Time
	pending     string
	hasPending  bool
	inFlight    bool

	debounceTimer Timer
	retryTimer    Timer
	savedTimer    Timer
}

// NewScheduler creates an enabled scheduler for one document. The given
// content is treated as the last persisted snapshot.
func NewScheduler(persist PersistFunc, initialContent string, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.SavedDisplay <= 0 {
		opts.SavedDisplay = DefaultSavedDisplay
	}
	if opts.Clock == nil {
		opts.Clock = NewClock()
	}
	return &Scheduler{
		persist:      persist,
		clock:        opts.Clock,
		interval:     opts.Interval,
		retryDelay:   opts.RetryDelay,
		savedDisplay: opts.SavedDisplay,
		enabled:      true,
		status:       StatusIdle,
		lastSaved:    initialContent,
	}
}

// Update records an edit and restarts the debounce window.
func (s *Scheduler) Update(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = content
	s.hasPending = true
	if !s.enabled {
		return
	}
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = s.clock.AfterFunc(s.interval, s.onDebounceFire)
}

// SaveNow cancels any pending debounce and saves immediately, sharing
// the in-flight guard with the automatic path.
func (s *Scheduler) SaveNow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
	s.trySaveLocked()
}

// SetEnabled toggles autosave. Disabling cancels pending debounce and
// retry timers; an in-flight save still runs to completion.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.enabled == enabled {
		return
	}
	s.enabled = enabled
	if !enabled {
		s.stopTimersLocked()
	}
}

// Close tears the session down. Pending timers are cancelled; an
// in-flight save finishes but its result is discarded.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimersLocked()
	if s.savedTimer != nil {
		s.savedTimer.Stop()
		s.savedTimer = nil
	}
}

// State returns the current externally visible state.
func (s *Scheduler) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Status:      s.status,
		LastSavedAt: s.lastSavedAt,
		Dirty:       s.hasPending && s.pending != s.lastSaved,
	}
}

func (s *Scheduler) onDebounceFire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debounceTimer = nil
	s.trySaveLocked()
}

func (s *Scheduler) onRetryFire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryTimer = nil
	// Retry only while the feature is still enabled.
	if !s.enabled {
		return
	}
	s.trySaveLocked()
}

// trySaveLocked starts a save unless one is already in flight or the
// content matches the last persisted snapshot. A fire that lands during
// an in-flight save is swallowed; the next edit cycle supersedes it.
func (s *Scheduler) trySaveLocked() {
	if s.closed || !s.enabled || s.inFlight {
		return
	}
	content := s.pending
	if !s.hasPending || content == s.lastSaved {
		return
	}
	s.inFlight = true
	s.status = StatusSaving
	if s.savedTimer != nil {
		s.savedTimer.Stop()
		s.savedTimer = nil
	}
	go s.doSave(content)
}

// doSave runs the persist call outside the lock and applies the result.
func (s *Scheduler) doSave(content string) {
	err := s.persist(context.Background(), content)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if s.closed {
		return
	}
	if err != nil {
		log.Warnf("[Autosave] persist failed, retrying in %s: %v", s.retryDelay, err)
		s.status = StatusError
		if s.retryTimer != nil {
			s.retryTimer.Stop()
		}
		s.retryTimer = s.clock.AfterFunc(s.retryDelay, s.onRetryFire)
		return
	}

	s.lastSaved = content
	s.lastSavedAt = s.clock.Now()
	if s.pending == content {
		s.hasPending = false
	}
	s.status = StatusSaved
	s.savedTimer = s.clock.AfterFunc(s.savedDisplay, s.onSavedDisplayDone)
}

func (s *Scheduler) onSavedDisplayDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savedTimer = nil
	if s.status == StatusSaved {
		s.status = StatusIdle
	}
}

func (s *Scheduler) stopTimersLocked() {
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
}
