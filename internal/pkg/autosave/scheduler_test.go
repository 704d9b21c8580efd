package autosave

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the scheduler with virtual time. Advance fires due
// timers synchronously in deadline order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	mu       sync.Mutex
	deadline time.Time
	f        func()
	stopped  bool
	fired    bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (t *fakeTimer) tryFire(now time.Time) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.stopped || t.deadline.After(now) {
		return nil
	}
	t.fired = true
	return t.f
}

// Advance moves virtual time forward and fires every timer that came
// due, including timers armed by earlier callbacks in the same window.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()

	for {
		c.mu.Lock()
		pending := make([]*fakeTimer, len(c.timers))
		copy(pending, c.timers)
		c.mu.Unlock()

		sort.Slice(pending, func(i, j int) bool {
			return pending[i].deadline.Before(pending[j].deadline)
		})

		fired := false
		for _, t := range pending {
			if f := t.tryFire(now); f != nil {
				f()
				fired = true
			}
		}
		if !fired {
			return
		}
	}
}

// recordingPersist captures persist calls and can be scripted to fail
// or block.
type recordingPersist struct {
	mu       sync.Mutex
	calls    []string
	failures int
	block    chan struct{}
}

func (p *recordingPersist) fn(ctx context.Context, content string) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, content)
	if p.failures > 0 {
		p.failures--
		return errors.New("backend unavailable")
	}
	return nil
}

func (p *recordingPersist) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *recordingPersist) lastCall() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.calls) == 0 {
		return ""
	}
	return p.calls[len(p.calls)-1]
}

func newTestScheduler(p *recordingPersist, clock *fakeClock, initial string) *Scheduler {
	return NewScheduler(p.fn, initial, Options{Clock: clock})
}

func waitForStatus(t *testing.T, s *Scheduler, status string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.State().Status == status
	}, time.Second, time.Millisecond, "expected status %q", status)
}

func TestDebounceCoalescesBurst(t *testing.T) {
	clock := newFakeClock()
	p := &recordingPersist{}
	s := newTestScheduler(p, clock, "")
	defer s.Close()

	s.Update("h")
	s.Update("he")
	s.Update("hello")

	clock.Advance(DefaultInterval)
	waitForStatus(t, s, StatusSaved)

	assert.Equal(t, 1, p.callCount(), "a burst of edits must persist once")
	assert.Equal(t, "hello", p.lastCall())
}

func TestDebounceWindowRestartsOnEachEdit(t *testing.T) {
	clock := newFakeClock()
	p := &recordingPersist{}
	s := newTestScheduler(p, clock, "")
	defer s.Close()

	s.Update("a")
	clock.Advance(2 * time.Second)
	s.Update("ab")
	clock.Advance(2 * time.Second)
	assert.Zero(t, p.callCount(), "edits inside the window must restart it")

	clock.Advance(time.Second)
	waitForStatus(t, s, StatusSaved)
	assert.Equal(t, "ab", p.lastCall())
}

func TestUnchangedContentIsNotPersisted(t *testing.T) {
	clock := newFakeClock()
	p := &recordingPersist{}
	s := newTestScheduler(p, clock, "original")
	defer s.Close()

	s.Update("original")
	clock.Advance(DefaultInterval)

	assert.Zero(t, p.callCount())
	assert.Equal(t, StatusIdle, s.State().Status)
}

func TestSingleFlightSwallowsFireDuringSave(t *testing.T) {
	clock := newFakeClock()
	p := &recordingPersist{block: make(chan struct{})}
	s := newTestScheduler(p, clock, "")
	defer s.Close()

	s.Update("v1")
	clock.Advance(DefaultInterval)
	waitForStatus(t, s, StatusSaving)

	// A second debounce cycle fires while the save is outstanding.
	s.Update("v2")
	clock.Advance(DefaultInterval)

	close(p.block)
	waitForStatus(t, s, StatusSaved)
	assert.Equal(t, 1, p.callCount(), "fires during an in-flight save are swallowed")
	assert.Equal(t, "v1", p.lastCall())

	// The swallowed content is still dirty; the next edit cycle picks
	// it up.
	assert.True(t, s.State().Dirty)
	p.block = nil
	s.Update("v3")
	clock.Advance(DefaultInterval)
	require.Eventually(t, func() bool { return p.callCount() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, "v3", p.lastCall())
}

func TestFailedSaveRetriesUntilSuccess(t *testing.T) {
	clock := newFakeClock()
	p := &recordingPersist{failures: 2}
	s := newTestScheduler(p, clock, "")
	defer s.Close()

	s.Update("draft")
	clock.Advance(DefaultInterval)
	waitForStatus(t, s, StatusError)
	assert.Equal(t, 1, p.callCount())

	clock.Advance(DefaultRetryDelay)
	waitForStatus(t, s, StatusError)
	assert.Equal(t, 2, p.callCount())

	clock.Advance(DefaultRetryDelay)
	waitForStatus(t, s, StatusSaved)
	assert.Equal(t, 3, p.callCount())
	assert.Equal(t, "draft", p.lastCall())
}

func TestSavedStatusDecaysToIdle(t *testing.T) {
	clock := newFakeClock()
	p := &recordingPersist{}
	s := newTestScheduler(p, clock, "")
	defer s.Close()

	s.Update("content")
	clock.Advance(DefaultInterval)
	waitForStatus(t, s, StatusSaved)

	clock.Advance(DefaultSavedDisplay)
	assert.Equal(t, StatusIdle, s.State().Status)
	assert.False(t, s.State().Dirty)
	assert.Equal(t, clock.Now(), s.State().LastSavedAt.Add(DefaultSavedDisplay))
}

func TestSaveNowSkipsDebounce(t *testing.T) {
	clock := newFakeClock()
	p := &recordingPersist{}
	s := newTestScheduler(p, clock, "")
	defer s.Close()

	s.Update("urgent")
	s.SaveNow()
	waitForStatus(t, s, StatusSaved)
	assert.Equal(t, 1, p.callCount())

	// The cancelled debounce timer must not trigger a second save.
	clock.Advance(DefaultInterval)
	assert.Equal(t, 1, p.callCount())
}

func TestDisableCancelsPendingSave(t *testing.T) {
	clock := newFakeClock()
	p := &recordingPersist{}
	s := newTestScheduler(p, clock, "")
	defer s.Close()

	s.Update("unsaved")
	s.SetEnabled(false)
	clock.Advance(DefaultInterval)
	assert.Zero(t, p.callCount())
	assert.True(t, s.State().Dirty, "disabling must not lose the pending content")

	s.SetEnabled(true)
	s.Update("unsaved again")
	clock.Advance(DefaultInterval)
	waitForStatus(t, s, StatusSaved)
	assert.Equal(t, "unsaved again", p.lastCall())
}

func TestDisableStopsRetrying(t *testing.T) {
	clock := newFakeClock()
	p := &recordingPersist{failures: 10}
	s := newTestScheduler(p, clock, "")
	defer s.Close()

	s.Update("doomed")
	clock.Advance(DefaultInterval)
	waitForStatus(t, s, StatusError)
	require.Equal(t, 1, p.callCount())

	s.SetEnabled(false)
	clock.Advance(10 * DefaultRetryDelay)
	assert.Equal(t, 1, p.callCount(), "retries must stop when autosave is disabled")
}

func TestCloseDropsEverything(t *testing.T) {
	clock := newFakeClock()
	p := &recordingPersist{}
	s := newTestScheduler(p, clock, "")

	s.Update("gone")
	s.Close()
	clock.Advance(DefaultInterval)
	assert.Zero(t, p.callCount())

	// Calls after Close are no-ops.
	s.Update("more")
	s.SaveNow()
	clock.Advance(DefaultInterval)
	assert.Zero(t, p.callCount())
}
