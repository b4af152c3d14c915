package scheduler

import (
	"sync"
	"time"
)

// Scheduler defers a side effect by a delay, coalescing by key: scheduling
// under a key that already has a pending entry replaces that entry, so a burst
// of requests for the same effect collapses into the latest one. There is no
// cancellation concept beyond replacement, and no retries.
type Scheduler interface {
	// Schedule runs fn after delay, replacing any pending entry for key.
	Schedule(key string, delay time.Duration, fn func())
	// Cancel drops the pending entry for key, if any.
	Cancel(key string)
}

// TimerScheduler is the production implementation, backed by time.AfterFunc.
type TimerScheduler struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
}

func New() *TimerScheduler {
	return &TimerScheduler{pending: make(map[string]*time.Timer)}
}

func (s *TimerScheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.mu.Lock()
		// A timer that fired while being replaced must not evict its
		// replacement's entry.
		if s.pending[key] == t {
			delete(s.pending, key)
		}
		s.mu.Unlock()
		fn()
	})
	s.pending[key] = t
}

func (s *TimerScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[key]; ok {
		t.Stop()
		delete(s.pending, key)
	}
}

// Stop cancels every pending entry. Pending effects are dropped, not run.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.pending {
		t.Stop()
		delete(s.pending, key)
	}
}

// ManualScheduler holds scheduled effects until the test fires them, making
// coalescing behavior deterministic without sleeping.
type ManualScheduler struct {
	mu      sync.Mutex
	pending map[string]func()
}

func NewManual() *ManualScheduler {
	return &ManualScheduler{pending: make(map[string]func())}
}

func (s *ManualScheduler) Schedule(key string, _ time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = fn
}

func (s *ManualScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
}

// HasPending reports whether an effect is waiting under key.
func (s *ManualScheduler) HasPending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Fire runs and clears the pending effect for key, reporting whether one existed.
func (s *ManualScheduler) Fire(key string) bool {
	s.mu.Lock()
	fn, ok := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()
	if ok {
		fn()
	}
	return ok
}

// FireAll runs every pending effect and returns how many ran.
func (s *ManualScheduler) FireAll() int {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.pending))
	for key, fn := range s.pending {
		fns = append(fns, fn)
		delete(s.pending, key)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}
