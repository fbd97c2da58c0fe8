// Package interaction turns continuous pointer input into editor mutations.
//
// Pointer moves only record the latest target geometry; the geometry is written
// to the editor at most once per frame tick, and once more synchronously when the
// gesture ends.
package interaction

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFrameInterval is roughly one display refresh at 60Hz.
const DefaultFrameInterval = 16 * time.Millisecond

// FrameScheduler runs a callback on the next frame tick. After cancel returns, fn
// is not started, though a call already under way may still finish.
type FrameScheduler interface {
	Request(fn func()) (cancel func())
}

// TimerScheduler fires requested callbacks after a fixed interval.
type TimerScheduler struct {
	Interval time.Duration
}

func NewTimerScheduler(interval time.Duration) *TimerScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &TimerScheduler{Interval: interval}
}

func (s *TimerScheduler) Request(fn func()) func() {
	var cancelled atomic.Bool
	t := time.AfterFunc(s.Interval, func() {
		if !cancelled.Load() {
			fn()
		}
	})
	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}

// ManualScheduler queues callbacks until Tick is called. Tests use it to step frames.
type ManualScheduler struct {
	mu      sync.Mutex
	nextID  int
	pending map[int]func()
	order   []int
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[int]func())}
}

func (s *ManualScheduler) Request(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.pending[id] = fn
	s.order = append(s.order, id)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.pending, id)
	}
}

// Tick runs every callback requested so far and returns how many ran.
func (s *ManualScheduler) Tick() int {
	s.mu.Lock()
	var fns []func()
	for _, id := range s.order {
		if fn, ok := s.pending[id]; ok {
			fns = append(fns, fn)
			delete(s.pending, id)
		}
	}
	s.order = nil
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// Pending reports how many callbacks are waiting for the next tick.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
