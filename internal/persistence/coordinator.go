package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"deckeditor/internal/domain"
	"deckeditor/internal/editor"
)

// Defaults for Config fields left at zero.
const (
	DefaultDebounce        = 500 * time.Millisecond
	DefaultGestureDebounce = 150 * time.Millisecond
	DefaultRetryDelay      = 100 * time.Millisecond
)

type Config struct {
	// Debounce is how long the document must stay unchanged before a save starts.
	Debounce time.Duration
	// GestureDebounce replaces Debounce right after a drag or resize ends.
	GestureDebounce time.Duration
	// RetryDelay is how long a save waits when another one is still running.
	RetryDelay time.Duration
	Breaker    BreakerConfig
}

// BreakerConfig controls when repeated store failures stop further attempts.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.GestureDebounce <= 0 {
		c.GestureDebounce = DefaultGestureDebounce
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Breaker == (BreakerConfig{}) {
		c.Breaker = DefaultBreakerConfig()
	}
	return c
}

// Source is the editor as seen by the coordinator.
type Source interface {
	State() *editor.State
	Subscribe(fn editor.Listener) (unsubscribe func())
	SetSaving(saving bool) bool
	SetSaveError(err error)
	MarkSaved(ack domain.SaveAck, saved func(s *editor.State) bool) bool
}

// saveJob is one call into the store.
type saveJob struct {
	deckID string
	fp     uint64
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Coordinator watches editor snapshots and writes changed documents to the store.
// At most one save runs at a time; gestures and newer saves abort it.
type Coordinator struct {
	src     Source
	store   domain.DeckStore
	cfg     Config
	logger  *zap.Logger
	metrics *Metrics
	breaker *gobreaker.CircuitBreaker
	guard   saveGuard

	unsubscribe func()

	mu          sync.Mutex
	deckID      string
	lastSaved   uint64
	failed      uint64
	scheduled   uint64
	timer       *time.Timer
	timerGen    uint64
	wasDragging bool
	inflight    *saveJob
	closed      bool
}

func NewCoordinator(src Source, store domain.DeckStore, cfg Config, logger *zap.Logger, metrics *Metrics) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics("deckeditor")
	}
	cfg = cfg.withDefaults()
	c := &Coordinator{
		src:     src,
		store:   store,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "deck-store",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.Breaker.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.Breaker.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("store breaker state changed", zap.String("breaker", name), zap.Stringer("from", from), zap.Stringer("to", to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	c.adopt(src.State())
	c.unsubscribe = src.Subscribe(c.onState)
	return c
}

// adopt takes the snapshot's deck as the saved baseline.
func (c *Coordinator) adopt(s *editor.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.Deck == nil {
		return
	}
	c.deckID = s.Deck.Meta.ID
	c.lastSaved, _ = c.fingerprint(s.Deck)
}

// fingerprint reports ok=false for a deck that cannot be encoded. Such a deck
// counts as dirty and is never saved.
func (c *Coordinator) fingerprint(d *domain.Deck) (uint64, bool) {
	fp, err := Fingerprint(d)
	if err != nil {
		c.logger.Error("fingerprint failed", zap.String("deck", d.Meta.ID), zap.Error(err))
		return 0, false
	}
	return fp, true
}

// Dirty reports whether the live document differs from the last saved one.
func (c *Coordinator) Dirty() bool {
	s := c.src.State()
	if s.Deck == nil {
		return false
	}
	fp, ok := c.fingerprint(s.Deck)
	c.mu.Lock()
	defer c.mu.Unlock()
	return s.Deck.Meta.ID == c.deckID && (!ok || fp != c.lastSaved)
}

// Rebase takes the live document as the saved one, dropping a pending save.
// Used after the deck was reloaded from the store.
func (c *Coordinator) Rebase() {
	s := c.src.State()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimer()
	c.failed = 0
	if s.Deck == nil {
		return
	}
	c.deckID = s.Deck.Meta.ID
	c.lastSaved, _ = c.fingerprint(s.Deck)
}

// ── Snapshot handling ───────────────────────────────────────

func (c *Coordinator) onState(s *editor.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if s.Deck == nil {
		c.stopTimer()
		return
	}
	fp, ok := c.fingerprint(s.Deck)

	if s.Deck.Meta.ID != c.deckID {
		c.stopTimer()
		c.abort("deck replaced")
		c.deckID = s.Deck.Meta.ID
		c.lastSaved = fp
		c.wasDragging = s.IsDragging()
		return
	}

	if s.IsDragging() {
		c.stopTimer()
		c.abort("gesture started")
		c.wasDragging = true
		return
	}

	if !ok {
		c.stopTimer()
		c.wasDragging = false
		return
	}

	if c.wasDragging {
		c.wasDragging = false
		if fp != c.lastSaved {
			c.schedule(fp, c.cfg.GestureDebounce)
		}
		return
	}

	switch {
	case fp == c.lastSaved:
		c.stopTimer()
	case c.inflight != nil && c.inflight.fp == fp:
		c.stopTimer()
	case c.timer != nil && c.scheduled == fp:
	case fp == c.failed:
		// wait for the next edit before trying the same content again
	default:
		c.schedule(fp, c.cfg.Debounce)
	}
}

// schedule (re)arms the save timer. Must be called with c.mu held.
func (c *Coordinator) schedule(fp uint64, d time.Duration) {
	c.stopTimer()
	gen := c.timerGen
	c.scheduled = fp
	c.timer = time.AfterFunc(d, func() { c.fire(gen) })
}

// stopTimer cancels the pending save. A callback already running sees a stale
// generation and does nothing. Must be called with c.mu held.
func (c *Coordinator) stopTimer() {
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.scheduled = 0
}

// abort cancels the running save, if any. Must be called with c.mu held.
func (c *Coordinator) abort(reason string) {
	if c.inflight == nil {
		return
	}
	c.logger.Debug("aborting save", zap.String("deck", c.inflight.deckID), zap.String("reason", reason))
	c.inflight.cancel()
}

func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.timerGen {
		return
	}
	c.timer = nil
	c.scheduled = 0

	s := c.src.State()
	if s.Deck == nil || s.IsDragging() || s.Deck.Meta.ID != c.deckID {
		return
	}
	fp, ok := c.fingerprint(s.Deck)
	if !ok || fp == c.lastSaved {
		return
	}
	if c.inflight != nil {
		if c.inflight.fp == fp {
			return
		}
		c.abort("superseded")
		c.schedule(fp, c.cfg.RetryDelay)
		return
	}
	if c.start(s.Deck, fp) == nil {
		c.schedule(fp, c.cfg.RetryDelay)
	}
}

// ── Saving ──────────────────────────────────────────────────

// start launches a save of deck. It returns nil when the previous save has not
// released the guard yet. Must be called with c.mu held.
func (c *Coordinator) start(deck *domain.Deck, fp uint64) *saveJob {
	id := deck.Meta.ID
	if !c.guard.TryLock(id) {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	job := &saveJob{deckID: id, fp: fp, cancel: cancel, done: make(chan struct{})}
	c.inflight = job
	go c.run(ctx, job, deck.Clone())
	return job
}

func (c *Coordinator) run(ctx context.Context, job *saveJob, deck *domain.Deck) {
	defer close(job.done)
	defer c.guard.Unlock(job.deckID)
	defer job.cancel()

	c.src.SetSaving(true)
	c.metrics.InFlight.Inc()
	began := time.Now()
	res, err := c.breaker.Execute(func() (any, error) {
		return c.store.SaveDeck(ctx, deck)
	})
	c.metrics.SaveDuration.Observe(time.Since(began).Seconds())
	c.metrics.InFlight.Dec()

	c.mu.Lock()
	if c.inflight == job {
		c.inflight = nil
	}
	aborted := ctx.Err() != nil || errors.Is(err, context.Canceled)
	switch {
	case aborted:
	case err != nil:
		c.failed = job.fp
	default:
		c.lastSaved = job.fp
		c.failed = 0
	}
	c.mu.Unlock()

	switch {
	case aborted:
		c.metrics.Saves.WithLabelValues(ResultAborted).Inc()
		c.logger.Debug("save aborted", zap.String("deck", job.deckID))
		c.src.SetSaving(false)
	case err != nil:
		job.err = fmt.Errorf("save deck %s: %w", job.deckID, err)
		c.metrics.Saves.WithLabelValues(ResultError).Inc()
		c.logger.Warn("save failed", zap.String("deck", job.deckID), zap.Error(err))
		c.src.SetSaveError(job.err)
	default:
		c.metrics.Saves.WithLabelValues(ResultOK).Inc()
		ack, _ := res.(*domain.SaveAck)
		if ack == nil {
			ack = &domain.SaveAck{DeckID: job.deckID}
		}
		c.logger.Debug("deck saved", zap.String("deck", job.deckID), zap.Int64("version", ack.Version))
		c.commit(job, *ack)
	}
}

// commit writes the store's acknowledgement back only if the live document is
// still the one that was saved and no gesture is running. The check runs under
// the editor lock, so an edit cannot slip in between.
func (c *Coordinator) commit(job *saveJob, ack domain.SaveAck) {
	if ack.DeckID == "" {
		ack.DeckID = job.deckID
	}
	committed := c.src.MarkSaved(ack, func(s *editor.State) bool {
		if s.IsDragging() || s.Deck.Meta.ID != job.deckID {
			return false
		}
		fp, ok := c.fingerprint(s.Deck)
		return ok && fp == job.fp
	})
	if committed {
		return
	}
	c.logger.Debug("document changed during save, keeping it dirty", zap.String("deck", job.deckID))
	c.src.SetSaving(false)
}

// Flush saves the current document now, waiting for any running save first.
// It returns once the document is saved, cannot be saved yet, or ctx is done.
func (c *Coordinator) Flush(ctx context.Context) error {
	for {
		c.mu.Lock()
		c.stopTimer()
		if job := c.inflight; job != nil {
			c.mu.Unlock()
			select {
			case <-job.done:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		s := c.src.State()
		if s.Deck == nil || s.IsDragging() || s.Deck.Meta.ID != c.deckID {
			c.mu.Unlock()
			return nil
		}
		fp, ok := c.fingerprint(s.Deck)
		if !ok {
			c.mu.Unlock()
			return fmt.Errorf("save deck %s: %w", s.Deck.Meta.ID, ErrUnencodable)
		}
		if fp == c.lastSaved {
			c.mu.Unlock()
			return nil
		}
		job := c.start(s.Deck, fp)
		c.mu.Unlock()
		if job == nil {
			c.guard.WaitAll(ctx)
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-job.done:
			if job.err != nil {
				return job.err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops watching the editor and waits for a running save to finish.
func (c *Coordinator) Close(ctx context.Context) {
	c.unsubscribe()
	c.mu.Lock()
	c.closed = true
	c.stopTimer()
	c.mu.Unlock()
	c.guard.WaitAll(ctx)
}
