package robot

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultTimerPeriod is the housekeeping cadence of the robotling board.
const DefaultTimerPeriod = 50 * time.Millisecond

// Timer runs a callback at a fixed cadence in its own goroutine, the way the
// board's hardware timer refreshes sensors and evaluates the tilt interlock
// while the foreground is busy inside a behavior.
type Timer struct {
	clk    clock.Clock
	period time.Duration
	fn     func(now time.Time)
	log    *slog.Logger

	paused atomic.Bool
	ticks  atomic.Uint64
	missed atomic.Uint64 // ticks dropped while paused

	stop     chan struct{}
	stopOnce sync.Once
}

// NewTimer creates a timer calling fn every period on clk.
// A nil clk means the wall clock.
func NewTimer(clk clock.Clock, period time.Duration, fn func(now time.Time), logger *slog.Logger) *Timer {
	if clk == nil {
		clk = clock.New()
	}
	if period <= 0 {
		period = DefaultTimerPeriod
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Timer{
		clk:    clk,
		period: period,
		fn:     fn,
		log:    logger,
		stop:   make(chan struct{}),
	}
}

// Run blocks, invoking the callback each period until ctx is done or Stop is
// called. Ticks arriving while paused are dropped, not queued.
func (t *Timer) Run(ctx context.Context) {
	ticker := t.clk.Ticker(t.period)
	defer ticker.Stop()

	t.log.Debug("timer started", "period", t.period)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case now := <-ticker.C:
			if t.paused.Load() {
				t.missed.Add(1)
				continue
			}
			n := t.ticks.Add(1)
			t.fn(now)
			if n%1200 == 0 {
				t.log.Debug("timer heartbeat", "ticks", n, "missed", t.missed.Load())
			}
		}
	}
}

// Pause suspends callbacks, e.g. while the board is in a low-power rest.
// A callback already in progress runs to completion.
func (t *Timer) Pause() {
	t.paused.Store(true)
}

// Resume restarts callbacks after Pause.
func (t *Timer) Resume() {
	t.paused.Store(false)
}

// Paused reports whether callbacks are suspended.
func (t *Timer) Paused() bool {
	return t.paused.Load()
}

// Ticks returns the number of callbacks started so far.
func (t *Timer) Ticks() uint64 {
	return t.ticks.Load()
}

// Stop halts Run. Safe to call more than once.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}
