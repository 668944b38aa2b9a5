package coordinator

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// watchdogState models the lifecycle of one arm of the watchdog.
type watchdogState int

const (
	stateIdle watchdogState = iota
	stateArmed
	stateFired
	stateCancelled
)

// Watchdog arms a single-shot deadline per subtask and invokes onExpire
// when it elapses. Start and Cancel may race with the timer firing; the
// generation counter ensures a stale fire scheduled before a Cancel or
// re-arm is never delivered. For each arm, either onExpire runs exactly
// once or a preceding Cancel suppresses it; never both.
type Watchdog struct {
	mu       sync.Mutex
	clock    clock.Clock
	timer    *clock.Timer
	state    watchdogState
	gen      uint64
	current  SubtaskState
	onExpire func(SubtaskState)
}

// NewWatchdog creates a watchdog using the given clock. Tests pass a mock
// clock to drive expiry deterministically.
func NewWatchdog(clk clock.Clock, onExpire func(SubtaskState)) *Watchdog {
	return &Watchdog{
		clock:    clk,
		onExpire: onExpire,
	}
}

// Start cancels any prior timer and arms a new single-shot deadline for
// the given subtask.
func (w *Watchdog) Start(sub SubtaskState, deadline time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	w.gen++
	gen := w.gen
	w.state = stateArmed
	w.current = sub
	w.timer = w.clock.AfterFunc(deadline, func() {
		w.fire(gen)
	})
}

// Cancel disarms the watchdog. Safe to call at any time, including when
// nothing is armed.
func (w *Watchdog) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.state == stateArmed {
		w.state = stateCancelled
	}
}

// fire runs on the timer's execution context. The callback is invoked
// outside the lock after the state transition commits, so a concurrent
// Cancel arriving afterwards cannot suppress an already-committed firing,
// and a Cancel that won the lock first fully suppresses it.
func (w *Watchdog) fire(gen uint64) {
	w.mu.Lock()
	if w.state != stateArmed || gen != w.gen {
		w.mu.Unlock()
		return
	}
	w.state = stateFired
	w.timer = nil
	sub := w.current
	w.mu.Unlock()

	w.onExpire(sub)
}
