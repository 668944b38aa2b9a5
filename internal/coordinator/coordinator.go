package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rdelaney/graphmark/internal/model"
)

// DefaultOpTimeout is the per-operation deadline share when none is
// configured. A subtask reporting num_ops operations is aborted after
// num_ops*DefaultOpTimeout without a completion event.
const DefaultOpTimeout = 10 * time.Millisecond

// abortTimeout bounds how long one abort attempt may take.
const abortTimeout = 30 * time.Second

// Subtask status constants.
const (
	SubtaskArmed     = "armed"
	SubtaskCompleted = "completed"
	SubtaskTimedOut  = "timed_out"
)

// SubtaskState describes the currently executing subtask. At most one live
// instance exists per coordinator.
type SubtaskState struct {
	TaskName  string
	NumOps    int
	StartTime time.Time
	Timeout   time.Duration
	Status    string
}

// SubtaskResult is the recorded outcome of one finished subtask.
type SubtaskResult struct {
	TaskName        string
	Status          string
	DurationSeconds float64
	OriginalOps     int
	ValidOps        int
	FilteredOps     int
}

// Aborter force-terminates the runner's current blocking operation when a
// subtask deadline expires, typically by stopping the execution container.
// Implemented by the caller so tests can assert invocation without a real
// execution unit.
type Aborter interface {
	Abort(ctx context.Context, sub SubtaskState) error
}

// AbortFunc adapts a function to the Aborter interface.
type AbortFunc func(ctx context.Context, sub SubtaskState) error

// Abort calls f.
func (f AbortFunc) Abort(ctx context.Context, sub SubtaskState) error {
	return f(ctx, sub)
}

// Coordinator consumes the progress event stream from exactly one external
// runner at a time, tracks the live subtask, and delegates deadline
// enforcement to its watchdog. All cross-event state is instance-local so
// multiple coordinators never interfere.
type Coordinator struct {
	mu              sync.Mutex
	watchdog        *Watchdog
	aborter         Aborter
	clock           clock.Clock
	logger          *slog.Logger
	opTimeout       time.Duration
	restoreExpected bool
	current         *SubtaskState
	results         []SubtaskResult
	timedOut        bool
}

// New creates a coordinator. opTimeout <= 0 falls back to DefaultOpTimeout.
func New(aborter Aborter, opTimeout time.Duration, clk clock.Clock, logger *slog.Logger) *Coordinator {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	c := &Coordinator{
		aborter:   aborter,
		clock:     clk,
		logger:    logger,
		opTimeout: opTimeout,
	}
	c.watchdog = NewWatchdog(clk, c.onTimeout)
	return c
}

// HandleEvent processes one progress event. Events are consumed strictly
// in arrival order; a lost event is a silent drop, never retried.
func (c *Coordinator) HandleEvent(ev model.Event) {
	eventsTotal.WithLabelValues(ev.Event).Inc()

	switch ev.Event {
	case model.EventSubtaskStart:
		c.handleSubtaskStart(ev)
	case model.EventSubtaskComplete:
		c.handleSubtaskComplete(ev)
	case model.EventRestoreComplete:
		c.handleRestoreComplete(ev)
	case model.EventTaskStart:
		c.logger.Info("task started",
			"task", ev.TaskName,
			"index", intOrZero(ev.TaskIndex),
			"total", intOrZero(ev.TotalTasks),
			"workload_file", ev.WorkloadFile,
		)
	case model.EventTaskComplete:
		c.logger.Info("task completed",
			"task", ev.TaskName,
			"status", ev.Status,
			"duration_s", floatOrZero(ev.DurationSeconds),
		)
	case model.EventSnapshotStart, model.EventSnapshotComplete,
		model.EventRestoreStart,
		model.EventCleanupStart, model.EventCleanupComplete:
		c.logger.Debug("lifecycle event", "event", ev.Event, "task", ev.TaskName, "status", ev.Status)
	case model.EventLogMessage:
		c.logRunnerMessage(ev)
	case model.EventErrorMessage:
		c.logger.Error("runner error", "error_type", ev.ErrorType, "message", ev.Message)
	default:
		c.logger.Warn("unknown event kind", "event", ev.Event)
	}
}

func (c *Coordinator) handleSubtaskStart(ev model.Event) {
	c.mu.Lock()

	if c.restoreExpected {
		// Protocol violation: the runner must restore the database to
		// baseline between subtasks. Warn and continue.
		protocolViolationsTotal.Inc()
		c.logger.Warn("subtask_start before expected restore_complete",
			"task", ev.TaskName)
	}

	numOps := intOrZero(ev.NumOps)
	sub := SubtaskState{
		TaskName:  ev.TaskName,
		NumOps:    numOps,
		StartTime: c.clock.Now(),
		Timeout:   time.Duration(numOps) * c.opTimeout,
		Status:    SubtaskArmed,
	}
	c.current = &sub
	c.mu.Unlock()

	if numOps > 0 {
		c.watchdog.Start(sub, sub.Timeout)
		c.logger.Info("subtask started",
			"task", sub.TaskName,
			"num_ops", numOps,
			"timeout_s", sub.Timeout.Seconds(),
		)
	} else {
		// A new subtask supersedes whatever deadline is still armed, even
		// when it carries no deadline of its own.
		c.watchdog.Cancel()
		c.logger.Info("subtask started without ops, no deadline", "task", sub.TaskName)
	}
}

func (c *Coordinator) handleSubtaskComplete(ev model.Event) {
	// Disarm first: safe even when no timer is active.
	c.watchdog.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	res := SubtaskResult{
		TaskName:        ev.TaskName,
		Status:          SubtaskCompleted,
		DurationSeconds: floatOrZero(ev.DurationSeconds),
		OriginalOps:     intOrZero(ev.OriginalOpsCount),
		ValidOps:        intOrZero(ev.ValidOpsCount),
		FilteredOps:     intOrZero(ev.FilteredOpsCount),
	}
	c.results = append(c.results, res)
	c.current = nil

	// The database must be restored to baseline before the next subtask.
	c.restoreExpected = true

	c.logger.Info("subtask completed",
		"task", res.TaskName,
		"duration_s", res.DurationSeconds,
		"valid_ops", res.ValidOps,
		"filtered_ops", res.FilteredOps,
	)
}

func (c *Coordinator) handleRestoreComplete(ev model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.Status == "" || ev.Status == "success" {
		c.restoreExpected = false
	} else {
		c.logger.Warn("restore reported failure", "status", ev.Status)
	}
}

// onTimeout runs on the watchdog's timer context when a deadline expires
// with no intervening subtask_complete. The watchdog guarantees it runs at
// most once per arm.
func (c *Coordinator) onTimeout(sub SubtaskState) {
	timeoutsTotal.Inc()

	c.mu.Lock()
	sub.Status = SubtaskTimedOut
	c.results = append(c.results, SubtaskResult{
		TaskName: sub.TaskName,
		Status:   SubtaskTimedOut,
	})
	c.current = nil
	c.timedOut = true
	c.mu.Unlock()

	c.logger.Error("subtask deadline exceeded, aborting runner",
		"task", sub.TaskName,
		"num_ops", sub.NumOps,
		"timeout_s", sub.Timeout.Seconds(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), abortTimeout)
	defer cancel()
	if err := c.aborter.Abort(ctx, sub); err != nil {
		c.logger.Error("abort failed", "task", sub.TaskName, "error", err)
	}
}

func (c *Coordinator) logRunnerMessage(ev model.Event) {
	switch ev.Level {
	case "ERROR", "error":
		c.logger.Error("runner", "message", ev.Message)
	case "WARN", "warn", "WARNING":
		c.logger.Warn("runner", "message", ev.Message)
	default:
		c.logger.Info("runner", "message", ev.Message)
	}
}

// Results returns a copy of the recorded subtask outcomes so far.
func (c *Coordinator) Results() []SubtaskResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SubtaskResult, len(c.results))
	copy(out, c.results)
	return out
}

// TimedOut reports whether any subtask deadline expired during this run.
// Used to distinguish timeout-triggered run failures from other errors.
func (c *Coordinator) TimedOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timedOut
}

// Current returns the live subtask, or nil when none is executing.
func (c *Coordinator) Current() *SubtaskState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	sub := *c.current
	return &sub
}

// Reset clears all per-run state before a new run begins. Any deadline
// still armed from the previous run is disarmed.
func (c *Coordinator) Reset() {
	c.watchdog.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.results = nil
	c.timedOut = false
	c.restoreExpected = false
}

// Shutdown disarms any outstanding deadline.
func (c *Coordinator) Shutdown() {
	c.watchdog.Cancel()
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func floatOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
