package humanoid

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// pollFloor is the lowest poll interval the engine will accept, preventing
// busy-looping against the external locator.
const pollFloor = 5 * time.Millisecond

// WaitCondition describes what "ready" means for one wait: the element
// state the locator must report, an optional extra predicate over the
// resolved handle, and the polling budget.
type WaitCondition struct {
	// Description labels the condition in errors and telemetry.
	Description string
	// State is the readiness the locator is asked for.
	State ElementState
	// Predicate optionally refines readiness beyond the locator's answer.
	// A nil predicate accepts any non-nil handle.
	Predicate func(*ElementHandle) bool
	// Timeout is the total budget for the wait.
	Timeout time.Duration
	// PollInterval is the initial delay between polls.
	PollInterval time.Duration
	// BackoffFactor (>= 1) multiplies the interval after each miss.
	// Zero means no backoff.
	BackoffFactor float64
	// MaxInterval bounds the grown interval. Zero means PollInterval is
	// also the ceiling.
	MaxInterval time.Duration
}

// Validate checks the condition invariants: timeout >= poll interval > 0,
// poll interval at or above the floor, backoff not shrinking.
func (c WaitCondition) Validate() error {
	if c.PollInterval <= 0 {
		return &InvalidConfigurationError{Field: "pollInterval", Reason: "must be positive"}
	}
	if c.PollInterval < pollFloor {
		return &InvalidConfigurationError{Field: "pollInterval", Reason: "below minimum of " + pollFloor.String()}
	}
	if c.Timeout < c.PollInterval {
		return &InvalidConfigurationError{Field: "timeout", Reason: "must not be less than pollInterval"}
	}
	if c.BackoffFactor != 0 && c.BackoffFactor < 1 {
		return &InvalidConfigurationError{Field: "backoffFactor", Reason: "must be at least 1"}
	}
	return nil
}

func (c WaitCondition) description() string {
	if c.Description != "" {
		return c.Description
	}
	return string(c.State)
}

// Condition is a convenience constructor for the common case: wait for the
// locator to report the given state within the budget.
func Condition(state ElementState, timeout, pollInterval time.Duration) WaitCondition {
	return WaitCondition{State: state, Timeout: timeout, PollInterval: pollInterval}
}

// WaitStats records how a wait played out, for observability.
type WaitStats struct {
	Attempts int
	Elapsed  time.Duration
}

// WaitEngine polls a Locator on a backoff schedule until a condition holds
// or its budget elapses. State machine: Polling -> {Resolved, TimedOut}.
// At least one poll always occurs, even under a minimal budget, and a final
// poll is taken at the deadline so a condition that becomes true at the
// last moment is not missed.
type WaitEngine struct {
	sleeper interface {
		Sleep(ctx context.Context, d time.Duration) error
	}
	logger *zap.Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewWaitEngine builds a WaitEngine that sleeps through the given executor
// so suspension stays context-aware and mockable.
func NewWaitEngine(exec Executor, logger *zap.Logger) *WaitEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WaitEngine{sleeper: exec, logger: logger, now: time.Now}
}

// Await polls the locator until the condition holds or the budget elapses.
// Configuration errors surface synchronously, before the first poll.
// On success it returns the resolved handle; on exhaustion a
// *WaitTimeoutError carrying the condition description, elapsed time and
// attempt count.
func (w *WaitEngine) Await(ctx context.Context, locator Locator, selector string, cond WaitCondition) (*ElementHandle, WaitStats, error) {
	if err := cond.Validate(); err != nil {
		return nil, WaitStats{}, err
	}

	start := w.now()
	interval := cond.PollInterval
	stats := WaitStats{}

	for {
		if err := ctx.Err(); err != nil {
			stats.Elapsed = w.now().Sub(start)
			return nil, stats, err
		}

		stats.Attempts++
		handle, err := locator.Locate(ctx, selector, cond.State)
		if err != nil {
			stats.Elapsed = w.now().Sub(start)
			return nil, stats, err
		}
		if handle != nil && (cond.Predicate == nil || cond.Predicate(handle)) {
			stats.Elapsed = w.now().Sub(start)
			w.logger.Debug("wait resolved",
				zap.String("selector", selector),
				zap.String("condition", cond.description()),
				zap.Int("attempts", stats.Attempts),
				zap.Duration("elapsed", stats.Elapsed))
			return handle, stats, nil
		}

		elapsed := w.now().Sub(start)
		if elapsed >= cond.Timeout {
			stats.Elapsed = elapsed
			return nil, stats, &WaitTimeoutError{
				Condition: cond.description(),
				Elapsed:   elapsed,
				Attempts:  stats.Attempts,
			}
		}

		// Never sleep past the deadline; the loop then takes its final
		// poll exactly at the budget boundary, bounding overshoot to one
		// interval in the worst case.
		sleepFor := interval
		if remaining := cond.Timeout - elapsed; sleepFor > remaining {
			sleepFor = remaining
		}
		if err := w.sleeper.Sleep(ctx, sleepFor); err != nil {
			stats.Elapsed = w.now().Sub(start)
			return nil, stats, err
		}

		if cond.BackoffFactor > 1 {
			interval = time.Duration(float64(interval) * cond.BackoffFactor)
			ceiling := cond.MaxInterval
			if ceiling <= 0 {
				ceiling = cond.PollInterval
			}
			if interval > ceiling {
				interval = ceiling
			}
		}
	}
}
