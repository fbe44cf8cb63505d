package humanoid

import (
	"fmt"
	"time"
)

// InvalidConfigurationError reports a profile or condition whose invariants
// are violated at construction time. It is always returned synchronously,
// before any driver interaction takes place.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// WaitTimeoutError indicates the wait condition was never satisfied within
// its time budget. The caller may retry with a fresh budget or abort.
type WaitTimeoutError struct {
	Condition string
	Elapsed   time.Duration
	Attempts  int
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("wait timed out after %s (%d polls): condition %q never satisfied",
		e.Elapsed.Round(time.Millisecond), e.Attempts, e.Condition)
}

// ActionTargetUnavailableError indicates the wait preceding an interaction
// failed, so the action was never started. No driver primitive has been
// issued when this error is returned.
type ActionTargetUnavailableError struct {
	Action   string
	Selector string
	Cause    error
}

func (e *ActionTargetUnavailableError) Error() string {
	return fmt.Sprintf("%s: target %q unavailable: %v", e.Action, e.Selector, e.Cause)
}

func (e *ActionTargetUnavailableError) Unwrap() error { return e.Cause }

// ActionExecutionFailedError indicates an underlying driver primitive failed
// after the wait had already resolved (e.g. the element went stale
// mid-action). The failing step index is recorded for diagnostics; the
// remaining steps of the action are aborted and never retried internally.
type ActionExecutionFailedError struct {
	Action string
	Step   int
	Cause  error
}

func (e *ActionExecutionFailedError) Error() string {
	return fmt.Sprintf("%s: driver call failed at step %d: %v", e.Action, e.Step, e.Cause)
}

func (e *ActionExecutionFailedError) Unwrap() error { return e.Cause }
