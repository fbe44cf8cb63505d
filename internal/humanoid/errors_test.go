package humanoid

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	cfgErr := &InvalidConfigurationError{Field: "pollInterval", Reason: "must be positive"}
	assert.Equal(t, "invalid configuration: pollInterval: must be positive", cfgErr.Error())

	waitErr := &WaitTimeoutError{Condition: "visible", Elapsed: 100 * time.Millisecond, Attempts: 6}
	assert.Contains(t, waitErr.Error(), "6 polls")
	assert.Contains(t, waitErr.Error(), `"visible"`)
}

func TestErrorUnwrapChains(t *testing.T) {
	root := errors.New("socket closed")

	unavailable := &ActionTargetUnavailableError{
		Action:   "click",
		Selector: "#btn",
		Cause:    &WaitTimeoutError{Condition: "clickable", Elapsed: time.Second, Attempts: 4},
	}
	var waitErr *WaitTimeoutError
	assert.ErrorAs(t, error(unavailable), &waitErr)
	assert.Equal(t, 4, waitErr.Attempts)

	execErr := &ActionExecutionFailedError{Action: "type", Step: 3, Cause: root}
	assert.ErrorIs(t, error(execErr), root)
	assert.Contains(t, execErr.Error(), "step 3")
}
