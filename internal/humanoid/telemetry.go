package humanoid

import (
	"time"

	"go.uber.org/zap"
)

// ActionResult is the outcome record emitted for every orchestrated
// action: success or typed failure, plus elapsed time, poll attempts and
// executed step count for observability. Absence of a sink never affects
// correctness.
type ActionResult struct {
	ID           string
	SessionID    string
	Action       string
	Selector     string
	Start        time.Time
	Elapsed      time.Duration
	PollAttempts int
	// Steps counts the driver primitives issued before completion or
	// failure.
	Steps int
	Err   error
}

// Succeeded reports whether the action completed without error.
func (r ActionResult) Succeeded() bool { return r.Err == nil }

// TelemetrySink receives ActionResult records. Implementations must be
// cheap; Record is called synchronously on the action path.
type TelemetrySink interface {
	Record(ActionResult)
}

// ZapSink logs every action result through a structured logger.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink wraps a logger as a telemetry sink.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

// Record implements TelemetrySink.
func (s *ZapSink) Record(r ActionResult) {
	fields := []zap.Field{
		zap.String("action_id", r.ID),
		zap.String("session_id", r.SessionID),
		zap.String("action", r.Action),
		zap.String("selector", r.Selector),
		zap.Duration("elapsed", r.Elapsed),
		zap.Int("poll_attempts", r.PollAttempts),
		zap.Int("steps", r.Steps),
	}
	if r.Err != nil {
		s.logger.Warn("action failed", append(fields, zap.Error(r.Err))...)
		return
	}
	s.logger.Info("action completed", fields...)
}
