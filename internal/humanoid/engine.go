// Package humanoid synthesizes human-plausible timing, motion and retry
// behavior around primitive browser actions. The engine composes a timing
// model, a motion interpolator and an adaptive wait engine into the public
// operations (type, click, scroll, hover, touch gestures), pacing every
// driver primitive so scripted interaction resembles manual use.
//
// Concurrency: one engine drives one browser session, and the underlying
// session is not safe for concurrent command issuance. Callers must not
// run operations concurrently against the same engine; independent
// sessions get independent engines and share no mutable state beyond the
// optional shared Sampler, which is safe for concurrent draws.
package humanoid

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine orchestrates humanized interactions for a single browser session.
type Engine struct {
	cfg     Config
	exec    Executor
	locator Locator
	sampler *Sampler
	interp  *Interpolator
	wait    *WaitEngine
	logger  *zap.Logger
	sink    TelemetrySink

	sessionID string

	mu         sync.Mutex
	currentPos Vector2D
}

// Option customizes engine construction.
type Option func(*Engine)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithRandSource injects the entropy source, enabling deterministic seeded
// tests. Without it the engine seeds its own source from the clock.
func WithRandSource(rng *rand.Rand) Option {
	return func(e *Engine) { e.sampler = NewSampler(rng) }
}

// WithTelemetry attaches an optional sink for ActionResult records.
func WithTelemetry(sink TelemetrySink) Option {
	return func(e *Engine) { e.sink = sink }
}

// New validates the configuration and builds an engine bound to the given
// driver surface. Configuration errors surface here, before any driver
// interaction.
func New(cfg Config, exec Executor, locator Locator, opts ...Option) (*Engine, error) {
	if exec == nil || locator == nil {
		return nil, &InvalidConfigurationError{Field: "engine", Reason: "executor and locator are required"}
	}
	cfg.normalizeTypoRates()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		exec:      exec,
		locator:   locator,
		logger:    zap.NewNop(),
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sampler == nil {
		e.sampler = NewSampler(nil)
	}

	interp, err := NewInterpolator(cfg.Motion, e.sampler, int64(e.sampler.Intn(1<<30)))
	if err != nil {
		return nil, err
	}
	e.interp = interp
	e.wait = NewWaitEngine(exec, e.logger)
	return e, nil
}

// SessionID identifies this engine instance in telemetry records.
func (e *Engine) SessionID() string { return e.sessionID }

// Position returns the engine's view of the pointer position.
func (e *Engine) Position() Vector2D {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentPos
}

// SetPosition seeds the pointer position, typically once after session
// startup.
func (e *Engine) SetPosition(pos Vector2D) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.currentPos = pos
}

// Type waits for the target to be actionable, then sends the text one key
// at a time with sampled inter-key delays, occasional thinking pauses and
// probability-gated typo simulation.
func (e *Engine) Type(ctx context.Context, selector, text string, profile TimingProfile) (ActionResult, error) {
	result := e.newResult("type", selector)
	if err := profile.Validate(); err != nil {
		return e.finish(result, err)
	}

	handle, stats, err := e.resolve(ctx, "type", selector, e.waitFor(StateClickable))
	result.PollAttempts = stats.Attempts
	if err != nil {
		return e.finish(result, err)
	}

	sent, err := e.typeText(ctx, handle, text, profile)
	result.Steps = sent
	if err != nil && ctx.Err() == nil {
		err = &ActionExecutionFailedError{Action: "type", Step: sent, Cause: err}
	}
	return e.finish(result, err)
}

// Click waits for the target to be clickable, walks the pointer to it
// along an interpolated path with per-step sampled pacing, and performs a
// press-hold-release. A post-click condition, when supplied, is verified
// before the action is reported successful.
func (e *Engine) Click(ctx context.Context, selector string, profile TimingProfile, opts ...ClickOption) (ActionResult, error) {
	result := e.newResult("click", selector)
	if err := profile.Validate(); err != nil {
		return e.finish(result, err)
	}
	var cc clickOptions
	for _, opt := range opts {
		opt(&cc)
	}

	handle, stats, err := e.resolve(ctx, "click", selector, e.waitFor(StateClickable))
	result.PollAttempts = stats.Attempts
	if err != nil {
		return e.finish(result, err)
	}

	steps, err := e.moveTo(ctx, handle.Target, profile)
	result.Steps = steps
	if err != nil {
		return e.finish(result, e.execFailure("click", result.Steps, err))
	}

	pos := e.Position()
	if err := e.exec.PressPointer(ctx, pos.X, pos.Y); err != nil {
		return e.finish(result, e.execFailure("click", result.Steps, err))
	}
	result.Steps++

	hold := e.sampler.Sample(TimingProfile{
		MinDelay:     e.cfg.ClickHoldMin,
		MaxDelay:     e.cfg.ClickHoldMax,
		Distribution: DistributionUniform,
	})
	if err := e.exec.Sleep(ctx, hold); err != nil {
		return e.finish(result, err)
	}

	if err := e.exec.ReleasePointer(ctx, pos.X, pos.Y); err != nil {
		return e.finish(result, e.execFailure("click", result.Steps, err))
	}
	result.Steps++

	if cc.post != nil {
		_, postStats, err := e.wait.Await(ctx, e.locator, cc.postSelector, *cc.post)
		result.PollAttempts += postStats.Attempts
		if err != nil {
			return e.finish(result, err)
		}
	}
	return e.finish(result, nil)
}

// ClickOption adjusts a single Click invocation.
type ClickOption func(*clickOptions)

type clickOptions struct {
	postSelector string
	post         *WaitCondition
}

// WithPostCondition verifies that a condition holds on the given selector
// after the click lands.
func WithPostCondition(selector string, cond WaitCondition) ClickOption {
	return func(o *clickOptions) {
		o.postSelector = selector
		o.post = &cond
	}
}

// ScrollBy applies the requested scroll delta as a sequence of eased
// incremental wheel deltas with sampled inter-step delays, emulating
// momentum and deceleration rather than one jump.
func (e *Engine) ScrollBy(ctx context.Context, delta Vector2D, profile TimingProfile) (ActionResult, error) {
	result := e.newResult("scroll", "")
	if err := profile.Validate(); err != nil {
		return e.finish(result, err)
	}

	mag := delta.Mag()
	if mag < 1e-9 {
		return e.finish(result, nil)
	}
	duration := e.cfg.MoveDurationBase + time.Duration(mag)*e.cfg.MoveDurationPerPx
	path, err := e.interp.Interpolate(Vector2D{}, delta, duration)
	if err != nil {
		return e.finish(result, err)
	}

	prev := Vector2D{}
	for i, sample := range path {
		if i > 0 {
			if err := e.exec.Sleep(ctx, e.sampler.Sample(profile)); err != nil {
				return e.finish(result, err)
			}
		}
		step := sample.Pos.Sub(prev)
		if step.Mag() < 1e-9 {
			continue
		}
		if err := e.exec.ScrollBy(ctx, step.X, step.Y); err != nil {
			return e.finish(result, e.execFailure("scroll", result.Steps, err))
		}
		prev = sample.Pos
		result.Steps++
	}
	return e.finish(result, nil)
}

// ScrollIntoView scrolls toward the target element in randomized wheel
// increments until it reports visible, bounded by the configured iteration
// budget.
func (e *Engine) ScrollIntoView(ctx context.Context, selector string, profile TimingProfile) (ActionResult, error) {
	result := e.newResult("scroll_into_view", selector)
	if err := profile.Validate(); err != nil {
		return e.finish(result, err)
	}

	handle, stats, err := e.resolve(ctx, "scroll_into_view", selector, e.waitFor(StatePresent))
	result.PollAttempts = stats.Attempts
	if err != nil {
		return e.finish(result, err)
	}

	const tolerance = 40.0
	for i := 0; i < e.cfg.ScrollMaxIterations; i++ {
		visible, err := e.locator.Locate(ctx, selector, StateVisible)
		if err != nil {
			return e.finish(result, e.execFailure("scroll_into_view", result.Steps, err))
		}
		remaining := handle.Target.Y - e.cfg.ScrollAnchorY
		if visible != nil && absFloat(remaining) < tolerance {
			return e.finish(result, nil)
		}
		if visible != nil && i > 0 {
			// Close enough once it is on screen and we have already
			// adjusted at least once.
			return e.finish(result, nil)
		}

		amount := e.cfg.ScrollStepMin + e.sampler.Float64()*(e.cfg.ScrollStepMax-e.cfg.ScrollStepMin)
		if remaining < 0 {
			amount = -amount
		}
		if err := e.exec.ScrollBy(ctx, 0, amount); err != nil {
			return e.finish(result, e.execFailure("scroll_into_view", result.Steps, err))
		}
		result.Steps++
		if err := e.exec.Sleep(ctx, e.sampler.Sample(profile)); err != nil {
			return e.finish(result, err)
		}

		// Re-resolve; the element moved with the viewport.
		handle, err = e.locator.Locate(ctx, selector, StatePresent)
		if err != nil {
			return e.finish(result, e.execFailure("scroll_into_view", result.Steps, err))
		}
		if handle == nil {
			return e.finish(result, &ActionTargetUnavailableError{
				Action: "scroll_into_view", Selector: selector,
				Cause: errors.New("element left the DOM mid-scroll"),
			})
		}
	}
	return e.finish(result, &ActionTargetUnavailableError{
		Action: "scroll_into_view", Selector: selector,
		Cause: fmt.Errorf("not visible after %d scroll iterations", e.cfg.ScrollMaxIterations),
	})
}

// Hover moves the pointer to the element and dwells there for a duration
// sampled from the dwell profile.
func (e *Engine) Hover(ctx context.Context, selector string, dwell TimingProfile) (ActionResult, error) {
	result := e.newResult("hover", selector)
	if err := dwell.Validate(); err != nil {
		return e.finish(result, err)
	}

	handle, stats, err := e.resolve(ctx, "hover", selector, e.waitFor(StateVisible))
	result.PollAttempts = stats.Attempts
	if err != nil {
		return e.finish(result, err)
	}

	steps, err := e.moveTo(ctx, handle.Target, e.pacingProfile())
	result.Steps = steps
	if err != nil {
		return e.finish(result, e.execFailure("hover", result.Steps, err))
	}

	if err := e.exec.Sleep(ctx, e.sampler.Sample(dwell)); err != nil {
		return e.finish(result, err)
	}
	return e.finish(result, nil)
}

// TouchGesture traces an ordered sequence of touch points, interpolating
// motion between each consecutive pair and emitting paced touch-move
// events along the way.
func (e *Engine) TouchGesture(ctx context.Context, points []Vector2D, profile TimingProfile) (ActionResult, error) {
	result := e.newResult("touch_gesture", "")
	if err := profile.Validate(); err != nil {
		return e.finish(result, err)
	}
	if len(points) == 0 {
		return e.finish(result, &InvalidConfigurationError{Field: "points", Reason: "at least one touch point required"})
	}

	if err := e.exec.TouchMove(ctx, points[0].X, points[0].Y); err != nil {
		return e.finish(result, e.execFailure("touch_gesture", result.Steps, err))
	}
	result.Steps++

	for i := 1; i < len(points); i++ {
		seg := points[i].Sub(points[i-1]).Mag()
		duration := e.cfg.MoveDurationBase + time.Duration(seg)*e.cfg.MoveDurationPerPx
		path, err := e.interp.Interpolate(points[i-1], points[i], duration)
		if err != nil {
			return e.finish(result, err)
		}
		for j := 1; j < len(path); j++ {
			if err := e.exec.Sleep(ctx, e.sampler.Sample(profile)); err != nil {
				return e.finish(result, err)
			}
			if err := e.exec.TouchMove(ctx, path[j].Pos.X, path[j].Pos.Y); err != nil {
				return e.finish(result, e.execFailure("touch_gesture", result.Steps, err))
			}
			result.Steps++
		}
	}

	// Close the sequence when the driver models touch lifecycles.
	if ender, ok := e.exec.(interface {
		EndTouch(ctx context.Context) error
	}); ok {
		if err := ender.EndTouch(ctx); err != nil {
			return e.finish(result, e.execFailure("touch_gesture", result.Steps, err))
		}
	}
	return e.finish(result, nil)
}

// CognitivePause sleeps for a normally distributed duration, modeling the
// time a user takes to think before the next action. Negative draws
// collapse to no pause.
func (e *Engine) CognitivePause(ctx context.Context, mean, stdDev time.Duration) error {
	d := time.Duration(float64(mean) + e.sampler.NormFloat64()*float64(stdDev))
	if d <= 0 {
		return nil
	}
	return e.exec.Sleep(ctx, d)
}

// moveTo walks the pointer from its current position to the target along
// an interpolated path, sleeping a sampled delay before each step. A
// zero-distance move is a no-op.
func (e *Engine) moveTo(ctx context.Context, target Vector2D, profile TimingProfile) (int, error) {
	start := e.Position()
	dist := start.Dist(target)
	duration := e.cfg.MoveDurationBase + time.Duration(dist)*e.cfg.MoveDurationPerPx
	path, err := e.interp.Interpolate(start, target, duration)
	if err != nil {
		return 0, err
	}
	if len(path) == 1 {
		// Pointer already on target.
		return 0, nil
	}

	steps := 0
	for i := 1; i < len(path); i++ {
		if err := e.exec.Sleep(ctx, e.sampler.Sample(profile)); err != nil {
			return steps, err
		}
		if err := e.exec.MovePointer(ctx, path[i].Pos.X, path[i].Pos.Y); err != nil {
			return steps, err
		}
		steps++
		e.mu.Lock()
		e.currentPos = path[i].Pos
		e.mu.Unlock()
	}
	return steps, nil
}

// resolve runs the wait preceding an action and maps its timeout to the
// action-scoped failure type. No driver primitive is issued until the wait
// resolves, so a failed wait never partially mutates page state.
func (e *Engine) resolve(ctx context.Context, action, selector string, cond WaitCondition) (*ElementHandle, WaitStats, error) {
	handle, stats, err := e.wait.Await(ctx, e.locator, selector, cond)
	if err != nil {
		var timeout *WaitTimeoutError
		if errors.As(err, &timeout) {
			err = &ActionTargetUnavailableError{Action: action, Selector: selector, Cause: err}
		}
		return nil, stats, err
	}
	return handle, stats, nil
}

// execFailure wraps a mid-sequence driver failure unless the context is
// what killed it, in which case the cancellation surfaces unchanged.
func (e *Engine) execFailure(action string, step int, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &ActionExecutionFailedError{Action: action, Step: step, Cause: err}
}

func (e *Engine) waitFor(state ElementState) WaitCondition {
	cond := e.cfg.DefaultWait()
	cond.State = state
	return cond
}

// pacingProfile derives per-step pointer pacing from the motion bounds.
func (e *Engine) pacingProfile() TimingProfile {
	return TimingProfile{
		MinDelay:     e.cfg.Motion.MinStepDelay / 2,
		MaxDelay:     e.cfg.Motion.MinStepDelay * 2,
		Distribution: DistributionUniform,
	}
}

func (e *Engine) newResult(action, selector string) ActionResult {
	return ActionResult{
		ID:        uuid.NewString(),
		SessionID: e.sessionID,
		Action:    action,
		Selector:  selector,
		Start:     time.Now(),
	}
}

// finish stamps the result, reports it to the sink if one is attached, and
// returns it alongside the error.
func (e *Engine) finish(result ActionResult, err error) (ActionResult, error) {
	result.Elapsed = time.Since(result.Start)
	result.Err = err
	if e.sink != nil {
		e.sink.Record(result)
	}
	if err != nil {
		e.logger.Debug("action failed",
			zap.String("action", result.Action),
			zap.String("selector", result.Selector),
			zap.Error(err))
	}
	return result, err
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
