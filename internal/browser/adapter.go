package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/marionette/internal/humanoid"
)

// CDPExecutor implements humanoid.Executor over the Chrome DevTools
// Protocol. It only translates primitives; all pacing and sequencing
// lives in the engine.
type CDPExecutor struct {
	session *Session
	logger  *zap.Logger

	mu sync.Mutex
	// lastX/lastY anchor wheel and press events at the most recent pointer
	// position.
	lastX, lastY float64
	// touchActive tracks whether a touch sequence is in flight, so the
	// first touch-move of a gesture opens it with a touchStart.
	touchActive bool
}

var _ humanoid.Executor = (*CDPExecutor)(nil)

// NewCDPExecutor wraps a session as a driver surface for the engine.
func NewCDPExecutor(session *Session, logger *zap.Logger) *CDPExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CDPExecutor{session: session, logger: logger}
}

// Sleep pauses execution, respecting both the caller context and the
// session lifecycle.
func (e *CDPExecutor) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.session.ctx.Done():
		return e.session.ctx.Err()
	}
}

// SendKey focuses the handle's element and dispatches one key. Control
// characters (backspace, enter, tab, escape) are understood by the
// chromedp keyboard layer.
func (e *CDPExecutor) SendKey(ctx context.Context, handle *humanoid.ElementHandle, key string) error {
	return e.session.RunActions(ctx,
		chromedp.Focus(handle.ID, chromedp.ByQuery),
		chromedp.KeyEvent(key),
	)
}

// MovePointer dispatches a mouseMoved event at viewport coordinates.
func (e *CDPExecutor) MovePointer(ctx context.Context, x, y float64) error {
	e.mu.Lock()
	e.lastX, e.lastY = x, y
	e.mu.Unlock()
	return e.session.RunActions(ctx, e.mouseAction(
		input.DispatchMouseEvent(input.MouseMoved, x, y).WithButtons(0),
	))
}

// PressPointer dispatches a left-button mousePressed event.
func (e *CDPExecutor) PressPointer(ctx context.Context, x, y float64) error {
	return e.session.RunActions(ctx, e.mouseAction(
		input.DispatchMouseEvent(input.MousePressed, x, y).
			WithButton(input.Left).
			WithButtons(1).
			WithClickCount(1),
	))
}

// ReleasePointer dispatches a left-button mouseReleased event.
func (e *CDPExecutor) ReleasePointer(ctx context.Context, x, y float64) error {
	return e.session.RunActions(ctx, e.mouseAction(
		input.DispatchMouseEvent(input.MouseReleased, x, y).
			WithButton(input.Left).
			WithButtons(0).
			WithClickCount(1),
	))
}

// ScrollBy dispatches a mouseWheel event with the given deltas, anchored
// at the last pointer position.
func (e *CDPExecutor) ScrollBy(ctx context.Context, dx, dy float64) error {
	e.mu.Lock()
	x, y := e.lastX, e.lastY
	e.mu.Unlock()
	return e.session.RunActions(ctx, e.mouseAction(
		input.DispatchMouseEvent(input.MouseWheel, x, y).
			WithDeltaX(dx).
			WithDeltaY(dy),
	))
}

// TouchMove emits a touch point at viewport coordinates. The first call
// of a sequence opens it with touchStart; EndTouch closes it.
func (e *CDPExecutor) TouchMove(ctx context.Context, x, y float64) error {
	e.mu.Lock()
	eventType := input.TouchMove
	if !e.touchActive {
		eventType = input.TouchStart
		e.touchActive = true
	}
	e.mu.Unlock()

	points := []*input.TouchPoint{{X: x, Y: y}}
	return e.session.RunActions(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchTouchEvent(eventType, points).Do(ctx)
	}))
}

// EndTouch closes the current touch sequence, if any.
func (e *CDPExecutor) EndTouch(ctx context.Context) error {
	e.mu.Lock()
	active := e.touchActive
	e.touchActive = false
	e.mu.Unlock()
	if !active {
		return nil
	}
	return e.session.RunActions(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchTouchEvent(input.TouchEnd, []*input.TouchPoint{}).Do(ctx)
	}))
}

func (e *CDPExecutor) mouseAction(p *input.DispatchMouseEventParams) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return p.Do(ctx)
	})
}
