package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/marionette/internal/humanoid"
)

// elementProbeJS inspects the first match for a selector in one round
// trip: existence, visibility, clickability and a suggested interaction
// point. Kept side effect free so the wait engine can call it repeatedly.
const elementProbeJS = `
(() => {
	const el = document.querySelector(%q);
	if (!el) {
		return { found: false };
	}
	const rect = el.getBoundingClientRect();
	let style;
	try {
		style = window.getComputedStyle(el);
	} catch (e) {
		return { found: false };
	}
	const onScreen = rect.bottom > 0 && rect.top < window.innerHeight &&
		rect.right > 0 && rect.left < window.innerWidth;
	const visible = rect.width > 0 && rect.height > 0 && onScreen &&
		style.visibility !== 'hidden' && style.display !== 'none' && style.opacity !== '0';
	const clickable = visible && !el.disabled && style.pointerEvents !== 'none';
	return {
		found: true,
		visible: visible,
		clickable: clickable,
		x: rect.left + rect.width / 2,
		y: rect.top + rect.height / 2,
	};
})()`

type elementProbe struct {
	Found     bool    `json:"found"`
	Visible   bool    `json:"visible"`
	Clickable bool    `json:"clickable"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// CDPLocator implements humanoid.Locator with a single-probe JavaScript
// evaluation per poll. A rate limiter caps how hard the wait engine can
// hammer the browser while polling.
type CDPLocator struct {
	session *Session
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ humanoid.Locator = (*CDPLocator)(nil)

// NewCDPLocator builds a locator over the session, capping probe
// frequency at queriesPerSecond.
func NewCDPLocator(session *Session, queriesPerSecond float64, logger *zap.Logger) *CDPLocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queriesPerSecond <= 0 {
		queriesPerSecond = 50
	}
	return &CDPLocator{
		session: session,
		limiter: rate.NewLimiter(rate.Limit(queriesPerSecond), 1),
		logger:  logger,
	}
}

// Locate probes the page for the selector. A nil handle with nil error
// means the element has not reached the requested state yet.
func (l *CDPLocator) Locate(ctx context.Context, selector string, state humanoid.ElementState) (*humanoid.ElementHandle, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var probe elementProbe
	script := fmt.Sprintf(elementProbeJS, selector)
	if err := l.session.RunActions(ctx, chromedp.Evaluate(script, &probe)); err != nil {
		return nil, fmt.Errorf("element probe for %q failed: %w", selector, err)
	}

	if !probe.Found {
		return nil, nil
	}
	switch state {
	case humanoid.StateVisible:
		if !probe.Visible {
			return nil, nil
		}
	case humanoid.StateClickable:
		if !probe.Clickable {
			return nil, nil
		}
	case humanoid.StatePresent:
		// Presence alone is enough.
	default:
		return nil, &humanoid.InvalidConfigurationError{Field: "state", Reason: "unknown element state " + string(state)}
	}

	return &humanoid.ElementHandle{
		ID:     selector,
		Target: humanoid.Vector2D{X: probe.X, Y: probe.Y},
	}, nil
}
