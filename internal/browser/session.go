// Package browser provides the chromedp session and the adapters that
// implement the humanoid driver interfaces on top of it. The interaction
// engine never touches chromedp directly; everything crosses the
// Executor/Locator boundary defined in internal/humanoid.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/marionette/internal/config"
)

// Session owns one browser target and its contexts. Not safe for
// concurrent command issuance; one logical thread of control per session.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	// allocCancel tears down the exec allocator after the target context.
	allocCancel context.CancelFunc
	logger      *zap.Logger
	cfg         config.BrowserConfig
}

// NewSession launches a browser target according to the configuration.
// The caller must Close the session to release the browser.
func NewSession(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionID := uuid.NewString()
	log := logger.With(zap.String("session_id", sessionID))

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	for _, arg := range cfg.Args {
		opts = append(opts, chromedp.Flag(arg, true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		log.Debug(fmt.Sprintf(format, args...))
	}))

	s := &Session{
		id:          sessionID,
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		logger:      log,
		cfg:         cfg,
	}

	// Start the browser eagerly so startup failures surface here rather
	// than on the first interaction.
	if err := chromedp.Run(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser startup failed: %w", err)
	}
	log.Info("browser session started", zap.Bool("headless", cfg.Headless))
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Context returns the session's chromedp context. Interaction operations
// derive their per-action contexts from it.
func (s *Session) Context() context.Context { return s.ctx }

// Navigate loads the URL and waits for the body to be ready, bounded by
// the configured navigation timeout.
func (s *Session) Navigate(url string) error {
	timeout := s.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	s.logger.Info("navigating", zap.String("url", url))
	if err := chromedp.Run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// RunActions executes chromedp actions on the session target. The caller
// context gates entry; once dispatched, an action runs on the session
// context (CDP commands are short-lived).
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("session closed: %w", err)
	}
	return chromedp.Run(s.ctx, actions...)
}

// Close tears down the browser target and its allocator.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.logger.Info("browser session closed")
}
