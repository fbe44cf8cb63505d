// Package scenario loads and runs interaction scripts: ordered steps of
// navigation and humanized actions described in YAML.
package scenario

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/marionette/internal/humanoid"
)

// Step is one scripted operation.
type Step struct {
	Op       string       `yaml:"op"`
	URL      string       `yaml:"url,omitempty"`
	Selector string       `yaml:"selector,omitempty"`
	Text     string       `yaml:"text,omitempty"`
	DX       float64      `yaml:"dx,omitempty"`
	DY       float64      `yaml:"dy,omitempty"`
	Points   [][2]float64 `yaml:"points,omitempty"`
	// Dwell names a delay category for hover dwell and standalone pauses.
	Dwell  string        `yaml:"dwell,omitempty"`
	Mean   time.Duration `yaml:"mean,omitempty"`
	StdDev time.Duration `yaml:"std_dev,omitempty"`
}

// Scenario is a parsed script.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Load parses a scenario file and validates its step shapes.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", path)
	}
	for i, step := range sc.Steps {
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &sc, nil
}

func (s Step) validate() error {
	switch s.Op {
	case "navigate":
		if s.URL == "" {
			return fmt.Errorf("navigate requires url")
		}
	case "type":
		if s.Selector == "" || s.Text == "" {
			return fmt.Errorf("type requires selector and text")
		}
	case "click", "hover", "scroll_into_view":
		if s.Selector == "" {
			return fmt.Errorf("%s requires selector", s.Op)
		}
	case "scroll":
		if s.DX == 0 && s.DY == 0 {
			return fmt.Errorf("scroll requires dx or dy")
		}
	case "touch":
		if len(s.Points) == 0 {
			return fmt.Errorf("touch requires points")
		}
	case "pause":
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	return nil
}

// Actor is the subset of the interaction engine a scenario drives.
// The engine satisfies it; tests substitute a recorder.
type Actor interface {
	Type(ctx context.Context, selector, text string, profile humanoid.TimingProfile) (humanoid.ActionResult, error)
	Click(ctx context.Context, selector string, profile humanoid.TimingProfile, opts ...humanoid.ClickOption) (humanoid.ActionResult, error)
	ScrollBy(ctx context.Context, delta humanoid.Vector2D, profile humanoid.TimingProfile) (humanoid.ActionResult, error)
	ScrollIntoView(ctx context.Context, selector string, profile humanoid.TimingProfile) (humanoid.ActionResult, error)
	Hover(ctx context.Context, selector string, dwell humanoid.TimingProfile) (humanoid.ActionResult, error)
	TouchGesture(ctx context.Context, points []humanoid.Vector2D, profile humanoid.TimingProfile) (humanoid.ActionResult, error)
	CognitivePause(ctx context.Context, mean, stdDev time.Duration) error
}

// Navigator loads URLs; the browser session satisfies it.
type Navigator interface {
	Navigate(url string) error
}

// Runner executes a scenario against an actor and navigator.
type Runner struct {
	actor  Actor
	nav    Navigator
	cfg    humanoid.Config
	logger *zap.Logger
}

// NewRunner builds a runner; the humanoid config supplies the default
// timing profiles for each operation kind.
func NewRunner(actor Actor, nav Navigator, cfg humanoid.Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{actor: actor, nav: nav, cfg: cfg, logger: logger}
}

// pacingProfile paces scroll and touch increments.
var pacingProfile = humanoid.TimingProfile{
	MinDelay:     10 * time.Millisecond,
	MaxDelay:     40 * time.Millisecond,
	Distribution: humanoid.DistributionUniform,
}

// Run executes the steps in order, stopping at the first failure.
func (r *Runner) Run(ctx context.Context, sc *Scenario) error {
	r.logger.Info("running scenario", zap.String("name", sc.Name), zap.Int("steps", len(sc.Steps)))

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.runStep(ctx, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, step Step) error {
	switch step.Op {
	case "navigate":
		return r.nav.Navigate(step.URL)
	case "type":
		_, err := r.actor.Type(ctx, step.Selector, step.Text, r.cfg.KeyDelayProfile())
		return err
	case "click":
		_, err := r.actor.Click(ctx, step.Selector, pacingProfile)
		return err
	case "scroll":
		_, err := r.actor.ScrollBy(ctx, humanoid.Vector2D{X: step.DX, Y: step.DY}, pacingProfile)
		return err
	case "scroll_into_view":
		_, err := r.actor.ScrollIntoView(ctx, step.Selector, pacingProfile)
		return err
	case "hover":
		dwell := step.Dwell
		if dwell == "" {
			dwell = humanoid.CategoryVeryShort
		}
		_, err := r.actor.Hover(ctx, step.Selector, humanoid.CategoryProfile(dwell))
		return err
	case "touch":
		points := make([]humanoid.Vector2D, len(step.Points))
		for i, p := range step.Points {
			points[i] = humanoid.Vector2D{X: p[0], Y: p[1]}
		}
		_, err := r.actor.TouchGesture(ctx, points, pacingProfile)
		return err
	case "pause":
		if step.Dwell != "" {
			p := humanoid.CategoryProfile(step.Dwell)
			return r.actor.CognitivePause(ctx, (p.MinDelay+p.MaxDelay)/2, (p.MaxDelay-p.MinDelay)/4)
		}
		mean := step.Mean
		if mean <= 0 {
			mean = 800 * time.Millisecond
		}
		return r.actor.CognitivePause(ctx, mean, step.StdDev)
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}
