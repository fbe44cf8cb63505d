package humanoid

import (
	"time"
)

// Config holds the tunable persona parameters for one engine instance.
// It is constructed by the caller (typically unmarshaled by viper) and
// treated as immutable once the engine is built.
type Config struct {
	// Typing behavior.
	KeyDelayMin time.Duration `mapstructure:"key_delay_min" yaml:"key_delay_min"`
	KeyDelayMax time.Duration `mapstructure:"key_delay_max" yaml:"key_delay_max"`
	// ThinkingPauseProbability is the chance of an extra pause before a
	// keystroke, emulating hesitation or re-reading.
	ThinkingPauseProbability float64       `mapstructure:"thinking_pause_probability" yaml:"thinking_pause_probability"`
	ThinkingPauseMean        time.Duration `mapstructure:"thinking_pause_mean" yaml:"thinking_pause_mean"`
	ThinkingPauseStdDev      time.Duration `mapstructure:"thinking_pause_std_dev" yaml:"thinking_pause_std_dev"`

	// TypoRate is the per-character probability of simulating a typo.
	// The conditional rates select the typo species and are normalized to
	// sum to one.
	TypoRate          float64 `mapstructure:"typo_rate" yaml:"typo_rate"`
	TypoNeighborRate  float64 `mapstructure:"typo_neighbor_rate" yaml:"typo_neighbor_rate"`
	TypoTransposeRate float64 `mapstructure:"typo_transpose_rate" yaml:"typo_transpose_rate"`
	TypoOmissionRate  float64 `mapstructure:"typo_omission_rate" yaml:"typo_omission_rate"`
	TypoInsertionRate float64 `mapstructure:"typo_insertion_rate" yaml:"typo_insertion_rate"`
	// TypoNoticeProbability is the chance a simulated typo gets corrected.
	TypoNoticeProbability float64 `mapstructure:"typo_notice_probability" yaml:"typo_notice_probability"`

	// Clicking behavior.
	ClickHoldMin time.Duration `mapstructure:"click_hold_min" yaml:"click_hold_min"`
	ClickHoldMax time.Duration `mapstructure:"click_hold_max" yaml:"click_hold_max"`

	// MoveDurationBase and MoveDurationPerPx shape the duration budget for
	// pointer travel (an affine stand-in for Fitts's law: longer reaches
	// take longer, sublinearly randomized by the timing profile).
	MoveDurationBase  time.Duration `mapstructure:"move_duration_base" yaml:"move_duration_base"`
	MoveDurationPerPx time.Duration `mapstructure:"move_duration_per_px" yaml:"move_duration_per_px"`

	// Scrolling behavior.
	ScrollStepMin       float64 `mapstructure:"scroll_step_min" yaml:"scroll_step_min"`
	ScrollStepMax       float64 `mapstructure:"scroll_step_max" yaml:"scroll_step_max"`
	ScrollMaxIterations int     `mapstructure:"scroll_max_iterations" yaml:"scroll_max_iterations"`
	// ScrollAnchorY is the viewport y position scrolling tries to bring a
	// target element to.
	ScrollAnchorY float64 `mapstructure:"scroll_anchor_y" yaml:"scroll_anchor_y"`

	// Motion bounds for the interpolator.
	Motion MotionConfig `mapstructure:"motion" yaml:"motion"`

	// Wait defaults applied when an operation is called without an explicit
	// condition.
	WaitTimeout      time.Duration `mapstructure:"wait_timeout" yaml:"wait_timeout"`
	WaitPollInterval time.Duration `mapstructure:"wait_poll_interval" yaml:"wait_poll_interval"`
	WaitBackoff      float64       `mapstructure:"wait_backoff" yaml:"wait_backoff"`
	WaitMaxInterval  time.Duration `mapstructure:"wait_max_interval" yaml:"wait_max_interval"`
}

// DefaultConfig returns a persona representing an average user.
func DefaultConfig() Config {
	return Config{
		KeyDelayMin:              35 * time.Millisecond,
		KeyDelayMax:              180 * time.Millisecond,
		ThinkingPauseProbability: 0.06,
		ThinkingPauseMean:        450 * time.Millisecond,
		ThinkingPauseStdDev:      150 * time.Millisecond,

		TypoRate:              0.04,
		TypoNeighborRate:      0.40,
		TypoTransposeRate:     0.25,
		TypoOmissionRate:      0.20,
		TypoInsertionRate:     0.15,
		TypoNoticeProbability: 0.85,

		ClickHoldMin: 50 * time.Millisecond,
		ClickHoldMax: 120 * time.Millisecond,

		MoveDurationBase:  120 * time.Millisecond,
		MoveDurationPerPx: 350 * time.Microsecond,

		ScrollStepMin:       35,
		ScrollStepMax:       120,
		ScrollMaxIterations: 15,
		ScrollAnchorY:       400,

		Motion: DefaultMotionConfig(),

		WaitTimeout:      10 * time.Second,
		WaitPollInterval: 100 * time.Millisecond,
		WaitBackoff:      1.5,
		WaitMaxInterval:  time.Second,
	}
}

// Validate fails fast on invariant violations, before any driver
// interaction.
func (c *Config) Validate() error {
	if c.KeyDelayMin < 0 || c.KeyDelayMax < c.KeyDelayMin {
		return &InvalidConfigurationError{Field: "key_delay", Reason: "requires 0 <= min <= max"}
	}
	if c.ThinkingPauseProbability < 0 || c.ThinkingPauseProbability > 1 {
		return &InvalidConfigurationError{Field: "thinking_pause_probability", Reason: "must be in [0,1]"}
	}
	if c.TypoRate < 0 || c.TypoRate > 1 {
		return &InvalidConfigurationError{Field: "typo_rate", Reason: "must be in [0,1]"}
	}
	if c.ClickHoldMin < 0 || c.ClickHoldMax < c.ClickHoldMin {
		return &InvalidConfigurationError{Field: "click_hold", Reason: "requires 0 <= min <= max"}
	}
	if c.ScrollStepMin <= 0 || c.ScrollStepMax < c.ScrollStepMin {
		return &InvalidConfigurationError{Field: "scroll_step", Reason: "requires 0 < min <= max"}
	}
	if c.ScrollMaxIterations < 1 {
		return &InvalidConfigurationError{Field: "scroll_max_iterations", Reason: "must be at least 1"}
	}
	if err := c.Motion.Validate(); err != nil {
		return err
	}
	return c.DefaultWait().Validate()
}

// normalizeTypoRates scales the conditional typo probabilities to sum to
// one, matching the treatment of the typing model's species weights.
func (c *Config) normalizeTypoRates() {
	total := c.TypoNeighborRate + c.TypoTransposeRate + c.TypoOmissionRate + c.TypoInsertionRate
	if total <= 1e-9 {
		if c.TypoRate > 0 {
			c.TypoNeighborRate, c.TypoTransposeRate, c.TypoOmissionRate, c.TypoInsertionRate = 0.25, 0.25, 0.25, 0.25
		}
		return
	}
	c.TypoNeighborRate /= total
	c.TypoTransposeRate /= total
	c.TypoOmissionRate /= total
	c.TypoInsertionRate /= total
}

// DefaultWait builds the wait condition used when an operation is invoked
// without one.
func (c *Config) DefaultWait() WaitCondition {
	return WaitCondition{
		State:         StateVisible,
		Timeout:       c.WaitTimeout,
		PollInterval:  c.WaitPollInterval,
		BackoffFactor: c.WaitBackoff,
		MaxInterval:   c.WaitMaxInterval,
	}
}

// KeyDelayProfile exposes the typing pace as a timing profile.
func (c *Config) KeyDelayProfile() TimingProfile {
	return TimingProfile{
		MinDelay:     c.KeyDelayMin,
		MaxDelay:     c.KeyDelayMax,
		Distribution: DistributionGaussian,
		JitterStdDev: (c.KeyDelayMax - c.KeyDelayMin) / 4,
	}
}
