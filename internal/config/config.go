// Package config defines the application configuration tree, loaded with
// viper from a YAML file and MARIONETTE_* environment variables.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/marionette/internal/humanoid"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Humanoid humanoid.Config `mapstructure:"humanoid" yaml:"humanoid"`
}

// LoggerConfig controls the zap logger and its rotating file sink.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the driven browser instance.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	// LocateRate caps locator queries per second issued against the
	// browser while the wait engine polls.
	LocateRate float64 `mapstructure:"locate_rate" yaml:"locate_rate"`
}

// SetDefaults registers the default configuration tree on a viper
// instance, so a missing config file still yields a usable setup.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "marionette")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_width", 1366)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.navigation_timeout", 30*time.Second)
	v.SetDefault("browser.locate_rate", 50.0)

	def := humanoid.DefaultConfig()
	v.SetDefault("humanoid.key_delay_min", def.KeyDelayMin)
	v.SetDefault("humanoid.key_delay_max", def.KeyDelayMax)
	v.SetDefault("humanoid.thinking_pause_probability", def.ThinkingPauseProbability)
	v.SetDefault("humanoid.thinking_pause_mean", def.ThinkingPauseMean)
	v.SetDefault("humanoid.thinking_pause_std_dev", def.ThinkingPauseStdDev)
	v.SetDefault("humanoid.typo_rate", def.TypoRate)
	v.SetDefault("humanoid.typo_neighbor_rate", def.TypoNeighborRate)
	v.SetDefault("humanoid.typo_transpose_rate", def.TypoTransposeRate)
	v.SetDefault("humanoid.typo_omission_rate", def.TypoOmissionRate)
	v.SetDefault("humanoid.typo_insertion_rate", def.TypoInsertionRate)
	v.SetDefault("humanoid.typo_notice_probability", def.TypoNoticeProbability)
	v.SetDefault("humanoid.click_hold_min", def.ClickHoldMin)
	v.SetDefault("humanoid.click_hold_max", def.ClickHoldMax)
	v.SetDefault("humanoid.move_duration_base", def.MoveDurationBase)
	v.SetDefault("humanoid.move_duration_per_px", def.MoveDurationPerPx)
	v.SetDefault("humanoid.scroll_step_min", def.ScrollStepMin)
	v.SetDefault("humanoid.scroll_step_max", def.ScrollStepMax)
	v.SetDefault("humanoid.scroll_max_iterations", def.ScrollMaxIterations)
	v.SetDefault("humanoid.scroll_anchor_y", def.ScrollAnchorY)
	v.SetDefault("humanoid.motion.min_step_delay", def.Motion.MinStepDelay)
	v.SetDefault("humanoid.motion.max_steps", def.Motion.MaxSteps)
	v.SetDefault("humanoid.motion.jitter_std_dev", def.Motion.JitterStdDev)
	v.SetDefault("humanoid.motion.perlin_amplitude", def.Motion.PerlinAmplitude)
	v.SetDefault("humanoid.motion.curve_deviation", def.Motion.CurveDeviation)
	v.SetDefault("humanoid.wait_timeout", def.WaitTimeout)
	v.SetDefault("humanoid.wait_poll_interval", def.WaitPollInterval)
	v.SetDefault("humanoid.wait_backoff", def.WaitBackoff)
	v.SetDefault("humanoid.wait_max_interval", def.WaitMaxInterval)
}

// Validate checks the loaded tree; humanoid invariants are delegated to
// the engine config itself.
func (c *Config) Validate() error {
	if err := c.Humanoid.Validate(); err != nil {
		return err
	}
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return &humanoid.InvalidConfigurationError{Field: "browser.window", Reason: "dimensions must be positive"}
	}
	if c.Browser.LocateRate <= 0 {
		return &humanoid.InvalidConfigurationError{Field: "browser.locate_rate", Reason: "must be positive"}
	}
	return nil
}
