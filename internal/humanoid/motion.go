package humanoid

import (
	"math"
	"time"

	"github.com/aquilax/go-perlin"
)

// PathSample is one position on a motion path, with its time offset from
// the start of the motion.
type PathSample struct {
	Pos    Vector2D
	Offset time.Duration
}

// MotionPath is an ordered sequence of samples from a start point to an
// end point. The first sample equals the start, the last equals the end,
// and offsets strictly increase. Paths are created per invocation and
// consumed immediately; they are never persisted.
type MotionPath []PathSample

// MotionConfig bounds the cost and shape of interpolated motion.
type MotionConfig struct {
	// MinStepDelay is the smallest per-step pacing interval; the step count
	// is derived from the duration budget divided by this value.
	MinStepDelay time.Duration `mapstructure:"min_step_delay" yaml:"min_step_delay"`
	// MaxSteps caps the step count regardless of duration.
	MaxSteps int `mapstructure:"max_steps" yaml:"max_steps"`
	// JitterStdDev is the amplitude (px) of the gaussian tremor applied
	// orthogonally to the direction of travel.
	JitterStdDev float64 `mapstructure:"jitter_std_dev" yaml:"jitter_std_dev"`
	// PerlinAmplitude is the amplitude (px) of the low-frequency drift
	// noise layered on top of the tremor.
	PerlinAmplitude float64 `mapstructure:"perlin_amplitude" yaml:"perlin_amplitude"`
	// CurveDeviation scales how far Bezier control points wander off the
	// straight line, as a fraction of the travel distance.
	CurveDeviation float64 `mapstructure:"curve_deviation" yaml:"curve_deviation"`
}

// DefaultMotionConfig returns motion bounds for an average session.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		MinStepDelay:    8 * time.Millisecond,
		MaxSteps:        120,
		JitterStdDev:    0.6,
		PerlinAmplitude: 2.5,
		CurveDeviation:  0.12,
	}
}

// Validate checks the motion bounds.
func (c MotionConfig) Validate() error {
	if c.MinStepDelay <= 0 {
		return &InvalidConfigurationError{Field: "motion.min_step_delay", Reason: "must be positive"}
	}
	if c.MaxSteps < 2 {
		return &InvalidConfigurationError{Field: "motion.max_steps", Reason: "must be at least 2"}
	}
	if c.JitterStdDev < 0 || c.PerlinAmplitude < 0 || c.CurveDeviation < 0 {
		return &InvalidConfigurationError{Field: "motion", Reason: "noise amplitudes must not be negative"}
	}
	return nil
}

// Interpolator produces human-plausible motion paths: an eased Bezier
// trajectory with bounded orthogonal jitter, so no two traversals of the
// same segment look identical.
type Interpolator struct {
	cfg     MotionConfig
	sampler *Sampler
	noise   *perlin.Perlin
	// noiseTime advances across invocations so consecutive paths do not
	// reuse the same stretch of the noise field.
	noiseTime float64
}

// NewInterpolator builds an Interpolator. The seed feeds the Perlin field
// only; positional randomness comes from the shared Sampler.
func NewInterpolator(cfg MotionConfig, sampler *Sampler, seed int64) (*Interpolator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// Standard Perlin parameters.
	const alpha, beta, n = 2.0, 2.0, int32(3)
	return &Interpolator{
		cfg:     cfg,
		sampler: sampler,
		noise:   perlin.NewPerlin(alpha, beta, n, seed),
	}, nil
}

// Steps derives the sample count for a duration budget: scales with the
// budget at one sample per MinStepDelay, never below 2, never above
// MaxSteps.
func (in *Interpolator) Steps(duration time.Duration) int {
	steps := int(duration / in.cfg.MinStepDelay)
	if steps < 2 {
		return 2
	}
	if steps > in.cfg.MaxSteps {
		return in.cfg.MaxSteps
	}
	return steps
}

// Interpolate computes a motion path from start to end over the given
// duration budget. A zero-distance request yields a single-sample path,
// which callers must treat as a no-op rather than an error.
func (in *Interpolator) Interpolate(start, end Vector2D, duration time.Duration) (MotionPath, error) {
	if duration <= 0 {
		return nil, &InvalidConfigurationError{Field: "duration", Reason: "must be positive"}
	}

	travel := end.Sub(start)
	dist := travel.Mag()
	if dist < 1e-9 {
		return MotionPath{{Pos: start, Offset: 0}}, nil
	}

	steps := in.Steps(duration)
	dir := travel.Normalize()
	ortho := dir.Perp()

	// Control points wander off the straight line to bow the trajectory,
	// as a real wrist arc does.
	dev := dist * in.cfg.CurveDeviation
	p0, p3 := start, end
	p1 := start.Add(dir.Mul(dist / 3.0)).Add(ortho.Mul((in.sampler.Float64() - 0.5) * 2 * dev))
	p2 := start.Add(dir.Mul(dist * 2.0 / 3.0)).Add(ortho.Mul((in.sampler.Float64() - 0.5) * 2 * dev))

	path := make(MotionPath, steps)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		eased := easeInOutCubic(t)
		pos := cubicBezier(p0, p1, p2, p3, eased)

		// Taper the noise to zero at both endpoints so the path lands
		// exactly on start and end.
		taper := math.Sin(math.Pi * t)
		drift := in.noise.Noise1D(in.noiseTime+eased*0.8) * in.cfg.PerlinAmplitude
		tremor := in.sampler.NormFloat64() * in.cfg.JitterStdDev
		pos = pos.Add(ortho.Mul((drift + tremor) * taper))

		path[i] = PathSample{
			Pos:    pos,
			Offset: time.Duration(t * float64(duration)),
		}
	}

	// Endpoints are exact regardless of noise.
	path[0].Pos = start
	path[steps-1].Pos = end
	path[steps-1].Offset = duration

	in.noiseTime += 1.0
	return path, nil
}

// easeInOutCubic provides a smooth acceleration and deceleration profile.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// cubicBezier evaluates the curve defined by p0..p3 at parameter t.
func cubicBezier(p0, p1, p2, p3 Vector2D, t float64) Vector2D {
	omt := 1.0 - t
	omt2 := omt * omt
	omt3 := omt2 * omt
	t2 := t * t
	t3 := t2 * t
	return p0.Mul(omt3).Add(p1.Mul(3 * omt2 * t)).Add(p2.Mul(3 * omt * t2)).Add(p3.Mul(t3))
}
