package humanoid

import (
	"math/rand"
	"sync"
	"time"
)

// Distribution selects how Sample draws delays from a TimingProfile.
type Distribution string

const (
	DistributionUniform  Distribution = "uniform"
	DistributionGaussian Distribution = "gaussian"
)

// gaussianMaxRejects bounds rejection sampling before falling back to
// clamping, so a tiny std dev cannot stall a draw.
const gaussianMaxRejects = 10

// TimingProfile describes the bounded random delay model for one class of
// pacing (inter-key delay, per-step motion pacing, hover dwell...).
// Profiles are immutable once constructed.
type TimingProfile struct {
	MinDelay     time.Duration
	MaxDelay     time.Duration
	Distribution Distribution
	// JitterStdDev is the standard deviation used in gaussian mode,
	// centered at the midpoint of [MinDelay, MaxDelay].
	JitterStdDev time.Duration
}

// NewTimingProfile validates and returns an immutable profile.
func NewTimingProfile(minDelay, maxDelay time.Duration, dist Distribution, jitter time.Duration) (TimingProfile, error) {
	p := TimingProfile{MinDelay: minDelay, MaxDelay: maxDelay, Distribution: dist, JitterStdDev: jitter}
	if err := p.Validate(); err != nil {
		return TimingProfile{}, err
	}
	return p, nil
}

// Validate checks the profile invariants: 0 <= min <= max and a known
// distribution.
func (p TimingProfile) Validate() error {
	if p.MinDelay < 0 {
		return &InvalidConfigurationError{Field: "minDelay", Reason: "must not be negative"}
	}
	if p.MaxDelay < p.MinDelay {
		return &InvalidConfigurationError{Field: "maxDelay", Reason: "must not be less than minDelay"}
	}
	switch p.Distribution {
	case DistributionUniform, DistributionGaussian:
	case "":
		return &InvalidConfigurationError{Field: "distribution", Reason: "must be set"}
	default:
		return &InvalidConfigurationError{Field: "distribution", Reason: "unknown distribution " + string(p.Distribution)}
	}
	if p.Distribution == DistributionGaussian && p.JitterStdDev < 0 {
		return &InvalidConfigurationError{Field: "jitterStdDev", Reason: "must not be negative"}
	}
	return nil
}

// Named delay categories carried over from the predecessor tooling. An
// unknown category falls back to the shortest one.
const (
	CategoryVeryShort = "very_short" // 0.5s - 1s
	CategoryShort     = "short"      // 1s - 2s
	CategoryMedium    = "medium"     // 2s - 3s
	CategoryLong      = "long"       // 3s - 4s
	CategoryVeryLong  = "very_long"  // 4s - 5s
)

var categoryProfiles = map[string]TimingProfile{
	CategoryVeryShort: {MinDelay: 500 * time.Millisecond, MaxDelay: time.Second, Distribution: DistributionUniform},
	CategoryShort:     {MinDelay: time.Second, MaxDelay: 2 * time.Second, Distribution: DistributionUniform},
	CategoryMedium:    {MinDelay: 2 * time.Second, MaxDelay: 3 * time.Second, Distribution: DistributionUniform},
	CategoryLong:      {MinDelay: 3 * time.Second, MaxDelay: 4 * time.Second, Distribution: DistributionUniform},
	CategoryVeryLong:  {MinDelay: 4 * time.Second, MaxDelay: 5 * time.Second, Distribution: DistributionUniform},
}

// CategoryProfile returns the predefined profile for a named delay
// category, defaulting to CategoryVeryShort when the name is unknown.
func CategoryProfile(name string) TimingProfile {
	if p, ok := categoryProfiles[name]; ok {
		return p
	}
	return categoryProfiles[CategoryVeryShort]
}

// Sampler draws delays from TimingProfiles using an injected random
// source, keeping the component deterministic under seeded tests. It is
// safe for concurrent sampling across sessions sharing one instance.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler creates a Sampler around the supplied random source. A nil
// source gets a time-seeded one.
func NewSampler(rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{rng: rng}
}

// Sample draws a delay from the profile's distribution, always within
// [MinDelay, MaxDelay]. Gaussian mode centers on the midpoint of the range
// and rejection-samples out-of-range draws up to gaussianMaxRejects times
// before clamping, to avoid piling probability mass on the bounds.
func (s *Sampler) Sample(p TimingProfile) time.Duration {
	if p.MaxDelay == p.MinDelay {
		return p.MinDelay
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	span := float64(p.MaxDelay - p.MinDelay)
	switch p.Distribution {
	case DistributionGaussian:
		mean := float64(p.MinDelay) + span/2
		stdDev := float64(p.JitterStdDev)
		if stdDev == 0 {
			// Degenerate profile; spread over a sixth of the range so the
			// draw still covers it.
			stdDev = span / 6
		}
		var d float64
		for i := 0; i < gaussianMaxRejects; i++ {
			d = mean + s.rng.NormFloat64()*stdDev
			if d >= float64(p.MinDelay) && d <= float64(p.MaxDelay) {
				return time.Duration(d)
			}
		}
		return clampDuration(time.Duration(d), p.MinDelay, p.MaxDelay)
	default:
		return p.MinDelay + time.Duration(s.rng.Float64()*span)
	}
}

// NormFloat64 exposes a normally distributed draw from the shared source.
func (s *Sampler) NormFloat64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.NormFloat64()
}

// Float64 exposes a uniform [0,1) draw from the shared source.
func (s *Sampler) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Intn exposes a uniform [0,n) integer draw from the shared source.
func (s *Sampler) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
