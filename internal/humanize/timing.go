package humanize

import (
	"context"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution selects the shape of a sampled delay.
type Distribution string

const (
	DistUniform     Distribution = "uniform"
	DistGaussian    Distribution = "gaussian"
	DistTriangular  Distribution = "triangular"
	DistExponential Distribution = "exponential"
)

// Timing provides the probability-distribution sampling and per-category
// delay policies every other engine builds on. Each session owns one Timing
// instance with its own random source; instances are not safe for
// concurrent use and are not meant to be shared across sessions.
type Timing struct {
	cfg  *Config
	exec Executor
	rng  *rand.Rand
	src  rand.Source
}

// NewTiming creates a timing engine bound to the session's config, executor
// and random source.
func NewTiming(cfg *Config, exec Executor, src rand.Source) *Timing {
	return &Timing{
		cfg:  cfg,
		exec: exec,
		rng:  rand.New(src),
		src:  src,
	}
}

// Sample draws a delay in milliseconds from [min, max] using the requested
// distribution. Out-of-range draws are clamped; a degenerate range returns
// min.
func (t *Timing) Sample(min, max int, dist Distribution) int {
	if min >= max {
		return min
	}

	switch dist {
	case DistGaussian:
		// Mean at center, std dev covering ~95% of the range.
		n := distuv.Normal{
			Mu:    float64(min+max) / 2,
			Sigma: float64(max-min) / 4,
			Src:   t.src,
		}
		return clampInt(int(n.Rand()), min, max)

	case DistTriangular:
		// Mode slightly past center: longer-than-average delays are a
		// little more likely than short ones.
		mode := float64(min) + float64(max-min)*0.55
		tri := distuv.NewTriangle(float64(min), float64(max), mode, t.src)
		return clampInt(int(tri.Rand()), min, max)

	case DistExponential:
		// Rate chosen so the mean sits near the middle of the range.
		exp := distuv.Exponential{
			Rate: 2.0 / float64(max-min),
			Src:  t.src,
		}
		return clampInt(min+int(exp.Rand()), min, max)

	default: // DistUniform and unknown kinds
		u := distuv.Uniform{Min: float64(min), Max: float64(max), Src: t.src}
		return clampInt(int(u.Rand()), min, max)
	}
}

// WithVariance applies Gaussian jitter around a fixed base value, clamped
// to [0.5*base, 2.0*base]. Used to add session-level irregularity on top of
// category delays.
func (t *Timing) WithVariance(base int, factor float64) int {
	if factor <= 0 || base <= 0 {
		return base
	}
	n := distuv.Normal{Mu: float64(base), Sigma: float64(base) * factor, Src: t.src}
	return clampInt(int(n.Rand()), base/2, base*2)
}

// Delay suspends the calling task for d, honoring context cancellation.
// This is the single suspension primitive: it yields via the executor so
// concurrent sessions keep making progress.
func (t *Timing) Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return t.exec.Sleep(ctx, d)
}

func (t *Timing) ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// divSpeed divides a delay by a speed multiplier (>1 means faster typing or
// movement and therefore shorter delays).
func divSpeed(base int, speed float64) int {
	if speed > 0 {
		return int(float64(base) / speed)
	}
	return base
}

// ActionDelay is the breathing-room pause between distinct major actions.
func (t *Timing) ActionDelay() time.Duration {
	if !t.cfg.Enabled {
		return 0
	}
	r := t.cfg.Timing.ActionDelay
	base := t.Sample(r.Min, r.Max, DistTriangular)
	return t.ms(t.WithVariance(base, t.cfg.Timing.VarianceFactor))
}

// PageLoadDelay simulates observing that a page finished loading.
func (t *Timing) PageLoadDelay() time.Duration {
	if !t.cfg.Enabled {
		return 0
	}
	r := t.cfg.Timing.PageLoadDelay
	return t.ms(t.Sample(r.Min, r.Max, DistTriangular))
}

// ThinkingDelay is a long decision-making or reading pause.
func (t *Timing) ThinkingDelay() time.Duration {
	if !t.cfg.Enabled {
		return 0
	}
	r := t.cfg.Timing.ThinkingDelay
	return t.ms(t.Sample(r.Min, r.Max, DistGaussian))
}

// MicroDelay is a very short pause between tightly related sub-actions.
func (t *Timing) MicroDelay() time.Duration {
	if !t.cfg.Enabled {
		return 0
	}
	r := t.cfg.Timing.MicroDelay
	return t.ms(t.Sample(r.Min, r.Max, DistUniform))
}

// ClickHesitation models aiming and committing before a click.
func (t *Timing) ClickHesitation() time.Duration {
	if !t.cfg.Enabled {
		return 0
	}
	r := t.cfg.Timing.ClickHesitation
	return t.ms(t.Sample(r.Min, r.Max, DistExponential))
}

// PreTypeDelay simulates focusing an input field before typing starts.
func (t *Timing) PreTypeDelay() time.Duration {
	if !t.cfg.Enabled {
		return 0
	}
	r := t.cfg.Timing.PreTypeDelay
	return t.ms(t.Sample(r.Min, r.Max, DistTriangular))
}

// KeystrokeDelay is the inter-key delay during typing, scaled by speed.
func (t *Timing) KeystrokeDelay() time.Duration {
	if !t.cfg.Enabled || !t.cfg.Keyboard.Enabled {
		return 0
	}
	r := t.cfg.Keyboard.KeystrokeDelay
	base := t.Sample(r.Min, r.Max, DistTriangular)
	return t.ms(divSpeed(base, t.cfg.Keyboard.Speed))
}

// ComplexCharDelay is the slower delay for symbols, digits and uppercase.
func (t *Timing) ComplexCharDelay() time.Duration {
	if !t.cfg.Enabled || !t.cfg.Keyboard.Enabled {
		return 0
	}
	r := t.cfg.Keyboard.ComplexCharDelay
	return t.ms(t.Sample(r.Min, r.Max, DistGaussian))
}

// MouseStepDelay is the pause between trajectory steps, scaled by speed.
func (t *Timing) MouseStepDelay() time.Duration {
	if !t.cfg.Enabled || !t.cfg.Mouse.Enabled {
		return 0
	}
	r := t.cfg.Mouse.MoveStepDelay
	base := t.Sample(r.Min, r.Max, DistUniform)
	return t.ms(divSpeed(base, t.cfg.Mouse.Speed))
}

// ScrollStepDelay is the pause between scroll steps, scaled by speed.
func (t *Timing) ScrollStepDelay() time.Duration {
	if !t.cfg.Enabled || !t.cfg.Scroll.Enabled {
		return 0
	}
	r := t.cfg.Scroll.StepDelay
	base := t.Sample(r.Min, r.Max, DistUniform)
	return t.ms(divSpeed(base, t.cfg.Scroll.Speed))
}

// ReadingPause is the longer pause occasionally inserted mid-scroll.
func (t *Timing) ReadingPause() time.Duration {
	if !t.cfg.Enabled || !t.cfg.Scroll.Enabled {
		return 0
	}
	r := t.cfg.Scroll.ReadingPauseDuration
	return t.ms(t.Sample(r.Min, r.Max, DistGaussian))
}

// TypingThinkingPause is the long mid-word hesitation while typing.
func (t *Timing) TypingThinkingPause() time.Duration {
	if !t.cfg.Enabled || !t.cfg.Keyboard.Enabled {
		return 0
	}
	r := t.cfg.Keyboard.ThinkingPauseDuration
	return t.ms(t.Sample(r.Min, r.Max, DistGaussian))
}

// TypoRealizeDelay is the pause before a typo is noticed.
func (t *Timing) TypoRealizeDelay() time.Duration {
	if !t.cfg.Enabled || !t.cfg.Keyboard.Enabled {
		return 0
	}
	r := t.cfg.Keyboard.TypoRealizeDelay
	return t.ms(t.Sample(r.Min, r.Max, DistTriangular))
}

// TypoCorrectDelay is the pause between backspacing and retyping.
func (t *Timing) TypoCorrectDelay() time.Duration {
	if !t.cfg.Enabled || !t.cfg.Keyboard.Enabled {
		return 0
	}
	r := t.cfg.Keyboard.TypoCorrectDelay
	return t.ms(t.Sample(r.Min, r.Max, DistUniform))
}

// SpaceDelay is the extra word-boundary pause after typing a space.
func (t *Timing) SpaceDelay() time.Duration {
	if !t.cfg.Enabled || !t.cfg.Keyboard.Enabled {
		return 0
	}
	r := t.cfg.Keyboard.SpaceDelay
	return t.ms(t.Sample(r.Min, r.Max, DistTriangular))
}

// KeyHoldTime is the dwell between keydown and keyup. A minimal hold is
// returned even when disabled so degraded key presses stay valid.
func (t *Timing) KeyHoldTime() time.Duration {
	if !t.cfg.Enabled || !t.cfg.Keyboard.Enabled {
		return 50 * time.Millisecond
	}
	r := t.cfg.Keyboard.KeyHoldTime
	return t.ms(t.Sample(r.Min, r.Max, DistUniform))
}

// ShouldTypo decides whether to inject a typo for the current character.
func (t *Timing) ShouldTypo() bool {
	if !t.cfg.Enabled || !t.cfg.Keyboard.Enabled {
		return false
	}
	return t.rng.Float64() < t.cfg.Keyboard.TypoChance
}

// ShouldThinkingPause decides whether to pause mid-typing.
func (t *Timing) ShouldThinkingPause() bool {
	if !t.cfg.Enabled || !t.cfg.Keyboard.Enabled {
		return false
	}
	return t.rng.Float64() < t.cfg.Keyboard.ThinkingPauseChance
}

// ShouldReadingPause decides whether to pause during a scroll.
func (t *Timing) ShouldReadingPause() bool {
	if !t.cfg.Enabled || !t.cfg.Scroll.Enabled {
		return false
	}
	return t.rng.Float64() < t.cfg.Scroll.ReadingPauseChance
}

// ShouldOvershootMouse decides whether a movement overshoots its target.
func (t *Timing) ShouldOvershootMouse() bool {
	if !t.cfg.Enabled || !t.cfg.Mouse.Enabled {
		return false
	}
	return t.rng.Float64() < t.cfg.Mouse.OvershootChance
}

// ShouldOvershootScroll decides whether a scroll overshoots its target.
func (t *Timing) ShouldOvershootScroll() bool {
	if !t.cfg.Enabled || !t.cfg.Scroll.Enabled {
		return false
	}
	return t.rng.Float64() < t.cfg.Scroll.OvershootChance
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
