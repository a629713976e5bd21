package humanize

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ScrollDirection selects the primary axis direction for page scrolls.
type ScrollDirection string

const (
	ScrollDown ScrollDirection = "down"
	ScrollUp   ScrollDirection = "up"
)

// DefaultScrollOffset is how many pixels above an element the page settles
// when scrolling it into view.
const DefaultScrollOffset = 200

// scrollStep is one increment of a momentum scroll: a signed distance and
// the delay before the next increment.
type scrollStep struct {
	Distance float64
	Delay    float64
}

// momentumSteps breaks a scroll distance into steps that decay like a
// flicked wheel coasting against friction. Step sizes strictly shrink and a
// final corrective step lands exactly on the target.
func momentumSteps(rng *rand.Rand, distance, initialVelocity, friction, minVelocity float64) []scrollStep {
	var steps []scrollStep
	remaining := math.Abs(distance)
	direction := 1.0
	if distance < 0 {
		direction = -1.0
	}
	velocity := initialVelocity

	for remaining > 0 && velocity > minVelocity {
		step := math.Min(velocity, remaining)
		steps = append(steps, scrollStep{
			Distance: step * direction,
			Delay:    float64(30 + rng.IntN(21)),
		})
		remaining -= step
		velocity *= friction
	}

	if remaining > 0 {
		steps = append(steps, scrollStep{Distance: remaining * direction, Delay: 50})
	}
	return steps
}

// Scroll simulates human scrolling: momentum with friction, jitter,
// overshoot with correction, and reading pauses.
type Scroll struct {
	cfg    *Config
	exec   Executor
	timing *Timing
	logger *zap.Logger
	rng    *rand.Rand
}

// NewScroll creates a scroll engine sharing the session's timing and RNG.
func NewScroll(cfg *Config, exec Executor, timing *Timing, logger *zap.Logger, src rand.Source) *Scroll {
	return &Scroll{
		cfg:    cfg,
		exec:   exec,
		timing: timing,
		logger: logger.Named("scroll"),
		rng:    rand.New(src),
	}
}

func (s *Scroll) currentScroll(ctx context.Context) float64 {
	var y float64
	if err := s.exec.Evaluate(ctx, "window.pageYOffset || document.documentElement.scrollTop", &y); err != nil {
		return 0
	}
	return y
}

func (s *Scroll) pageHeight(ctx context.Context) float64 {
	var h float64
	err := s.exec.Evaluate(ctx, "Math.max(document.body.scrollHeight, document.documentElement.scrollHeight)", &h)
	if err != nil || h <= 0 {
		return 1000
	}
	return h
}

func (s *Scroll) viewportHeight(ctx context.Context) float64 {
	var h float64
	if err := s.exec.Evaluate(ctx, "window.innerHeight", &h); err != nil || h <= 0 {
		return 800
	}
	return h
}

func (s *Scroll) scrollTo(ctx context.Context, y float64) error {
	return s.exec.Evaluate(ctx, fmt.Sprintf("window.scrollTo(0, %.0f)", y), nil)
}

// executeScroll moves the page to targetY. With momentum enabled the
// movement decays in steps with jitter and occasional reading pauses, then
// settles on the exact target.
func (s *Scroll) executeScroll(ctx context.Context, targetY float64, smooth bool) error {
	current := s.currentScroll(ctx)
	distance := targetY - current
	if math.Abs(distance) < 5 {
		return nil
	}

	if !smooth || !s.cfg.Scroll.MomentumEnabled {
		return s.scrollTo(ctx, targetY)
	}

	sc := &s.cfg.Scroll
	initial := float64(s.timing.Sample(sc.StepSize.Min, sc.StepSize.Max, DistUniform))
	steps := momentumSteps(s.rng, distance, initial, sc.MomentumDecay, 2)

	pos := current
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		pos += step.Distance

		jitter := float64(s.rng.IntN(2*sc.Jitter+1) - sc.Jitter)
		if err := s.scrollTo(ctx, pos+jitter); err != nil {
			return err
		}
		if err := s.timing.Delay(ctx, msDur(step.Delay)); err != nil {
			return err
		}

		if s.timing.ShouldReadingPause() {
			if err := s.timing.Delay(ctx, s.timing.ReadingPause()); err != nil {
				return err
			}
		}
	}

	return s.scrollTo(ctx, targetY)
}

// ScrollToElement scrolls the page so the element sits offset pixels below
// the top of the viewport, with natural momentum and a chance of
// overshooting past it before correcting. Returns false when the element
// cannot be located.
func (s *Scroll) ScrollToElement(ctx context.Context, selector string, offset int) (bool, error) {
	intoView := "document.querySelector(" + strconv.Quote(selector) + ")?.scrollIntoView({block: 'center'})"

	if !s.cfg.Enabled || !s.cfg.Scroll.Enabled {
		if err := s.exec.Evaluate(ctx, intoView, nil); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			s.logger.Warn("direct scroll failed", zap.String("selector", selector), zap.Error(err))
			return false, nil
		}
		return true, nil
	}

	box, err := s.exec.ElementBounds(ctx, selector)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		s.logger.Warn("scroll target not found", zap.String("selector", selector), zap.Error(err))
		return false, nil
	}

	current := s.currentScroll(ctx)
	target := box.Y + current - float64(offset)

	if s.timing.ShouldOvershootScroll() {
		dist := float64(s.timing.Sample(s.cfg.Scroll.OvershootDistance.Min, s.cfg.Scroll.OvershootDistance.Max, DistUniform))
		if s.rng.Float64() < 0.5 {
			dist = -dist
		}
		if err := s.executeScroll(ctx, target+dist, true); err != nil {
			return false, err
		}
		if err := s.timing.Delay(ctx, s.timing.MicroDelay()); err != nil {
			return false, err
		}
	}
	if err := s.executeScroll(ctx, target, true); err != nil {
		return false, err
	}

	// Settle with the browser's own scroll so the element is truly in view.
	if err := s.exec.Evaluate(ctx, intoView, nil); err != nil && ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err := s.timing.Delay(ctx, s.timing.MicroDelay()); err != nil {
		return false, err
	}
	return true, nil
}

// ScrollPage scrolls by amount pixels, or by viewportPercent of the
// viewport height when amount is zero (defaulting to 80%). The target is
// clamped to the scrollable range of the document.
func (s *Scroll) ScrollPage(ctx context.Context, direction ScrollDirection, amount int, viewportPercent float64) (bool, error) {
	viewport := s.viewportHeight(ctx)

	var distance float64
	switch {
	case amount != 0:
		distance = float64(amount)
	case viewportPercent > 0:
		distance = viewport * viewportPercent
	default:
		distance = viewport * 0.8
	}

	if !s.cfg.Enabled || !s.cfg.Scroll.Enabled {
		if direction == ScrollUp {
			distance = -distance
		}
		if err := s.exec.Evaluate(ctx, fmt.Sprintf("window.scrollBy(0, %.0f)", distance), nil); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			s.logger.Warn("direct scroll-by failed", zap.Error(err))
			return false, nil
		}
		return true, nil
	}

	distance += float64(s.rng.IntN(2*s.cfg.Scroll.Jitter+1) - s.cfg.Scroll.Jitter)
	if direction == ScrollUp {
		distance = -distance
	}

	current := s.currentScroll(ctx)
	target := clampFloat(current+distance, 0, math.Max(0, s.pageHeight(ctx)-viewport))

	if err := s.executeScroll(ctx, target, true); err != nil {
		return false, err
	}
	return true, nil
}

// ReadScroll mimics someone reading: small scrolls, long pauses, the
// occasional glance back up, ending early near the bottom of the page.
func (s *Scroll) ReadScroll(ctx context.Context, duration time.Duration, direction ScrollDirection) error {
	if !s.cfg.Enabled || !s.cfg.Scroll.Enabled {
		return nil
	}

	deadline := time.Now().Add(duration)
	viewport := s.viewportHeight(ctx)

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}

		amount := 100 + s.rng.IntN(201)
		if _, err := s.ScrollPage(ctx, direction, amount, 0); err != nil {
			return err
		}
		if err := s.timing.Delay(ctx, msDur(float64(1000+s.rng.IntN(2001)))); err != nil {
			return err
		}

		if s.rng.Float64() < 0.2 {
			back := 50 + s.rng.IntN(101)
			if _, err := s.ScrollPage(ctx, ScrollUp, back, 0); err != nil {
				return err
			}
			if err := s.timing.Delay(ctx, msDur(float64(500+s.rng.IntN(1001)))); err != nil {
				return err
			}
		}

		if s.currentScroll(ctx) >= s.pageHeight(ctx)-viewport-50 {
			break
		}
	}
	return nil
}

// ScrollToTop returns to the top of the page.
func (s *Scroll) ScrollToTop(ctx context.Context) (bool, error) {
	if !s.cfg.Enabled || !s.cfg.Scroll.Enabled {
		if err := s.scrollTo(ctx, 0); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return false, nil
		}
		return true, nil
	}
	if err := s.executeScroll(ctx, 0, true); err != nil {
		return false, err
	}
	return true, nil
}

// ScrollToBottom scrolls to the end of the document.
func (s *Scroll) ScrollToBottom(ctx context.Context) (bool, error) {
	target := math.Max(0, s.pageHeight(ctx)-s.viewportHeight(ctx))

	if !s.cfg.Enabled || !s.cfg.Scroll.Enabled {
		if err := s.scrollTo(ctx, target); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return false, nil
		}
		return true, nil
	}
	if err := s.executeScroll(ctx, target, true); err != nil {
		return false, err
	}
	return true, nil
}

// WheelScroll dispatches a wheel event at the given position, or the
// viewport center when pos is nil. Closer to real input than scripted
// scrolling for pages that listen for wheel events.
func (s *Scroll) WheelScroll(ctx context.Context, deltaY float64, pos *Point) error {
	at := Point{}
	if pos != nil {
		at = *pos
	} else {
		var vp struct {
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		}
		if err := s.exec.Evaluate(ctx, viewportSizeScript, &vp); err == nil {
			at = Point{X: vp.Width / 2, Y: vp.Height / 2}
		}
	}

	return s.exec.DispatchMouseEvent(ctx, MouseEventData{
		Type:   MouseWheel,
		X:      at.X,
		Y:      at.Y,
		DeltaY: deltaY,
	})
}
