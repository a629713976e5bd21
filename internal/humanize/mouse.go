package humanize

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"
)

// msDur converts fractional milliseconds to a Duration.
func msDur(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// Mouse simulates human pointer behavior: curved trajectories, imperfect
// click placement, hesitation, and occasional overshoot with correction.
type Mouse struct {
	cfg    *Config
	exec   Executor
	timing *Timing
	logger *zap.Logger
	rng    *rand.Rand

	noiseX *perlin.Perlin
	noiseY *perlin.Perlin

	// pos is nil until the first tracked movement completes.
	pos *Point
}

// NewMouse creates a mouse engine sharing the session's timing and RNG.
func NewMouse(cfg *Config, exec Executor, timing *Timing, logger *zap.Logger, src rand.Source) *Mouse {
	seed := int64(rand.New(src).Uint64())
	return &Mouse{
		cfg:    cfg,
		exec:   exec,
		timing: timing,
		logger: logger.Named("mouse"),
		rng:    rand.New(src),
		noiseX: perlin.NewPerlin(2, 2, 3, seed),
		noiseY: perlin.NewPerlin(2, 2, 3, seed+1),
	}
}

const viewportCenterScript = `({x: window.innerWidth / 2, y: window.innerHeight / 2})`

// currentPosition returns the last tracked cursor position, estimating the
// viewport center when no movement has happened yet.
func (m *Mouse) currentPosition(ctx context.Context) Point {
	if m.pos != nil {
		return *m.pos
	}
	var center struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := m.exec.Evaluate(ctx, viewportCenterScript, &center); err != nil {
		return Point{X: 500, Y: 300}
	}
	return Point{X: center.X, Y: center.Y}
}

// clickOffset picks a natural click position inside the element. Gaussian
// around the center, clamped 2px inside the edges.
func (m *Mouse) clickOffset(box Rect) Point {
	maxOffset := float64(m.cfg.Mouse.ClickOffsetMax)

	offX := m.rng.NormFloat64() * maxOffset / 2
	offY := m.rng.NormFloat64() * maxOffset / 2

	maxX := box.Width/2 - 2
	maxY := box.Height/2 - 2
	offX = clampFloat(offX, -maxX, maxX)
	offY = clampFloat(offY, -maxY, maxY)

	c := box.Center()
	return Point{X: c.X + offX, Y: c.Y + offY}
}

// addJitter perturbs a point by the configured micro-jitter.
func (m *Mouse) addJitter(p Point) Point {
	j := float64(m.cfg.Mouse.Jitter)
	if j <= 0 {
		return p
	}
	return Point{
		X: p.X + (m.rng.Float64()*2-1)*j,
		Y: p.Y + (m.rng.Float64()*2-1)*j,
	}
}

// generateTrajectory plans the full movement: WindMouse path with jitter,
// step delays scaled by the configured speed.
func (m *Mouse) generateTrajectory(start, end Point, targetWidth float64) Trajectory {
	mc := &m.cfg.Mouse

	path := windMousePath(m.rng, start, end, windParams{
		Gravity:    mc.WindGravity,
		Wind:       mc.WindWind,
		MinWait:    mc.WindMinWait,
		MaxWait:    mc.WindMaxWait,
		MaxStep:    mc.WindMaxStep,
		TargetArea: mc.WindTargetArea,
	})

	speed := mc.Speed
	if speed <= 0 {
		speed = 1
	}
	for i := range path {
		path[i].Pos = m.addJitter(path[i].Pos)
		path[i].Delay /= speed
	}
	// The path must land on the target despite jitter.
	path[len(path)-1].Pos = end
	return path
}

// executeMovement walks a trajectory, dispatching move events.
func (m *Mouse) executeMovement(ctx context.Context, start, end Point, targetWidth float64) error {
	for _, step := range m.generateTrajectory(start, end, targetWidth) {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := m.exec.DispatchMouseEvent(ctx, MouseEventData{
			Type:   MouseMove,
			X:      step.Pos.X,
			Y:      step.Pos.Y,
			Button: ButtonNone,
		})
		if err != nil {
			return err
		}
		if step.Delay > 0 {
			if err := m.timing.Delay(ctx, msDur(step.Delay)); err != nil {
				return err
			}
		}
	}
	m.pos = &end
	return nil
}

// MoveTo moves the cursor to the element with a human-like trajectory,
// possibly overshooting the target and correcting. Returns false when the
// element cannot be located.
func (m *Mouse) MoveTo(ctx context.Context, selector string) (bool, error) {
	return m.moveTo(ctx, selector, nil)
}

// MoveToOffset moves to a custom offset from the element's center.
func (m *Mouse) MoveToOffset(ctx context.Context, selector string, offset Point) (bool, error) {
	return m.moveTo(ctx, selector, &offset)
}

func (m *Mouse) moveTo(ctx context.Context, selector string, offset *Point) (bool, error) {
	if !m.cfg.Enabled || !m.cfg.Mouse.Enabled {
		return true, nil
	}

	box, err := m.exec.ElementBounds(ctx, selector)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		m.logger.Warn("move target not found", zap.String("selector", selector), zap.Error(err))
		return false, nil
	}

	return m.moveToBox(ctx, box, offset)
}

// MoveToBounds moves the cursor into an already-resolved bounding box,
// for targets located by script rather than selector.
func (m *Mouse) MoveToBounds(ctx context.Context, box Rect) (bool, error) {
	if !m.cfg.Enabled || !m.cfg.Mouse.Enabled {
		return true, nil
	}
	return m.moveToBox(ctx, box, nil)
}

func (m *Mouse) moveToBox(ctx context.Context, box Rect, offset *Point) (bool, error) {
	start := m.currentPosition(ctx)

	var target Point
	if offset != nil {
		target = box.Center().Add(*offset)
	} else {
		target = m.clickOffset(box)
	}

	if m.timing.ShouldOvershootMouse() {
		dist := float64(m.timing.Sample(m.cfg.Mouse.OvershootDistance.Min, m.cfg.Mouse.OvershootDistance.Max, DistUniform))
		angle := m.rng.Float64() * 2 * math.Pi
		overshoot := Point{
			X: target.X + math.Cos(angle)*dist,
			Y: target.Y + math.Sin(angle)*dist,
		}

		if err := m.executeMovement(ctx, start, overshoot, box.Width); err != nil {
			return false, err
		}
		// Brief pause while "noticing" the miss.
		if err := m.timing.Delay(ctx, m.timing.MicroDelay()); err != nil {
			return false, err
		}
		if err := m.executeMovement(ctx, overshoot, target, box.Width); err != nil {
			return false, err
		}
	} else {
		if err := m.executeMovement(ctx, start, target, box.Width); err != nil {
			return false, err
		}
	}

	m.pos = &target
	return true, nil
}

var buttonBits = map[MouseButton]int64{
	ButtonLeft:   1,
	ButtonRight:  2,
	ButtonMiddle: 4,
}

// pressRelease dispatches a press/release pair at the current position with
// a human hold time in between.
func (m *Mouse) pressRelease(ctx context.Context, button MouseButton, clickCount int) error {
	pos := m.currentPosition(ctx)

	err := m.exec.DispatchMouseEvent(ctx, MouseEventData{
		Type:       MousePress,
		X:          pos.X,
		Y:          pos.Y,
		Button:     button,
		ClickCount: clickCount,
		Buttons:    buttonBits[button],
	})
	if err != nil {
		return err
	}
	if err := m.timing.Delay(ctx, m.timing.KeyHoldTime()); err != nil {
		return err
	}
	return m.exec.DispatchMouseEvent(ctx, MouseEventData{
		Type:       MouseRelease,
		X:          pos.X,
		Y:          pos.Y,
		Button:     button,
		ClickCount: clickCount,
	})
}

// Click moves to the element, hesitates, and clicks with realistic
// press/release timing. Falls back to a direct click when disabled.
func (m *Mouse) Click(ctx context.Context, selector string, button MouseButton) (bool, error) {
	if !m.cfg.Enabled || !m.cfg.Mouse.Enabled {
		if err := m.exec.Click(ctx, selector); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			m.logger.Warn("direct click failed", zap.String("selector", selector), zap.Error(err))
			return false, nil
		}
		return true, nil
	}

	ok, err := m.MoveTo(ctx, selector)
	if err != nil || !ok {
		return ok, err
	}

	if err := m.timing.Delay(ctx, m.timing.ClickHesitation()); err != nil {
		return false, err
	}
	if err := m.pressRelease(ctx, button, 1); err != nil {
		return false, err
	}
	return true, nil
}

// DoubleClick performs two clicks with a realistic 50-150ms interval.
func (m *Mouse) DoubleClick(ctx context.Context, selector string) (bool, error) {
	if !m.cfg.Enabled || !m.cfg.Mouse.Enabled {
		if err := m.exec.Click(ctx, selector); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			m.logger.Warn("direct double click failed", zap.String("selector", selector), zap.Error(err))
			return false, nil
		}
		return true, nil
	}

	ok, err := m.MoveTo(ctx, selector)
	if err != nil || !ok {
		return ok, err
	}

	if err := m.pressRelease(ctx, ButtonLeft, 1); err != nil {
		return false, err
	}
	if err := m.timing.Delay(ctx, msDur(float64(m.timing.Sample(50, 150, DistUniform)))); err != nil {
		return false, err
	}
	if err := m.pressRelease(ctx, ButtonLeft, 2); err != nil {
		return false, err
	}
	return true, nil
}

// Hover moves to the element and lingers. A nil duration uses the default
// 500-1500ms dwell.
func (m *Mouse) Hover(ctx context.Context, selector string, duration *Range) (bool, error) {
	d := Range{Min: 500, Max: 1500}
	if duration != nil {
		d = *duration
	}

	ok, err := m.MoveTo(ctx, selector)
	if err != nil || !ok {
		return ok, err
	}

	dwell := m.timing.Sample(d.Min, d.Max, DistUniform)
	if !m.cfg.Enabled || !m.cfg.Mouse.Enabled {
		// A disabled session still dwells for the requested window; only the
		// synthetic pointer motion is skipped.
		if err := m.timing.Delay(ctx, msDur(float64(dwell))); err != nil {
			return false, err
		}
		return true, nil
	}

	// Rest on the element with a little noise drift instead of freezing.
	steps := clampInt(dwell/80, 4, 40)
	if err := m.IdleDrift(ctx, steps, 2.5); err != nil {
		return false, err
	}
	return true, nil
}

const viewportSizeScript = `({width: window.innerWidth, height: window.innerHeight})`

// RandomMovement wanders to a random point inside the bounds, or the
// viewport when bounds is nil. Used for idle behavior.
func (m *Mouse) RandomMovement(ctx context.Context, bounds *Rect) error {
	area := Rect{X: 0, Y: 0, Width: 1000, Height: 600}
	if bounds != nil {
		area = *bounds
	} else {
		var vp struct {
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		}
		if err := m.exec.Evaluate(ctx, viewportSizeScript, &vp); err == nil && vp.Width > 0 {
			area = Rect{Width: vp.Width, Height: vp.Height}
		}
	}

	start := m.currentPosition(ctx)
	target := Point{
		X: area.X + 50 + m.rng.Float64()*math.Max(1, area.Width-100),
		Y: area.Y + 50 + m.rng.Float64()*math.Max(1, area.Height-100),
	}

	if err := m.executeMovement(ctx, start, target, 100); err != nil {
		return err
	}
	m.pos = &target
	return nil
}

// IdleDrift holds the cursor roughly in place while letting it wander on a
// smooth Perlin noise field, the way a resting hand drifts.
func (m *Mouse) IdleDrift(ctx context.Context, steps int, amplitude float64) error {
	anchor := m.currentPosition(ctx)
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := float64(i) * 0.08
		drift := Point{
			X: anchor.X + m.noiseX.Noise1D(t)*amplitude,
			Y: anchor.Y + m.noiseY.Noise1D(t)*amplitude,
		}
		err := m.exec.DispatchMouseEvent(ctx, MouseEventData{
			Type:   MouseMove,
			X:      drift.X,
			Y:      drift.Y,
			Button: ButtonNone,
		})
		if err != nil {
			return err
		}
		if err := m.timing.Delay(ctx, m.timing.MicroDelay()); err != nil {
			return err
		}
		m.pos = &drift
	}
	return nil
}
