package humanize

import (
	"math"
	"math/rand/v2"
)

// Fitts's Law constants, empirically determined. Movement time in ms is
// MT = fittsA + fittsB * log2(D/W + 1).
const (
	fittsA = 50.0
	fittsB = 150.0
)

// fittsMovementTime predicts how long a human takes to acquire a target of
// the given width at the given distance, in milliseconds.
func fittsMovementTime(distance, targetWidth float64) float64 {
	if targetWidth <= 0 {
		targetWidth = 1
	}
	if distance <= 0 {
		return fittsA
	}
	return fittsA + fittsB*math.Log2(distance/targetWidth+1)
}

// fittsSteps converts a predicted movement time into a step count, aiming
// for roughly 12ms per step and clamping to [10, 100].
func fittsSteps(distance, targetWidth float64) int {
	mt := fittsMovementTime(distance, targetWidth)
	return clampInt(int(mt/12), 10, 100)
}

// cubicBezier evaluates a cubic Bezier curve at parameter t in [0, 1].
func cubicBezier(t float64, p0, p1, p2, p3 Point) Point {
	u := 1 - t
	uu := u * u
	uuu := uu * u
	tt := t * t
	ttt := tt * t

	return p0.Mul(uuu).
		Add(p1.Mul(3 * uu * t)).
		Add(p2.Mul(3 * u * tt)).
		Add(p3.Mul(ttt))
}

// bezierControlPoints picks two control points for a natural-looking curve
// between start and end. Each sits 25-35% / 65-75% along the line, offset
// perpendicular to it by a random fraction of the distance.
func bezierControlPoints(rng *rand.Rand, start, end Point, curvature float64) (Point, Point) {
	dist := start.Dist(end)
	d := end.Sub(start)

	var perp Point
	if dist > 0 {
		perp = Point{X: -d.Y / dist, Y: d.X / dist}
	}

	offset1 := (rng.Float64()*2 - 1) * dist * curvature
	offset2 := (rng.Float64()*2 - 1) * dist * curvature

	t1 := 0.25 + rng.Float64()*0.10
	p1 := start.Add(d.Mul(t1)).Add(perp.Mul(offset1))

	t2 := 0.65 + rng.Float64()*0.10
	p2 := start.Add(d.Mul(t2)).Add(perp.Mul(offset2))

	return p1, p2
}

// bezierPath samples numPoints positions along a randomized cubic Bezier
// curve from start to end. Both endpoints are exact.
func bezierPath(rng *rand.Rand, start, end Point, numPoints int, curvature float64) []Point {
	if numPoints < 2 {
		return []Point{end}
	}

	p1, p2 := bezierControlPoints(rng, start, end, curvature)

	path := make([]Point, numPoints)
	for i := range path {
		t := float64(i) / float64(numPoints-1)
		path[i] = cubicBezier(t, start, p1, p2, end)
	}
	return path
}

// windParams tunes the WindMouse path generator.
type windParams struct {
	// Gravity pulls toward the target. Higher is more direct.
	Gravity float64
	// Wind is the magnitude of the random drift force.
	Wind float64
	// MinWait and MaxWait bound the per-step delay in ms.
	MinWait float64
	MaxWait float64
	// MaxStep caps the distance covered per step.
	MaxStep float64
	// TargetArea is the radius around the target where forces taper off.
	TargetArea float64
}

// windMousePath generates a natural mouse path using the BenLand100
// WindMouse model: a random "wind" force perturbs the cursor while
// "gravity" pulls it toward the target. The returned trajectory always
// terminates on the exact target point.
func windMousePath(rng *rand.Rand, start, end Point, p windParams) Trajectory {
	const (
		sqrt3    = 1.7320508075688772
		sqrt5    = 2.23606797749979
		maxSteps = 2000
	)

	current := start
	path := Trajectory{{Pos: current, Delay: 0}}

	var windX, windY, velX, velY float64

	for {
		distance := current.Dist(end)
		if distance < 1 {
			break
		}

		// Taper forces inside the target area for a gentle landing.
		w, g := p.Wind, p.Gravity
		if distance < p.TargetArea {
			w = p.Wind * (distance / p.TargetArea)
			g = p.Gravity * (distance / p.TargetArea)
		}

		// Damped random walk on the wind force.
		windX = windX/sqrt3 + (rng.Float64()*(w*2+1)-w)/sqrt5
		windY = windY/sqrt3 + (rng.Float64()*(w*2+1)-w)/sqrt5

		dirX := (end.X - current.X) / distance
		dirY := (end.Y - current.Y) / distance

		velX += windX + g*dirX
		velY += windY + g*dirY

		velMag := math.Hypot(velX, velY)
		if velMag > p.MaxStep {
			scale := p.MaxStep / velMag
			velX *= scale
			velY *= scale
			velMag = p.MaxStep
		}

		// About to overshoot: approach the remaining gap directly.
		if velMag > distance {
			velX = (end.X - current.X) * 0.9
			velY = (end.Y - current.Y) * 0.9
		}

		current = Point{X: current.X + velX, Y: current.Y + velY}

		stepSize := math.Hypot(velX, velY)
		delay := p.MinWait
		if stepSize > 0 && p.MaxStep > 0 {
			delay = p.MinWait + (p.MaxWait-p.MinWait)*(stepSize/p.MaxStep)
		}

		path = append(path, Step{Pos: current, Delay: delay})

		if len(path) > maxSteps {
			break
		}
	}

	path = append(path, Step{Pos: end, Delay: p.MinWait})
	return path
}
