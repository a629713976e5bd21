package humanize

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func TestFittsMovementTime(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		distance float64
		width    float64
		expected float64
	}{
		{name: "zero_distance", distance: 0, width: 50, expected: 50},
		{name: "negative_distance", distance: -10, width: 50, expected: 50},
		{name: "equal_distance_and_width", distance: 50, width: 50, expected: 50 + 150*1.0},
		{name: "distance_100_width_50", distance: 100, width: 50, expected: 50 + 150*math.Log2(3)},
		{name: "zero_width_floored_to_one", distance: 100, width: 0, expected: 50 + 150*math.Log2(101)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.expected, fittsMovementTime(tc.distance, tc.width), 1e-9)
		})
	}
}

func TestFittsSteps(t *testing.T) {
	t.Parallel()

	// Short moves clamp to the 10-step floor.
	assert.Equal(t, 10, fittsSteps(0, 50))
	assert.Equal(t, 10, fittsSteps(20, 50))

	// Long moves clamp to the 100-step ceiling.
	assert.Equal(t, 100, fittsSteps(1e9, 1))

	// A mid-range move sits strictly between the clamps.
	steps := fittsSteps(800, 30)
	assert.Greater(t, steps, 10)
	assert.Less(t, steps, 100)
}

func TestCubicBezierEndpoints(t *testing.T) {
	t.Parallel()

	p0 := Point{X: 10, Y: 20}
	p1 := Point{X: 100, Y: -50}
	p2 := Point{X: 300, Y: 400}
	p3 := Point{X: 500, Y: 250}

	at0 := cubicBezier(0, p0, p1, p2, p3)
	assert.InDelta(t, p0.X, at0.X, 1e-9)
	assert.InDelta(t, p0.Y, at0.Y, 1e-9)

	at1 := cubicBezier(1, p0, p1, p2, p3)
	assert.InDelta(t, p3.X, at1.X, 1e-9)
	assert.InDelta(t, p3.Y, at1.Y, 1e-9)
}

func TestBezierPath(t *testing.T) {
	t.Parallel()

	rng := testRNG(testSeed)
	start := Point{X: 100, Y: 100}
	end := Point{X: 600, Y: 350}

	path := bezierPath(rng, start, end, 20, 0.3)
	require.Len(t, path, 20)

	assert.InDelta(t, start.X, path[0].X, 1e-9)
	assert.InDelta(t, start.Y, path[0].Y, 1e-9)
	assert.InDelta(t, end.X, path[len(path)-1].X, 1e-9)
	assert.InDelta(t, end.Y, path[len(path)-1].Y, 1e-9)

	// Degenerate step counts collapse to the endpoint.
	short := bezierPath(rng, start, end, 1, 0.3)
	require.Len(t, short, 1)
	assert.Equal(t, end, short[0])
}

func TestBezierControlPointsStayNearSegment(t *testing.T) {
	t.Parallel()

	rng := testRNG(testSeed)
	start := Point{X: 0, Y: 0}
	end := Point{X: 1000, Y: 0}
	dist := start.Dist(end)

	for i := 0; i < 200; i++ {
		p1, p2 := bezierControlPoints(rng, start, end, 0.3)
		// Perpendicular offsets are bounded by curvature * distance; the
		// along-track component never leaves [0.25, 0.75] of the segment.
		assert.LessOrEqual(t, math.Abs(p1.Y), dist*0.3+1e-9)
		assert.LessOrEqual(t, math.Abs(p2.Y), dist*0.3+1e-9)
		assert.GreaterOrEqual(t, p1.X, dist*0.25-1e-9)
		assert.LessOrEqual(t, p1.X, dist*0.35+1e-9)
		assert.GreaterOrEqual(t, p2.X, dist*0.65-1e-9)
		assert.LessOrEqual(t, p2.X, dist*0.75+1e-9)
	}
}

func TestWindMousePath(t *testing.T) {
	t.Parallel()

	params := windParams{
		Gravity:    9,
		Wind:       3,
		MinWait:    2,
		MaxWait:    10,
		MaxStep:    10,
		TargetArea: 8,
	}

	testCases := []struct {
		name       string
		start, end Point
	}{
		{name: "short_move", start: Point{X: 100, Y: 100}, end: Point{X: 150, Y: 120}},
		{name: "long_move", start: Point{X: 0, Y: 0}, end: Point{X: 1200, Y: 700}},
		{name: "vertical_move", start: Point{X: 400, Y: 50}, end: Point{X: 400, Y: 600}},
		{name: "zero_distance", start: Point{X: 300, Y: 300}, end: Point{X: 300, Y: 300}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			for seed := uint64(1); seed <= 20; seed++ {
				rng := testRNG(seed)
				path := windMousePath(rng, tc.start, tc.end, params)

				require.NotEmpty(t, path)
				assert.LessOrEqual(t, len(path), 2002, "safety cap exceeded")

				// The path starts where the cursor is and terminates on the
				// exact target.
				assert.Equal(t, tc.start, path[0].Pos)
				last := path[len(path)-1]
				assert.Equal(t, tc.end, last.Pos)
				assert.Equal(t, params.MinWait, last.Delay)

				// Every delay stays within the configured window.
				for _, step := range path[1:] {
					assert.GreaterOrEqual(t, step.Delay, params.MinWait)
					assert.LessOrEqual(t, step.Delay, params.MaxWait+1e-9)
				}

				// No single step jumps farther than the cap allows.
				for i := 1; i < len(path); i++ {
					stepDist := path[i-1].Pos.Dist(path[i].Pos)
					assert.LessOrEqual(t, stepDist, params.MaxStep+1e-9)
				}
			}
		})
	}
}

func TestWindMousePathCapsRunawaySteps(t *testing.T) {
	t.Parallel()

	// Near-zero gravity with strong wind and a tiny step budget cannot reach
	// a distant target, so the generator must cut the walk off.
	p := windParams{
		Gravity:    0.01,
		Wind:       40,
		MinWait:    2,
		MaxWait:    10,
		MaxStep:    2,
		TargetArea: 10,
	}
	start := Point{X: 0, Y: 0}
	end := Point{X: 5000, Y: 5000}

	for seed := uint64(0); seed < 10; seed++ {
		rng := testRNG(seed)
		path := windMousePath(rng, start, end, p)

		// The step cap, plus the start point and the appended exact target.
		require.Len(t, path, 2002)
		assert.Equal(t, start, path[0].Pos)
		assert.Equal(t, end, path[len(path)-1].Pos)
		// The walk was cut off mid-flight, still far from the target.
		assert.Greater(t, path[len(path)-2].Pos.Dist(end), 1.0)
	}
}
