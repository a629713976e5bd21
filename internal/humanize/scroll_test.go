package humanize

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMomentumSteps(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		distance float64
	}{
		{name: "downward", distance: 900},
		{name: "upward", distance: -600},
		{name: "short", distance: 40},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rng := testRNG(testSeed)
			steps := momentumSteps(rng, tc.distance, 100, 0.85, 2)
			require.NotEmpty(t, steps)

			// Steps decay like friction acting on a flick, never growing,
			// and all move in the direction of travel.
			sum := 0.0
			prev := math.Inf(1)
			for i, step := range steps {
				size := math.Abs(step.Distance)
				if i < len(steps)-1 {
					assert.LessOrEqual(t, size, prev+1e-9)
					prev = size
				}
				if tc.distance > 0 {
					assert.Greater(t, step.Distance, 0.0)
				} else {
					assert.Less(t, step.Distance, 0.0)
				}
				assert.GreaterOrEqual(t, step.Delay, 30.0)
				assert.LessOrEqual(t, step.Delay, 50.0)
				sum += step.Distance
			}

			// The steps cover the distance exactly.
			assert.InDelta(t, tc.distance, sum, 1e-9)
		})
	}
}

func TestExecuteScrollLandsExactly(t *testing.T) {
	t.Parallel()

	cfg := FromLevel(LevelModerate)
	cfg.Scroll.ReadingPauseChance = 0
	exec := newMockExecutor()
	b := newTestBehavior(t, &cfg, exec)

	require.NoError(t, b.Scroll.executeScroll(context.Background(), 700, true))

	// Despite jittered intermediate positions, the final scroll pins the
	// exact target.
	last, ok := exec.lastScrollTo()
	require.True(t, ok)
	assert.Equal(t, 700.0, last)
	assert.Equal(t, 700.0, exec.scrollY)
}

func TestExecuteScrollSkipsTinyDistances(t *testing.T) {
	t.Parallel()

	exec := newMockExecutor()
	exec.scrollY = 100
	b := newTestBehavior(t, moderateNoOvershoot(), exec)

	require.NoError(t, b.Scroll.executeScroll(context.Background(), 103, true))
	_, ok := exec.lastScrollTo()
	assert.False(t, ok, "a sub-5px move should not scroll at all")
}

func TestScrollPageClampsToDocument(t *testing.T) {
	t.Parallel()

	cfg := FromLevel(LevelModerate)
	cfg.Scroll.OvershootChance = 0
	exec := newMockExecutor()
	exec.pageH = 2000
	exec.viewportH = 800
	exec.scrollY = 1100
	b := newTestBehavior(t, &cfg, exec)

	// Scrolling far past the end clamps to pageHeight - viewportHeight.
	ok, err := b.Scroll.ScrollPage(context.Background(), ScrollDown, 5000, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1200.0, exec.scrollY)

	// And far above the start clamps to zero.
	ok, err = b.Scroll.ScrollPage(context.Background(), ScrollUp, 50000, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.0, exec.scrollY)
}

func TestScrollPageDefaultsToViewportFraction(t *testing.T) {
	t.Parallel()

	cfg := FromLevel(LevelModerate)
	cfg.Scroll.Jitter = 0
	cfg.Scroll.ReadingPauseChance = 0
	exec := newMockExecutor()
	b := newTestBehavior(t, &cfg, exec)

	ok, err := b.Scroll.ScrollPage(context.Background(), ScrollDown, 0, 0)
	require.NoError(t, err)
	require.True(t, ok)

	// 80% of the 800px viewport.
	assert.Equal(t, 640.0, exec.scrollY)
}

func TestScrollPageDisabled(t *testing.T) {
	t.Parallel()

	cfg := FromLevel(LevelOff)
	exec := newMockExecutor()
	b := newTestBehavior(t, &cfg, exec)

	ok, err := b.Scroll.ScrollPage(context.Background(), ScrollDown, 300, 0)
	require.NoError(t, err)
	require.True(t, ok)

	// Degrades to a single scrollBy, no momentum steps.
	assert.Equal(t, 300.0, exec.scrollY)
}

func TestScrollToElement(t *testing.T) {
	t.Parallel()

	cfg := FromLevel(LevelModerate)
	cfg.Scroll.OvershootChance = 0
	cfg.Scroll.ReadingPauseChance = 0
	exec := newMockExecutor()
	exec.pageH = 3000
	// Element 900px below the current viewport top.
	exec.bounds["#section"] = Rect{X: 0, Y: 900, Width: 600, Height: 200}

	b := newTestBehavior(t, &cfg, exec)

	ok, err := b.Scroll.ScrollToElement(context.Background(), "#section", DefaultScrollOffset)
	require.NoError(t, err)
	require.True(t, ok)

	// Lands offset pixels above the element: 900 + 0 - 200.
	assert.Equal(t, 700.0, exec.scrollY)
}

func TestScrollToElementOvershoots(t *testing.T) {
	t.Parallel()

	cfg := FromLevel(LevelModerate)
	cfg.Scroll.OvershootChance = 1
	cfg.Scroll.ReadingPauseChance = 0
	exec := newMockExecutor()
	exec.pageH = 3000
	exec.bounds["#section"] = Rect{X: 0, Y: 900, Width: 600, Height: 200}

	b := newTestBehavior(t, &cfg, exec)

	ok, err := b.Scroll.ScrollToElement(context.Background(), "#section", DefaultScrollOffset)
	require.NoError(t, err)
	require.True(t, ok)

	// The correction still lands on the true target.
	assert.Equal(t, 700.0, exec.scrollY)

	// And the path passed through a point past (or short of) the target.
	overshot := false
	for _, s := range exec.scripts {
		if !strings.HasPrefix(s, "window.scrollTo(0, ") {
			continue
		}
		var y float64
		if _, err := fmt.Sscanf(s, "window.scrollTo(0, %f)", &y); err == nil && math.Abs(y-700) >= 45 {
			overshot = true
		}
	}
	assert.True(t, overshot)
}

func TestScrollToElementMissing(t *testing.T) {
	t.Parallel()

	exec := newMockExecutor()
	b := newTestBehavior(t, moderateNoOvershoot(), exec)

	ok, err := b.Scroll.ScrollToElement(context.Background(), "#ghost", DefaultScrollOffset)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScrollToTopAndBottom(t *testing.T) {
	t.Parallel()

	cfg := FromLevel(LevelModerate)
	cfg.Scroll.ReadingPauseChance = 0
	exec := newMockExecutor()
	exec.pageH = 2400
	exec.viewportH = 800
	exec.scrollY = 900
	b := newTestBehavior(t, &cfg, exec)

	ok, err := b.Scroll.ScrollToBottom(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1600.0, exec.scrollY)

	ok, err = b.Scroll.ScrollToTop(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.0, exec.scrollY)
}

func TestReadScroll(t *testing.T) {
	t.Parallel()

	cfg := FromLevel(LevelModerate)
	cfg.Scroll.ReadingPauseChance = 0
	exec := newMockExecutor()
	exec.pageH = 100000
	b := newTestBehavior(t, &cfg, exec)

	require.NoError(t, b.Scroll.ReadScroll(context.Background(), 30*time.Millisecond, ScrollDown))

	// The page moved downward and paused between steps.
	assert.Greater(t, exec.scrollY, 0.0)
	assert.NotEmpty(t, exec.sleeps)
}

func TestWheelScroll(t *testing.T) {
	t.Parallel()

	exec := newMockExecutor()
	b := newTestBehavior(t, moderateNoOvershoot(), exec)

	require.NoError(t, b.Scroll.WheelScroll(context.Background(), 120, nil))
	require.Len(t, exec.events, 1)

	ev := exec.events[0]
	assert.Equal(t, MouseWheel, ev.Type)
	assert.Equal(t, 120.0, ev.DeltaY)
	assert.Equal(t, exec.viewportW/2, ev.X)
	assert.Equal(t, exec.viewportH/2, ev.Y)
}
