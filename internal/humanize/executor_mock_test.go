package humanize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// mockExecutor implements Executor for tests. It records every interaction
// instead of touching a browser and maintains a tiny page model (scroll
// position, page and viewport heights) so scroll scripts behave.
type mockExecutor struct {
	mu sync.Mutex

	events      []MouseEventData
	sleeps      []time.Duration
	keys        []string
	chords      []string
	clicks      []string
	fills       []fillCall
	navigations []string
	scripts     []string

	// Page model.
	scrollY   float64
	pageH     float64
	viewportH float64
	viewportW float64

	bounds    map[string]Rect
	boundsErr error

	// evalFn, when set, overrides the built-in script handling.
	evalFn func(script string, out any) error

	// Scenario control, keyed on DispatchMouseEvent call count.
	failOnCall   int
	returnErr    error
	cancelOnCall int
	cancelFunc   context.CancelFunc
	callCount    int

	clickErr error
	fillErr  error
}

type fillCall struct {
	selector string
	value    string
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{
		pageH:     2000,
		viewportH: 800,
		viewportW: 1200,
		bounds:    make(map[string]Rect),
	}
}

func (m *mockExecutor) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleeps = append(m.sleeps, d)
	return nil
}

func (m *mockExecutor) Navigate(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.navigations = append(m.navigations, url)
	return nil
}

func (m *mockExecutor) ElementBounds(ctx context.Context, selector string) (Rect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.boundsErr != nil {
		return Rect{}, m.boundsErr
	}
	box, ok := m.bounds[selector]
	if !ok {
		return Rect{}, fmt.Errorf("selector %q matched no nodes", selector)
	}
	return box, nil
}

func (m *mockExecutor) DispatchMouseEvent(ctx context.Context, data MouseEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	if m.returnErr != nil && m.failOnCall > 0 && m.callCount >= m.failOnCall {
		return m.returnErr
	}

	m.events = append(m.events, data)
	if m.cancelOnCall > 0 && len(m.events) == m.cancelOnCall && m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}

func (m *mockExecutor) SendKeys(ctx context.Context, keys string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, keys)
	return nil
}

func (m *mockExecutor) SendKeyChord(ctx context.Context, key string, modifiers ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chords = append(m.chords, strings.Join(append(append([]string{}, modifiers...), key), "+"))
	return nil
}

func (m *mockExecutor) Click(ctx context.Context, selector string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clickErr != nil {
		return m.clickErr
	}
	m.clicks = append(m.clicks, selector)
	return nil
}

func (m *mockExecutor) Fill(ctx context.Context, selector, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fillErr != nil {
		return m.fillErr
	}
	m.fills = append(m.fills, fillCall{selector: selector, value: value})
	return nil
}

func (m *mockExecutor) Evaluate(ctx context.Context, script string, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, script)

	if m.evalFn != nil {
		return m.evalFn(script, out)
	}

	switch {
	case script == "window.innerHeight":
		return jsonInto(m.viewportH, out)
	case script == "window.pageYOffset || document.documentElement.scrollTop":
		return jsonInto(m.scrollY, out)
	case strings.HasPrefix(script, "Math.max(document.body.scrollHeight"):
		return jsonInto(m.pageH, out)
	case strings.HasPrefix(script, "window.scrollTo(0, "):
		var y float64
		fmt.Sscanf(script, "window.scrollTo(0, %f)", &y)
		m.scrollY = y
		return nil
	case strings.HasPrefix(script, "window.scrollBy(0, "):
		var dy float64
		fmt.Sscanf(script, "window.scrollBy(0, %f)", &dy)
		m.scrollY += dy
		return nil
	case script == viewportCenterScript:
		return jsonInto(map[string]float64{"x": m.viewportW / 2, "y": m.viewportH / 2}, out)
	case script == viewportSizeScript:
		return jsonInto(map[string]float64{"width": m.viewportW, "height": m.viewportH}, out)
	case script == atBottomScript:
		return jsonInto(m.viewportH+m.scrollY >= m.pageH-100, out)
	default:
		// Heading/link queries and scrollIntoView default to empty results.
		return nil
	}
}

// jsonInto copies v into out through JSON, mirroring how CDP results are
// unmarshaled in production.
func jsonInto(v, out any) error {
	if out == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// lastScrollTo returns the target of the most recent scrollTo script.
func (m *mockExecutor) lastScrollTo() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.scripts) - 1; i >= 0; i-- {
		if strings.HasPrefix(m.scripts[i], "window.scrollTo(0, ") {
			var y float64
			fmt.Sscanf(m.scripts[i], "window.scrollTo(0, %f)", &y)
			return y, true
		}
	}
	return 0, false
}

const testSeed = 12345

// newTestBehavior builds a deterministic session over the mock executor.
func newTestBehavior(t *testing.T, cfg *Config, exec Executor) *Behavior {
	t.Helper()
	return NewBehaviorSeeded(cfg, exec, zap.NewNop(), testSeed, testSeed+1)
}
