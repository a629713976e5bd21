package humanize

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// MouseEventType defines the type of mouse event. The strings align with
// the CDP Input domain and standard DOM event types.
type MouseEventType string

const (
	MouseMove    MouseEventType = "mouseMoved"
	MousePress   MouseEventType = "mousePressed"
	MouseRelease MouseEventType = "mouseReleased"
	MouseWheel   MouseEventType = "mouseWheel"
)

// MouseButton defines the mouse button.
type MouseButton string

const (
	ButtonNone   MouseButton = "none"
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// MouseEventData holds the data required to dispatch a mouse event. This is
// an agnostic structure so the engines stay independent of the automation
// protocol underneath.
type MouseEventData struct {
	Type MouseEventType
	X    float64
	Y    float64
	// Button that was pressed or released.
	Button MouseButton
	// Number of consecutive clicks.
	ClickCount int
	// Buttons is a bitfield of the buttons currently held (1 left, 2 right,
	// 4 middle).
	Buttons int64
	// DeltaX and DeltaY apply to wheel events.
	DeltaX float64
	DeltaY float64
}

// Control characters accepted by SendKeys.
const (
	KeyBackspace = "\b"
	KeyEnter     = "\r"
	KeyTab       = "\t"
)

// Executor is the browser-control capability the engines consume. It is the
// cornerstone of the package's testability: production code runs over CDP,
// tests substitute recording mocks.
type Executor interface {
	// Sleep pauses execution, respecting context cancellation.
	Sleep(ctx context.Context, d time.Duration) error

	// Navigate loads the given URL.
	Navigate(ctx context.Context, url string) error

	// ElementBounds resolves the first element matching the selector and
	// returns its bounding box. A not-found element is reported as an error.
	ElementBounds(ctx context.Context, selector string) (Rect, error)

	// DispatchMouseEvent sends a raw pointer event.
	DispatchMouseEvent(ctx context.Context, data MouseEventData) error

	// SendKeys types the given keys into the currently focused element.
	// The engines focus the target (by clicking) before calling this.
	SendKeys(ctx context.Context, keys string) error

	// SendKeyChord presses a single key with held modifiers
	// ("Control", "Shift", "Alt", "Meta").
	SendKeyChord(ctx context.Context, key string, modifiers ...string) error

	// Click performs a direct, programmatic click. Used by degraded paths
	// and to focus elements.
	Click(ctx context.Context, selector string) error

	// Fill sets an input's value directly. Used by degraded paths.
	Fill(ctx context.Context, selector, value string) error

	// Evaluate runs a read-only script against page state and unmarshals
	// the result into out. Pass nil to discard the result.
	Evaluate(ctx context.Context, script string, out any) error
}

// CDPExecutor is the production Executor backed by chromedp. The context
// passed to its methods must originate from chromedp.NewContext.
type CDPExecutor struct{}

// NewCDPExecutor creates a production-ready executor.
func NewCDPExecutor() *CDPExecutor {
	return &CDPExecutor{}
}

func (e *CDPExecutor) Sleep(ctx context.Context, d time.Duration) error {
	return chromedp.Sleep(d).Do(ctx)
}

func (e *CDPExecutor) Navigate(ctx context.Context, url string) error {
	return chromedp.Navigate(url).Do(ctx)
}

func (e *CDPExecutor) ElementBounds(ctx context.Context, selector string) (Rect, error) {
	var nodes []*cdp.Node
	err := chromedp.Tasks{
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Nodes(selector, &nodes, chromedp.ByQuery),
	}.Do(ctx)
	if err != nil && len(nodes) == 0 {
		if ctx.Err() != nil {
			return Rect{}, ctx.Err()
		}
		return Rect{}, fmt.Errorf("no visible node for selector %q: %w", selector, err)
	}
	if len(nodes) == 0 {
		return Rect{}, fmt.Errorf("selector %q matched no nodes", selector)
	}

	box, err := dom.GetBoxModel().WithNodeID(nodes[0].NodeID).Do(ctx)
	if err != nil {
		return Rect{}, fmt.Errorf("box model for %q: %w", selector, err)
	}
	if box == nil || len(box.Content) < 8 || box.Width <= 0 || box.Height <= 0 {
		return Rect{}, fmt.Errorf("element %q has no geometric representation", selector)
	}
	// Content is [x0, y0, x1, y1, x2, y2, x3, y3] starting top-left.
	return Rect{
		X:      box.Content[0],
		Y:      box.Content[1],
		Width:  float64(box.Width),
		Height: float64(box.Height),
	}, nil
}

func (e *CDPExecutor) DispatchMouseEvent(ctx context.Context, data MouseEventData) error {
	p := input.DispatchMouseEvent(input.MouseType(data.Type), data.X, data.Y)
	if data.Button != "" {
		p = p.WithButton(input.MouseButton(data.Button))
	}
	if data.ClickCount > 0 {
		p = p.WithClickCount(int64(data.ClickCount))
	}
	if data.Buttons > 0 {
		p = p.WithButtons(data.Buttons)
	}
	if data.Type == MouseWheel {
		p = p.WithDeltaX(data.DeltaX).WithDeltaY(data.DeltaY)
	}
	return p.Do(ctx)
}

func (e *CDPExecutor) SendKeys(ctx context.Context, keys string) error {
	// Target the active element: the engines focus the field first.
	return chromedp.SendKeys("document.activeElement", keys, chromedp.ByJSPath).Do(ctx)
}

var modifierBits = map[string]input.Modifier{
	"Alt":     input.ModifierAlt,
	"Control": input.ModifierCtrl,
	"Meta":    input.ModifierMeta,
	"Shift":   input.ModifierShift,
}

func (e *CDPExecutor) SendKeyChord(ctx context.Context, key string, modifiers ...string) error {
	var mods []input.Modifier
	for _, m := range modifiers {
		bit, ok := modifierBits[m]
		if !ok {
			return fmt.Errorf("unknown modifier %q", m)
		}
		mods = append(mods, bit)
	}
	if len(mods) == 0 {
		return chromedp.KeyEvent(key).Do(ctx)
	}
	return chromedp.KeyEvent(key, chromedp.KeyModifiers(mods...)).Do(ctx)
}

func (e *CDPExecutor) Click(ctx context.Context, selector string) error {
	return chromedp.Click(selector, chromedp.ByQuery).Do(ctx)
}

func (e *CDPExecutor) Fill(ctx context.Context, selector, value string) error {
	return chromedp.SetValue(selector, value, chromedp.ByQuery).Do(ctx)
}

func (e *CDPExecutor) Evaluate(ctx context.Context, script string, out any) error {
	return chromedp.Evaluate(script, out).Do(ctx)
}
