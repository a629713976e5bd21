package humanize

import (
	"context"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func replaceToken(s, token string, n int) string {
	return strings.ReplaceAll(s, token, strconv.Itoa(n))
}

// Behavior is the entry point for human-like browser automation. It owns
// a session's engines and exposes drop-in replacements for the usual
// click/type/scroll primitives, plus higher-level exploration loops.
type Behavior struct {
	cfg      *Config
	exec     Executor
	logger   *zap.Logger
	rng      *rand.Rand
	session  string
	Timing   *Timing
	Mouse    *Mouse
	Keyboard *Keyboard
	Scroll   *Scroll
}

// NewBehavior creates a coordinator with a randomly seeded session.
// A nil config defaults to the moderate preset.
func NewBehavior(cfg *Config, exec Executor, logger *zap.Logger) *Behavior {
	return NewBehaviorSeeded(cfg, exec, logger, rand.Uint64(), rand.Uint64())
}

// NewBehaviorSeeded creates a coordinator whose randomness is fully
// determined by the two seed words. Every engine draws from the same
// source, so a session replays identically for a given seed pair.
func NewBehaviorSeeded(cfg *Config, exec Executor, logger *zap.Logger, seed1, seed2 uint64) *Behavior {
	if cfg == nil {
		c := FromLevel(LevelModerate)
		cfg = &c
	}

	session := uuid.NewString()
	logger = logger.With(zap.String("session_id", session))

	src := rand.NewPCG(seed1, seed2)
	timing := NewTiming(cfg, exec, src)

	return &Behavior{
		cfg:      cfg,
		exec:     exec,
		logger:   logger.Named("behavior"),
		rng:      rand.New(src),
		session:  session,
		Timing:   timing,
		Mouse:    NewMouse(cfg, exec, timing, logger, src),
		Keyboard: NewKeyboard(cfg, exec, timing, logger, src),
		Scroll:   NewScroll(cfg, exec, timing, logger, src),
	}
}

// SessionID identifies this behavior session in logs.
func (b *Behavior) SessionID() string { return b.session }

// Config returns the active configuration.
func (b *Behavior) Config() *Config { return b.cfg }

// actionSettle appends the post-action delay a human leaves after
// completing an interaction.
func (b *Behavior) actionSettle(ctx context.Context, ok bool) error {
	if !ok || !b.cfg.Enabled {
		return nil
	}
	return b.Timing.Delay(ctx, b.Timing.ActionDelay())
}

// Click moves to the element along a curved path, hesitates, clicks, and
// settles with an action delay.
func (b *Behavior) Click(ctx context.Context, selector string) (bool, error) {
	ok, err := b.Mouse.Click(ctx, selector, ButtonLeft)
	if err != nil {
		return ok, err
	}
	return ok, b.actionSettle(ctx, ok)
}

// DoubleClick performs a human double-click followed by an action delay.
func (b *Behavior) DoubleClick(ctx context.Context, selector string) (bool, error) {
	ok, err := b.Mouse.DoubleClick(ctx, selector)
	if err != nil {
		return ok, err
	}
	return ok, b.actionSettle(ctx, ok)
}

// Type moves to the field, hesitates, and types the text with human
// cadence, clearing any existing content first. Long URL- or email-shaped
// text may be pasted instead, the way a person would.
func (b *Behavior) Type(ctx context.Context, selector, text string) (bool, error) {
	return b.TypeWithOptions(ctx, selector, text, true, true)
}

// TypeWithOptions is Type with explicit control over the leading mouse
// movement and field clearing.
func (b *Behavior) TypeWithOptions(ctx context.Context, selector, text string, clickFirst, clearFirst bool) (bool, error) {
	if clickFirst {
		if _, err := b.Mouse.MoveTo(ctx, selector); err != nil {
			return false, err
		}
		if err := b.Timing.Delay(ctx, b.Timing.ClickHesitation()); err != nil {
			return false, err
		}
	}

	var ok bool
	var err error
	if b.Keyboard.ShouldPasteInstead(text) {
		ok, err = b.Keyboard.PasteText(ctx, selector, text)
	} else {
		ok, err = b.Keyboard.TypeText(ctx, selector, text, clearFirst)
	}
	if err != nil {
		return ok, err
	}
	return ok, b.actionSettle(ctx, ok)
}

// Fill is an alias for Type, for callers porting from instant-fill APIs.
func (b *Behavior) Fill(ctx context.Context, selector, text string) (bool, error) {
	return b.Type(ctx, selector, text)
}

// ScrollTo scrolls the element into the upper portion of the viewport.
func (b *Behavior) ScrollTo(ctx context.Context, selector string) (bool, error) {
	return b.Scroll.ScrollToElement(ctx, selector, DefaultScrollOffset)
}

// ScrollPage scrolls by amount pixels in the given direction.
func (b *Behavior) ScrollPage(ctx context.Context, direction ScrollDirection, amount int) (bool, error) {
	return b.Scroll.ScrollPage(ctx, direction, amount, 0)
}

// Hover dwells over the element for a natural duration.
func (b *Behavior) Hover(ctx context.Context, selector string) (bool, error) {
	return b.Mouse.Hover(ctx, selector, nil)
}

// PressKey presses a key, optionally with modifiers.
func (b *Behavior) PressKey(ctx context.Context, key string, modifiers ...string) (bool, error) {
	return b.Keyboard.PressKey(ctx, key, modifiers...)
}

// WaitLikeHuman pauses for the named reason: "thinking" (2-5s class),
// "reading" (1-3s class), "action" (300-1500ms class), or "micro"
// (50-200ms class). Unknown reasons fall back to "action".
func (b *Behavior) WaitLikeHuman(ctx context.Context, reason string) error {
	if !b.cfg.Enabled {
		return nil
	}

	var d time.Duration
	switch reason {
	case "thinking":
		d = b.Timing.ThinkingDelay()
	case "reading":
		d = b.Timing.PageLoadDelay()
	case "micro":
		d = b.Timing.MicroDelay()
	default:
		d = b.Timing.ActionDelay()
	}
	return b.Timing.Delay(ctx, d)
}

// SubmitForm types each field value in a stable order and clicks submit.
func (b *Behavior) SubmitForm(ctx context.Context, submitSelector string, fields map[string]string) (bool, error) {
	selectors := make([]string, 0, len(fields))
	for sel := range fields {
		selectors = append(selectors, sel)
	}
	sort.Strings(selectors)

	for _, sel := range selectors {
		ok, err := b.Type(ctx, sel, fields[sel])
		if err != nil {
			return false, err
		}
		if !ok {
			b.logger.Warn("form field skipped", zap.String("selector", sel))
		}
		if err := b.Timing.Delay(ctx, b.Timing.ActionDelay()); err != nil {
			return false, err
		}
	}

	return b.Click(ctx, submitSelector)
}

const visibleHeadingsScript = `
(() => {
  const out = [];
  document.querySelectorAll('h1, h2, h3').forEach(h => {
    const r = h.getBoundingClientRect();
    if (r.top > 0 && r.top < window.innerHeight) {
      out.push({x: r.x, y: r.y, width: r.width, height: r.height});
    }
  });
  return out.slice(0, %MAX%);
})()`

const visibleLinksScript = `
(() => {
  const out = [];
  document.querySelectorAll('a[href]').forEach(a => {
    const r = a.getBoundingClientRect();
    if (r.top > 50 && r.top < window.innerHeight - 50 && r.width > 10 && r.height > 10) {
      out.push({x: r.x, y: r.y, width: r.width, height: r.height});
    }
  });
  return out.slice(0, 10);
})()`

type domRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// hoverRandomRect moves into one of the boxes and dwells briefly. Failures
// are swallowed: a vanished element should not break an exploration loop.
func (b *Behavior) hoverRandomRect(ctx context.Context, rects []domRect, dwell Range) error {
	if len(rects) == 0 {
		return nil
	}
	r := rects[b.rng.IntN(len(rects))]
	box := Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}

	ok, err := b.Mouse.MoveToBounds(ctx, box)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return b.Timing.Delay(ctx, msDur(float64(b.Timing.Sample(dwell.Min, dwell.Max, DistUniform))))
}

func (b *Behavior) hoverRandomHeading(ctx context.Context) error {
	limit := b.cfg.Exploration.MaxHeadings
	if limit <= 0 {
		limit = 5
	}
	script := replaceToken(visibleHeadingsScript, "%MAX%", limit)

	var rects []domRect
	if err := b.exec.Evaluate(ctx, script, &rects); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.logger.Debug("heading query failed", zap.Error(err))
		return nil
	}
	return b.hoverRandomRect(ctx, rects, Range{Min: 300, Max: 800})
}

func (b *Behavior) hoverRandomLink(ctx context.Context) error {
	var rects []domRect
	if err := b.exec.Evaluate(ctx, visibleLinksScript, &rects); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.logger.Debug("link query failed", zap.Error(err))
		return nil
	}
	return b.hoverRandomRect(ctx, rects, Range{Min: 200, Max: 600})
}

// weightedPick returns an index into weights with probability proportional
// to each weight.
func weightedPick(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := rng.IntN(total)
	for i, w := range weights {
		if n < w {
			return i
		}
		n -= w
	}
	return len(weights) - 1
}

// ExplorePage mimics a user taking in a freshly loaded page: a load pause,
// a return to the top, then a few seconds of scrolling, heading hovers,
// idle mouse movement, and reading pauses. A zero duration draws one from
// the configured exploration range.
func (b *Behavior) ExplorePage(ctx context.Context, duration time.Duration) error {
	if !b.cfg.Enabled || !b.cfg.Exploration.Enabled {
		return nil
	}

	if duration <= 0 {
		d := b.cfg.Exploration.Duration
		secs := d.Min + b.rng.Float64()*(d.Max-d.Min)
		duration = time.Duration(secs * float64(time.Second))
	}
	b.logger.Debug("exploring page", zap.Duration("duration", duration))

	if err := b.Timing.Delay(ctx, b.Timing.PageLoadDelay()); err != nil {
		return err
	}
	if _, err := b.Scroll.ScrollToTop(ctx); err != nil {
		return err
	}
	if err := b.Timing.Delay(ctx, b.Timing.MicroDelay()); err != nil {
		return err
	}

	// Exploration never scrolls past its share of the page.
	maxScrollY := b.cfg.Exploration.MaxScrollPercent * b.Scroll.pageHeight(ctx)

	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Scroll-down is twice as likely as the other actions.
		switch weightedPick(b.rng, []int{2, 1, 1, 1, 1}) {
		case 0: // scroll down
			if b.rng.Float64() > b.cfg.Exploration.ScrollChance {
				break
			}
			if maxScrollY > 0 && b.Scroll.currentScroll(ctx) >= maxScrollY {
				break
			}
			amount := 150 + b.rng.IntN(251)
			if _, err := b.Scroll.ScrollPage(ctx, ScrollDown, amount, 0); err != nil {
				return err
			}
			if err := b.Timing.Delay(ctx, msDur(float64(300+b.rng.IntN(501)))); err != nil {
				return err
			}
		case 1: // scroll back up
			amount := 50 + b.rng.IntN(151)
			if _, err := b.Scroll.ScrollPage(ctx, ScrollUp, amount, 0); err != nil {
				return err
			}
			if err := b.Timing.Delay(ctx, msDur(float64(200+b.rng.IntN(301)))); err != nil {
				return err
			}
		case 2: // hover a heading
			if err := b.hoverRandomHeading(ctx); err != nil {
				return err
			}
		case 3: // idle mouse movement
			if err := b.Mouse.RandomMovement(ctx, nil); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				b.logger.Debug("idle movement failed", zap.Error(err))
			}
			if err := b.Timing.Delay(ctx, msDur(float64(200+b.rng.IntN(401)))); err != nil {
				return err
			}
		case 4: // reading pause
			if err := b.Timing.Delay(ctx, b.Timing.ReadingPause()); err != nil {
				return err
			}
		}
	}

	b.logger.Debug("page exploration complete")
	return nil
}

const atBottomScript = `(window.innerHeight + window.pageYOffset) >= document.documentElement.scrollHeight - 100`

// BrowseNaturally runs an extended browsing session: 1-3s between actions,
// weighted toward scrolling, with link hovers, idle mouse movement,
// thinking pauses, and occasional back-scrolls. Reaching the bottom of the
// page sometimes triggers a return to the top.
func (b *Behavior) BrowseNaturally(ctx context.Context, duration time.Duration) error {
	if !b.cfg.Enabled {
		return nil
	}
	b.logger.Debug("natural browsing", zap.Duration("duration", duration))

	deadline := time.Now().Add(duration)
	actions := 0

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := b.Timing.Delay(ctx, msDur(float64(1000+b.rng.IntN(2001)))); err != nil {
			return err
		}

		switch weightedPick(b.rng, []int{35, 25, 15, 15, 10}) {
		case 0: // scroll
			amount := 200 + b.rng.IntN(401)
			if _, err := b.Scroll.ScrollPage(ctx, ScrollDown, amount, 0); err != nil {
				return err
			}
		case 1: // mouse
			if err := b.Mouse.RandomMovement(ctx, nil); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				b.logger.Debug("idle movement failed", zap.Error(err))
			}
		case 2: // hover link
			if b.rng.Float64() > b.cfg.Exploration.LinkHoverChance {
				break
			}
			if err := b.hoverRandomLink(ctx); err != nil {
				return err
			}
		case 3: // pause
			if err := b.Timing.Delay(ctx, b.Timing.ThinkingDelay()); err != nil {
				return err
			}
		case 4: // scroll back
			amount := 100 + b.rng.IntN(201)
			if _, err := b.Scroll.ScrollPage(ctx, ScrollUp, amount, 0); err != nil {
				return err
			}
		}
		actions++

		var atBottom bool
		if err := b.exec.Evaluate(ctx, atBottomScript, &atBottom); err == nil && atBottom && b.rng.Float64() < 0.3 {
			if _, err := b.Scroll.ScrollToTop(ctx); err != nil {
				return err
			}
		}
	}

	b.logger.Debug("natural browsing complete", zap.Int("actions", actions))
	return nil
}

// GotoWithExploration navigates to the URL, waits out the page load, and
// explores the result.
func (b *Behavior) GotoWithExploration(ctx context.Context, url string) error {
	if err := b.exec.Navigate(ctx, url); err != nil {
		return err
	}
	if err := b.Timing.Delay(ctx, b.Timing.PageLoadDelay()); err != nil {
		return err
	}
	return b.ExplorePage(ctx, 0)
}
