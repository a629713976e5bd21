package humanize

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// complexChars take measurably longer to type: symbols that need a reach or
// a shift chord.
const complexChars = "@#$%^&*()_+-={}[]|\\:\";'<>,.?/~`"

// qwertyNeighbors maps each key to the keys physically adjacent to it on a
// QWERTY layout. Used to produce plausible fat-finger typos.
var qwertyNeighbors = map[rune]string{
	'q': "wa12", 'w': "qeas23", 'e': "wdrs34", 'r': "etfs45", 't': "rygd56",
	'y': "tuhf67", 'u': "yijg78", 'i': "uokh89", 'o': "iplj90", 'p': "ol0-[",
	'a': "qwsz", 's': "awedxz", 'd': "swerfxc", 'f': "dertgcv", 'g': "frtyhvb",
	'h': "gtyujbn", 'j': "hyuiknm", 'k': "juiolm,", 'l': "kiop;.,",
	'z': "asx", 'x': "zsdc", 'c': "xdfv", 'v': "cfgb", 'b': "vghn",
	'n': "bhjm", 'm': "njk,",
	'1': "2q`", '2': "13qw", '3': "24we", '4': "35er", '5': "46rt",
	'6': "57ty", '7': "68yu", '8': "79ui", '9': "80io", '0': "9-op",
	' ': " ", '.': ",l;/", ',': "mkl.", '/': ".;'",
}

// typoKind classifies the common slip patterns humans make while typing.
type typoKind int

const (
	typoDouble typoKind = iota
	typoSkip
	typoAdjacent
	typoTranspose
	typoExtra
	numTypoKinds
)

// adjacentKey returns a random QWERTY neighbor of r, preserving case.
// Unknown keys fall back to a random lowercase letter.
func adjacentKey(rng *rand.Rand, r rune) rune {
	lower := unicode.ToLower(r)
	neighbors, ok := qwertyNeighbors[lower]
	if !ok {
		return rune('a' + rng.IntN(26))
	}
	wrong := rune(neighbors[rng.IntN(len(neighbors))])
	if unicode.IsUpper(r) {
		wrong = unicode.ToUpper(wrong)
	}
	return wrong
}

// generateTypo picks one of the slip patterns uniformly and resolves it to
// the wrong character a human would have emitted at this position. Doubled
// letters repeat the intended key, skips and transpositions reach for the
// following key too early, adjacency and extra-letter slips hit a neighbor.
func generateTypo(rng *rand.Rand, text []rune, pos int) (typoKind, rune) {
	if pos >= len(text) {
		return typoAdjacent, adjacentKey(rng, 'a')
	}
	current := text[pos]

	kind := typoKind(rng.IntN(int(numTypoKinds)))
	switch kind {
	case typoDouble:
		return kind, current
	case typoSkip, typoTranspose:
		if pos+1 < len(text) {
			return kind, text[pos+1]
		}
		return typoAdjacent, adjacentKey(rng, current)
	default:
		return kind, adjacentKey(rng, current)
	}
}

// Keyboard simulates human typing: variable keystroke cadence, realistic
// typos with backspace correction, and thinking pauses.
type Keyboard struct {
	cfg    *Config
	exec   Executor
	timing *Timing
	logger *zap.Logger
	rng    *rand.Rand
}

// NewKeyboard creates a keyboard engine sharing the session's timing and RNG.
func NewKeyboard(cfg *Config, exec Executor, timing *Timing, logger *zap.Logger, src rand.Source) *Keyboard {
	return &Keyboard{
		cfg:    cfg,
		exec:   exec,
		timing: timing,
		logger: logger.Named("keyboard"),
		rng:    rand.New(src),
	}
}

// isComplexChar reports whether typing r takes longer: symbols, digits, or
// anything needing shift.
func isComplexChar(r rune) bool {
	return strings.ContainsRune(complexChars, r) ||
		unicode.IsDigit(r) ||
		unicode.IsUpper(r)
}

// charDelay returns the inter-key delay for r, with a same-finger penalty
// when the previous character used the same key.
func (k *Keyboard) charDelay(r, prev rune) float64 {
	var d float64
	if isComplexChar(r) {
		d = float64(k.timing.ComplexCharDelay().Milliseconds())
	} else {
		d = float64(k.timing.KeystrokeDelay().Milliseconds())
	}
	if prev != 0 && unicode.ToLower(prev) == unicode.ToLower(r) {
		d *= 1.2
	}
	return d
}

// typeChar emits a single character through the executor.
func (k *Keyboard) typeChar(ctx context.Context, r rune) error {
	return k.exec.SendKeys(ctx, string(r))
}

// makeTypo emits a wrong character, pauses to "notice", backspaces, and
// pauses again before the caller types the intended key.
func (k *Keyboard) makeTypo(ctx context.Context, text []rune, pos int) error {
	_, wrong := generateTypo(k.rng, text, pos)

	if err := k.typeChar(ctx, wrong); err != nil {
		return err
	}
	if err := k.timing.Delay(ctx, k.timing.TypoRealizeDelay()); err != nil {
		return err
	}
	if err := k.exec.SendKeys(ctx, KeyBackspace); err != nil {
		return err
	}
	return k.timing.Delay(ctx, k.timing.TypoCorrectDelay())
}

// TypeText focuses the field and types text with human cadence: variable
// per-character delays, occasional corrected typos, thinking pauses every
// 5-15 characters, and a longer rest after each space. Returns false when
// the field cannot be focused or typing fails.
func (k *Keyboard) TypeText(ctx context.Context, selector, text string, clearFirst bool) (bool, error) {
	if text == "" {
		return true, nil
	}

	if !k.cfg.Enabled || !k.cfg.Keyboard.Enabled {
		if err := k.exec.Fill(ctx, selector, text); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			k.logger.Warn("direct fill failed", zap.String("selector", selector), zap.Error(err))
			return false, nil
		}
		return true, nil
	}

	if err := k.exec.Click(ctx, selector); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		k.logger.Warn("focus failed", zap.String("selector", selector), zap.Error(err))
		return false, nil
	}
	if clearFirst {
		if err := k.exec.Fill(ctx, selector, ""); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			k.logger.Warn("clear failed", zap.String("selector", selector), zap.Error(err))
			return false, nil
		}
	}

	if err := k.timing.Delay(ctx, k.timing.PreTypeDelay()); err != nil {
		return false, err
	}

	runes := []rune(text)
	var prev rune
	charsSincePause := 0
	pauseWindow := 5 + k.rng.IntN(11)

	for i, r := range runes {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		charsSincePause++
		if charsSincePause >= pauseWindow && k.timing.ShouldThinkingPause() {
			if err := k.timing.Delay(ctx, k.timing.TypingThinkingPause()); err != nil {
				return false, err
			}
			charsSincePause = 0
			pauseWindow = 5 + k.rng.IntN(11)
		}

		if unicode.IsLetter(r) && k.timing.ShouldTypo() {
			if err := k.makeTypo(ctx, runes, i); err != nil {
				if ctx.Err() != nil {
					return false, ctx.Err()
				}
				k.logger.Warn("typo emission failed", zap.Error(err))
				return false, nil
			}
		}

		if err := k.typeChar(ctx, r); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			k.logger.Warn("keystroke failed", zap.String("char", string(r)), zap.Error(err))
			return false, nil
		}

		if err := k.timing.Delay(ctx, msDur(k.charDelay(r, prev))); err != nil {
			return false, err
		}
		if r == ' ' {
			if err := k.timing.Delay(ctx, k.timing.SpaceDelay()); err != nil {
				return false, err
			}
		}
		prev = r
	}

	return true, nil
}

// PressKey presses a single key, optionally chorded with modifiers
// ("Shift", "Control", "Alt", "Meta"), with a human hold time.
func (k *Keyboard) PressKey(ctx context.Context, key string, modifiers ...string) (bool, error) {
	if !k.cfg.Enabled || !k.cfg.Keyboard.Enabled {
		if err := k.exec.SendKeyChord(ctx, key, modifiers...); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			k.logger.Warn("direct key press failed", zap.String("key", key), zap.Error(err))
			return false, nil
		}
		return true, nil
	}

	if err := k.exec.SendKeyChord(ctx, key, modifiers...); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		k.logger.Warn("key press failed", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	if err := k.timing.Delay(ctx, k.timing.KeyHoldTime()); err != nil {
		return false, err
	}
	return true, nil
}

// PasteText focuses the field and pastes through the clipboard with Ctrl+V,
// the way a human handles long text. Falls back to a direct fill when the
// clipboard is unavailable.
func (k *Keyboard) PasteText(ctx context.Context, selector, text string) (bool, error) {
	err := k.pasteViaClipboard(ctx, selector, text)
	if err == nil {
		return true, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	k.logger.Warn("clipboard paste failed, filling directly", zap.Error(err))
	if err := k.exec.Fill(ctx, selector, text); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return true, nil
}

func (k *Keyboard) pasteViaClipboard(ctx context.Context, selector, text string) error {
	if err := k.exec.Click(ctx, selector); err != nil {
		return fmt.Errorf("focus %q: %w", selector, err)
	}

	script := "navigator.clipboard.writeText(" + strconv.Quote(text) + ")"
	if err := k.exec.Evaluate(ctx, script, nil); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}

	if err := k.timing.Delay(ctx, k.timing.MicroDelay()); err != nil {
		return err
	}
	return k.exec.SendKeyChord(ctx, "v", "Control")
}

// ClearField empties a field the way a human does: focus, select all with
// Ctrl+A, then Backspace.
func (k *Keyboard) ClearField(ctx context.Context, selector string) (bool, error) {
	if err := k.exec.Click(ctx, selector); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		k.logger.Warn("focus failed", zap.String("selector", selector), zap.Error(err))
		return false, nil
	}

	if err := k.exec.SendKeyChord(ctx, "a", "Control"); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		k.logger.Warn("select-all failed", zap.Error(err))
		return false, nil
	}
	if err := k.timing.Delay(ctx, k.timing.MicroDelay()); err != nil {
		return false, err
	}
	if err := k.exec.SendKeys(ctx, KeyBackspace); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		k.logger.Warn("delete failed", zap.Error(err))
		return false, nil
	}
	return true, nil
}

// ShouldPasteInstead reports whether text is long or URL/email shaped
// enough that a human would paste rather than type it.
func (k *Keyboard) ShouldPasteInstead(text string) bool {
	chance := k.cfg.Keyboard.PasteChanceForLongText
	if chance <= 0 {
		return false
	}
	if len(text) < k.cfg.Keyboard.PasteThresholdLength {
		return false
	}

	urlOrEmail := strings.HasPrefix(text, "http://") ||
		strings.HasPrefix(text, "https://") ||
		(strings.Contains(text, "@") && strings.Contains(text, "."))
	if urlOrEmail {
		return k.rng.Float64() < chance*2
	}
	return k.rng.Float64() < chance
}
