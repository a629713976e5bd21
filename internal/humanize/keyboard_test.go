package humanize

import (
	"context"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replayKeys reconstructs the field content from recorded keystrokes,
// applying backspaces the way the browser would.
func replayKeys(keys []string) string {
	var out []rune
	for _, k := range keys {
		for _, r := range k {
			if string(r) == KeyBackspace {
				if len(out) > 0 {
					out = out[:len(out)-1]
				}
				continue
			}
			out = append(out, r)
		}
	}
	return string(out)
}

func TestAdjacentKey(t *testing.T) {
	t.Parallel()

	rng := testRNG(testSeed)

	for i := 0; i < 500; i++ {
		wrong := adjacentKey(rng, 'h')
		assert.Contains(t, qwertyNeighbors['h'], string(wrong))
	}

	// Case is preserved.
	for i := 0; i < 500; i++ {
		wrong := adjacentKey(rng, 'H')
		assert.True(t, unicode.IsUpper(wrong) || !unicode.IsLetter(wrong))
		assert.Contains(t, qwertyNeighbors['h'], string(unicode.ToLower(wrong)))
	}

	// Keys off the map fall back to a lowercase letter.
	for i := 0; i < 100; i++ {
		wrong := adjacentKey(rng, 'é')
		assert.GreaterOrEqual(t, wrong, 'a')
		assert.LessOrEqual(t, wrong, 'z')
	}
}

func TestGenerateTypo(t *testing.T) {
	t.Parallel()

	rng := testRNG(testSeed)
	text := []rune("hello")

	seenKinds := map[typoKind]bool{}
	for i := 0; i < 2000; i++ {
		kind, wrong := generateTypo(rng, text, 1)
		seenKinds[kind] = true

		switch kind {
		case typoDouble:
			assert.Equal(t, 'e', wrong)
		case typoSkip, typoTranspose:
			assert.Equal(t, 'l', wrong)
		default:
			assert.NotEqual(t, rune(0), wrong)
		}
	}
	// All five patterns show up over enough draws.
	assert.True(t, seenKinds[typoDouble])
	assert.True(t, seenKinds[typoSkip])
	assert.True(t, seenKinds[typoAdjacent])
	assert.True(t, seenKinds[typoTranspose])
	assert.True(t, seenKinds[typoExtra])

	// Past the end of the text the typo degrades to an adjacency slip.
	kind, wrong := generateTypo(rng, text, 99)
	assert.Equal(t, typoAdjacent, kind)
	assert.NotEqual(t, rune(0), wrong)
}

func TestTypeTextProducesExactText(t *testing.T) {
	t.Parallel()

	cfg := FromLevel(LevelModerate)
	exec := newMockExecutor()
	b := newTestBehavior(t, &cfg, exec)

	const text = "Hello, World! 123 @example"
	ok, err := b.Keyboard.TypeText(context.Background(), "#input", text, true)
	require.NoError(t, err)
	require.True(t, ok)

	// Focus click and clearing fill happen before typing.
	assert.Equal(t, []string{"#input"}, exec.clicks)
	require.Len(t, exec.fills, 1)
	assert.Equal(t, fillCall{selector: "#input", value: ""}, exec.fills[0])

	// Whatever typos were made and corrected, the field ends up with the
	// exact requested text.
	assert.Equal(t, text, replayKeys(exec.keys))
}

func TestTypeTextTypoRate(t *testing.T) {
	t.Parallel()

	countBackspaces := func(typoChance float64) int {
		cfg := FromLevel(LevelModerate)
		cfg.Keyboard.TypoChance = typoChance
		cfg.Keyboard.ThinkingPauseChance = 0
		exec := newMockExecutor()
		b := newTestBehavior(t, &cfg, exec)

		text := strings.Repeat("abcdefghij", 20)
		ok, err := b.Keyboard.TypeText(context.Background(), "#input", text, false)
		require.NoError(t, err)
		require.True(t, ok)

		n := 0
		for _, k := range exec.keys {
			if k == KeyBackspace {
				n++
			}
		}
		return n
	}

	// No typos at rate zero; every letter slips at rate one.
	assert.Equal(t, 0, countBackspaces(0))
	assert.Equal(t, 200, countBackspaces(1))

	// A moderate rate produces some corrections over 200 letters.
	some := countBackspaces(0.2)
	assert.Greater(t, some, 5)
	assert.Less(t, some, 100)
}

func TestTypeTextDisabledFillsDirectly(t *testing.T) {
	t.Parallel()

	cfg := FromLevel(LevelOff)
	exec := newMockExecutor()
	b := newTestBehavior(t, &cfg, exec)

	ok, err := b.Keyboard.TypeText(context.Background(), "#input", "hello", true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, exec.keys)
	require.Len(t, exec.fills, 1)
	assert.Equal(t, fillCall{selector: "#input", value: "hello"}, exec.fills[0])
}

func TestTypeTextEmpty(t *testing.T) {
	t.Parallel()

	exec := newMockExecutor()
	b := newTestBehavior(t, moderateNoOvershoot(), exec)

	ok, err := b.Keyboard.TypeText(context.Background(), "#input", "", true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, exec.keys)
	assert.Empty(t, exec.clicks)
}

func TestTypeTextFocusFailure(t *testing.T) {
	t.Parallel()

	cfg := FromLevel(LevelModerate)
	exec := newMockExecutor()
	exec.clickErr = assert.AnError
	b := newTestBehavior(t, &cfg, exec)

	ok, err := b.Keyboard.TypeText(context.Background(), "#input", "hello", true)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, exec.keys)
}

func TestPressKey(t *testing.T) {
	t.Parallel()

	exec := newMockExecutor()
	b := newTestBehavior(t, moderateNoOvershoot(), exec)

	ok, err := b.Keyboard.PressKey(context.Background(), "Enter")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.Keyboard.PressKey(context.Background(), "a", "Control")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []string{"Enter", "Control+a"}, exec.chords)
}

func TestClearField(t *testing.T) {
	t.Parallel()

	exec := newMockExecutor()
	b := newTestBehavior(t, moderateNoOvershoot(), exec)

	ok, err := b.Keyboard.ClearField(context.Background(), "#input")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []string{"#input"}, exec.clicks)
	assert.Equal(t, []string{"Control+a"}, exec.chords)
	assert.Equal(t, []string{KeyBackspace}, exec.keys)
}

func TestPasteText(t *testing.T) {
	t.Parallel()

	exec := newMockExecutor()
	b := newTestBehavior(t, moderateNoOvershoot(), exec)

	ok, err := b.Keyboard.PasteText(context.Background(), "#input", "long pasted value")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []string{"#input"}, exec.clicks)
	assert.Equal(t, []string{"Control+v"}, exec.chords)

	var wroteClipboard bool
	for _, s := range exec.scripts {
		if strings.HasPrefix(s, "navigator.clipboard.writeText(") {
			wroteClipboard = true
		}
	}
	assert.True(t, wroteClipboard)
}

func TestShouldPasteInstead(t *testing.T) {
	t.Parallel()

	cfg := FromLevel(LevelModerate)
	cfg.Keyboard.PasteChanceForLongText = 1.0
	cfg.Keyboard.PasteThresholdLength = 50
	exec := newMockExecutor()
	b := newTestBehavior(t, &cfg, exec)

	long := strings.Repeat("x", 60)
	assert.True(t, b.Keyboard.ShouldPasteInstead(long))
	assert.False(t, b.Keyboard.ShouldPasteInstead("short"))

	// Disabled by default: the moderate preset never pastes.
	def := FromLevel(LevelModerate)
	b2 := newTestBehavior(t, &def, exec)
	assert.False(t, b2.Keyboard.ShouldPasteInstead(long))
	assert.False(t, b2.Keyboard.ShouldPasteInstead("https://example.com/"+long))
}
