package humanize

import "github.com/spf13/cast"

// Level selects a preset intensity for human-like behavior.
type Level string

const (
	// LevelOff disables every module; actions degrade to direct automation.
	LevelOff Level = "off"
	// LevelLight keeps delays minimal while still breaking mechanical patterns.
	LevelLight Level = "light"
	// LevelModerate is the balanced default.
	LevelModerate Level = "moderate"
	// LevelAggressive maximizes imitation for strict behavioral heuristics.
	LevelAggressive Level = "aggressive"
	// LevelCustom marks a config built from an external dictionary.
	LevelCustom Level = "custom"
)

// Range is an inclusive integer range. Depending on context the unit is
// milliseconds or pixels.
type Range struct {
	Min int
	Max int
}

// FloatRange is an inclusive range of float values (seconds for durations).
type FloatRange struct {
	Min float64
	Max float64
}

// MouseConfig holds the parameters of the mouse trajectory engine.
type MouseConfig struct {
	Enabled bool

	// Speed multiplier (0.5 = half speed, 2.0 = double speed).
	Speed float64

	// Probability of overshooting the target and correcting.
	OvershootChance float64

	// Overshoot distance range in pixels.
	OvershootDistance Range

	// Micro-jitter amplitude in pixels applied to every trajectory point.
	Jitter int

	// Maximum click offset from the element center (Gaussian spread).
	ClickOffsetMax int

	// Delay between trajectory steps in ms.
	MoveStepDelay Range

	// Number of points in a movement trajectory.
	TrajectoryPoints Range

	// WindMouse physics parameters.
	WindGravity    float64 // pull toward the target
	WindWind       float64 // magnitude of the random walk
	WindMinWait    float64 // minimum per-step delay, ms
	WindMaxWait    float64 // maximum per-step delay, ms
	WindMaxStep    float64 // step size clamp, px
	WindTargetArea float64 // radius where forces scale down, px
}

// KeyboardConfig holds the parameters of the keystroke engine.
type KeyboardConfig struct {
	Enabled bool

	// Speed multiplier.
	Speed float64

	// Base delay between keystrokes in ms.
	KeystrokeDelay Range

	// Delay range for complex characters (symbols, digits, uppercase).
	ComplexCharDelay Range

	// Probability of injecting a typo on an alphabetic character.
	TypoChance float64

	// Delay before noticing a typo.
	TypoRealizeDelay Range

	// Delay after backspace before the correct character.
	TypoCorrectDelay Range

	// Probability of a mid-typing thinking pause.
	ThinkingPauseChance float64

	// Duration of a thinking pause in ms.
	ThinkingPauseDuration Range

	// Extra delay after spaces (word boundaries).
	SpaceDelay Range

	// Time between keydown and keyup.
	KeyHoldTime Range

	// Chance to paste instead of typing long text.
	PasteChanceForLongText float64

	// Text length threshold before pasting is considered.
	PasteThresholdLength int
}

// ScrollConfig holds the parameters of the scroll physics engine.
type ScrollConfig struct {
	Enabled bool

	// Speed multiplier.
	Speed float64

	// Initial velocity range in pixels per step.
	StepSize Range

	// Momentum (inertia) effect toggle.
	MomentumEnabled bool

	// Momentum decay factor per step (higher = longer coasting).
	MomentumDecay float64

	// Jitter in scroll distance, px.
	Jitter int

	// Probability of overshoot-and-correct.
	OvershootChance float64

	// Overshoot distance range in pixels.
	OvershootDistance Range

	// Delay between scroll steps in ms.
	StepDelay Range

	// Probability of a reading pause during a scroll.
	ReadingPauseChance float64

	// Reading pause duration in ms.
	ReadingPauseDuration Range
}

// TimingConfig holds the general delay categories shared by all engines.
type TimingConfig struct {
	// Delay between major actions (click, type, etc.).
	ActionDelay Range

	// Delay after page loads.
	PageLoadDelay Range

	// Long thinking pause.
	ThinkingDelay Range

	// Micro delay between related sub-actions.
	MicroDelay Range

	// Hesitation before clicking.
	ClickHesitation Range

	// Delay before starting to type.
	PreTypeDelay Range

	// Gaussian variance applied on top of category delays.
	VarianceFactor float64
}

// ExplorationConfig holds the parameters of the page exploration loops.
type ExplorationConfig struct {
	Enabled bool

	// Intensity level: light, normal, thorough.
	Intensity string

	// How many headings to consider hovering.
	MaxHeadings int

	// Probability of hovering over links while browsing.
	LinkHoverChance float64

	// Exploration duration range in seconds.
	Duration FloatRange

	// Chance to scroll during exploration.
	ScrollChance float64

	// Max scroll distance during exploration (viewport fraction).
	MaxScrollPercent float64
}

// Config aggregates the per-module parameter bundles. It is constructed once
// per automation session and never mutated afterwards; independent sessions
// each own their own Config and engine instances.
type Config struct {
	// Master switch. When false every delay is zero and every decision
	// function returns false regardless of module switches.
	Enabled bool

	// Level tag recording the preset this config was expanded from.
	Level Level

	Mouse       MouseConfig
	Keyboard    KeyboardConfig
	Scroll      ScrollConfig
	Timing      TimingConfig
	Exploration ExplorationConfig
}

func defaultMouseConfig() MouseConfig {
	return MouseConfig{
		Enabled:           true,
		Speed:             1.0,
		OvershootChance:   0.15,
		OvershootDistance: Range{5, 25},
		Jitter:            2,
		ClickOffsetMax:    10,
		MoveStepDelay:     Range{5, 15},
		TrajectoryPoints:  Range{15, 30},
		WindGravity:       9.0,
		WindWind:          3.0,
		WindMinWait:       2.0,
		WindMaxWait:       10.0,
		WindMaxStep:       10.0,
		WindTargetArea:    8.0,
	}
}

func defaultKeyboardConfig() KeyboardConfig {
	return KeyboardConfig{
		Enabled:                true,
		Speed:                  1.0,
		KeystrokeDelay:         Range{80, 200},
		ComplexCharDelay:       Range{150, 350},
		TypoChance:             0.05,
		TypoRealizeDelay:       Range{100, 400},
		TypoCorrectDelay:       Range{50, 150},
		ThinkingPauseChance:    0.07,
		ThinkingPauseDuration:  Range{1000, 3500},
		SpaceDelay:             Range{100, 400},
		KeyHoldTime:            Range{30, 100},
		PasteChanceForLongText: 0.0,
		PasteThresholdLength:   50,
	}
}

func defaultScrollConfig() ScrollConfig {
	return ScrollConfig{
		Enabled:              true,
		Speed:                1.0,
		StepSize:             Range{50, 150},
		MomentumEnabled:      true,
		MomentumDecay:        0.85,
		Jitter:               15,
		OvershootChance:      0.3,
		OvershootDistance:    Range{50, 200},
		StepDelay:            Range{30, 100},
		ReadingPauseChance:   0.3,
		ReadingPauseDuration: Range{500, 2000},
	}
}

func defaultTimingConfig() TimingConfig {
	return TimingConfig{
		ActionDelay:     Range{300, 1500},
		PageLoadDelay:   Range{1000, 3000},
		ThinkingDelay:   Range{2000, 5000},
		MicroDelay:      Range{50, 200},
		ClickHesitation: Range{100, 500},
		PreTypeDelay:    Range{200, 600},
		VarianceFactor:  0.3,
	}
}

func defaultExplorationConfig() ExplorationConfig {
	return ExplorationConfig{
		Enabled:          true,
		Intensity:        "normal",
		MaxHeadings:      3,
		LinkHoverChance:  0.2,
		Duration:         FloatRange{3.0, 8.0},
		ScrollChance:     0.6,
		MaxScrollPercent: 0.5,
	}
}

// DefaultConfig returns the MODERATE preset.
func DefaultConfig() Config {
	return FromLevel(LevelModerate)
}

// FromLevel expands a preset level into a concrete parameter set.
func FromLevel(level Level) Config {
	switch level {
	case LevelOff:
		cfg := Config{
			Enabled:     false,
			Level:       level,
			Mouse:       defaultMouseConfig(),
			Keyboard:    defaultKeyboardConfig(),
			Scroll:      defaultScrollConfig(),
			Timing:      defaultTimingConfig(),
			Exploration: defaultExplorationConfig(),
		}
		cfg.Mouse.Enabled = false
		cfg.Keyboard.Enabled = false
		cfg.Scroll.Enabled = false
		cfg.Exploration.Enabled = false
		return cfg

	case LevelLight:
		cfg := Config{
			Enabled:     true,
			Level:       level,
			Mouse:       defaultMouseConfig(),
			Keyboard:    defaultKeyboardConfig(),
			Scroll:      defaultScrollConfig(),
			Timing:      defaultTimingConfig(),
			Exploration: defaultExplorationConfig(),
		}
		cfg.Mouse.Speed = 1.5
		cfg.Mouse.OvershootChance = 0.08
		cfg.Mouse.Jitter = 1
		cfg.Mouse.TrajectoryPoints = Range{10, 18}
		cfg.Keyboard.Speed = 1.5
		cfg.Keyboard.KeystrokeDelay = Range{50, 120}
		cfg.Keyboard.TypoChance = 0.02
		cfg.Keyboard.ThinkingPauseChance = 0.03
		cfg.Scroll.Speed = 1.5
		cfg.Scroll.MomentumEnabled = false
		cfg.Scroll.OvershootChance = 0.1
		cfg.Scroll.StepDelay = Range{20, 50}
		cfg.Timing.ActionDelay = Range{150, 600}
		cfg.Timing.PageLoadDelay = Range{500, 1500}
		cfg.Timing.VarianceFactor = 0.2
		cfg.Exploration.Intensity = "light"
		cfg.Exploration.Duration = FloatRange{1.5, 3.0}
		return cfg

	case LevelAggressive:
		cfg := Config{
			Enabled:     true,
			Level:       level,
			Mouse:       defaultMouseConfig(),
			Keyboard:    defaultKeyboardConfig(),
			Scroll:      defaultScrollConfig(),
			Timing:      defaultTimingConfig(),
			Exploration: defaultExplorationConfig(),
		}
		cfg.Mouse.Speed = 0.7
		cfg.Mouse.OvershootChance = 0.25
		cfg.Mouse.OvershootDistance = Range{10, 40}
		cfg.Mouse.Jitter = 3
		cfg.Mouse.ClickOffsetMax = 15
		cfg.Mouse.TrajectoryPoints = Range{25, 45}
		cfg.Keyboard.Speed = 0.7
		cfg.Keyboard.KeystrokeDelay = Range{100, 280}
		cfg.Keyboard.TypoChance = 0.08
		cfg.Keyboard.ThinkingPauseChance = 0.12
		cfg.Keyboard.ThinkingPauseDuration = Range{1500, 5000}
		cfg.Keyboard.SpaceDelay = Range{200, 700}
		cfg.Scroll.Speed = 0.6
		cfg.Scroll.MomentumDecay = 0.9
		cfg.Scroll.OvershootChance = 0.4
		cfg.Scroll.StepDelay = Range{50, 150}
		cfg.Scroll.ReadingPauseChance = 0.45
		cfg.Timing.ActionDelay = Range{500, 2500}
		cfg.Timing.PageLoadDelay = Range{1500, 4000}
		cfg.Timing.ThinkingDelay = Range{3000, 8000}
		cfg.Timing.VarianceFactor = 0.4
		cfg.Exploration.Intensity = "thorough"
		cfg.Exploration.Duration = FloatRange{5.0, 15.0}
		cfg.Exploration.LinkHoverChance = 0.35
		cfg.Exploration.ScrollChance = 0.8
		return cfg

	default:
		// MODERATE, CUSTOM and unknown levels get the balanced defaults.
		return Config{
			Enabled:     true,
			Level:       level,
			Mouse:       defaultMouseConfig(),
			Keyboard:    defaultKeyboardConfig(),
			Scroll:      defaultScrollConfig(),
			Timing:      defaultTimingConfig(),
			Exploration: defaultExplorationConfig(),
		}
	}
}

// speedBuckets maps the three-valued external speed enum to multipliers.
var speedBuckets = map[string]float64{
	"slow":   0.7,
	"normal": 1.0,
	"fast":   1.5,
}

// explorationDurations maps intensity names to duration ranges in seconds.
var explorationDurations = map[string]FloatRange{
	"light":    {1.5, 4.0},
	"normal":   {3.0, 8.0},
	"thorough": {6.0, 15.0},
}

// FromDict builds a Config from the persisted key/value format:
//
//	enabled, typing_speed, mouse_speed (slow/normal/fast),
//	scroll_behavior (smooth/instant), make_typos, typo_rate,
//	page_exploration_enabled, exploration_intensity.
//
// Unknown keys are ignored, missing keys take defaults. The inverse of
// ToDict, up to the documented speed-bucket loss.
func FromDict(data map[string]any) Config {
	if v, ok := data["enabled"]; ok && !cast.ToBool(v) {
		return FromLevel(LevelOff)
	}

	mouseSpeed := speedBuckets["normal"]
	if s, ok := speedBuckets[cast.ToString(data["mouse_speed"])]; ok {
		mouseSpeed = s
	}
	typingSpeed := speedBuckets["normal"]
	if s, ok := speedBuckets[cast.ToString(data["typing_speed"])]; ok {
		typingSpeed = s
	}

	scrollEnabled := true
	if v, ok := data["scroll_behavior"]; ok {
		scrollEnabled = cast.ToString(v) == "smooth"
	}

	makeTypos := true
	if v, ok := data["make_typos"]; ok {
		makeTypos = cast.ToBool(v)
	}
	typoRate := 0.05
	if v, ok := data["typo_rate"]; ok {
		typoRate = cast.ToFloat64(v)
	}
	if !makeTypos {
		typoRate = 0.0
	}

	explorationEnabled := true
	if v, ok := data["page_exploration_enabled"]; ok {
		explorationEnabled = cast.ToBool(v)
	}
	intensity := "normal"
	if v, ok := data["exploration_intensity"]; ok {
		if _, known := explorationDurations[cast.ToString(v)]; known {
			intensity = cast.ToString(v)
		}
	}

	cfg := FromLevel(LevelCustom)
	cfg.Mouse.Speed = mouseSpeed
	cfg.Keyboard.Speed = typingSpeed
	cfg.Keyboard.TypoChance = typoRate
	cfg.Scroll.Enabled = scrollEnabled
	cfg.Scroll.MomentumEnabled = scrollEnabled
	cfg.Exploration.Enabled = explorationEnabled
	cfg.Exploration.Intensity = intensity
	cfg.Exploration.Duration = explorationDurations[intensity]
	return cfg
}

// speedToBucket reconstructs the three-valued speed enum from a multiplier.
func speedToBucket(speed float64) string {
	switch {
	case speed <= 0.8:
		return "slow"
	case speed >= 1.3:
		return "fast"
	default:
		return "normal"
	}
}

// ToDict exports the config to the persisted key/value format. The round
// trip through FromDict is lossy: continuous speed multipliers collapse to
// three buckets which FromDict re-expands to fixed values. The effective
// bucket and the boolean flags survive; exact multipliers do not.
func (c Config) ToDict() map[string]any {
	return map[string]any{
		"enabled":                  c.Enabled,
		"level":                    string(c.Level),
		"typing_speed":             speedToBucket(c.Keyboard.Speed),
		"mouse_speed":              speedToBucket(c.Mouse.Speed),
		"scroll_behavior":          scrollBehavior(c.Scroll.Enabled),
		"make_typos":               c.Keyboard.TypoChance > 0,
		"typo_rate":                c.Keyboard.TypoChance,
		"page_exploration_enabled": c.Exploration.Enabled,
		"exploration_intensity":    c.Exploration.Intensity,
	}
}

func scrollBehavior(enabled bool) string {
	if enabled {
		return "smooth"
	}
	return "instant"
}
