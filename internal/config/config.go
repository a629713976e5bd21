// File: internal/config/config.go
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/joffreu243-png/humanize/internal/humanize"
)

// Config holds the application configuration loaded from config.yaml and
// HUMANIZE_* environment variables.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Humanize HumanizeConfig `mapstructure:"humanize" yaml:"humanize"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser instance the CLI
// commands drive.
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args            []string `mapstructure:"args" yaml:"args"`
	WindowWidth     int      `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight    int      `mapstructure:"window_height" yaml:"window_height"`
}

// HumanizeConfig selects a behavior preset and optional per-key overrides.
// When Overrides is non-empty the preset is ignored and the dict machinery
// builds a custom profile instead.
type HumanizeConfig struct {
	Level     string         `mapstructure:"level" yaml:"level"`
	Seed      uint64         `mapstructure:"seed" yaml:"seed"`
	Overrides map[string]any `mapstructure:"overrides" yaml:"overrides"`
}

// knownLevels guards against typos in config files; "custom" is reserved
// for dict-built profiles and is not a valid preset name here.
var knownLevels = map[string]humanize.Level{
	"off":        humanize.LevelOff,
	"light":      humanize.LevelLight,
	"moderate":   humanize.LevelModerate,
	"aggressive": humanize.LevelAggressive,
}

// Build expands the section into a full behavior profile.
func (h HumanizeConfig) Build() (humanize.Config, error) {
	if len(h.Overrides) > 0 {
		return humanize.FromDict(h.Overrides), nil
	}
	level, ok := knownLevels[h.Level]
	if !ok {
		return humanize.Config{}, fmt.Errorf("unknown humanize level %q (want off, light, moderate or aggressive)", h.Level)
	}
	return humanize.FromLevel(level), nil
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; failing to unmarshal them is a programming error.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "humanize")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 800)

	// -- Humanize --
	v.SetDefault("humanize.level", "moderate")
	v.SetDefault("humanize.seed", 0)
}

// NewConfigFromViper unmarshals and validates a configuration from a viper
// instance that already has defaults, file and env sources bound.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must be positive")
	}
	if _, err := c.Humanize.Build(); err != nil {
		return err
	}
	return nil
}
