package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the runtime parameters of the timer engine and its inputs.
type Config struct {
	LogDir          string   `toml:"log_dir"           env:"LOG_DIR"`
	LogPattern      string   `toml:"log_pattern"       env:"LOG_PATTERN"`
	SpellsFile      string   `toml:"spells_file"       env:"SPELLS_FILE"`
	TriggersFile    string   `toml:"triggers_file"     env:"TRIGGERS_FILE"`
	StateDir        string   `toml:"state_dir"         env:"STATE_DIR"`
	PollMS          int      `toml:"poll_ms"           env:"POLL_MS"`
	BatchSize       int      `toml:"batch_size"        env:"BATCH_SIZE"`
	Resume          bool     `toml:"resume"            env:"RESUME"`
	Level           int      `toml:"level"             env:"LEVEL"`
	CastingWindow   bool     `toml:"casting_window"    env:"CASTING_WINDOW"`
	CastingBufferMS int      `toml:"casting_buffer_ms" env:"CASTING_BUFFER_MS"`
	UseSecondary    []string `toml:"use_secondary"     env:"USE_SECONDARY"     envSeparator:","`
	UseSecondaryAll bool     `toml:"use_secondary_all" env:"USE_SECONDARY_ALL"`
	ItemTriggers    bool     `toml:"item_triggers"     env:"ITEM_TRIGGERS"`
}

const (
	defaultConfigPath   = "~/.config/spelltimer/config.toml"
	defaultLogDir       = "~/EverQuest/Logs"
	defaultLogPattern   = "eqlog_*_*.txt"
	defaultSpellsFile   = "~/EverQuest/spells_us.txt"
	defaultTriggersFile = "~/.config/spelltimer/triggers.toml"
	defaultStateDir     = "~/.local/state/spelltimer"
	defaultPollMS       = 250
	defaultBatchSize    = 500
	defaultLevel        = 1
	defaultBufferMS     = 1000

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SPELLTIMER_"

	// MinLevel and MaxLevel bound the character level.
	MinLevel = 1
	MaxLevel = 65
)

// ErrInvalid marks a configuration value outside its accepted range.
var ErrInvalid = errors.New("invalid config")

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		LogDir:          defaultLogDir,
		LogPattern:      defaultLogPattern,
		SpellsFile:      defaultSpellsFile,
		TriggersFile:    defaultTriggersFile,
		StateDir:        defaultStateDir,
		PollMS:          defaultPollMS,
		BatchSize:       defaultBatchSize,
		Resume:          true,
		Level:           defaultLevel,
		CastingWindow:   true,
		CastingBufferMS: defaultBufferMS,
	}
}

// Load reads the config file, falling back to defaults when it is missing,
// then applies SPELLTIMER_* environment overrides and validates the result.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.LogDir = mustExpand(orDefault(c.LogDir, defaultLogDir))
	c.LogPattern = orDefault(c.LogPattern, defaultLogPattern)
	c.SpellsFile = mustExpand(orDefault(c.SpellsFile, defaultSpellsFile))
	c.StateDir = mustExpand(orDefault(c.StateDir, defaultStateDir))
	// An explicitly blank triggers file disables custom triggers.
	if strings.TrimSpace(c.TriggersFile) != "" {
		c.TriggersFile = mustExpand(c.TriggersFile)
	} else {
		c.TriggersFile = ""
	}
	if c.PollMS <= 0 {
		c.PollMS = defaultPollMS
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.CastingBufferMS < 0 {
		c.CastingBufferMS = 0
	}
	names := c.UseSecondary[:0]
	for _, n := range c.UseSecondary {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	c.UseSecondary = names
}

// Validate reports values that cannot be corrected silently.
func (c Config) Validate() error {
	if c.Level < MinLevel || c.Level > MaxLevel {
		return fmt.Errorf("%w: level %d outside %d-%d", ErrInvalid, c.Level, MinLevel, MaxLevel)
	}
	if _, err := filepath.Match(c.LogPattern, ""); err != nil {
		return fmt.Errorf("%w: log_pattern %q: %v", ErrInvalid, c.LogPattern, err)
	}
	return nil
}

// PollInterval returns the tailer fallback poll cadence.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollMS) * time.Millisecond
}

// CastingBuffer returns the casting window buffer.
func (c Config) CastingBuffer() time.Duration {
	return time.Duration(c.CastingBufferMS) * time.Millisecond
}

// AppLogPath returns the file the application logs to.
func (c Config) AppLogPath() string {
	if strings.TrimSpace(c.StateDir) == "" {
		return mustExpand(defaultStateDir + "/spelltimer.log")
	}
	return filepath.Join(c.StateDir, "spelltimer.log")
}

// PrefsPath returns the preferences file inside the state directory.
func (c Config) PrefsPath() string {
	if strings.TrimSpace(c.StateDir) == "" {
		return mustExpand(defaultStateDir + "/prefs.toml")
	}
	return filepath.Join(c.StateDir, "prefs.toml")
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
