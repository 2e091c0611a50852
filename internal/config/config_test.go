package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	wantLogDir, err := expandPath(defaultLogDir)
	if err != nil {
		t.Fatalf("expandPath(defaultLogDir) returned error: %v", err)
	}
	if cfg.LogDir != wantLogDir {
		t.Fatalf("LogDir = %q, want %q", cfg.LogDir, wantLogDir)
	}
	if cfg.LogPattern != defaultLogPattern {
		t.Fatalf("LogPattern = %q, want %q", cfg.LogPattern, defaultLogPattern)
	}
	if cfg.Level != defaultLevel || !cfg.CastingWindow || !cfg.Resume {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.PollInterval() != 250*time.Millisecond {
		t.Fatalf("PollInterval = %v, want 250ms", cfg.PollInterval())
	}
	if cfg.CastingBuffer() != time.Second {
		t.Fatalf("CastingBuffer = %v, want 1s", cfg.CastingBuffer())
	}
	if !strings.HasPrefix(cfg.TriggersFile, home) {
		t.Fatalf("TriggersFile = %q, want it under HOME %q", cfg.TriggersFile, home)
	}
	if cfg.AppLogPath() != filepath.Join(cfg.StateDir, "spelltimer.log") {
		t.Fatalf("AppLogPath = %q", cfg.AppLogPath())
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
log_dir = "  ~/eq/Logs  "
spells_file = "/opt/eq/spells_us.txt"
level = 60
casting_window = false
casting_buffer_ms = 750
use_secondary = ["Spirit of Wolf", "  ", "Clarity"]
use_secondary_all = true
item_triggers = true
poll_ms = -5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LogDir != filepath.Join(home, "eq/Logs") {
		t.Fatalf("LogDir = %q, want it under HOME %q", cfg.LogDir, home)
	}
	if cfg.SpellsFile != "/opt/eq/spells_us.txt" {
		t.Fatalf("SpellsFile = %q", cfg.SpellsFile)
	}
	if cfg.Level != 60 || cfg.CastingWindow || cfg.CastingBuffer() != 750*time.Millisecond {
		t.Fatalf("unexpected casting settings: %+v", cfg)
	}
	if want := []string{"Spirit of Wolf", "Clarity"}; !reflect.DeepEqual(cfg.UseSecondary, want) {
		t.Fatalf("UseSecondary = %q, want %q", cfg.UseSecondary, want)
	}
	if !cfg.UseSecondaryAll || !cfg.ItemTriggers {
		t.Fatalf("flags not parsed: %+v", cfg)
	}
	if cfg.PollMS != defaultPollMS {
		t.Fatalf("PollMS = %d, want default %d", cfg.PollMS, defaultPollMS)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, `
log_dir = "   "
log_pattern = ""
triggers_file = ""
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	wantLogDir, err := expandPath(defaultLogDir)
	if err != nil {
		t.Fatalf("expandPath(defaultLogDir) returned error: %v", err)
	}
	if cfg.LogDir != wantLogDir {
		t.Fatalf("LogDir = %q, want %q", cfg.LogDir, wantLogDir)
	}
	if cfg.LogPattern != defaultLogPattern {
		t.Fatalf("LogPattern = %q, want %q", cfg.LogPattern, defaultLogPattern)
	}
	if cfg.TriggersFile != "" {
		t.Fatalf("TriggersFile = %q, want blank to disable triggers", cfg.TriggersFile)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SPELLTIMER_LEVEL", "42")
	t.Setenv("SPELLTIMER_ITEM_TRIGGERS", "true")
	t.Setenv("SPELLTIMER_USE_SECONDARY", "Clarity,Tashan")

	cfg, err := Load(writeConfig(t, "level = 10\n"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Level != 42 {
		t.Fatalf("Level = %d, want 42", cfg.Level)
	}
	if !cfg.ItemTriggers {
		t.Fatalf("ItemTriggers not overridden")
	}
	if want := []string{"Clarity", "Tashan"}; !reflect.DeepEqual(cfg.UseSecondary, want) {
		t.Fatalf("UseSecondary = %q, want %q", cfg.UseSecondary, want)
	}
}

func TestLoad_BadEnvironmentValue(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SPELLTIMER_LEVEL", "sixty")

	_, err := Load(writeConfig(t, ""))
	if err == nil || !strings.Contains(err.Error(), "parse env") {
		t.Fatalf("Load error = %v, want parse env error", err)
	}
}

func TestLoad_LevelOutOfRange(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	for _, level := range []string{"0", "66", "-3"} {
		_, err := Load(writeConfig(t, "level = "+level+"\n"))
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("level %s: err = %v, want ErrInvalid", level, err)
		}
	}
}

func TestLoad_InvalidPattern(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load(writeConfig(t, `log_pattern = "eqlog_[*.txt"`+"\n"))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load(writeConfig(t, "level = [\n"))
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("err = %v, want parse config error", err)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "tilde", in: "~/eq", want: filepath.Join(home, "eq")},
		{name: "absolute", in: "/var/eq", want: "/var/eq"},
		{name: "blank", in: "  ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandPath(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expandPath(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("expandPath(%q) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
