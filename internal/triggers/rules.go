// Package triggers loads user-authored custom triggers and matches them
// against log lines.
package triggers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Rule is a custom trigger as written by the user.
type Rule struct {
	Name       string `toml:"name" yaml:"name"`
	Pattern    string `toml:"pattern" yaml:"pattern"`
	Duration   string `toml:"duration" yaml:"duration"`
	Regex      bool   `toml:"regex" yaml:"regex"`
	Persistent bool   `toml:"persistent" yaml:"persistent"`
	Icon       int    `toml:"icon" yaml:"icon"`
}

type ruleFile struct {
	Triggers []Rule `toml:"trigger" yaml:"triggers"`
}

// LoadRules reads rules from a TOML or YAML file, chosen by extension. A
// missing file yields no rules.
func LoadRules(path string) ([]Rule, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read triggers: %w", err)
	}

	var file ruleFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse triggers: %w", err)
		}
	default:
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse triggers: %w", err)
		}
	}
	return file.Triggers, nil
}

// ParseDuration reads "hh:mm:ss", "mm:ss" or "ss". Each part must be a
// non-negative integer.
func ParseDuration(text string) (time.Duration, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("duration %q has too many parts", text)
	}
	var total time.Duration
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("duration %q: invalid part %q", text, p)
		}
		total = total*60 + time.Duration(n)
	}
	return total * time.Second, nil
}
