package triggers

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Compiled is a rule ready for matching.
type Compiled struct {
	Rule     Rule
	Duration time.Duration
	re       *regexp.Regexp
}

// Match is a rule firing on a line.
type Match struct {
	Name       string
	Time       time.Time
	Duration   time.Duration
	Icon       int
	Persistent bool
}

// Matcher tests every line against the compiled rules.
type Matcher struct {
	rules []Compiled
}

// NewMatcher compiles rules. Rules whose pattern does not compile are
// skipped and logged; malformed durations load as zero and are logged.
func NewMatcher(rules []Rule, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Matcher{}
	for i, r := range rules {
		re, err := Compile(r)
		if err != nil {
			logger.Warn("skipping custom trigger", zap.Int("index", i), zap.String("name", r.Name), zap.Error(err))
			continue
		}
		d, err := ParseDuration(r.Duration)
		if err != nil {
			logger.Warn("custom trigger duration invalid, using zero",
				zap.String("name", r.Name), zap.String("duration", r.Duration), zap.Error(err))
			d = 0
		}
		m.rules = append(m.rules, Compiled{Rule: r, Duration: d, re: re})
	}
	return m
}

// Compile turns a rule pattern into an anchored case-insensitive
// expression. Plain patterns treat "*" as a wildcard and everything else
// literally.
func Compile(r Rule) (*regexp.Regexp, error) {
	if strings.TrimSpace(r.Pattern) == "" {
		return nil, fmt.Errorf("pattern is empty")
	}
	expr := r.Pattern
	if !r.Regex {
		pieces := strings.Split(r.Pattern, "*")
		for i, p := range pieces {
			pieces[i] = regexp.QuoteMeta(p)
		}
		expr = strings.Join(pieces, ".*")
	}
	re, err := regexp.Compile("(?i)^(?:" + expr + ")$")
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", r.Pattern, err)
	}
	return re, nil
}

// Match returns every rule matching text, in rule order.
func (m *Matcher) Match(ts time.Time, text string) []Match {
	if m == nil {
		return nil
	}
	var out []Match
	for _, c := range m.rules {
		if !c.re.MatchString(text) {
			continue
		}
		out = append(out, Match{
			Name:       c.Rule.Name,
			Time:       ts,
			Duration:   c.Duration,
			Icon:       c.Rule.Icon,
			Persistent: c.Rule.Persistent,
		})
	}
	return out
}

// Len returns the number of usable rules.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}
