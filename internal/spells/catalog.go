package spells

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// ErrCatalogUnavailable reports that the spell data file could not be read.
// Spell matching cannot work without it.
var ErrCatalogUnavailable = errors.New("spell catalog unavailable")

// Field positions in a spells_us.txt row.
const (
	fieldID            = 0
	fieldName          = 1
	fieldEffectSelf    = 6
	fieldEffectOther   = 7
	fieldEffectWornOff = 8
	fieldAOERange      = 10
	fieldCastTime      = 13
	fieldFormula       = 16
	fieldDuration      = 17
	fieldType          = 83
	fieldResistType    = 85
	fieldIcon          = 144
	fieldPvPFormula    = 181
	fieldPvPDuration   = 182

	// MinFields is the shortest row the catalog accepts.
	MinFields = fieldPvPDuration + 1

	fieldSeparator = "^"

	aoeMaxTargets    = 6
	singleMaxTargets = 1
)

// Definition is an immutable spell record.
type Definition struct {
	ID                 int
	Name               string
	EffectSelf         string
	EffectOther        string
	EffectWornOff      string
	CastTime           int // milliseconds
	AOERange           int
	MaxTargets         int
	DurationFormula    int
	Duration           int // ticks
	PvPDurationFormula int
	PvPDuration        int // ticks
	Beneficial         bool
	ResistType         int
	Icon               int
}

// EffectMode selects which landing text a lookup matches against.
type EffectMode int

const (
	EffectSelf EffectMode = iota
	EffectOther
)

// Catalog is a read-only table of spell definitions keyed by case-folded
// name.
type Catalog struct {
	byName  map[string]*Definition
	bySelf  map[string]*Definition
	byOther map[string]*Definition
}

var folder = cases.Fold()

func key(name string) string {
	return folder.String(strings.TrimSpace(name))
}

// LoadCatalog reads the spell data file at path.
func LoadCatalog(path string, logger *zap.Logger) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrCatalogUnavailable, path, err)
	}
	defer file.Close()

	cat, err := ParseCatalog(file, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrCatalogUnavailable, path, err)
	}
	return cat, nil
}

// ParseCatalog reads spell rows from r. Malformed rows are skipped with one
// warning each; duplicate names keep the last row.
func ParseCatalog(r io.Reader, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cat := &Catalog{
		byName:  make(map[string]*Definition),
		bySelf:  make(map[string]*Definition),
		byOther: make(map[string]*Definition),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		def, err := parseRow(line)
		if err != nil {
			logger.Warn("skipping malformed spell row", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		if prev, ok := cat.byName[key(def.Name)]; ok {
			logger.Warn("duplicate spell name, keeping later row",
				zap.String("name", def.Name),
				zap.Int("previous_id", prev.ID),
				zap.Int("id", def.ID),
			)
		}
		cat.add(def)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan spells: %w", err)
	}
	return cat, nil
}

func (c *Catalog) add(def *Definition) {
	c.byName[key(def.Name)] = def
	if def.EffectSelf != "" {
		c.bySelf[def.EffectSelf] = def
	}
	if def.EffectOther != "" {
		c.byOther[def.EffectOther] = def
	}
}

func parseRow(line string) (*Definition, error) {
	fields := strings.Split(line, fieldSeparator)
	if len(fields) < MinFields {
		return nil, fmt.Errorf("row has %d fields, want at least %d", len(fields), MinFields)
	}
	p := rowParser{fields: fields}
	def := &Definition{
		ID:                 p.num(fieldID),
		Name:               strings.TrimSpace(fields[fieldName]),
		EffectSelf:         fields[fieldEffectSelf],
		EffectOther:        fields[fieldEffectOther],
		EffectWornOff:      fields[fieldEffectWornOff],
		AOERange:           p.num(fieldAOERange),
		CastTime:           p.num(fieldCastTime),
		DurationFormula:    p.num(fieldFormula),
		Duration:           p.num(fieldDuration),
		Beneficial:         p.num(fieldType) == 1,
		ResistType:         p.num(fieldResistType),
		Icon:               p.num(fieldIcon),
		PvPDurationFormula: p.num(fieldPvPFormula),
		PvPDuration:        p.num(fieldPvPDuration),
	}
	if p.err != nil {
		return nil, p.err
	}
	if def.Name == "" {
		return nil, fmt.Errorf("spell %d has no name", def.ID)
	}
	def.MaxTargets = singleMaxTargets
	if def.AOERange > 0 {
		def.MaxTargets = aoeMaxTargets
	}
	return def, nil
}

// rowParser records the first numeric conversion failure.
type rowParser struct {
	fields []string
	err    error
}

func (p *rowParser) num(idx int) int {
	raw := strings.TrimSpace(p.fields[idx])
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		// Some numeric columns are written as decimals.
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			if p.err == nil {
				p.err = fmt.Errorf("field %d: %q is not a number", idx, raw)
			}
			return 0
		}
		return int(f)
	}
	return v
}

// Lookup returns the spell named name, ignoring case.
func (c *Catalog) Lookup(name string) (*Definition, bool) {
	if c == nil {
		return nil, false
	}
	def, ok := c.byName[key(name)]
	return def, ok
}

// LookupByEffectText returns the spell whose self or other landing text
// equals text exactly. MatchLanding builds item triggers on it.
func (c *Catalog) LookupByEffectText(mode EffectMode, text string) (*Definition, bool) {
	if c == nil || text == "" {
		return nil, false
	}
	var def *Definition
	var ok bool
	switch mode {
	case EffectSelf:
		def, ok = c.bySelf[text]
	case EffectOther:
		def, ok = c.byOther[text]
	}
	return def, ok
}

// MatchLanding finds a spell landing without a cast message. A line equal
// to a self text lands on the logging player (other is ""); otherwise the
// longest other-text suffix wins and other is the name in front of it.
func (c *Catalog) MatchLanding(line string) (def *Definition, other string, ok bool) {
	if c == nil || line == "" {
		return nil, "", false
	}
	if def, ok := c.LookupByEffectText(EffectSelf, line); ok {
		return def, "", true
	}
	for i := 1; i < len(line); i++ {
		if def, ok := c.LookupByEffectText(EffectOther, line[i:]); ok {
			name := strings.TrimSpace(line[:i])
			if name == "" {
				continue
			}
			return def, name, true
		}
	}
	return nil, "", false
}

// Len returns the number of distinct spell names.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byName)
}
