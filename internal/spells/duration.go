package spells

import "time"

// TickDuration is the length of one game tick.
const TickDuration = 6 * time.Second

// permanentTicks is what formula 50 yields: five days.
const permanentTicks = 72000

// Resolve returns the effect duration of def in ticks for a caster of the
// given level. useSecondary selects the PvP formula/duration pair.
func Resolve(def *Definition, level int, useSecondary bool) int {
	if def == nil {
		return 0
	}
	formula, base := def.DurationFormula, def.Duration
	if useSecondary {
		formula, base = def.PvPDurationFormula, def.PvPDuration
	}
	return ticks(formula, base, level)
}

func ticks(formula, base, level int) int {
	switch formula {
	case 0:
		return 0
	case 1, 6:
		return min(ceilDiv(level, 2), base)
	case 2:
		return min(ceilDiv(level*3, 5), base)
	case 3:
		return min(level*30, base)
	case 4:
		if base == 0 {
			return 50
		}
		return base
	case 5:
		if base == 0 {
			return 3
		}
		return min(3, base)
	case 7:
		if base == 0 {
			return level
		}
		return base
	case 8:
		return min(level+10, base)
	case 9:
		return min(level*2+10, base)
	case 10:
		return min(level*3+10, base)
	case 11:
		return min((level+3)*30, base)
	case 12, 15:
		return base
	case 50:
		return permanentTicks
	case 3600:
		if base == 0 {
			return 3600
		}
		return base
	default:
		return 0
	}
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Duration converts ticks to wall time.
func Duration(ticks int) time.Duration {
	return time.Duration(ticks) * TickDuration
}

// Resolver picks the formula pair for each spell from user settings.
type Resolver struct {
	// UseSecondaryAll applies the secondary pair to every harmful spell.
	UseSecondaryAll bool
	secondary       map[string]struct{}
}

// NewResolver returns a Resolver that uses the secondary pair for the
// named spells, plus every harmful spell when all is set.
func NewResolver(names []string, all bool) Resolver {
	r := Resolver{UseSecondaryAll: all, secondary: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if k := key(n); k != "" {
			r.secondary[k] = struct{}{}
		}
	}
	return r
}

// UseSecondary reports whether def resolves with its secondary pair.
func (r Resolver) UseSecondary(def *Definition) bool {
	if def == nil {
		return false
	}
	if _, ok := r.secondary[key(def.Name)]; ok {
		return true
	}
	return r.UseSecondaryAll && !def.Beneficial
}

// Ticks resolves def for level using the configured pair selection.
func (r Resolver) Ticks(def *Definition, level int) int {
	return Resolve(def, level, r.UseSecondary(def))
}
