package spells

import "strings"

const (
	castBeginPrefix = "You begin casting "
	zoningText      = "LOADING, PLEASE WAIT..."
	zoneEntered     = "You have entered "
	areaNotice      = "You have entered an area where"
)

var interruptionPrefixes = []string{
	"Your spell is interrupted",
	"Your casting has been interrupted",
	"Your target resisted the ",
	"Your spell did not take hold",
	"You try to cast a spell on ",
}

// ParseCastBegin extracts the spell name from a "You begin casting" line.
func ParseCastBegin(text string) (string, bool) {
	rest, ok := strings.CutPrefix(text, castBeginPrefix)
	if !ok {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "."))
	if name == "" {
		return "", false
	}
	return name, true
}

// IsInterruption reports whether text cancels the spell being cast.
func IsInterruption(text string) bool {
	for _, p := range interruptionPrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

// IsZoning reports whether text is the zone loading banner.
func IsZoning(text string) bool {
	return strings.HasPrefix(text, zoningText)
}

// IsZoneEntered reports whether text announces arrival in a new zone.
func IsZoneEntered(text string) bool {
	return strings.HasPrefix(text, zoneEntered) && !strings.HasPrefix(text, areaNotice)
}
