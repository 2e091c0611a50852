package timers

import "fmt"

// Kind distinguishes the owner of a timer bucket.
type Kind uint8

const (
	// KindNamed is a player or NPC identified by name.
	KindNamed Kind = iota
	// KindSelf is the player whose log is being tailed.
	KindSelf
	// KindCustom owns every timer started by a custom trigger.
	KindCustom
)

// Target identifies a timer bucket. Sentinel kinds never collide with a
// named target, whatever the name.
type Target struct {
	kind Kind
	name string
}

// Self returns the target for the logging player.
func Self() Target { return Target{kind: KindSelf} }

// Custom returns the target for custom trigger timers.
func Custom() Target { return Target{kind: KindCustom} }

// Named returns the target for a named player.
func Named(name string) Target { return Target{kind: KindNamed, name: name} }

// Kind returns the target kind.
func (t Target) Kind() Kind { return t.kind }

// Name returns the player name for named targets and "" otherwise.
func (t Target) Name() string { return t.name }

// String returns a display label.
func (t Target) String() string {
	switch t.kind {
	case KindSelf:
		return "You"
	case KindCustom:
		return "Triggers"
	default:
		return t.name
	}
}

// GoString keeps %#v output readable in test failures.
func (t Target) GoString() string {
	switch t.kind {
	case KindSelf:
		return "timers.Self()"
	case KindCustom:
		return "timers.Custom()"
	default:
		return fmt.Sprintf("timers.Named(%q)", t.name)
	}
}
