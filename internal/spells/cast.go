package spells

import (
	"sort"
	"strings"
	"time"

	"github.com/five82/spelltimer/internal/clock"
	"github.com/five82/spelltimer/internal/timers"
)

// State is the lifecycle stage of a CastTrigger.
type State int

const (
	// PendingActivation waits for the casting window to open.
	PendingActivation State = iota
	// Active accepts landing text.
	Active
	// TimedOut is the transient stage between the timeout firing and
	// resolution.
	TimedOut
	// Resolved is terminal; resolutions have been handed out.
	Resolved
	// Interrupted is terminal; the cast failed and nothing was handed out.
	Interrupted
)

func (s State) String() string {
	switch s {
	case PendingActivation:
		return "pending"
	case Active:
		return "active"
	case TimedOut:
		return "timed-out"
	case Resolved:
		return "resolved"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Window configures the casting window around a spell's cast time.
type Window struct {
	Enabled bool
	Buffer  time.Duration
}

// Resolution is one landing of a cast on a target.
type Resolution struct {
	Spell  *Definition
	Target timers.Target
	Time   time.Time
}

// CastTrigger reconciles a "You begin casting" line with the landing text
// that follows it. It is not safe for concurrent use; the owner serialises
// Feed, Activate, Timeout and Cancel, and must ignore timer callbacks for a
// trigger it no longer holds.
type CastTrigger struct {
	Spell      *Definition
	Start      time.Time
	Generation uint64

	state       State
	resolutions []Resolution
	activation  clock.Timer
	timeout     clock.Timer
}

// NewCastTrigger arms a trigger for def cast at start. When the window is
// enabled, onActivate fires at cast time minus the buffer; onTimeout always
// fires at cast time plus the buffer. Both callbacks receive the trigger so
// the owner can discard stale ones.
func NewCastTrigger(def *Definition, start time.Time, generation uint64, c clock.Clock, w Window, onActivate, onTimeout func(*CastTrigger)) *CastTrigger {
	t := &CastTrigger{Spell: def, Start: start, Generation: generation, state: Active}
	castTime := time.Duration(def.CastTime) * time.Millisecond
	buffer := w.Buffer
	if buffer < 0 {
		buffer = 0
	}
	if w.Enabled {
		t.state = PendingActivation
		delay := castTime - buffer
		if delay < 0 {
			delay = 0
		}
		t.activation = c.AfterFunc(delay, func() {
			if onActivate != nil {
				onActivate(t)
			}
		})
	}
	t.timeout = c.AfterFunc(castTime+buffer, func() {
		if onTimeout != nil {
			onTimeout(t)
		}
	})
	return t
}

// State returns the current lifecycle stage.
func (t *CastTrigger) State() State { return t.state }

// Done reports whether the trigger reached a terminal state.
func (t *CastTrigger) Done() bool {
	return t.state == Resolved || t.state == Interrupted
}

// Activate opens the casting window. It reports whether the state changed.
func (t *CastTrigger) Activate() bool {
	if t.state != PendingActivation {
		return false
	}
	t.state = Active
	t.activation = nil
	return true
}

// Feed tests a log line against the spell's landing text. matched reports
// whether the line belonged to this cast; resolved is non-nil when the line
// completed the cast.
func (t *CastTrigger) Feed(ts time.Time, text string) (matched bool, resolved []Resolution) {
	if t.state != Active {
		return false, nil
	}
	target, ok := t.landing(text)
	if !ok {
		return false, nil
	}
	if !t.hasTarget(target) {
		t.resolutions = append(t.resolutions, Resolution{Spell: t.Spell, Target: target, Time: ts})
	}
	if len(t.resolutions) >= t.maxTargets() {
		return true, t.Resolve()
	}
	return true, nil
}

func (t *CastTrigger) landing(text string) (timers.Target, bool) {
	if self := t.Spell.EffectSelf; self != "" && strings.HasPrefix(text, self) {
		return timers.Self(), true
	}
	if other := t.Spell.EffectOther; other != "" && strings.HasSuffix(text, other) {
		name := strings.TrimSpace(strings.TrimSuffix(text, other))
		if name != "" {
			return timers.Named(name), true
		}
	}
	return timers.Target{}, false
}

func (t *CastTrigger) hasTarget(target timers.Target) bool {
	for _, r := range t.resolutions {
		if r.Target == target {
			return true
		}
	}
	return false
}

func (t *CastTrigger) maxTargets() int {
	if t.Spell.MaxTargets < 1 {
		return 1
	}
	return t.Spell.MaxTargets
}

// Timeout closes the window and resolves with whatever was accumulated.
func (t *CastTrigger) Timeout() []Resolution {
	if t.Done() {
		return nil
	}
	t.state = TimedOut
	t.timeout = nil
	return t.Resolve()
}

// Resolve stops both timers and returns the accumulated resolutions in
// timestamp order. Resolving a finished trigger returns nil.
func (t *CastTrigger) Resolve() []Resolution {
	if t.Done() {
		return nil
	}
	t.stopTimers()
	t.state = Resolved
	out := make([]Resolution, len(t.resolutions))
	copy(out, t.resolutions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// Cancel stops both timers and discards the accumulated resolutions.
func (t *CastTrigger) Cancel() {
	if t.Done() {
		return
	}
	t.stopTimers()
	t.state = Interrupted
	t.resolutions = nil
}

// Pending returns the number of resolutions accumulated so far.
func (t *CastTrigger) Pending() int { return len(t.resolutions) }

func (t *CastTrigger) stopTimers() {
	if t.activation != nil {
		t.activation.Stop()
		t.activation = nil
	}
	if t.timeout != nil {
		t.timeout.Stop()
		t.timeout = nil
	}
}
