// Package timers owns the set of active per-target countdown timers.
package timers

import (
	"sort"
	"sync"
	"time"

	"github.com/five82/spelltimer/internal/clock"
)

const (
	// WarningThreshold is the remaining time at which an entry enters its
	// warning sub-state.
	WarningThreshold = 30 * time.Second
	// MaxElongation bounds ElongateAll. Larger deltas are treated as a
	// false zoning signal.
	MaxElongation = 120 * time.Second
)

// EventKind enumerates registry notifications.
type EventKind int

const (
	TimerUpserted EventKind = iota + 1
	TimerWarning
	TimerExpired
	TimerDismissed
	TargetGroupRemoved
)

func (k EventKind) String() string {
	switch k {
	case TimerUpserted:
		return "upserted"
	case TimerWarning:
		return "warning"
	case TimerExpired:
		return "expired"
	case TimerDismissed:
		return "dismissed"
	case TargetGroupRemoved:
		return "target-removed"
	default:
		return "unknown"
	}
}

// Event describes a registry change. Name and the entry fields are empty
// for TargetGroupRemoved.
type Event struct {
	Kind       EventKind
	Target     Target
	Name       string
	Remaining  time.Duration
	Icon       int
	Beneficial bool
	Persistent bool
	Recast     bool
}

// Observer receives registry events.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(e Event) { f(e) }

// Options carries the display attributes of an entry.
type Options struct {
	Icon       int
	Beneficial bool
	Persistent bool
}

// Entry is a single countdown timer.
type Entry struct {
	Target     Target
	Name       string
	EndTime    time.Time
	Icon       int
	Beneficial bool
	Persistent bool
	Paused     bool
	PausedAt   time.Time
	Warning    bool
	Expired    bool

	lastRemaining time.Duration
}

// Remaining returns the time left at now, frozen while paused and zero
// once expired.
func (e Entry) Remaining(now time.Time) time.Duration {
	if e.Expired {
		return 0
	}
	ref := now
	if e.Paused {
		ref = e.PausedAt
	}
	rem := e.EndTime.Sub(ref)
	if rem < 0 {
		return 0
	}
	return rem
}

type bucket struct {
	entries  map[string]*Entry
	paused   bool
	pausedAt time.Time
}

// Registry is a mutex guarded set of timer buckets keyed by target. Events
// are delivered after the lock is released, so observers may call back
// into the registry.
type Registry struct {
	mu       sync.Mutex
	clock    clock.Clock
	observer Observer
	buckets  map[Target]*bucket
}

// NewRegistry returns an empty registry. observer may be nil.
func NewRegistry(c clock.Clock, observer Observer) *Registry {
	if c == nil {
		c = clock.Real()
	}
	return &Registry{
		clock:    c,
		observer: observer,
		buckets:  make(map[Target]*bucket),
	}
}

// Upsert creates the (target, name) entry or recasts the existing one,
// replacing its end time and clearing its warning state.
func (r *Registry) Upsert(target Target, name string, end time.Time, opts Options) {
	r.mu.Lock()
	now := r.clock.Now()
	b, ok := r.buckets[target]
	if !ok {
		b = &bucket{entries: make(map[string]*Entry)}
		r.buckets[target] = b
	}
	e, recast := b.entries[name]
	if !recast {
		e = &Entry{Target: target, Name: name}
		b.entries[name] = e
	}
	e.EndTime = end
	e.Icon = opts.Icon
	e.Beneficial = opts.Beneficial
	e.Persistent = opts.Persistent
	e.Warning = false
	e.Expired = false
	e.Paused = b.paused
	e.PausedAt = b.pausedAt
	e.lastRemaining = e.Remaining(now)
	ev := entryEvent(TimerUpserted, e, now)
	ev.Recast = recast
	r.mu.Unlock()

	r.publish([]Event{ev})
}

// Tick advances every non-paused entry: it raises the warning flag when
// remaining time crosses WarningThreshold and expires entries at zero.
func (r *Registry) Tick() {
	r.mu.Lock()
	now := r.clock.Now()
	var events []Event
	for _, target := range r.sortedTargets() {
		b := r.buckets[target]
		if b.paused {
			continue
		}
		for _, name := range sortedNames(b) {
			e := b.entries[name]
			if e.Expired {
				continue
			}
			rem := e.EndTime.Sub(now)
			if rem <= 0 {
				events = append(events, r.expire(target, b, e, now)...)
				continue
			}
			if !e.Warning && e.lastRemaining > WarningThreshold && rem <= WarningThreshold {
				e.Warning = true
				events = append(events, entryEvent(TimerWarning, e, now))
			}
			e.lastRemaining = rem
		}
	}
	r.mu.Unlock()

	r.publish(events)
}

// expire freezes persistent entries at zero and removes the rest. Callers
// hold r.mu.
func (r *Registry) expire(target Target, b *bucket, e *Entry, now time.Time) []Event {
	if e.Persistent {
		e.Expired = true
		e.lastRemaining = 0
		return []Event{entryEvent(TimerExpired, e, now)}
	}
	ev := entryEvent(TimerExpired, e, now)
	return append([]Event{ev}, r.remove(target, b, e.Name)...)
}

func (r *Registry) remove(target Target, b *bucket, name string) []Event {
	delete(b.entries, name)
	if len(b.entries) > 0 {
		return nil
	}
	delete(r.buckets, target)
	return []Event{{Kind: TargetGroupRemoved, Target: target}}
}

// Dismiss removes an entry regardless of its state, typically a persistent
// timer frozen at zero. It reports whether an entry was removed.
func (r *Registry) Dismiss(target Target, name string) bool {
	r.mu.Lock()
	b, ok := r.buckets[target]
	if !ok {
		r.mu.Unlock()
		return false
	}
	e, ok := b.entries[name]
	if !ok {
		r.mu.Unlock()
		return false
	}
	events := []Event{entryEvent(TimerDismissed, e, r.clock.Now())}
	events = append(events, r.remove(target, b, name)...)
	r.mu.Unlock()

	r.publish(events)
	return true
}

// PauseAll freezes every entry of target. Pausing a paused or unknown
// target is a no-op and reports false.
func (r *Registry) PauseAll(target Target) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buckets[target]
	if !ok || b.paused {
		return false
	}
	now := r.clock.Now()
	b.paused = true
	b.pausedAt = now
	for _, e := range b.entries {
		e.Paused = true
		e.PausedAt = now
	}
	return true
}

// ResumeAll unfreezes every entry of target without touching end times.
// Resuming an active or unknown target is a no-op and reports false.
func (r *Registry) ResumeAll(target Target) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buckets[target]
	if !ok || !b.paused {
		return false
	}
	b.paused = false
	b.pausedAt = time.Time{}
	for _, e := range b.entries {
		e.Paused = false
		e.PausedAt = time.Time{}
	}
	return true
}

// ElongateAll shifts the end time of every live entry of target forward by
// d. Deltas that are not positive or exceed MaxElongation are ignored and
// the call reports false.
func (r *Registry) ElongateAll(target Target, d time.Duration) bool {
	if d <= 0 || d > MaxElongation {
		return false
	}
	r.mu.Lock()
	b, ok := r.buckets[target]
	if !ok {
		r.mu.Unlock()
		return false
	}
	now := r.clock.Now()
	var events []Event
	for _, name := range sortedNames(b) {
		e := b.entries[name]
		if e.Expired {
			continue
		}
		e.EndTime = e.EndTime.Add(d)
		e.lastRemaining = e.Remaining(now)
		if e.Warning && e.lastRemaining > WarningThreshold {
			e.Warning = false
		}
		events = append(events, entryEvent(TimerUpserted, e, now))
	}
	r.mu.Unlock()

	r.publish(events)
	return true
}

// Lookup returns a copy of the (target, name) entry.
func (r *Registry) Lookup(target Target, name string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buckets[target]
	if !ok {
		return Entry{}, false
	}
	e, ok := b.entries[name]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Targets returns the targets that currently own at least one entry.
func (r *Registry) Targets() []Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedTargets()
}

// Snapshot returns copies of all entries grouped by target (self first,
// named targets alphabetically, custom last), soonest to expire first.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock.Now()
	var out []Entry
	for _, target := range r.sortedTargets() {
		b := r.buckets[target]
		start := len(out)
		for _, e := range b.entries {
			out = append(out, *e)
		}
		group := out[start:]
		sort.Slice(group, func(i, j int) bool {
			ri, rj := group[i].Remaining(now), group[j].Remaining(now)
			if ri != rj {
				return ri < rj
			}
			return group[i].Name < group[j].Name
		})
	}
	return out
}

// Len returns the number of entries across all targets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.buckets {
		n += len(b.entries)
	}
	return n
}

func (r *Registry) publish(events []Event) {
	if r.observer == nil {
		return
	}
	for _, ev := range events {
		r.observer.Observe(ev)
	}
}

func (r *Registry) sortedTargets() []Target {
	targets := make([]Target, 0, len(r.buckets))
	for t := range r.buckets {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool {
		oi, oj := targetOrder(targets[i]), targetOrder(targets[j])
		if oi != oj {
			return oi < oj
		}
		return targets[i].name < targets[j].name
	})
	return targets
}

func targetOrder(t Target) int {
	switch t.kind {
	case KindSelf:
		return 0
	case KindNamed:
		return 1
	default:
		return 2
	}
}

func sortedNames(b *bucket) []string {
	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func entryEvent(kind EventKind, e *Entry, now time.Time) Event {
	return Event{
		Kind:       kind,
		Target:     e.Target,
		Name:       e.Name,
		Remaining:  e.Remaining(now),
		Icon:       e.Icon,
		Beneficial: e.Beneficial,
		Persistent: e.Persistent,
	}
}
