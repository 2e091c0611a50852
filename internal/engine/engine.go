// Package engine turns log lines into timers. It owns the single pending
// cast, the permissive item-trigger path, custom triggers and zoning
// compensation, and serialises all of them behind one mutex.
package engine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/spelltimer/internal/clock"
	"github.com/five82/spelltimer/internal/spells"
	"github.com/five82/spelltimer/internal/timers"
	"github.com/five82/spelltimer/internal/triggers"
)

// Deps are the collaborators an Engine drives. Catalog and Matcher may be
// nil; Registry is required.
type Deps struct {
	Catalog  *spells.Catalog
	Matcher  *triggers.Matcher
	Registry *timers.Registry
	Clock    clock.Clock
	Logger   *zap.Logger
}

// Options are the character-dependent runtime parameters.
type Options struct {
	Level        int
	Window       spells.Window
	Resolver     spells.Resolver
	ItemTriggers bool
}

// Engine dispatches log lines. It is safe for concurrent use; cast timer
// callbacks take the same lock as HandleLine.
type Engine struct {
	mu   sync.Mutex
	deps Deps
	opts Options
	log  *zap.Logger

	pending    *spells.CastTrigger
	generation uint64

	zoning      bool
	zoningSince time.Time
}

// New returns an Engine. It panics when deps.Registry is nil.
func New(deps Deps, opts Options) *Engine {
	if deps.Registry == nil {
		panic("engine: nil registry")
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Engine{deps: deps, opts: opts, log: deps.Logger}
}

// HandleLine processes one log line with its arrival time.
func (e *Engine) HandleLine(ts time.Time, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.handleSpellLine(ts, text)

	for _, m := range e.deps.Matcher.Match(ts, text) {
		if m.Duration <= 0 {
			continue
		}
		e.deps.Registry.Upsert(timers.Custom(), m.Name, m.Time.Add(m.Duration), timers.Options{
			Icon:       m.Icon,
			Persistent: m.Persistent,
		})
	}
}

func (e *Engine) handleSpellLine(ts time.Time, text string) {
	if e.deps.Catalog == nil {
		return
	}
	if name, ok := spells.ParseCastBegin(text); ok {
		e.beginCast(ts, name)
		return
	}
	if spells.IsInterruption(text) || spells.IsZoning(text) {
		e.cancelPending("interrupted")
		return
	}
	if e.pending != nil {
		matched, resolved := e.pending.Feed(ts, text)
		if e.pending.Done() {
			e.apply(resolved)
			e.pending = nil
		}
		if matched {
			return
		}
	}
	if e.opts.ItemTriggers {
		e.itemTrigger(ts, text)
	}
}

func (e *Engine) beginCast(ts time.Time, name string) {
	if e.pending != nil {
		e.log.Debug("cast superseded", zap.String("spell", e.pending.Spell.Name))
		e.apply(e.pending.Resolve())
		e.pending = nil
	}
	def, ok := e.deps.Catalog.Lookup(name)
	if !ok {
		e.log.Debug("cast of unknown spell", zap.String("spell", name))
		return
	}
	if def.DurationFormula == 0 {
		return
	}
	e.generation++
	e.pending = spells.NewCastTrigger(def, ts, e.generation, e.deps.Clock, e.opts.Window, e.onActivate, e.onTimeout)
	e.log.Debug("cast started",
		zap.String("spell", def.Name),
		zap.Uint64("generation", e.generation),
		zap.Stringer("state", e.pending.State()),
	)
}

func (e *Engine) onActivate(t *spells.CastTrigger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != t {
		return
	}
	t.Activate()
}

func (e *Engine) onTimeout(t *spells.CastTrigger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != t {
		return
	}
	resolved := t.Timeout()
	e.log.Debug("cast window closed",
		zap.String("spell", t.Spell.Name),
		zap.Uint64("generation", t.Generation),
		zap.Int("targets", len(resolved)),
	)
	e.apply(resolved)
	e.pending = nil
}

func (e *Engine) cancelPending(reason string) {
	if e.pending == nil {
		return
	}
	e.log.Debug("cast cancelled", zap.String("spell", e.pending.Spell.Name), zap.String("reason", reason))
	e.pending.Cancel()
	e.pending = nil
}

func (e *Engine) itemTrigger(ts time.Time, text string) {
	def, other, ok := e.deps.Catalog.MatchLanding(text)
	if !ok {
		return
	}
	target := timers.Self()
	if other != "" {
		target = timers.Named(other)
	}
	e.apply([]spells.Resolution{{Spell: def, Target: target, Time: ts}})
}

// apply converts resolutions into registry entries. Spells whose duration
// resolves to zero ticks start nothing.
func (e *Engine) apply(resolved []spells.Resolution) {
	for _, r := range resolved {
		ticks := e.opts.Resolver.Ticks(r.Spell, e.opts.Level)
		if ticks <= 0 {
			continue
		}
		e.deps.Registry.Upsert(r.Target, r.Spell.Name, r.Time.Add(spells.Duration(ticks)), timers.Options{
			Icon:       r.Spell.Icon,
			Beneficial: r.Spell.Beneficial,
		})
	}
}

// Zoning marks the start of a zone load: any pending cast is dropped and
// the player's own timers are paused.
func (e *Engine) Zoning(ts time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelPending("zoning")
	if e.zoning {
		return
	}
	e.zoning = true
	e.zoningSince = ts
	e.deps.Registry.PauseAll(timers.Self())
}

// Zoned marks arrival in the new zone. The player's timers are extended by
// the time spent loading, within the registry's elongation bound, and
// resumed. It reports the elapsed load time.
func (e *Engine) Zoned(ts time.Time) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.zoning {
		return 0
	}
	e.zoning = false
	elapsed := ts.Sub(e.zoningSince)
	if elapsed > timers.MaxElongation {
		e.log.Info("zone load time not compensated",
			zap.Duration("elapsed", elapsed),
			zap.Duration("max", timers.MaxElongation),
		)
	}
	e.deps.Registry.ElongateAll(timers.Self(), elapsed)
	e.deps.Registry.ResumeAll(timers.Self())
	return elapsed
}

// Tick advances the registry countdowns.
func (e *Engine) Tick() {
	e.deps.Registry.Tick()
}

// Pending returns the spell of the cast awaiting resolution, if any.
func (e *Engine) Pending() (name string, state spells.State, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return "", 0, false
	}
	return e.pending.Spell.Name, e.pending.State(), true
}
