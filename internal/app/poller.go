package app

import (
	"context"
	"sync"
	"time"

	"github.com/five82/spelltimer/internal/clock"
	"github.com/five82/spelltimer/internal/engine"
	"github.com/five82/spelltimer/internal/state"
	"github.com/five82/spelltimer/internal/timers"
)

const (
	// tickInterval drives countdowns, warnings and expiry.
	tickInterval = 250 * time.Millisecond
	// consoleRefresh is how often the console pulls a snapshot.
	consoleRefresh = 500 * time.Millisecond
)

// poller advances the registry and publishes snapshots to the store.
type poller struct {
	engine   *engine.Engine
	registry *timers.Registry
	store    *state.Store
	health   *tailHealth
	clock    clock.Clock
}

// run refreshes the store at a fixed cadence until ctx is cancelled.
func (p *poller) run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = tickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p.refresh()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *poller) refresh() {
	p.engine.Tick()

	path, err := p.health.get()
	casting := ""
	if name, _, ok := p.engine.Pending(); ok {
		casting = name
	}
	p.store.SetSource(path, casting)
	p.store.SetTargets(p.registry.Targets())
	p.store.Update(p.registry.Snapshot(), p.clock.Now(), err)
}

// tailHealth carries the tailer's latest poll result to the poller.
type tailHealth struct {
	mu   sync.Mutex
	path string
	err  error
}

func (h *tailHealth) record(path string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.path = path
	h.err = err
}

func (h *tailHealth) get() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.path, h.err
}
