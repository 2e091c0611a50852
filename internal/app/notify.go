package app

import (
	"go.uber.org/zap"

	"github.com/five82/spelltimer/internal/clock"
	"github.com/five82/spelltimer/internal/state"
	"github.com/five82/spelltimer/internal/timers"
)

// newNotifier turns registry events into console notices and log entries.
func newNotifier(store *state.Store, clk clock.Clock, logger *zap.Logger) timers.Observer {
	return timers.ObserverFunc(func(e timers.Event) {
		logger.Debug("timer event",
			zap.Stringer("kind", e.Kind),
			zap.Stringer("target", e.Target),
			zap.String("name", e.Name),
			zap.Duration("remaining", e.Remaining),
		)
		switch e.Kind {
		case timers.TimerWarning, timers.TimerExpired, timers.TimerDismissed:
			store.Notify(state.Notice{
				Time:   clk.Now(),
				Kind:   e.Kind,
				Target: e.Target,
				Name:   e.Name,
			})
		}
	})
}
