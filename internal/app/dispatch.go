package app

import (
	"github.com/five82/spelltimer/internal/engine"
	"github.com/five82/spelltimer/internal/logtail"
	"github.com/five82/spelltimer/internal/spells"
)

// dispatch feeds a tailer batch to the engine. Zone transitions are
// signalled before the line itself is handled so the loading banner also
// cancels any pending cast.
func dispatch(eng *engine.Engine, lines []logtail.Line) {
	for _, l := range lines {
		switch {
		case spells.IsZoning(l.Text):
			eng.Zoning(l.Time)
		case spells.IsZoneEntered(l.Text):
			eng.Zoned(l.Time)
		}
		eng.HandleLine(l.Time, l.Text)
	}
}
