// Package state provides thread-safe state sharing between the timer loop
// and the console.
//
// # Overview
//
// The engine and timer registry live behind their own locks. The console
// never reads them directly: the tick loop copies the registry into a Store
// once per tick and the console renders whatever Snapshot returns. This
// keeps rendering off the line-handling path.
//
//	Producer (tick loop):          Consumer (console):
//	┌──────────────────────┐      ┌──────────────────┐
//	│ registry.Tick()      │      │                  │
//	│ registry.Snapshot()  │      │                  │
//	│      ↓               │      │                  │
//	│ store.Update()       │─────→│ store.Snapshot() │
//	│      ↓               │      │      ↓           │
//	│  repeat...           │      │  render          │
//	└──────────────────────┘      └──────────────────┘
//
// # Contents
//
//   - Timers: registry entries in display order, with Now as the reference
//     time for their remaining durations
//   - LogPath and Casting: the followed log file and the pending cast
//   - Notices: the last 50 warnings, expiries and dismissals
//   - CatalogSpells and CatalogError: spell catalog status
//   - LastError and ConsecutiveFailures: tailer health
//
// # Update Semantics
//
// Update always replaces the timer list, since the registry is the source of
// truth. The error argument only drives the failure counter; a nil error
// resets it. LogUnavailable reports two or more failures in a row.
//
// # Copying
//
// Snapshot clones slices and wraps LastError so callers can hold on to it
// without racing the next update. The zero Store is ready to use.
package state
