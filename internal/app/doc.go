// Package app is the composition root of spelltimer.
//
// # Overview
//
// Run wires configuration, the spell catalog, custom triggers, the timer
// registry, the engine, the log tailer and the console, then runs three
// loops under one errgroup until the user quits or the context is
// cancelled.
//
// # Startup
//
//  1. Load config.toml with environment overrides
//  2. Open the JSON log file in the state directory
//  3. Load preferences (theme and saved log bookmark)
//  4. Load the spell catalog; on failure record the error for the console
//     and continue with custom triggers only
//  5. Load and compile custom triggers
//  6. Build the registry, engine and tailer
//
// # Data Flow
//
//	┌──────────────┐  lines   ┌──────────────┐  upserts  ┌──────────────┐
//	│ tailer.Run() │─────────>│ dispatch()   │──────────>│ registry     │
//	└──────┬───────┘          │  engine      │           └──────┬───────┘
//	       │ OnPoll           └──────────────┘                  │ events
//	       v                                                    v
//	┌──────────────┐  Tick/Snapshot   ┌──────────────┐   ┌──────────────┐
//	│ tailHealth   │─────────────────>│ poller.run() │   │ notifier     │
//	└──────────────┘                  └──────┬───────┘   └──────┬───────┘
//	                                         │ Update           │ Notify
//	                                         v                  v
//	                                  ┌─────────────────────────────┐
//	                                  │ state.Store  -> ui.Run()    │
//	                                  └─────────────────────────────┘
//
// # Zoning
//
// dispatch recognises the loading banner and the "You have entered" line
// and calls Engine.Zoning and Engine.Zoned around the normal line handling,
// so the player's own timers are frozen while the zone loads.
//
// # Shutdown
//
// Leaving the console cancels the shared context. After all loops return
// the tailer position is written to the prefs file so the next start can
// resume from it when resume is enabled.
package app
