// Package ui renders the timer console with Bubble Tea.
//
// The console never touches the registry directly. A tick command pulls a
// state.Snapshot from the shared store every PollTick and the model renders
// it:
//
//   - header: followed log file, catalog size or load error, pending cast
//   - timer list: one group per target (You, Triggers, then named players)
//     with the remaining time per effect
//   - notices: the most recent warnings, expiries and dismissals
//   - footer: short key help and the active theme
//
// Rows are colored by state. Persistent timers frozen at zero are faint
// until dismissed, timers inside the warning threshold are bold, custom triggers
// use the info color, and other effects are green when beneficial and red
// otherwise. A paused timer carries a ‖ marker.
//
// Dismissing a row calls the Dismisser supplied in Options, usually the
// timer registry. Cycling the theme persists the choice to the prefs file
// while leaving the saved log bookmark untouched.
package ui
