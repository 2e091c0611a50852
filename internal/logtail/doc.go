// Package logtail follows the EverQuest log directory and emits newly
// appended lines.
//
// # Overview
//
// EverQuest writes one log per character (eqlog_<name>_<server>.txt) and
// only the character currently logged in receives new lines. The Tailer
// treats the most recently modified matching file as active and reads it
// incrementally from a byte offset, so every complete line is delivered
// once and in order while the same file stays active.
//
// # Starting Position
//
// The first file observed is read from end-of-file: history is not
// replayed. A Bookmark passed in Options.Resume overrides that when it
// names the same file, which lets the application continue where it left
// off after a restart.
//
// # File Swaps
//
// When another file becomes active (a different character logged in) the
// previous file is drained to EOF first. The new file then starts at:
//
//  1. the offset remembered for it, if it was followed earlier in this run;
//  2. otherwise the start of the last "Welcome to EverQuest!" line found in
//     its final 1000 bytes;
//  3. otherwise end-of-file.
//
// Cases 2 and 3 are best effort. Lines written to the new file before the
// scan window, or before a login banner that fell outside it, are skipped.
// Delivery across a swap is therefore at-most-once, never duplicated. A
// truncated file is resynchronised the same way.
//
// # Errors
//
// Open, stat and read failures are returned from Poll without changing the
// read position; the next poll retries. Run logs them once per distinct
// message and keeps going.
//
// # Waking Up
//
// Run combines fsnotify directory events with a poll ticker. Either alone
// is enough; notifications only shorten latency.
package logtail
