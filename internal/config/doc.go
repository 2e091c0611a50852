// Package config loads the spelltimer configuration.
//
// # Resolution Order
//
// Load builds a Config in layers:
//
//  1. built-in defaults (Defaults)
//  2. the TOML file, ~/.config/spelltimer/config.toml unless a path is given
//  3. SPELLTIMER_* environment variables
//
// A missing file is not an error. Blank string fields fall back to their
// defaults, except triggers_file where a blank value disables custom
// triggers.
//
// # TOML Format
//
//	log_dir = "~/EverQuest/Logs"
//	log_pattern = "eqlog_*_*.txt"
//	spells_file = "~/EverQuest/spells_us.txt"
//	triggers_file = "~/.config/spelltimer/triggers.toml"
//	state_dir = "~/.local/state/spelltimer"
//	level = 60
//	casting_window = true
//	casting_buffer_ms = 1000
//	use_secondary = ["Spirit of Wolf"]
//	use_secondary_all = false
//	item_triggers = false
//
// Every key has an environment twin: level becomes SPELLTIMER_LEVEL,
// use_secondary becomes SPELLTIMER_USE_SECONDARY (comma separated).
//
// # Validation
//
// The character level must lie in 1-65 and the log pattern must be a valid
// glob; violations wrap ErrInvalid. Non-positive poll or batch settings are
// replaced by defaults.
package config
