package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/spelltimer/internal/timers"
)

// maxNotices bounds the notice history kept for the console.
const maxNotices = 50

// Notice is a registry event worth showing to the player.
type Notice struct {
	Time   time.Time
	Kind   timers.EventKind
	Target timers.Target
	Name   string
}

// Text renders the notice as a single console line.
func (n Notice) Text() string {
	switch n.Kind {
	case timers.TimerWarning:
		return fmt.Sprintf("%s on %s is about to fade", n.Name, n.Target)
	case timers.TimerExpired:
		return fmt.Sprintf("%s on %s has faded", n.Name, n.Target)
	case timers.TimerDismissed:
		return fmt.Sprintf("%s on %s dismissed", n.Name, n.Target)
	case timers.TargetGroupRemoved:
		return fmt.Sprintf("no more timers on %s", n.Target)
	default:
		return fmt.Sprintf("%s on %s started", n.Name, n.Target)
	}
}

// Snapshot represents the latest data available to the console.
type Snapshot struct {
	Timers              []timers.Entry
	Targets             []timers.Target
	Now                 time.Time
	LogPath             string
	Casting             string
	Notices             []Notice
	CatalogSpells       int
	CatalogError        error
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive tailer poll failures
}

// LogUnavailable returns true when the log has been unreadable for multiple polls.
func (s Snapshot) LogUnavailable() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the timer list. When err is non-nil the error is recorded
// and the failure counter grows; a nil err resets it.
func (s *Store) Update(entries []timers.Entry, now time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Timers = cloneEntries(entries)
	s.snapshot.Now = now
	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// SetSource records the followed log file and the spell being cast.
func (s *Store) SetSource(logPath, casting string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LogPath = logPath
	s.snapshot.Casting = casting
}

// SetTargets records the targets owning at least one timer, in display order.
func (s *Store) SetTargets(targets []timers.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Targets = append([]timers.Target(nil), targets...)
}

// SetCatalog records the catalog size or its load failure.
func (s *Store) SetCatalog(spells int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.CatalogSpells = spells
	s.snapshot.CatalogError = err
}

// Notify appends a notice, dropping the oldest beyond maxNotices.
func (s *Store) Notify(n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Notices = append(s.snapshot.Notices, n)
	if extra := len(s.snapshot.Notices) - maxNotices; extra > 0 {
		s.snapshot.Notices = append([]Notice(nil), s.snapshot.Notices[extra:]...)
	}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Timers = cloneEntries(s.snapshot.Timers)
	if len(s.snapshot.Targets) > 0 {
		snap.Targets = append([]timers.Target(nil), s.snapshot.Targets...)
	}
	if len(s.snapshot.Notices) > 0 {
		snap.Notices = append([]Notice(nil), s.snapshot.Notices...)
	}
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneEntries(items []timers.Entry) []timers.Entry {
	if len(items) == 0 {
		return nil
	}
	dup := make([]timers.Entry, len(items))
	copy(dup, items)
	return dup
}
