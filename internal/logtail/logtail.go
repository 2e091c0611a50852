package logtail

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	// DefaultPattern matches EverQuest per-character log files.
	DefaultPattern = "eqlog_*_*.txt"
	// DefaultPollInterval is the fallback wake-up cadence.
	DefaultPollInterval = 250 * time.Millisecond
	// DefaultMaxBatch bounds the lines returned by one Poll.
	DefaultMaxBatch = 500

	// resyncWindow is how far back from EOF a newly active file is scanned
	// for the login banner.
	resyncWindow = 1000
	loginMarker  = "Welcome to EverQuest!"
)

// Line is one complete log line.
type Line struct {
	// Time is the wall-clock arrival time, not the embedded log timestamp.
	Time time.Time
	// Text is the line with the "[Wed Oct 17 12:34:56 2026] " prefix removed.
	Text string
	// Raw is the unmodified line without its line terminator.
	Raw string
}

// Bookmark records a read position for resuming after a restart.
type Bookmark struct {
	Path   string
	Offset int64
}

// Options configure a Tailer.
type Options struct {
	Dir          string
	Pattern      string
	PollInterval time.Duration
	MaxBatch     int
	// Resume, when its path is the first file observed, starts reading at
	// its offset instead of at end-of-file.
	Resume *Bookmark
	// Now overrides the arrival clock; nil uses time.Now.
	Now func() time.Time
	// OnPoll, when set, is called by Run after every poll round with the
	// followed file and the round's error.
	OnPoll func(path string, err error)
}

// Tailer follows the most recently written log file in a directory. Poll
// and Run must not be called concurrently.
type Tailer struct {
	opts    Options
	log     *zap.Logger
	path    string
	offset  int64
	offsets map[string]int64
	started bool
}

// New returns a Tailer for opts.
func New(opts Options, logger *zap.Logger) *Tailer {
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = DefaultMaxBatch
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tailer{opts: opts, log: logger, offsets: make(map[string]int64)}
}

// Path returns the file currently followed, or "" before the first match.
func (t *Tailer) Path() string { return t.path }

// Bookmark returns the current read position.
func (t *Tailer) Bookmark() Bookmark {
	return Bookmark{Path: t.path, Offset: t.offset}
}

// Poll returns the complete lines appended since the last call, at most
// MaxBatch of them. Errors are transient: state is left untouched so the
// next call retries.
func (t *Tailer) Poll() ([]Line, error) {
	active, err := t.activeFile()
	if err != nil {
		return nil, err
	}
	if active == "" {
		return nil, nil
	}

	var lines []Line
	if active != t.path {
		if t.path != "" {
			// Drain what the previous file received before the swap.
			drained, err := t.read(t.opts.MaxBatch)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			lines = append(lines, drained...)
			if len(lines) >= t.opts.MaxBatch {
				return lines, nil
			}
		}
		if err := t.switchTo(active); err != nil {
			return lines, err
		}
	}

	more, err := t.read(t.opts.MaxBatch - len(lines))
	lines = append(lines, more...)
	if err != nil {
		return lines, err
	}
	return lines, nil
}

// activeFile returns the most recently modified file matching the pattern.
func (t *Tailer) activeFile() (string, error) {
	matches, err := filepath.Glob(filepath.Join(t.opts.Dir, t.opts.Pattern))
	if err != nil {
		return "", fmt.Errorf("glob logs: %w", err)
	}
	var newest string
	var newestMod time.Time
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		mod := info.ModTime()
		// Ties keep the current file so a same-second write elsewhere does
		// not flap between characters.
		if newest == "" || mod.After(newestMod) || (mod.Equal(newestMod) && m == t.path) {
			newest, newestMod = m, mod
		}
	}
	return newest, nil
}

func (t *Tailer) switchTo(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	size := info.Size()

	var offset int64
	reason := ""
	switch prev, seen := t.offsets[path]; {
	case seen && prev <= size:
		offset, reason = prev, "returning"
	case !t.started && t.opts.Resume != nil && t.opts.Resume.Path == path && t.opts.Resume.Offset <= size:
		offset, reason = t.opts.Resume.Offset, "resume"
	case !t.started:
		offset, reason = size, "end"
	default:
		offset, err = resyncOffset(path, size)
		if err != nil {
			return err
		}
		reason = "resync"
	}

	if t.path != "" {
		t.offsets[t.path] = t.offset
	}
	t.log.Info("following log file",
		zap.String("path", path),
		zap.Int64("offset", offset),
		zap.Int64("size", size),
		zap.String("reason", reason),
	)
	t.path = path
	t.offset = offset
	t.started = true
	return nil
}

// resyncOffset finds the start of the last login banner within the final
// resyncWindow bytes of path, or returns size when there is none. Lines
// written before the window are skipped.
func resyncOffset(path string, size int64) (int64, error) {
	if size == 0 {
		return 0, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	start := size - resyncWindow
	if start < 0 {
		start = 0
	}
	buf := make([]byte, size-start)
	if _, err := file.ReadAt(buf, start); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	idx := bytes.LastIndex(buf, []byte(loginMarker))
	if idx < 0 {
		return size, nil
	}
	lineStart := bytes.LastIndexByte(buf[:idx], '\n') + 1
	if lineStart == 0 && start > 0 {
		// The banner line began before the window; skip the fragment.
		next := bytes.IndexByte(buf[idx:], '\n')
		if next < 0 {
			return size, nil
		}
		return start + int64(idx+next+1), nil
	}
	return start + int64(lineStart), nil
}

// read consumes up to limit complete lines from the current file. A
// trailing line without its newline is left for the next call.
func (t *Tailer) read(limit int) ([]Line, error) {
	if limit <= 0 || t.path == "" {
		return nil, nil
	}
	file, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}
	if info.Size() < t.offset {
		offset, err := resyncOffset(t.path, info.Size())
		if err != nil {
			return nil, err
		}
		t.log.Warn("log file truncated, resynchronising",
			zap.String("path", t.path),
			zap.Int64("old_offset", t.offset),
			zap.Int64("new_offset", offset),
		)
		t.offset = offset
	}
	if info.Size() == t.offset {
		return nil, nil
	}
	if _, err := file.Seek(t.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek log: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	now := t.opts.Now()
	var lines []Line
	for len(lines) < limit {
		chunk, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return lines, fmt.Errorf("read log: %w", err)
		}
		t.offset += int64(len(chunk))
		raw := strings.TrimRight(chunk, "\r\n")
		if raw == "" {
			continue
		}
		lines = append(lines, Line{Time: now, Text: StripTimestamp(raw), Raw: raw})
	}
	return lines, nil
}

// StripTimestamp removes the "[Wed Oct 17 12:34:56 2026] " prefix EverQuest
// writes in front of every line. Lines without it are returned unchanged.
func StripTimestamp(line string) string {
	if !strings.HasPrefix(line, "[") {
		return line
	}
	end := strings.Index(line, "] ")
	if end < 0 {
		return line
	}
	if _, err := time.Parse(LogTimestampLayout, line[1:end]); err != nil {
		return line
	}
	return line[end+2:]
}

// LogTimestampLayout is the layout of the embedded log timestamp.
const LogTimestampLayout = "Mon Jan 02 15:04:05 2006"

// Run polls until ctx is cancelled, calling handle with every non-empty
// batch. Directory change notifications trigger an immediate poll; the
// timer covers platforms or filesystems where notifications are missing.
// Failing polls back off exponentially up to maxBackoff.
func (t *Tailer) Run(ctx context.Context, handle func([]Line)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.log.Warn("file notifications unavailable, polling only", zap.Error(err))
		watcher = nil
	} else {
		defer watcher.Close()
		if err := watcher.Add(t.opts.Dir); err != nil {
			t.log.Warn("cannot watch log directory, polling only", zap.String("dir", t.opts.Dir), zap.Error(err))
		}
	}

	var events <-chan fsnotify.Event
	var errs <-chan error
	if watcher != nil {
		events = watcher.Events
		errs = watcher.Errors
	}

	wake := time.NewTimer(t.opts.PollInterval)
	defer wake.Stop()

	var lastErr string
	failures := 0
	for {
		var err error
		for {
			var lines []Line
			lines, err = t.Poll()
			if len(lines) > 0 {
				handle(lines)
			}
			if err != nil {
				break
			}
			// A full batch means more may be waiting.
			if len(lines) < t.opts.MaxBatch {
				break
			}
			if ctx.Err() != nil {
				return nil
			}
		}
		if t.opts.OnPoll != nil {
			t.opts.OnPoll(t.path, err)
		}

		delay := t.opts.PollInterval
		if err != nil {
			failures++
			delay = calculateBackoff(failures, t.opts.PollInterval)
			if err.Error() != lastErr {
				t.log.Warn("log poll failed", zap.Error(err), zap.Duration("retry_in", delay))
				lastErr = err.Error()
			}
		} else {
			failures = 0
			lastErr = ""
		}
		wake.Reset(delay)

		select {
		case <-ctx.Done():
			return nil
		case <-wake.C:
		case _, ok := <-events:
			if !ok {
				events = nil
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
			} else {
				t.log.Warn("file watcher error", zap.Error(err))
			}
		}
	}
}
