// Package watcher monitors the session database, recomputes the dashboard
// when it changes and emits alerts on notable shifts.
package watcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pitchlab/pitchlab/internal/analyzer"
	"github.com/pitchlab/pitchlab/internal/session"
	"github.com/pitchlab/pitchlab/internal/store"
)

// Source supplies the session history. *store.DB satisfies it.
type Source interface {
	ListSessions(ctx context.Context, scope store.Scope) ([]session.Record, error)
}

// WatchState captures the dashboard at one point in time.
type WatchState struct {
	Timestamp     time.Time
	SessionCount  int
	LastSessionID string
	BestScore     int
	Dashboard     analyzer.Dashboard

	sessions []session.Record
}

// Alert represents a notable event detected by the watcher.
type Alert struct {
	Level   string // "info", "warning", "critical"
	Title   string
	Message string
	Time    time.Time
}

// Watcher recomputes the dashboard whenever the database file changes and
// emits alerts for the differences.
type Watcher struct {
	source   Source
	scope    store.Scope
	opts     analyzer.Options
	dbPath   string
	debounce time.Duration

	// PollInterval drives checks when there is no file to watch, such as an
	// in-memory database.
	PollInterval time.Duration

	previous      *WatchState
	alertFn       func(Alert)     // callback for emitting alerts
	lastAlertKeys map[string]bool // dedup: suppress repeated identical alerts
	logger        *slog.Logger
	now           func() time.Time
}

// New creates a Watcher over source. dbPath is the SQLite file whose writes
// trigger a recheck; pass "" to poll instead.
func New(source Source, scope store.Scope, opts analyzer.Options, dbPath string, debounce time.Duration, alertFn func(Alert)) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		source:        source,
		scope:         scope,
		opts:          opts,
		dbPath:        dbPath,
		debounce:      debounce,
		PollInterval:  30 * time.Second,
		alertFn:       alertFn,
		lastAlertKeys: make(map[string]bool),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:           time.Now,
	}
}

// SetLogger routes diagnostic output to logger.
func (w *Watcher) SetLogger(logger *slog.Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// Run takes an initial snapshot, then rechecks after every burst of writes
// to the database file. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	initial, err := w.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}
	w.previous = initial

	if w.dbPath == "" {
		return w.poll(ctx)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	// SQLite in WAL mode writes to sibling -wal and -shm files, so the
	// directory is watched rather than the database file itself.
	dir := filepath.Dir(w.dbPath)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	base := filepath.Base(w.dbPath)
	w.logger.Debug("watching database", "dir", dir, "file", base, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "err", err)

		case <-timer.C:
			w.emit(w.Check(ctx))
		}
	}
}

func (w *Watcher) poll(ctx context.Context) error {
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.emit(w.Check(ctx))
		}
	}
}

func (w *Watcher) emit(alerts []Alert) {
	for _, a := range alerts {
		w.logger.Debug("alert", "level", a.Level, "title", a.Title)
		if w.alertFn != nil {
			w.alertFn(a)
		}
	}
}

// Check performs a single check cycle: takes a new snapshot, compares against
// the previous state, updates the previous state, and returns any alerts.
// Identical alerts are suppressed until the underlying data changes.
func (w *Watcher) Check(ctx context.Context) []Alert {
	curr, err := w.Snapshot(ctx)
	if err != nil {
		return []Alert{{
			Level:   "warning",
			Title:   "Snapshot failed",
			Message: fmt.Sprintf("Could not read session data: %v", err),
			Time:    w.now(),
		}}
	}

	var raw []Alert
	if w.previous != nil {
		raw = Compare(w.previous, curr)
	}

	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := a.Level + ":" + a.Title + ":" + a.Message
		currentKeys[key] = true
		if !w.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	w.lastAlertKeys = currentKeys

	w.previous = curr
	return alerts
}

// Snapshot loads the history and builds the dashboard for it.
func (w *Watcher) Snapshot(ctx context.Context) (*WatchState, error) {
	sessions, err := w.source.ListSessions(ctx, w.scope)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	now := w.now()
	state := &WatchState{
		Timestamp:    now,
		SessionCount: len(sessions),
		Dashboard:    analyzer.BuildDashboard(sessions, analyzer.Filter{}, now, w.opts),
		sessions:     analyzer.SortChronological(sessions),
	}
	for _, s := range sessions {
		if s.Score > state.BestScore {
			state.BestScore = s.Score
		}
	}
	if n := len(state.sessions); n > 0 {
		state.LastSessionID = state.sessions[n-1].ID
	}
	return state, nil
}
