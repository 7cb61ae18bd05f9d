package watcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchlab/pitchlab/internal/analyzer"
	"github.com/pitchlab/pitchlab/internal/session"
	"github.com/pitchlab/pitchlab/internal/store"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu       sync.Mutex
	sessions []session.Record
	err      error
}

func (f *fakeSource) ListSessions(_ context.Context, _ store.Scope) ([]session.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]session.Record, len(f.sessions))
	copy(out, f.sessions)
	return out, nil
}

func (f *fakeSource) add(recs ...session.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, recs...)
}

func mkSession(i, score int, crit *session.CriteriaScores, errs ...string) session.Record {
	return session.Record{
		ID:              fmt.Sprintf("s%d", i),
		Score:           score,
		Criteria:        crit,
		RecurrentErrors: errs,
		CreatedAt:       t0.Add(time.Duration(i) * time.Hour),
		Difficulty:      session.DifficultyMedium,
	}
}

func crit(a, e, o, c, k int) *session.CriteriaScores {
	return &session.CriteriaScores{Accroche: a, Ecoute: e, Objections: o, Clarte: c, Conclusion: k}
}

func newTestWatcher(src Source) *Watcher {
	w := New(src, store.Scope{}, analyzer.DefaultOptions(), "", 0, nil)
	w.now = func() time.Time { return t0.Add(24 * time.Hour) }
	return w
}

func titles(alerts []Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.Title
	}
	return out
}

func hasTitlePrefix(alerts []Alert, prefix string) bool {
	for _, a := range alerts {
		if strings.HasPrefix(a.Title, prefix) {
			return true
		}
	}
	return false
}

func TestCompare_IdenticalStates(t *testing.T) {
	src := &fakeSource{sessions: []session.Record{mkSession(1, 70, crit(70, 70, 70, 70, 70))}}
	w := newTestWatcher(src)

	a, err := w.Snapshot(context.Background())
	require.NoError(t, err)
	b, err := w.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Empty(t, Compare(a, b))
}

func TestCompare_NewSessionAndRecord(t *testing.T) {
	src := &fakeSource{sessions: []session.Record{mkSession(1, 60, nil)}}
	w := newTestWatcher(src)
	prev, err := w.Snapshot(context.Background())
	require.NoError(t, err)

	src.add(mkSession(2, 85, nil))
	curr, err := w.Snapshot(context.Background())
	require.NoError(t, err)

	alerts := Compare(prev, curr)
	assert.Contains(t, titles(alerts), "Session enregistrée")
	assert.Contains(t, titles(alerts), "Nouveau record")
	for _, a := range alerts {
		assert.Equal(t, curr.Timestamp, a.Time)
	}
}

func TestCompare_FirstSessionIsNotARecord(t *testing.T) {
	src := &fakeSource{}
	w := newTestWatcher(src)
	prev, err := w.Snapshot(context.Background())
	require.NoError(t, err)

	src.add(mkSession(1, 60, nil))
	curr, err := w.Snapshot(context.Background())
	require.NoError(t, err)

	alerts := Compare(prev, curr)
	assert.NotContains(t, titles(alerts), "Nouveau record")
	assert.Contains(t, titles(alerts), "Session enregistrée")
}

func TestCompare_ObjectionsWarningRaised(t *testing.T) {
	src := &fakeSource{sessions: []session.Record{mkSession(1, 70, crit(70, 70, 65, 70, 70))}}
	w := newTestWatcher(src)
	prev, err := w.Snapshot(context.Background())
	require.NoError(t, err)

	src.add(mkSession(2, 60, crit(70, 70, 40, 70, 70)))
	curr, err := w.Snapshot(context.Background())
	require.NoError(t, err)

	alerts := Compare(prev, curr)
	assert.Contains(t, titles(alerts), "Objections sous le seuil")
	assert.Equal(t, "warning", alerts[0].Level)
}

func TestCompare_NewFrequentError(t *testing.T) {
	src := &fakeSource{sessions: []session.Record{
		mkSession(1, 60, nil, "monologue"),
		mkSession(2, 60, nil, "jargon"),
	}}
	w := newTestWatcher(src)
	prev, err := w.Snapshot(context.Background())
	require.NoError(t, err)

	src.add(mkSession(3, 60, nil, "monologue"))
	curr, err := w.Snapshot(context.Background())
	require.NoError(t, err)

	alerts := Compare(prev, curr)
	assert.Contains(t, titles(alerts), "Erreur fréquente : monologue")
	assert.NotContains(t, titles(alerts), "Erreur fréquente : jargon")
}

func TestCompare_TrendFlips(t *testing.T) {
	src := &fakeSource{sessions: []session.Record{
		mkSession(1, 50, crit(50, 50, 70, 50, 50)),
		mkSession(2, 60, crit(60, 60, 70, 60, 60)),
		mkSession(3, 70, crit(70, 70, 70, 70, 70)),
	}}
	w := newTestWatcher(src)
	prev, err := w.Snapshot(context.Background())
	require.NoError(t, err)
	require.True(t, prev.Dashboard.Trend.IsImproving)

	src.add(mkSession(4, 40, crit(40, 40, 70, 40, 40)))
	curr, err := w.Snapshot(context.Background())
	require.NoError(t, err)

	alerts := Compare(prev, curr)
	assert.Contains(t, titles(alerts), "Progression interrompue")

	src.add(mkSession(5, 90, crit(90, 90, 90, 90, 90)))
	next, err := w.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Contains(t, titles(Compare(curr, next)), "Scores en progression")
}

func TestCompare_NewWeakestCriterion(t *testing.T) {
	src := &fakeSource{sessions: []session.Record{mkSession(1, 70, crit(50, 80, 80, 80, 80))}}
	w := newTestWatcher(src)
	prev, err := w.Snapshot(context.Background())
	require.NoError(t, err)

	src.add(mkSession(2, 70, crit(90, 80, 80, 30, 80)))
	curr, err := w.Snapshot(context.Background())
	require.NoError(t, err)

	alerts := Compare(prev, curr)
	assert.True(t, hasTitlePrefix(alerts, "Nouveau point faible : Clarté"), "alerts: %v", titles(alerts))
}

func TestCheck_DeduplicatesAlerts(t *testing.T) {
	src := &fakeSource{err: errors.New("database is locked")}
	w := newTestWatcher(src)

	first := w.Check(context.Background())
	require.Len(t, first, 1)
	assert.Equal(t, "Snapshot failed", first[0].Title)

	src.err = nil
	src.add(mkSession(1, 60, nil))
	w.previous = nil
	assert.Empty(t, w.Check(context.Background()), "no previous state means nothing to compare")

	src.add(mkSession(2, 90, nil))
	second := w.Check(context.Background())
	assert.Contains(t, titles(second), "Nouveau record")

	// Same data again: nothing new.
	assert.Empty(t, w.Check(context.Background()))
}

func TestRun_PollsWithoutFile(t *testing.T) {
	src := &fakeSource{sessions: []session.Record{mkSession(1, 60, nil)}}

	var mu sync.Mutex
	var got []Alert
	w := New(src, store.Scope{}, analyzer.DefaultOptions(), "", 0, func(a Alert) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, a)
	})
	w.PollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give Run time to take its initial snapshot.
	time.Sleep(30 * time.Millisecond)
	src.add(mkSession(2, 80, nil))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRun_ReactsToFileWrites(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "pitchlab.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o644))

	src := &fakeSource{sessions: []session.Record{mkSession(1, 60, nil)}}
	alerts := make(chan Alert, 10)
	w := New(src, store.Scope{}, analyzer.DefaultOptions(), dbPath, 20*time.Millisecond, func(a Alert) {
		alerts <- a
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	src.add(mkSession(2, 75, nil))
	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("y"), 0o644))

	select {
	case a := <-alerts:
		assert.NotEmpty(t, a.Title)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for alert after file write")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRun_InitialSnapshotError(t *testing.T) {
	w := newTestWatcher(&fakeSource{err: errors.New("boom")})
	err := w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial snapshot")
}

func TestNotifyFallback(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, notifyFallback(&buf, Alert{Level: "warning", Title: "T", Message: "M"}))
	assert.Equal(t, "[warning] T: M\n", buf.String())
}
