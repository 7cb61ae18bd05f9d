package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchlab/pitchlab/internal/session"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func rec(id, user string, score int, at time.Time) session.Record {
	return session.Record{
		ID:         id,
		UserID:     user,
		Score:      score,
		CreatedAt:  at,
		Difficulty: session.DifficultyMedium,
	}
}

var t0 = time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC)

func TestInsertAndGetSession(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	r := rec("a", "alice", 72, t0.In(time.FixedZone("CET", 3600)))
	r.Criteria = &session.CriteriaScores{Accroche: 80, Ecoute: 70, Objections: 55, Clarte: 90, Conclusion: 65}
	r.RecurrentErrors = []string{"monologue", "pas de question ouverte", "monologue"}
	r.Scenario = "Prospect pressé"
	r.DurationSeconds = 420
	require.NoError(t, db.InsertSession(ctx, r))

	got, err := db.GetSession(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, 72, got.Score)
	require.NotNil(t, got.Criteria)
	assert.Equal(t, *r.Criteria, *got.Criteria)
	assert.Equal(t, r.RecurrentErrors, got.RecurrentErrors)
	assert.True(t, got.CreatedAt.Equal(t0))
	assert.Equal(t, session.DifficultyMedium, got.Difficulty)
	assert.Equal(t, "Prospect pressé", got.Scenario)
	assert.Equal(t, 420, got.DurationSeconds)
}

func TestInsertSession_NoCriteria(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertSession(ctx, rec("a", "", 40, t0)))
	got, err := db.GetSession(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got.Criteria)
	assert.Empty(t, got.RecurrentErrors)
}

func TestInsertSession_Duplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertSession(ctx, rec("a", "", 40, t0)))
	assert.Error(t, db.InsertSession(ctx, rec("a", "", 50, t0)))
}

func TestGetSession_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetSession(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListSessions_OrderAndScope(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	late := rec("late", "alice", 90, t0.Add(48*time.Hour))
	late.RecurrentErrors = []string{"x", "y"}
	early := rec("early", "alice", 50, t0)
	early.RecurrentErrors = []string{"z"}
	// Sub-second offsets must still sort correctly.
	mid := rec("mid", "alice", 70, t0.Add(500*time.Millisecond))
	other := rec("other", "bob", 10, t0.Add(time.Hour))

	for _, r := range []session.Record{late, early, mid, other} {
		require.NoError(t, db.InsertSession(ctx, r))
	}

	got, err := db.ListSessions(ctx, Scope{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "early", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.Equal(t, "late", got[2].ID)
	assert.Equal(t, []string{"z"}, got[0].RecurrentErrors)
	assert.Empty(t, got[1].RecurrentErrors)
	assert.Equal(t, []string{"x", "y"}, got[2].RecurrentErrors)

	all, err := db.ListSessions(ctx, Scope{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	n, err := db.CountSessions(ctx, Scope{UserID: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListSessions_Empty(t *testing.T) {
	db := newTestDB(t)
	got, err := db.ListSessions(context.Background(), Scope{UserID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpsertSessions_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	batch := []session.Record{rec("a", "u", 40, t0), rec("b", "u", 60, t0.Add(time.Hour))}
	batch[0].RecurrentErrors = []string{"one"}

	res, err := db.UpsertSessions(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Inserted: 2}, res)

	batch[0].Score = 45
	batch[0].RecurrentErrors = []string{"two", "three"}
	res, err = db.UpsertSessions(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Updated: 2}, res)

	got, err := db.ListSessions(ctx, Scope{UserID: "u"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 45, got[0].Score)
	assert.Equal(t, []string{"two", "three"}, got[0].RecurrentErrors)
}

func TestUpsertSessions_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bad := rec("bad", "u", 140, t0)
	_, err := db.UpsertSessions(ctx, []session.Record{rec("ok", "u", 40, t0), bad})
	require.Error(t, err)

	n, err := db.CountSessions(ctx, Scope{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDeleteSession(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	r := rec("a", "", 40, t0)
	r.RecurrentErrors = []string{"tag"}
	require.NoError(t, db.InsertSession(ctx, r))
	require.NoError(t, db.DeleteSession(ctx, "a"))

	_, err := db.GetSession(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteSession(ctx, "a"), ErrNotFound)

	var orphans int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM session_errors").Scan(&orphans))
	assert.Equal(t, 0, orphans)
}

func TestSnapshots(t *testing.T) {
	db := newTestDB(t)
	alice := Scope{UserID: "alice"}

	latest, err := db.GetLatestSnapshot(alice)
	require.NoError(t, err)
	assert.Nil(t, latest)

	first, err := db.CreateSnapshot(alice, "track", "dev")
	require.NoError(t, err)
	_, err = db.CreateSnapshot(Scope{UserID: "bob"}, "track", "dev")
	require.NoError(t, err)
	second, err := db.CreateSnapshot(alice, "track", "dev")
	require.NoError(t, err)

	require.NoError(t, db.InsertAggregateMetric(second, "last_score", 72, ""))
	require.NoError(t, db.InsertAggregateMetric(second, "criterion_objections", 55, "Objections"))

	latest, err = db.GetLatestSnapshot(alice)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second, latest.ID)
	assert.Equal(t, "alice", latest.UserID)

	prev, err := db.GetSnapshotN(alice, 2)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, first, prev.ID)

	none, err := db.GetSnapshotN(alice, 3)
	require.NoError(t, err)
	assert.Nil(t, none)

	recent, err := db.GetRecentSnapshots(alice, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, second, recent[0].ID)

	metrics, err := db.GetAggregateMetrics(second)
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.Equal(t, "last_score", metrics[0].MetricName)
	assert.Equal(t, "Objections", metrics[1].Detail)

	byID, err := db.GetSnapshot(first)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "track", byID.Command)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pitch.db")
	db, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())

	require.NoError(t, db.InsertSession(context.Background(), rec("a", "", 40, t0)))
	require.NoError(t, db.Close())

	// Reopening runs migrations again without touching data.
	db, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	n, err := db.CountSessions(context.Background(), Scope{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
