package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pitchlab/pitchlab/internal/session"
)

// timeLayout is fixed width so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const sessionColumns = `id, user_id, score, accroche, ecoute, objections, clarte, conclusion,
	created_at, difficulty, scenario, duration_seconds`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows written by hand may use plain RFC 3339.
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	return t, err
}

func criteriaArgs(c *session.CriteriaScores) []any {
	if c == nil {
		return []any{nil, nil, nil, nil, nil}
	}
	return []any{c.Accroche, c.Ecoute, c.Objections, c.Clarte, c.Conclusion}
}

func sessionArgs(rec session.Record) []any {
	args := []any{rec.ID, rec.UserID, rec.Score}
	args = append(args, criteriaArgs(rec.Criteria)...)
	return append(args,
		formatTime(rec.CreatedAt), string(rec.Difficulty), rec.Scenario, rec.DurationSeconds,
	)
}

func writeErrors(ctx context.Context, ex execer, id string, tags []string) error {
	if _, err := ex.ExecContext(ctx, "DELETE FROM session_errors WHERE session_id = ?", id); err != nil {
		return err
	}
	for i, tag := range tags {
		if _, err := ex.ExecContext(ctx,
			"INSERT INTO session_errors (session_id, position, tag) VALUES (?, ?, ?)",
			id, i, tag,
		); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a new session. Inserting an ID that already exists
// is an error.
func (db *DB) InsertSession(ctx context.Context, rec session.Record) error {
	if rec.ID == "" {
		return errors.New("inserting session: empty id")
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO sessions ("+sessionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		sessionArgs(rec)...,
	); err != nil {
		return fmt.Errorf("inserting session %s: %w", rec.ID, err)
	}
	if err := writeErrors(ctx, tx, rec.ID, rec.RecurrentErrors); err != nil {
		return fmt.Errorf("inserting errors for %s: %w", rec.ID, err)
	}
	return tx.Commit()
}

// UpsertSessions stores records in one transaction, replacing any session
// with the same ID. Importing the same file twice leaves the table unchanged.
func (db *DB) UpsertSessions(ctx context.Context, recs []session.Record) (ImportResult, error) {
	var res ImportResult

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range recs {
		if rec.ID == "" {
			return ImportResult{}, errors.New("upserting session: empty id")
		}

		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM sessions WHERE id = ?", rec.ID).Scan(&exists)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			res.Inserted++
		case err != nil:
			return ImportResult{}, fmt.Errorf("checking session %s: %w", rec.ID, err)
		default:
			res.Updated++
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sessions ("+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				user_id = excluded.user_id,
				score = excluded.score,
				accroche = excluded.accroche,
				ecoute = excluded.ecoute,
				objections = excluded.objections,
				clarte = excluded.clarte,
				conclusion = excluded.conclusion,
				created_at = excluded.created_at,
				difficulty = excluded.difficulty,
				scenario = excluded.scenario,
				duration_seconds = excluded.duration_seconds`,
			sessionArgs(rec)...,
		); err != nil {
			return ImportResult{}, fmt.Errorf("upserting session %s: %w", rec.ID, err)
		}
		if err := writeErrors(ctx, tx, rec.ID, rec.RecurrentErrors); err != nil {
			return ImportResult{}, fmt.Errorf("writing errors for %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (session.Record, error) {
	var (
		rec        session.Record
		crit       [5]sql.NullInt64
		createdAt  string
		difficulty string
		scenario   sql.NullString
	)
	if err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Score,
		&crit[0], &crit[1], &crit[2], &crit[3], &crit[4],
		&createdAt, &difficulty, &scenario, &rec.DurationSeconds,
	); err != nil {
		return rec, err
	}

	if crit[0].Valid {
		rec.Criteria = &session.CriteriaScores{}
		for i, c := range session.AllCriteria {
			rec.Criteria.Set(c, int(crit[i].Int64))
		}
	}

	t, err := parseTime(createdAt)
	if err != nil {
		return rec, fmt.Errorf("session %s: bad created_at %q: %w", rec.ID, createdAt, err)
	}
	rec.CreatedAt = t
	rec.Difficulty = session.Difficulty(difficulty)
	rec.Scenario = scenario.String
	return rec, nil
}

// ListSessions returns every session in scope ordered by creation time.
func (db *DB) ListSessions(ctx context.Context, scope Scope) ([]session.Record, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+sessionColumns+` FROM sessions
		WHERE (? = '' OR user_id = ?)
		ORDER BY created_at ASC, id ASC`,
		scope.UserID, scope.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	var recs []session.Record
	index := make(map[string]int)
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		index[rec.ID] = len(recs)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return recs, nil
	}

	// The first result set is closed before this query runs, so a single
	// connection pool does not deadlock.
	errRows, err := db.conn.QueryContext(ctx,
		`SELECT e.session_id, e.tag FROM session_errors e
		JOIN sessions s ON s.id = e.session_id
		WHERE (? = '' OR s.user_id = ?)
		ORDER BY e.session_id, e.position`,
		scope.UserID, scope.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing session errors: %w", err)
	}
	defer func() { _ = errRows.Close() }()

	for errRows.Next() {
		var id, tag string
		if err := errRows.Scan(&id, &tag); err != nil {
			return nil, err
		}
		if i, ok := index[id]; ok {
			recs[i].RecurrentErrors = append(recs[i].RecurrentErrors, tag)
		}
	}
	return recs, errRows.Err()
}

// GetSession returns one session by ID, or ErrNotFound.
func (db *DB) GetSession(ctx context.Context, id string) (session.Record, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id)
	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Record{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return session.Record{}, err
	}

	rows, err := db.conn.QueryContext(ctx,
		"SELECT tag FROM session_errors WHERE session_id = ? ORDER BY position", id,
	)
	if err != nil {
		return session.Record{}, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return session.Record{}, err
		}
		rec.RecurrentErrors = append(rec.RecurrentErrors, tag)
	}
	return rec, rows.Err()
}

// DeleteSession removes a session and its error tags.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// foreign_keys is a per-connection pragma, so the cascade is not relied on.
	if _, err := tx.ExecContext(ctx, "DELETE FROM session_errors WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("deleting errors for %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// CountSessions returns the number of sessions in scope.
func (db *DB) CountSessions(ctx context.Context, scope Scope) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE (? = '' OR user_id = ?)",
		scope.UserID, scope.UserID,
	).Scan(&n)
	return n, err
}
