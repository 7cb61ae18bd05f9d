package store

import (
	"database/sql"
	"time"
)

const snapshotColumns = "id, user_id, taken_at, command, version"

// CreateSnapshot inserts a new snapshot for the scope's user and returns its ID.
func (db *DB) CreateSnapshot(scope Scope, command, version string) (int64, error) {
	result, err := db.conn.Exec(
		"INSERT INTO snapshots (user_id, taken_at, command, version) VALUES (?, ?, ?, ?)",
		scope.UserID, formatTime(time.Now()), command, version,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetLatestSnapshot returns the most recent snapshot in scope, or nil if none exist.
func (db *DB) GetLatestSnapshot(scope Scope) (*Snapshot, error) {
	return db.GetSnapshotN(scope, 1)
}

// GetSnapshot returns a snapshot by ID, or nil if it does not exist.
func (db *DB) GetSnapshot(id int64) (*Snapshot, error) {
	row := db.conn.QueryRow("SELECT "+snapshotColumns+" FROM snapshots WHERE id = ?", id)
	return scanSnapshot(row)
}

// GetSnapshotN returns the Nth most recent snapshot (1 = latest, 2 = previous, etc.).
func (db *DB) GetSnapshotN(scope Scope, n int) (*Snapshot, error) {
	if n < 1 {
		return nil, nil
	}
	row := db.conn.QueryRow(
		"SELECT "+snapshotColumns+` FROM snapshots
		WHERE (? = '' OR user_id = ?)
		ORDER BY id DESC LIMIT 1 OFFSET ?`,
		scope.UserID, scope.UserID, n-1,
	)
	return scanSnapshot(row)
}

// GetRecentSnapshots returns up to limit snapshots in scope, newest first.
func (db *DB) GetRecentSnapshots(scope Scope, limit int) ([]Snapshot, error) {
	rows, err := db.conn.Query(
		"SELECT "+snapshotColumns+` FROM snapshots
		WHERE (? = '' OR user_id = ?)
		ORDER BY id DESC LIMIT ?`,
		scope.UserID, scope.UserID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var snaps []Snapshot
	for rows.Next() {
		s, err := scanSnapshotRow(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	s, err := scanSnapshotRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSnapshotRow(row rowScanner) (Snapshot, error) {
	var s Snapshot
	var takenAt string
	if err := row.Scan(&s.ID, &s.UserID, &takenAt, &s.Command, &s.Version); err != nil {
		return s, err
	}
	s.TakenAt, _ = parseTime(takenAt)
	return s, nil
}

// InsertAggregateMetric inserts an aggregate metric for a snapshot.
func (db *DB) InsertAggregateMetric(snapshotID int64, name string, value float64, detail string) error {
	_, err := db.conn.Exec(
		"INSERT INTO aggregate_metrics (snapshot_id, metric_name, metric_value, detail) VALUES (?, ?, ?, ?)",
		snapshotID, name, value, detail,
	)
	return err
}

// GetAggregateMetrics returns all aggregate metrics for a snapshot in insertion order.
func (db *DB) GetAggregateMetrics(snapshotID int64) ([]AggregateMetric, error) {
	rows, err := db.conn.Query(
		"SELECT id, snapshot_id, metric_name, metric_value, detail FROM aggregate_metrics WHERE snapshot_id = ? ORDER BY id",
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var metrics []AggregateMetric
	for rows.Next() {
		var m AggregateMetric
		var detail sql.NullString
		if err := rows.Scan(&m.ID, &m.SnapshotID, &m.MetricName, &m.MetricValue, &detail); err != nil {
			return nil, err
		}
		m.Detail = detail.String
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}
