// Package telemetry persists per-cycle control data to a local sqlite
// database for post-run analysis and the monitor's charts.
package telemetry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/rover.pilot/internal/drive"
	"github.com/banshee-data/rover.pilot/internal/monitoring"
)

// Store records control cycles keyed by a per-process run ID. It is
// safe for use from the loop goroutine while readers query it.
type Store struct {
	*sql.DB
	runID string
}

// Open opens (or creates) the telemetry database at path, ensures the
// base schema and registers a new run.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			started_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			config            TEXT
		);
		CREATE TABLE IF NOT EXISTS cycles (
			run_id            TEXT,
			tick_unix_nanos   BIGINT,
			tier              TEXT,
			front             DOUBLE,
			oblique_left      DOUBLE,
			oblique_right     DOUBLE,
			side_left         DOUBLE,
			side_right        DOUBLE,
			raw_linear        DOUBLE,
			raw_angular       DOUBLE,
			linear            DOUBLE,
			angular           DOUBLE,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create telemetry schema: %w", err)
	}

	s := &Store{DB: db, runID: uuid.NewString()}
	if _, err := db.Exec(`INSERT INTO runs (run_id) VALUES (?)`, s.runID); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register run: %w", err)
	}
	return s, nil
}

// RunID returns this process's run identifier.
func (s *Store) RunID() string {
	return s.runID
}

// RecordConfig stores the effective tuning document for the run, so a
// recorded drive can be replayed against the exact configuration.
func (s *Store) RecordConfig(cfg interface{}) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config snapshot: %w", err)
	}
	if _, err := s.Exec(`UPDATE runs SET config = ? WHERE run_id = ?`, string(data), s.runID); err != nil {
		return fmt.Errorf("failed to record config snapshot: %w", err)
	}
	return nil
}

// RecordCycle inserts one cycle row.
func (s *Store) RecordCycle(rec drive.CycleRecord) error {
	_, err := s.Exec(`
		INSERT INTO cycles (
			run_id, tick_unix_nanos, tier,
			front, oblique_left, oblique_right, side_left, side_right,
			raw_linear, raw_angular, linear, angular
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, rec.Time.UnixNano(), rec.Tier.String(),
		rec.Snapshot.Front, rec.Snapshot.ObliqueLeft, rec.Snapshot.ObliqueRight,
		rec.Snapshot.Left, rec.Snapshot.Right,
		rec.Raw.Linear, rec.Raw.Angular, rec.Clamped.Linear, rec.Clamped.Angular,
	)
	if err != nil {
		return fmt.Errorf("failed to record cycle: %w", err)
	}
	return nil
}

// ObserveCycle implements drive.CycleObserver. Persistence failures are
// logged, never allowed to disturb the control loop.
func (s *Store) ObserveCycle(rec drive.CycleRecord) {
	if err := s.RecordCycle(rec); err != nil {
		monitoring.Logf("telemetry: %v", err)
	}
}

// CycleRow is one persisted control cycle.
type CycleRow struct {
	Time         time.Time
	Tier         string
	Front        float64
	ObliqueLeft  float64
	ObliqueRight float64
	Left         float64
	Right        float64
	RawLinear    float64
	RawAngular   float64
	Linear       float64
	Angular      float64
}

// RecentCycles returns up to n of this run's most recent cycles in
// chronological order.
func (s *Store) RecentCycles(n int) ([]CycleRow, error) {
	rows, err := s.Query(`
		SELECT tick_unix_nanos, tier,
			front, oblique_left, oblique_right, side_left, side_right,
			raw_linear, raw_angular, linear, angular
		FROM cycles
		WHERE run_id = ?
		ORDER BY tick_unix_nanos DESC
		LIMIT ?`, s.runID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	var out []CycleRow
	for rows.Next() {
		var r CycleRow
		var nanos int64
		if err := rows.Scan(&nanos, &r.Tier,
			&r.Front, &r.ObliqueLeft, &r.ObliqueRight, &r.Left, &r.Right,
			&r.RawLinear, &r.RawAngular, &r.Linear, &r.Angular); err != nil {
			return nil, fmt.Errorf("failed to scan cycle row: %w", err)
		}
		r.Time = time.Unix(0, nanos)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cycles: %w", err)
	}

	// Newest-first from the query; flip to chronological for plotting.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
