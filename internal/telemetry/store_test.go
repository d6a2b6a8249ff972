package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rover.pilot/internal/drive"
	"github.com/banshee-data/rover.pilot/internal/policy"
	"github.com/banshee-data/rover.pilot/internal/scan"
)

func testRecord(at time.Time, tier policy.Tier, linear float64) drive.CycleRecord {
	return drive.CycleRecord{
		Time: at,
		Tier: tier,
		Snapshot: scan.Snapshot{
			Front:        5.25,
			ObliqueLeft:  3.5,
			ObliqueRight: 3.5,
			Left:         2.0,
			Right:        1.0,
		},
		Raw:     policy.Command{Linear: linear + 1, Angular: 0.4},
		Clamped: policy.Command{Linear: linear, Angular: 0.4},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "telemetry.db"))
	require.NoError(t, err)
	defer s.Close()

	assert.NotEmpty(t, s.RunID())

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordCycle(testRecord(base, policy.TierClear, 0.2)))
	require.NoError(t, s.RecordCycle(testRecord(base.Add(time.Millisecond), policy.TierCaution, 0.1)))
	require.NoError(t, s.RecordCycle(testRecord(base.Add(2*time.Millisecond), policy.TierCollision, 0.005)))

	rows, err := s.RecentCycles(10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Chronological order.
	assert.Equal(t, "clear", rows[0].Tier)
	assert.Equal(t, "caution", rows[1].Tier)
	assert.Equal(t, "collision", rows[2].Tier)
	assert.Equal(t, base.UnixNano(), rows[0].Time.UnixNano())
	assert.Equal(t, 0.2, rows[0].Linear)
	assert.Equal(t, 1.2, rows[0].RawLinear)
	assert.Equal(t, 3.5, rows[0].ObliqueLeft)
}

func TestRecentCyclesLimit(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "telemetry.db"))
	require.NoError(t, err)
	defer s.Close()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordCycle(testRecord(base.Add(time.Duration(i)*time.Millisecond), policy.TierClear, 0.2)))
	}

	rows, err := s.RecentCycles(2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// The two newest, still chronological.
	assert.Equal(t, base.Add(3*time.Millisecond).UnixNano(), rows[0].Time.UnixNano())
	assert.Equal(t, base.Add(4*time.Millisecond).UnixNano(), rows[1].Time.UnixNano())
}

func TestCyclesAreScopedToRun(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "telemetry.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.RecordCycle(testRecord(time.Now(), policy.TierClear, 0.2)))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()
	assert.NotEqual(t, first.RunID(), second.RunID())

	rows, err := second.RecentCycles(10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRecordConfig(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "telemetry.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.RecordConfig(map[string]float64{"max_range": 3.5}))

	var got string
	require.NoError(t, s.QueryRow(`SELECT config FROM runs WHERE run_id = ?`, s.RunID()).Scan(&got))
	assert.JSONEq(t, `{"max_range": 3.5}`, got)
}

func TestMigrations(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	migrations := filepath.Join(dir, "migrations")
	require.NoError(t, os.MkdirAll(migrations, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(migrations, "000001_add_test_index.up.sql"),
		[]byte("CREATE INDEX IF NOT EXISTS idx_cycles_test ON cycles (run_id);"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(migrations, "000001_add_test_index.down.sql"),
		[]byte("DROP INDEX IF EXISTS idx_cycles_test;"), 0o644))

	s, err := Open(filepath.Join(dir, "telemetry.db"))
	require.NoError(t, err)
	defer s.Close()

	version, dirty, err := s.MigrateVersion(migrations)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Zero(t, version)

	require.NoError(t, s.MigrateUp(migrations))

	version, dirty, err = s.MigrateVersion(migrations)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	// Re-running is a no-op.
	require.NoError(t, s.MigrateUp(migrations))
}

func TestObserveCycleSwallowsErrors(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "telemetry.db"))
	require.NoError(t, err)
	// Close the database so the insert fails; the observer must not
	// panic or propagate.
	require.NoError(t, s.Close())

	assert.NotPanics(t, func() {
		s.ObserveCycle(testRecord(time.Now(), policy.TierClear, 0.2))
	})
}
