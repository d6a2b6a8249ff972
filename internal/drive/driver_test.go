package drive

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rover.pilot/internal/monitoring"
	"github.com/banshee-data/rover.pilot/internal/policy"
	"github.com/banshee-data/rover.pilot/internal/scan"
	"github.com/banshee-data/rover.pilot/internal/timeutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

// captureSink records every published command.
type captureSink struct {
	mu       sync.Mutex
	commands []policy.Command
}

func (s *captureSink) Publish(cmd policy.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
	return nil
}

func (s *captureSink) all() []policy.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]policy.Command(nil), s.commands...)
}

type captureObserver struct {
	mu      sync.Mutex
	records []CycleRecord
}

func (o *captureObserver) ObserveCycle(rec CycleRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, rec)
}

func uniformScan(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func newTestDriver(clock timeutil.Clock, sink CommandSink, obs CycleObserver, delay time.Duration) *Driver {
	return NewDriver(Config{
		Preprocessor: scan.NewPreprocessor(scan.Config{}),
		Policy:       policy.NewAvoider(policy.DefaultConfig()),
		Limits:       policy.DefaultLimits(),
		Sink:         sink,
		Observer:     obs,
		Clock:        clock,
		TickPeriod:   100 * time.Millisecond,
		StartupDelay: delay,
	})
}

var testEpoch = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestNoCommandBeforeFirstScan(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(testEpoch)
	sink := &captureSink{}
	d := newTestDriver(clock, sink, nil, 0)
	d.SetStart(testEpoch)

	d.Step(testEpoch.Add(100 * time.Millisecond))

	assert.Empty(t, sink.all())
	assert.Equal(t, StateInitializing, d.Status().State)
}

func TestStartupDelaySuppressesOutput(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(testEpoch)
	sink := &captureSink{}
	d := newTestDriver(clock, sink, nil, 4*time.Second)
	d.SetStart(testEpoch)

	// Data is available, but the settle window has not elapsed.
	d.OnScan(uniformScan(360, 3.5))
	d.Step(testEpoch.Add(time.Second))
	d.Step(testEpoch.Add(3999 * time.Millisecond))
	assert.Empty(t, sink.all())
	assert.Equal(t, StateInitializing, d.Status().State)

	// First tick at or after the delay produces a command.
	d.Step(testEpoch.Add(4 * time.Second))
	require.Len(t, sink.all(), 1)
	assert.Equal(t, StateActive, d.Status().State)
}

func TestClearScanEmitsCruiseCommands(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(testEpoch)
	sink := &captureSink{}
	obs := &captureObserver{}
	d := newTestDriver(clock, sink, obs, 0)
	d.SetStart(testEpoch)

	// Scenario: all samples at max range, ticks 100ms apart, no delay.
	d.OnScan(uniformScan(360, 3.5))
	for i := 0; i < 3; i++ {
		d.Step(testEpoch.Add(time.Duration(i) * 100 * time.Millisecond))
	}

	cmds := sink.all()
	require.Len(t, cmds, 3)
	for _, cmd := range cmds {
		assert.Equal(t, 0.2, cmd.Linear)
		assert.InDelta(t, 0.0, cmd.Angular, 1e-9)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Len(t, obs.records, 3)
	assert.Equal(t, policy.TierClear, obs.records[0].Tier)
	assert.InDelta(t, 3.5, obs.records[0].Snapshot.ObliqueLeft, 1e-9)

	st := d.Status()
	assert.Equal(t, "clear", st.Tier)
	assert.Equal(t, uint64(3), st.CyclesRun)
	assert.Equal(t, uint64(1), st.ScansReceived)
}

func TestCollisionScanCrawls(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(testEpoch)
	sink := &captureSink{}
	d := newTestDriver(clock, sink, nil, 0)
	d.SetStart(testEpoch)

	// Obstacle dead ahead on the left oblique.
	ranges := uniformScan(360, 3.5)
	for i := 0; i < 70; i++ {
		ranges[i] = 0.2
	}
	d.OnScan(ranges)
	d.Step(testEpoch.Add(100 * time.Millisecond))

	cmds := sink.all()
	require.Len(t, cmds, 1)
	assert.Equal(t, 0.005, cmds[0].Linear)
	assert.Equal(t, "collision", d.Status().Tier)
}

func TestInvalidScanHoldsPreviousCommand(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(testEpoch)
	sink := &captureSink{}
	d := newTestDriver(clock, sink, nil, 0)
	d.SetStart(testEpoch)

	d.OnScan(uniformScan(360, 3.5))
	d.Step(testEpoch.Add(100 * time.Millisecond))
	require.Len(t, sink.all(), 1)

	// A short scan is fatal to its cycle: nothing new is published and
	// the loop keeps going.
	d.OnScan(uniformScan(12, 1.0))
	d.Step(testEpoch.Add(200 * time.Millisecond))
	assert.Len(t, sink.all(), 1)
	assert.Equal(t, uint64(1), d.Status().InvalidScans)

	// The next good scan recovers on the following tick.
	d.OnScan(uniformScan(360, 3.5))
	d.Step(testEpoch.Add(300 * time.Millisecond))
	assert.Len(t, sink.all(), 2)
}

func TestLatestScanSupersedesWholesale(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(testEpoch)
	sink := &captureSink{}
	d := newTestDriver(clock, sink, nil, 0)
	d.SetStart(testEpoch)

	// An older clear scan is superseded by a collision scan before the
	// tick fires; only the newest scan drives the cycle.
	d.OnScan(uniformScan(360, 3.5))
	near := uniformScan(360, 3.5)
	for i := 290; i < 360; i++ {
		near[i] = 0.1
	}
	d.OnScan(near)

	d.Step(testEpoch.Add(100 * time.Millisecond))
	cmds := sink.all()
	require.Len(t, cmds, 1)
	assert.Equal(t, 0.005, cmds[0].Linear)
}

func TestOnScanCopiesCallerBuffer(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(testEpoch)
	sink := &captureSink{}
	d := newTestDriver(clock, sink, nil, 0)
	d.SetStart(testEpoch)

	buf := uniformScan(360, 3.5)
	d.OnScan(buf)
	// The feed reuses its buffer; the captured scan must not change.
	for i := range buf {
		buf[i] = 0.01
	}

	d.Step(testEpoch.Add(100 * time.Millisecond))
	cmds := sink.all()
	require.Len(t, cmds, 1)
	assert.Equal(t, 0.2, cmds[0].Linear)
}

func TestRunLoopTicksAndStops(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(testEpoch)
	sink := &captureSink{}
	d := newTestDriver(clock, sink, nil, 0)
	d.OnScan(uniformScan(360, 3.5))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.RunLoop(ctx) }()

	require.Eventually(t, func() bool {
		clock.Advance(100 * time.Millisecond)
		return len(sink.all()) > 0
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("RunLoop did not stop on cancellation")
	}
}

func TestAngularCommandIsClamped(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(testEpoch)
	sink := &captureSink{}
	obs := &captureObserver{}
	d := newTestDriver(clock, sink, obs, 0)
	d.SetStart(testEpoch)

	// A hard left/right imbalance in the collision tier drives the
	// amplified steering error far past the actuation cap.
	ranges := uniformScan(360, 3.5)
	for i := 0; i < 70; i++ {
		ranges[i] = 0.1 // collision on the left oblique
	}
	for i := 275; i < 330; i++ {
		ranges[i] = 0.1 // right side close: steer error 16*(left-right) is large
	}
	d.OnScan(ranges)
	d.Step(testEpoch.Add(100 * time.Millisecond))

	cmds := sink.all()
	require.Len(t, cmds, 1)
	assert.Equal(t, 2.84, cmds[0].Angular)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Len(t, obs.records, 1)
	assert.Greater(t, obs.records[0].Raw.Angular, 2.84)
}
