// Package drive runs the closed control loop: it buffers the latest
// range scan, executes one preprocess/decide/clamp cycle per timer tick
// and forwards the clamped command to the configured sink.
package drive

import (
	"context"
	"sync"
	"time"

	"github.com/banshee-data/rover.pilot/internal/monitoring"
	"github.com/banshee-data/rover.pilot/internal/policy"
	"github.com/banshee-data/rover.pilot/internal/scan"
	"github.com/banshee-data/rover.pilot/internal/timeutil"
)

// CommandSink accepts one clamped command per control cycle. It must
// tolerate commands at up to the tick frequency, including repeats when
// the policy held a previous value.
type CommandSink interface {
	Publish(policy.Command) error
}

// CycleRecord captures everything one completed control cycle produced.
// Handed to the optional observer for telemetry and plotting.
type CycleRecord struct {
	Time     time.Time
	Tier     policy.Tier
	Snapshot scan.Snapshot
	Raw      policy.Command
	Clamped  policy.Command
}

// CycleObserver receives a record after each completed cycle. Observers
// run on the loop goroutine and must return quickly.
type CycleObserver interface {
	ObserveCycle(CycleRecord)
}

// State reports the loop's externally visible condition.
type State string

const (
	// StateInitializing means the loop is inside the startup delay or
	// has not yet received a scan; no commands are emitted.
	StateInitializing State = "initializing"
	// StateActive means the loop is emitting commands every tick.
	StateActive State = "active"
)

// Config wires a Driver. Preprocessor, Policy and Sink are required.
type Config struct {
	Preprocessor *scan.Preprocessor
	Policy       *policy.Avoider
	Limits       policy.Limits
	Sink         CommandSink
	Observer     CycleObserver // optional
	Clock        timeutil.Clock

	// TickPeriod is the control cycle period (default 1ms).
	TickPeriod time.Duration

	// StartupDelay suppresses all control output for this long after
	// RunLoop starts, letting sensors and actuators settle. Zero
	// disables the settle window.
	StartupDelay time.Duration
}

// Driver owns the latest-scan buffer and the control loop. Scan arrival
// is asynchronous to the tick: OnScan may be called from any goroutine
// while the loop reads the buffer, so the buffer is replaced wholesale
// under a mutex and a cycle never observes a torn scan.
type Driver struct {
	pre          *scan.Preprocessor
	policy       *policy.Avoider
	limits       policy.Limits
	sink         CommandSink
	observer     CycleObserver
	clock        timeutil.Clock
	tickPeriod   time.Duration
	startupDelay time.Duration

	mu           sync.Mutex
	latest       scan.Scan
	available    bool
	start        time.Time
	state        State
	lastCommand  policy.Command
	lastSnapshot scan.Snapshot
	lastTier     policy.Tier
	scans        uint64
	cycles       uint64
	invalidScans uint64
	loggedWait   bool
}

// NewDriver creates a Driver from the given configuration.
func NewDriver(cfg Config) *Driver {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = time.Millisecond
	}
	return &Driver{
		pre:          cfg.Preprocessor,
		policy:       cfg.Policy,
		limits:       cfg.Limits,
		sink:         cfg.Sink,
		observer:     cfg.Observer,
		clock:        cfg.Clock,
		tickPeriod:   cfg.TickPeriod,
		startupDelay: cfg.StartupDelay,
		state:        StateInitializing,
	}
}

// OnScan captures the most recent scan. The slice is copied so the
// caller may reuse its buffer; each scan supersedes the previous one
// wholesale.
func (d *Driver) OnScan(ranges []float64) {
	captured := make(scan.Scan, len(ranges))
	copy(captured, ranges)

	d.mu.Lock()
	d.latest = captured
	d.available = true
	d.scans++
	d.mu.Unlock()
}

// RunLoop drives control cycles at the configured tick period until the
// context is cancelled. Each tick runs to completion before the next is
// considered; ingestion stays concurrent but the loop itself is serial.
func (d *Driver) RunLoop(ctx context.Context) error {
	d.mu.Lock()
	d.start = d.clock.Now()
	d.mu.Unlock()

	monitoring.Logf("control loop started (tick %s, startup delay %s)", d.tickPeriod, d.startupDelay)

	ticker := d.clock.NewTicker(d.tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("control loop stopping: %v", ctx.Err())
			return ctx.Err()
		case now := <-ticker.C():
			d.step(now)
		}
	}
}

// step executes one control cycle at the tick time. Not exported; tests
// reach it through the package export shim.
func (d *Driver) step(now time.Time) {
	d.mu.Lock()

	if now.Sub(d.start) < d.startupDelay {
		d.state = StateInitializing
		if !d.loggedWait {
			monitoring.Logf("initializing: settling for %s before control output", d.startupDelay)
			d.loggedWait = true
		}
		d.mu.Unlock()
		return
	}

	if !d.available {
		d.state = StateInitializing
		d.loggedWait = false
		d.mu.Unlock()
		return
	}
	captured := d.latest
	d.loggedWait = false
	d.mu.Unlock()

	snap, err := d.pre.Preprocess(captured)
	if err != nil {
		// Fatal to this cycle only: hold the previous command and let
		// the next tick pick up a fresh scan.
		d.mu.Lock()
		d.invalidScans++
		d.mu.Unlock()
		monitoring.Logf("holding previous command, scan rejected: %v", err)
		return
	}

	tstamp := float64(now.UnixNano()) / float64(time.Second)
	raw, tier := d.policy.Decide(snap, tstamp)
	clamped := d.limits.Clamp(raw)

	if err := d.sink.Publish(clamped); err != nil {
		monitoring.Logf("failed to publish command: %v", err)
	}

	d.mu.Lock()
	d.state = StateActive
	d.lastCommand = clamped
	d.lastSnapshot = snap
	d.lastTier = tier
	d.cycles++
	d.mu.Unlock()

	if d.observer != nil {
		d.observer.ObserveCycle(CycleRecord{
			Time:     now,
			Tier:     tier,
			Snapshot: snap,
			Raw:      raw,
			Clamped:  clamped,
		})
	}
}

// Status is a point-in-time view of the loop for the monitor surface.
type Status struct {
	State         State          `json:"state"`
	Tier          string         `json:"tier"`
	Command       policy.Command `json:"command"`
	Snapshot      scan.Snapshot  `json:"snapshot"`
	ScansReceived uint64         `json:"scans_received"`
	CyclesRun     uint64         `json:"cycles_run"`
	InvalidScans  uint64         `json:"invalid_scans"`
	Uptime        float64        `json:"uptime_seconds"`
}

// Status reports the loop state. Safe to call from any goroutine.
func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	var uptime float64
	if !d.start.IsZero() {
		uptime = d.clock.Since(d.start).Seconds()
	}

	s := Status{
		State:         d.state,
		Command:       d.lastCommand,
		Snapshot:      d.lastSnapshot,
		ScansReceived: d.scans,
		CyclesRun:     d.cycles,
		InvalidScans:  d.invalidScans,
		Uptime:        uptime,
	}
	if d.state == StateActive {
		s.Tier = d.lastTier.String()
	}
	return s
}
