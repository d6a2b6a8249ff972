// Package policy implements the tiered obstacle-avoidance decision
// logic: given a clearance snapshot it selects one of three driving
// strategies and turns clearance errors into velocity targets through
// two independent PID channels.
package policy

import (
	"github.com/banshee-data/rover.pilot/internal/pid"
	"github.com/banshee-data/rover.pilot/internal/scan"
)

// Tier identifies the driving strategy selected for one control cycle.
// Tiers are mutually exclusive and evaluated collision-first.
type Tier int

const (
	// TierCollision means an oblique clearance is below the collision
	// threshold: crawl and steer hard away from the near obstacle.
	TierCollision Tier = iota
	// TierCaution means an oblique clearance sits between the collision
	// and caution thresholds: both axes run under PID control.
	TierCaution
	// TierClear means no obstacle is near: cruise at a fixed speed with
	// PID steering only.
	TierClear
)

func (t Tier) String() string {
	switch t {
	case TierCollision:
		return "collision"
	case TierCaution:
		return "caution"
	case TierClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Command is a velocity pair in m/s and rad/s. It is recomputed every
// cycle and owned by the cycle that produced it.
type Command struct {
	Linear  float64 `json:"linear"`
	Angular float64 `json:"angular"`
}

// Config holds the tier thresholds, fixed velocities and PID channel
// configurations. All values are injected; the decision logic carries no
// baked-in constants.
type Config struct {
	CollisionThreshold float64 // oblique clearance below this is collision-imminent (default 0.5 m)
	CautionThreshold   float64 // oblique clearance below this is caution (default 1.0 m)

	CrawlVelocity  float64 // fixed linear velocity in the collision tier (default 0.005 m/s)
	CruiseVelocity float64 // fixed linear velocity in the clear tier (default 0.2 m/s)

	// CollisionSteerGain amplifies the lateral error in the collision
	// tier so the robot turns sharply away from the near obstacle
	// (default 16). Scaling is policy; the controller stays agnostic.
	CollisionSteerGain float64

	Lateral      pid.Config // steering channel gains
	Longitudinal pid.Config // speed channel gains
}

// DefaultConfig returns the tuned configuration for the reference robot.
func DefaultConfig() Config {
	return Config{
		CollisionThreshold: 0.5,
		CautionThreshold:   1.0,
		CrawlVelocity:      0.005,
		CruiseVelocity:     0.2,
		CollisionSteerGain: 16,
		Lateral:            pid.Config{KP: 0.22, KI: 0.01, KD: 0.3, Window: 10},
		Longitudinal:       pid.Config{KP: 0.11, KI: 0.001, KD: 0.01, Window: 10},
	}
}

// ClassifyTier selects the driving tier for a snapshot. It is a pure
// function of the clearances and the thresholds.
func ClassifyTier(snap scan.Snapshot, cfg Config) Tier {
	switch {
	case snap.ObliqueLeft < cfg.CollisionThreshold || snap.ObliqueRight < cfg.CollisionThreshold:
		return TierCollision
	case (snap.ObliqueLeft >= cfg.CollisionThreshold && snap.ObliqueLeft < cfg.CautionThreshold) ||
		(snap.ObliqueRight >= cfg.CollisionThreshold && snap.ObliqueRight < cfg.CautionThreshold):
		return TierCaution
	default:
		return TierClear
	}
}

// Avoider computes raw (pre-saturation) velocity commands from clearance
// snapshots. It owns the two PID channels and the per-channel
// carry-forward state; one Avoider serves one control loop and is not
// safe for concurrent use.
type Avoider struct {
	cfg Config
	lat *pid.Controller
	lon *pid.Controller

	// last holds the previous cycle's raw command. When a PID call
	// declines to produce output (non-advancing timestamp) the affected
	// channel holds this value rather than emitting zero.
	last Command
}

// NewAvoider creates an Avoider from the given configuration.
func NewAvoider(cfg Config) *Avoider {
	return &Avoider{
		cfg: cfg,
		lat: pid.New(cfg.Lateral),
		lon: pid.New(cfg.Longitudinal),
	}
}

// Decide selects the tier for the snapshot and computes the raw command
// at timestamp t (seconds). Both PID channels see the same timestamp for
// a given cycle. The returned command is pre-saturation; apply Limits
// before emission.
func (a *Avoider) Decide(snap scan.Snapshot, t float64) (Command, Tier) {
	steer := snap.Left - snap.Right
	tier := ClassifyTier(snap, a.cfg)

	var cmd Command
	switch tier {
	case TierCollision:
		cmd.Linear = a.cfg.CrawlVelocity
		cmd.Angular = a.lateral(a.cfg.CollisionSteerGain*steer, t)
	case TierCaution:
		cmd.Linear = a.longitudinal(snap.Front, t)
		cmd.Angular = a.lateral(steer, t)
	default:
		cmd.Linear = a.cfg.CruiseVelocity
		cmd.Angular = a.lateral(steer, t)
	}

	a.last = cmd
	return cmd, tier
}

// Reset clears both PID channels and the carry-forward state.
func (a *Avoider) Reset() {
	a.lat.Reset()
	a.lon.Reset()
	a.last = Command{}
}

func (a *Avoider) lateral(err, t float64) float64 {
	if u, ok := a.lat.Control(err, t); ok {
		return u
	}
	return a.last.Angular
}

func (a *Avoider) longitudinal(err, t float64) float64 {
	if u, ok := a.lon.Control(err, t); ok {
		return u
	}
	return a.last.Linear
}
