// Package config defines the external tuning surface of the controller.
// Every threshold, gain and period the control logic consumes lives
// here; nothing is baked into the policy or controller packages.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Tuning is the root tuning document. Fields are pointers so a partial
// JSON file can override only the values it names; merge it over
// Defaults() before use. Duration fields use Go duration strings
// ("4s", "1ms").
type Tuning struct {
	// Ranging
	MaxRange    *float64 `json:"max_range,omitempty"`
	ScanSamples *int     `json:"scan_samples,omitempty"`

	// Sector geometry (degrees)
	FrontWidthDeg   *float64 `json:"front_width_deg,omitempty"`
	ObliqueWidthDeg *float64 `json:"oblique_width_deg,omitempty"`
	SideWidthDeg    *float64 `json:"side_width_deg,omitempty"`
	SideOffsetDeg   *float64 `json:"side_offset_deg,omitempty"`

	// Tier thresholds and fixed velocities
	CollisionThreshold *float64 `json:"collision_threshold,omitempty"`
	CautionThreshold   *float64 `json:"caution_threshold,omitempty"`
	CrawlVelocity      *float64 `json:"crawl_velocity,omitempty"`
	CruiseVelocity     *float64 `json:"cruise_velocity,omitempty"`
	CollisionSteerGain *float64 `json:"collision_steer_gain,omitempty"`

	// Lateral (steering) PID channel
	LateralKP     *float64 `json:"lateral_kp,omitempty"`
	LateralKI     *float64 `json:"lateral_ki,omitempty"`
	LateralKD     *float64 `json:"lateral_kd,omitempty"`
	LateralWindow *int     `json:"lateral_window,omitempty"`

	// Longitudinal (speed) PID channel
	LongitudinalKP     *float64 `json:"longitudinal_kp,omitempty"`
	LongitudinalKI     *float64 `json:"longitudinal_ki,omitempty"`
	LongitudinalKD     *float64 `json:"longitudinal_kd,omitempty"`
	LongitudinalWindow *int     `json:"longitudinal_window,omitempty"`

	// Actuation envelope
	MaxLinearVelocity  *float64 `json:"max_linear_velocity,omitempty"`
	MaxAngularVelocity *float64 `json:"max_angular_velocity,omitempty"`

	// Loop timing (duration strings)
	StartupDelay *string `json:"startup_delay,omitempty"`
	TickPeriod   *string `json:"tick_period,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

// Defaults returns the tuned configuration for the reference robot with
// every field populated.
func Defaults() *Tuning {
	return &Tuning{
		MaxRange:    ptrFloat64(3.5),
		ScanSamples: ptrInt(360),

		FrontWidthDeg:   ptrFloat64(20),
		ObliqueWidthDeg: ptrFloat64(70),
		SideWidthDeg:    ptrFloat64(55),
		SideOffsetDeg:   ptrFloat64(30),

		CollisionThreshold: ptrFloat64(0.5),
		CautionThreshold:   ptrFloat64(1.0),
		CrawlVelocity:      ptrFloat64(0.005),
		CruiseVelocity:     ptrFloat64(0.2),
		CollisionSteerGain: ptrFloat64(16),

		LateralKP:     ptrFloat64(0.22),
		LateralKI:     ptrFloat64(0.01),
		LateralKD:     ptrFloat64(0.3),
		LateralWindow: ptrInt(10),

		LongitudinalKP:     ptrFloat64(0.11),
		LongitudinalKI:     ptrFloat64(0.001),
		LongitudinalKD:     ptrFloat64(0.01),
		LongitudinalWindow: ptrInt(10),

		MaxLinearVelocity:  ptrFloat64(0.22),
		MaxAngularVelocity: ptrFloat64(2.84),

		StartupDelay: ptrString("4s"),
		TickPeriod:   ptrString("1ms"),
	}
}

// Load reads a tuning overlay from a JSON file. The result usually has
// only a few fields set; merge it over Defaults().
func Load(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}
	var t Tuning
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tuning file %s: %w", path, err)
	}
	return &t, nil
}

// Merge applies every non-nil field of o on top of t.
func (t *Tuning) Merge(o *Tuning) {
	if o == nil {
		return
	}
	if o.MaxRange != nil {
		t.MaxRange = o.MaxRange
	}
	if o.ScanSamples != nil {
		t.ScanSamples = o.ScanSamples
	}
	if o.FrontWidthDeg != nil {
		t.FrontWidthDeg = o.FrontWidthDeg
	}
	if o.ObliqueWidthDeg != nil {
		t.ObliqueWidthDeg = o.ObliqueWidthDeg
	}
	if o.SideWidthDeg != nil {
		t.SideWidthDeg = o.SideWidthDeg
	}
	if o.SideOffsetDeg != nil {
		t.SideOffsetDeg = o.SideOffsetDeg
	}
	if o.CollisionThreshold != nil {
		t.CollisionThreshold = o.CollisionThreshold
	}
	if o.CautionThreshold != nil {
		t.CautionThreshold = o.CautionThreshold
	}
	if o.CrawlVelocity != nil {
		t.CrawlVelocity = o.CrawlVelocity
	}
	if o.CruiseVelocity != nil {
		t.CruiseVelocity = o.CruiseVelocity
	}
	if o.CollisionSteerGain != nil {
		t.CollisionSteerGain = o.CollisionSteerGain
	}
	if o.LateralKP != nil {
		t.LateralKP = o.LateralKP
	}
	if o.LateralKI != nil {
		t.LateralKI = o.LateralKI
	}
	if o.LateralKD != nil {
		t.LateralKD = o.LateralKD
	}
	if o.LateralWindow != nil {
		t.LateralWindow = o.LateralWindow
	}
	if o.LongitudinalKP != nil {
		t.LongitudinalKP = o.LongitudinalKP
	}
	if o.LongitudinalKI != nil {
		t.LongitudinalKI = o.LongitudinalKI
	}
	if o.LongitudinalKD != nil {
		t.LongitudinalKD = o.LongitudinalKD
	}
	if o.LongitudinalWindow != nil {
		t.LongitudinalWindow = o.LongitudinalWindow
	}
	if o.MaxLinearVelocity != nil {
		t.MaxLinearVelocity = o.MaxLinearVelocity
	}
	if o.MaxAngularVelocity != nil {
		t.MaxAngularVelocity = o.MaxAngularVelocity
	}
	if o.StartupDelay != nil {
		t.StartupDelay = o.StartupDelay
	}
	if o.TickPeriod != nil {
		t.TickPeriod = o.TickPeriod
	}
}

// ParseStartupDelay parses the startup delay duration string.
func (t *Tuning) ParseStartupDelay() (time.Duration, error) {
	return parseDuration(t.StartupDelay, "startup_delay")
}

// ParseTickPeriod parses the tick period duration string.
func (t *Tuning) ParseTickPeriod() (time.Duration, error) {
	return parseDuration(t.TickPeriod, "tick_period")
}

func parseDuration(s *string, field string) (time.Duration, error) {
	if s == nil {
		return 0, fmt.Errorf("%s is not set", field)
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, *s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", field, *s)
	}
	return d, nil
}
