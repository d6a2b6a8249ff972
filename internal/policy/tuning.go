package policy

import (
	"github.com/banshee-data/rover.pilot/internal/config"
	"github.com/banshee-data/rover.pilot/internal/pid"
)

// ConfigFromTuning builds a policy Config from a merged tuning document,
// starting from DefaultConfig for any nil fields.
func ConfigFromTuning(t *config.Tuning) Config {
	cfg := DefaultConfig()
	if t == nil {
		return cfg
	}
	if t.CollisionThreshold != nil {
		cfg.CollisionThreshold = *t.CollisionThreshold
	}
	if t.CautionThreshold != nil {
		cfg.CautionThreshold = *t.CautionThreshold
	}
	if t.CrawlVelocity != nil {
		cfg.CrawlVelocity = *t.CrawlVelocity
	}
	if t.CruiseVelocity != nil {
		cfg.CruiseVelocity = *t.CruiseVelocity
	}
	if t.CollisionSteerGain != nil {
		cfg.CollisionSteerGain = *t.CollisionSteerGain
	}
	cfg.Lateral = channelFromTuning(cfg.Lateral, t.LateralKP, t.LateralKI, t.LateralKD, t.LateralWindow)
	cfg.Longitudinal = channelFromTuning(cfg.Longitudinal, t.LongitudinalKP, t.LongitudinalKI, t.LongitudinalKD, t.LongitudinalWindow)
	return cfg
}

// LimitsFromTuning builds the actuation envelope from a merged tuning
// document.
func LimitsFromTuning(t *config.Tuning) Limits {
	l := DefaultLimits()
	if t == nil {
		return l
	}
	if t.MaxLinearVelocity != nil {
		l.MaxLinear = *t.MaxLinearVelocity
	}
	if t.MaxAngularVelocity != nil {
		l.MaxAngular = *t.MaxAngularVelocity
	}
	return l
}

func channelFromTuning(base pid.Config, kp, ki, kd *float64, window *int) pid.Config {
	if kp != nil {
		base.KP = *kp
	}
	if ki != nil {
		base.KI = *ki
	}
	if kd != nil {
		base.KD = *kd
	}
	if window != nil {
		base.Window = *window
	}
	return base
}
