package scan

import "github.com/banshee-data/rover.pilot/internal/config"

// ConfigFromTuning builds a preprocessor Config from a merged tuning
// document. Nil fields fall back to the package defaults at
// construction.
func ConfigFromTuning(t *config.Tuning) Config {
	var cfg Config
	if t == nil {
		return cfg
	}
	if t.ScanSamples != nil {
		cfg.Samples = *t.ScanSamples
	}
	if t.MaxRange != nil {
		cfg.MaxRange = *t.MaxRange
	}
	if t.FrontWidthDeg != nil {
		cfg.FrontWidthDeg = *t.FrontWidthDeg
	}
	if t.ObliqueWidthDeg != nil {
		cfg.ObliqueWidthDeg = *t.ObliqueWidthDeg
	}
	if t.SideWidthDeg != nil {
		cfg.SideWidthDeg = *t.SideWidthDeg
	}
	if t.SideOffsetDeg != nil {
		cfg.SideOffsetDeg = *t.SideOffsetDeg
	}
	return cfg
}
