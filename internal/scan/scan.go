// Package scan converts raw full-circle range scans into directional
// clearance estimates. A scan is an ordered ring of distance samples
// starting at the robot's forward axis and increasing counter-clockwise;
// the preprocessor reduces it to five named sector means used by the
// avoidance policy.
package scan

import (
	"errors"
	"fmt"
	"math"
)

// DefaultMaxRange is the ranging ceiling in meters. Samples at or beyond
// this distance carry no proximity information and are clamped to it.
const DefaultMaxRange = 3.5

// DefaultSamples is the sample count of one full rotation at 1°/sample.
const DefaultSamples = 360

// ErrInvalidScan reports a scan that violates the sensor contract
// (wrong length or a negative range). Such a scan fails the cycle fast
// rather than silently producing degenerate sector means.
var ErrInvalidScan = errors.New("invalid range scan")

// Scan is one full-circle set of range samples in meters. Index 0 is the
// robot's forward axis; indices increase in the scan's rotational
// direction. A Scan is immutable once captured for a control cycle and
// superseded wholesale by the next scan.
type Scan []float64

// Snapshot holds the five sector clearances derived from one scan. It is
// transient data, recomputed every control cycle.
type Snapshot struct {
	Front        float64 `json:"front"`
	ObliqueLeft  float64 `json:"oblique_left"`
	ObliqueRight float64 `json:"oblique_right"`
	Left         float64 `json:"left"`
	Right        float64 `json:"right"`
}

// clampRange maps a raw sample into [0, maxRange]. Infinities, NaN and
// over-range readings all mean "nothing within range" and collapse to
// maxRange. Negative samples are a contract violation handled by the
// caller, not here.
func clampRange(v, maxRange float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 1) || v > maxRange {
		return maxRange
	}
	return v
}

// validate checks the scan against the expected sample count and value
// contract before any sector arithmetic runs.
func validate(ranges []float64, samples int) error {
	if len(ranges) != samples {
		return fmt.Errorf("%w: got %d samples, want %d", ErrInvalidScan, len(ranges), samples)
	}
	for i, v := range ranges {
		if v < 0 || math.IsInf(v, -1) {
			return fmt.Errorf("%w: negative range %v at index %d", ErrInvalidScan, v, i)
		}
	}
	return nil
}
