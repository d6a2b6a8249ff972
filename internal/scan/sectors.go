package scan

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Config defines the static sector geometry and ranging limits used to
// reduce a scan to clearances. Widths and offsets are in degrees and are
// scaled to sample indices for the configured scan length, so the same
// geometry works for sensors with other angular resolutions.
type Config struct {
	Samples  int     // samples per rotation (default 360)
	MaxRange float64 // ranging ceiling in meters (default 3.5)

	FrontWidthDeg   float64 // half-cone on each side of forward (default 20)
	ObliqueWidthDeg float64 // oblique slice adjacent to forward (default 70)
	SideWidthDeg    float64 // side slice width (default 55)
	SideOffsetDeg   float64 // side slice offset inboard of the side axis (default 30)
}

// span is a precomputed half-open sample index range [lo, hi).
type span struct {
	lo, hi int
}

// Preprocessor reduces scans to sector clearance snapshots. Sector index
// ranges are fixed at construction; the preprocessor itself is stateless
// and safe for concurrent use.
type Preprocessor struct {
	cfg Config

	frontLeft  span // forward slice on the left of index 0
	frontRight span // forward slice wrapping in from the top of the ring
	oblLeft    span
	oblRight   span
	left       span
	right      span
}

// NewPreprocessor creates a Preprocessor, filling zero config fields
// with the defaults above.
func NewPreprocessor(cfg Config) *Preprocessor {
	if cfg.Samples <= 0 {
		cfg.Samples = DefaultSamples
	}
	if cfg.MaxRange <= 0 {
		cfg.MaxRange = DefaultMaxRange
	}
	if cfg.FrontWidthDeg <= 0 {
		cfg.FrontWidthDeg = 20
	}
	if cfg.ObliqueWidthDeg <= 0 {
		cfg.ObliqueWidthDeg = 70
	}
	if cfg.SideWidthDeg <= 0 {
		cfg.SideWidthDeg = 55
	}
	if cfg.SideOffsetDeg <= 0 {
		cfg.SideOffsetDeg = 30
	}

	n := cfg.Samples
	idx := func(deg float64) int {
		return int(math.Round(deg * float64(n) / 360.0))
	}

	front := idx(cfg.FrontWidthDeg)
	oblique := idx(cfg.ObliqueWidthDeg)
	side := idx(cfg.SideWidthDeg)
	offset := idx(cfg.SideOffsetDeg)

	return &Preprocessor{
		cfg:        cfg,
		frontLeft:  span{0, front},
		frontRight: span{n - front, n},
		oblLeft:    span{0, oblique},
		oblRight:   span{n - oblique, n},
		left:       span{offset, offset + side},
		right:      span{n - offset - side, n - offset},
	}
}

// Preprocess validates the scan, clamps every sample to [0, MaxRange]
// and computes the five sector means.
//
// The front clearance is the mean of the left forward slice plus half
// the mean of the right forward slice. The asymmetry is inherited
// behavior, preserved exactly for parity with the deployed controller;
// see the note in DESIGN.md before changing it.
func (p *Preprocessor) Preprocess(ranges []float64) (Snapshot, error) {
	if err := validate(ranges, p.cfg.Samples); err != nil {
		return Snapshot{}, err
	}

	clamped := make(Scan, len(ranges))
	for i, v := range ranges {
		clamped[i] = clampRange(v, p.cfg.MaxRange)
	}

	return Snapshot{
		Front:        sectorMean(clamped, p.frontLeft) + sectorMean(clamped, p.frontRight)/2,
		ObliqueLeft:  sectorMean(clamped, p.oblLeft),
		ObliqueRight: sectorMean(clamped, p.oblRight),
		Left:         sectorMean(clamped, p.left),
		Right:        sectorMean(clamped, p.right),
	}, nil
}

// MaxRange returns the configured ranging ceiling.
func (p *Preprocessor) MaxRange() float64 {
	return p.cfg.MaxRange
}

// Samples returns the expected per-rotation sample count.
func (p *Preprocessor) Samples() int {
	return p.cfg.Samples
}

func sectorMean(s Scan, sp span) float64 {
	return stat.Mean(s[sp.lo:sp.hi], nil)
}
