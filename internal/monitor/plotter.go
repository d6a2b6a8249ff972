package monitor

import (
	"fmt"
	"image/color"
	"path/filepath"
	"sync"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/rover.pilot/internal/drive"
)

// Plotter accumulates per-cycle samples and renders them as PNG time
// series after a run. It implements drive.CycleObserver so it can be
// attached to the loop directly.
type Plotter struct {
	mu      sync.Mutex
	maxKeep int
	samples []drive.CycleRecord
}

// NewPlotter creates a plotter that keeps at most maxKeep samples,
// dropping the oldest once full. maxKeep <= 0 means keep everything.
func NewPlotter(maxKeep int) *Plotter {
	return &Plotter{maxKeep: maxKeep}
}

// ObserveCycle records one control cycle.
func (p *Plotter) ObserveCycle(rec drive.CycleRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.samples = append(p.samples, rec)
	if p.maxKeep > 0 && len(p.samples) > p.maxKeep {
		p.samples = p.samples[len(p.samples)-p.maxKeep:]
	}
}

// Len reports the number of retained samples.
func (p *Plotter) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.samples)
}

// WritePlots renders clearance and command time series into dir and
// returns the number of files written.
func (p *Plotter) WritePlots(dir string) (int, error) {
	p.mu.Lock()
	samples := make([]drive.CycleRecord, len(p.samples))
	copy(samples, p.samples)
	p.mu.Unlock()

	if len(samples) == 0 {
		return 0, nil
	}

	t0 := samples[0].Time

	clearances := plot.New()
	clearances.Title.Text = "Sector Clearances"
	clearances.X.Label.Text = "Time (s)"
	clearances.Y.Label.Text = "Distance (m)"

	commands := plot.New()
	commands.Title.Text = "Velocity Commands"
	commands.X.Label.Text = "Time (s)"
	commands.Y.Label.Text = "Velocity"

	clearanceSeries := []struct {
		name string
		get  func(drive.CycleRecord) float64
	}{
		{"front", func(r drive.CycleRecord) float64 { return r.Snapshot.Front }},
		{"oblique left", func(r drive.CycleRecord) float64 { return r.Snapshot.ObliqueLeft }},
		{"oblique right", func(r drive.CycleRecord) float64 { return r.Snapshot.ObliqueRight }},
		{"left", func(r drive.CycleRecord) float64 { return r.Snapshot.Left }},
		{"right", func(r drive.CycleRecord) float64 { return r.Snapshot.Right }},
	}
	commandSeries := []struct {
		name string
		get  func(drive.CycleRecord) float64
	}{
		{"linear", func(r drive.CycleRecord) float64 { return r.Clamped.Linear }},
		{"angular", func(r drive.CycleRecord) float64 { return r.Clamped.Angular }},
		{"raw linear", func(r drive.CycleRecord) float64 { return r.Raw.Linear }},
		{"raw angular", func(r drive.CycleRecord) float64 { return r.Raw.Angular }},
	}

	palette := seriesColors(len(clearanceSeries) + len(commandSeries))

	for i, s := range clearanceSeries {
		if err := addLine(clearances, samples, t0, s.name, s.get, palette[i]); err != nil {
			return 0, err
		}
	}
	for i, s := range commandSeries {
		if err := addLine(commands, samples, t0, s.name, s.get, palette[len(clearanceSeries)+i]); err != nil {
			return 0, err
		}
	}

	clearances.Legend.Top = true
	commands.Legend.Top = true

	written := 0
	for _, out := range []struct {
		p    *plot.Plot
		file string
	}{
		{clearances, "clearances.png"},
		{commands, "commands.png"},
	} {
		path := filepath.Join(dir, out.file)
		if err := out.p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
			return written, fmt.Errorf("save %s: %w", out.file, err)
		}
		written++
	}
	return written, nil
}

func addLine(p *plot.Plot, samples []drive.CycleRecord, t0 time.Time, name string, get func(drive.CycleRecord) float64, c color.Color) error {
	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i] = plotter.XY{X: s.Time.Sub(t0).Seconds(), Y: get(s)}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

// seriesColors creates a palette of distinct colors for the line series.
func seriesColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := range colors {
		hue := float64(i) / float64(n)
		colors[i] = hsvToRGB(hue, 0.8, 0.85)
	}
	return colors
}

func hsvToRGB(h, s, v float64) color.Color {
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}
