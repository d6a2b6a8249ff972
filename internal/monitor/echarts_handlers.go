package monitor

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/rover.pilot/internal/telemetry"
)

const defaultChartCycles = 2000

// handleClearancesChart renders an HTML line chart of recent sector
// clearances using go-echarts.
func (ws *WebServer) handleClearancesChart(w http.ResponseWriter, r *http.Request) {
	rows, ok := ws.chartRows(w, r)
	if !ok {
		return
	}

	labels, series := cycleSeries(rows, map[string]func(telemetry.CycleRow) float64{
		"front":         func(c telemetry.CycleRow) float64 { return c.Front },
		"oblique_left":  func(c telemetry.CycleRow) float64 { return c.ObliqueLeft },
		"oblique_right": func(c telemetry.CycleRow) float64 { return c.ObliqueRight },
		"left":          func(c telemetry.CycleRow) float64 { return c.Left },
		"right":         func(c telemetry.CycleRow) float64 { return c.Right },
	})

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Sector Clearances", Width: "1400px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Sector Clearances",
			Subtitle: fmt.Sprintf("run=%s cycles=%d", ws.cycles.RunID(), len(rows)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Distance (m)"}),
	)
	line.SetXAxis(labels)
	for _, name := range []string{"front", "oblique_left", "oblique_right", "left", "right"} {
		line.AddSeries(name, series[name])
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := line.Render(w); err != nil {
		http.Error(w, fmt.Sprintf("render failed: %v", err), http.StatusInternalServerError)
	}
}

// handleCommandsChart renders the raw vs clamped velocity commands.
func (ws *WebServer) handleCommandsChart(w http.ResponseWriter, r *http.Request) {
	rows, ok := ws.chartRows(w, r)
	if !ok {
		return
	}

	labels, series := cycleSeries(rows, map[string]func(telemetry.CycleRow) float64{
		"linear":      func(c telemetry.CycleRow) float64 { return c.Linear },
		"angular":     func(c telemetry.CycleRow) float64 { return c.Angular },
		"raw linear":  func(c telemetry.CycleRow) float64 { return c.RawLinear },
		"raw angular": func(c telemetry.CycleRow) float64 { return c.RawAngular },
	})

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Velocity Commands", Width: "1400px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Velocity Commands",
			Subtitle: fmt.Sprintf("run=%s cycles=%d", ws.cycles.RunID(), len(rows)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Velocity"}),
	)
	line.SetXAxis(labels)
	for _, name := range []string{"linear", "angular", "raw linear", "raw angular"} {
		line.AddSeries(name, series[name])
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := line.Render(w); err != nil {
		http.Error(w, fmt.Sprintf("render failed: %v", err), http.StatusInternalServerError)
	}
}

// chartRows loads the cycles for a chart request, honouring ?n=.
func (ws *WebServer) chartRows(w http.ResponseWriter, r *http.Request) ([]telemetry.CycleRow, bool) {
	if ws.cycles == nil {
		ws.writeJSONError(w, http.StatusNotFound, "telemetry disabled")
		return nil, false
	}

	n := defaultChartCycles
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			ws.writeJSONError(w, http.StatusBadRequest, "invalid n parameter")
			return nil, false
		}
		n = parsed
	}

	rows, err := ws.cycles.RecentCycles(n)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load cycles: %v", err))
		return nil, false
	}
	return rows, true
}

func cycleSeries(rows []telemetry.CycleRow, fields map[string]func(telemetry.CycleRow) float64) ([]string, map[string][]opts.LineData) {
	labels := make([]string, len(rows))
	series := make(map[string][]opts.LineData, len(fields))
	for name := range fields {
		series[name] = make([]opts.LineData, len(rows))
	}
	for i, row := range rows {
		labels[i] = row.Time.Format(time.TimeOnly)
		for name, get := range fields {
			series[name][i] = opts.LineData{Value: get(row)}
		}
	}
	return labels, series
}
