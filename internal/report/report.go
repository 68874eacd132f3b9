// Package report assembles per-tracker metrics into the comparison table
// and writes it as CSV, an aligned text listing, JSON, a PNG bar chart and
// an interactive HTML chart page.
//
// Undefined or missing values render as NA in every output; JSON uses null.
package report

import (
	"math"
	"strconv"
	"time"

	"github.com/banshee-data/motbench/internal/mot/metrics"
)

// NA marks a value that is undefined or was not supplied.
const NA = "NA"

// StatusOK is the status of a row that evaluated successfully.
const StatusOK = "ok"

// Column headers, in output order.
const (
	ColTracker        = "Tracker"
	ColMOTA           = "MOTA"
	ColMOTP           = "MOTP"
	ColIDSwitches     = "ID Switches"
	ColFragmentations = "Fragmentations"
	ColMostlyTracked  = "Mostly Tracked (%)"
	ColMostlyLost     = "Mostly Lost (%)"
	ColAvgTrackLength = "Average Track Length"
	ColEstIDSwitches  = "Estimated ID Switches"
	ColRuntime        = "Runtime (s)"
	ColFPS            = "FPS"
	ColStatus         = "Status"
)

// Columns is the stable header row.
var Columns = []string{
	ColTracker, ColMOTA, ColMOTP, ColIDSwitches, ColFragmentations,
	ColMostlyTracked, ColMostlyLost, ColAvgTrackLength, ColEstIDSwitches,
	ColRuntime, ColFPS, ColStatus,
}

// TrackerMetrics is one tracker's row. When Err is set the summary is not
// meaningful and every metric renders as NA.
type TrackerMetrics struct {
	Name    string
	Summary metrics.Summary
	Runtime *float64 // seconds, from the timing log
	FPS     *float64
	Frames  *int
	Err     error
}

// Failed reports whether the tracker could not be evaluated.
func (m TrackerMetrics) Failed() bool {
	return m.Err != nil
}

// Status is "ok" or "evaluation failed: <reason>".
func (m TrackerMetrics) Status() string {
	if m.Err != nil {
		return "evaluation failed: " + m.Err.Error()
	}
	return StatusOK
}

// Report is the ordered comparison table.
type Report struct {
	Generated time.Time
	Rows      []TrackerMetrics
}

// Assemble builds a report keeping the callers' row order.
func Assemble(rows []TrackerMetrics) *Report {
	out := make([]TrackerMetrics, len(rows))
	copy(out, rows)
	return &Report{Generated: time.Now().UTC(), Rows: out}
}

// Failures counts rows whose evaluation failed.
func (r *Report) Failures() int {
	n := 0
	for _, m := range r.Rows {
		if m.Failed() {
			n++
		}
	}
	return n
}

// Table returns the header followed by one formatted row per tracker.
// prec is the number of decimals for real values; -1 keeps full precision.
func (r *Report) Table(prec int) [][]string {
	out := make([][]string, 0, len(r.Rows)+1)
	out = append(out, append([]string(nil), Columns...))
	for _, m := range r.Rows {
		out = append(out, cells(m, prec))
	}
	return out
}

func cells(m TrackerMetrics, prec int) []string {
	row := make([]string, 0, len(Columns))
	row = append(row, m.Name)
	if m.Failed() {
		// Everything between the name and the timing columns.
		for i := 0; i < len(Columns)-4; i++ {
			row = append(row, NA)
		}
	} else {
		s := m.Summary
		row = append(row,
			formatFloat(s.MOTA, prec),
			formatFloat(s.MOTP, prec),
			strconv.Itoa(s.NumSwitches),
			strconv.Itoa(s.NumFragmentations),
			formatFloat(s.MostlyTrackedPct, prec),
			formatFloat(s.MostlyLostPct, prec),
			formatFloat(s.AverageTrackLength, prec),
			strconv.Itoa(s.EstimatedIDSwitches),
		)
	}
	row = append(row, formatOptional(m.Runtime, prec), formatOptional(m.FPS, prec), m.Status())
	return row
}

func formatFloat(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NA
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func formatOptional(v *float64, prec int) string {
	if v == nil {
		return NA
	}
	return formatFloat(*v, prec)
}
