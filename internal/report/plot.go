package report

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// chartMetric is one group of bars in the comparison charts. Values are
// normalised to [0, 1] so the groups share an axis.
type chartMetric struct {
	Label string
	Value func(m TrackerMetrics) float64
}

var chartMetrics = []chartMetric{
	{"MOTA", func(m TrackerMetrics) float64 { return m.Summary.MOTA }},
	{"MOTP", func(m TrackerMetrics) float64 { return m.Summary.MOTP }},
	{"Mostly Tracked", func(m TrackerMetrics) float64 { return m.Summary.MostlyTrackedPct / 100 }},
	{"Mostly Lost", func(m TrackerMetrics) float64 { return m.Summary.MostlyLostPct / 100 }},
}

// chartRows returns the rows that have metrics to draw.
func (r *Report) chartRows() []TrackerMetrics {
	var rows []TrackerMetrics
	for _, m := range r.Rows {
		if !m.Failed() {
			rows = append(rows, m)
		}
	}
	return rows
}

// chartValue maps undefined values to zero; a bar cannot be NaN.
func chartValue(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// WritePlot draws a grouped bar chart (one group per metric, one bar per
// tracker) and writes it as PNG.
func (r *Report) WritePlot(w io.Writer) error {
	rows := r.chartRows()
	if len(rows) == 0 {
		return fmt.Errorf("no evaluated trackers to plot")
	}

	p := plot.New()
	p.Title.Text = "Tracker Comparison"
	p.Y.Label.Text = "Score"
	p.Legend.Top = true

	barWidth := vg.Points(60 / float64(len(rows)))
	for i, m := range rows {
		values := make(plotter.Values, len(chartMetrics))
		for j, cm := range chartMetrics {
			values[j] = chartValue(cm.Value(m))
		}
		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return fmt.Errorf("tracker %s: %w", m.Name, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = barWidth * vg.Length(2*i-len(rows)+1) / 2
		p.Add(bars)
		p.Legend.Add(m.Name, bars)
	}

	labels := make([]string, len(chartMetrics))
	for j, cm := range chartMetrics {
		labels[j] = cm.Label
	}
	p.NominalX(labels...)

	wt, err := p.WriterTo(10*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}
