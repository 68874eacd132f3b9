package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteHTML renders an interactive page with two bar charts: the
// normalised accuracy metrics and the identity error counts.
func (r *Report) WriteHTML(w io.Writer) error {
	rows := r.chartRows()
	if len(rows) == 0 {
		return fmt.Errorf("no evaluated trackers to chart")
	}

	labels := make([]string, len(chartMetrics))
	for j, cm := range chartMetrics {
		labels[j] = cm.Label
	}

	scores := charts.NewBar()
	scores.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Tracker Comparison", Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: "Tracker Comparison", Subtitle: r.Generated.Format(time.RFC3339)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	scores.SetXAxis(labels)
	for _, m := range rows {
		data := make([]opts.BarData, len(chartMetrics))
		for j, cm := range chartMetrics {
			data[j] = opts.BarData{Value: chartValue(cm.Value(m))}
		}
		scores.AddSeries(m.Name, data)
	}

	idLabels := []string{ColIDSwitches, ColEstIDSwitches, ColFragmentations}
	identity := charts.NewBar()
	identity.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: "Identity Errors"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	identity.SetXAxis(idLabels)
	for _, m := range rows {
		s := m.Summary
		identity.AddSeries(m.Name, []opts.BarData{
			{Value: s.NumSwitches},
			{Value: s.EstimatedIDSwitches},
			{Value: s.NumFragmentations},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	}

	page := components.NewPage()
	page.AddCharts(scores, identity)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
