// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/llbbl/repstudy/internal/study"
)

const (
	chartWidth         = "900px"
	chartHeight        = "420px"
	emptyChartHeight   = "200px"
	significantColor   = "#5470c6"
	insignificantColor = "#c4c4c4"
)

// WriteCharts renders one bar chart of Spearman coefficients per research
// question into a single HTML page. Bars for correlations that are not
// significant are greyed out.
func WriteCharts(w io.Writer, report *study.Report) error {
	page := components.NewPage()
	page.PageTitle = report.Kind.Title()

	for _, f := range report.Findings {
		page.AddCharts(buildFindingChart(f, report.N))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render charts: %w", err)
	}
	return nil
}

func buildFindingChart(f study.Finding, n int) *charts.Bar {
	title := fmt.Sprintf("%s: %s", f.Question.ID, f.Question.Title)
	if len(f.Correlations) == 0 {
		return createEmptyChart(title)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("Spearman rho against %s (n=%d)", f.Question.FactorLabel(), n),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "rho", Min: -1, Max: 1}),
	)

	labels := make([]string, len(f.Correlations))
	data := make([]opts.BarData, len(f.Correlations))
	for i, c := range f.Correlations {
		labels[i] = pairLabel(f.Question, c.Factor, c.Metric)
		color := significantColor
		if !c.Significant() {
			color = insignificantColor
		}
		data[i] = opts.BarData{
			Name:      fmt.Sprintf("p=%.3f", c.PValue),
			Value:     c.Rho,
			ItemStyle: &opts.ItemStyle{Color: color},
		}
	}

	bar.SetXAxis(labels)
	bar.AddSeries("rho", data)
	return bar
}

func createEmptyChart(title string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: emptyChartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "No data"}),
	)
	return bar
}
