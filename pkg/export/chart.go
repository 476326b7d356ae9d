package export

import (
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/posched/core/progress"
)

// RenderProgressChart renders objective and bound per improving solution as
// an HTML line chart.
func RenderProgressChart(w io.Writer, title string, recs []progress.Record) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Elapsed (ms)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Movements"}),
	)

	xAxis := make([]string, 0, len(recs))
	objective := make([]opts.LineData, 0, len(recs))
	bound := make([]opts.LineData, 0, len(recs))
	for _, r := range recs {
		xAxis = append(xAxis, strconv.FormatInt(r.ElapsedMS, 10))
		objective = append(objective, opts.LineData{Value: r.Objective})
		bound = append(bound, opts.LineData{Value: r.Bound})
	}
	line.SetXAxis(xAxis).
		AddSeries("Objective", objective).
		AddSeries("Bound", bound)
	return line.Render(w)
}
