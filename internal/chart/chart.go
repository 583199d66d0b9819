// Package chart draws the ROC and precision-recall curves of an evaluation.
//
// Each chart lives on a named canvas of a Board. Drawing on a canvas
// destroys whatever instance was there before, and closing the Board
// destroys every instance, so a canvas never holds more than one chart.
package chart

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spboyer/evaldash/internal/metrics"
)

// Canvas names used by the dashboard.
const (
	CanvasROC = "roc"
	CanvasPR  = "pr"
)

// Series is one line of a chart.
type Series struct {
	Name   string
	Points []metrics.Point
	Color  string
	Dashed bool
	// Fill is the area colour under the line. Empty means no fill.
	Fill string
}

// Spec describes a chart independently of its rendering.
type Spec struct {
	Title  string
	XName  string
	YName  string
	Series []Series
}

// Diagonal is the curve of a classifier that guesses at random.
var Diagonal = []metrics.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}

// ROC returns the ROC chart of c. The random-classifier diagonal is always
// drawn; the model curve only when c is known.
func ROC(c *metrics.Curve) Spec {
	s := Spec{
		Title: "ROC curve",
		XName: "False positive rate (FPR)",
		YName: "True positive rate (TPR)",
	}
	if c != nil {
		s.Series = append(s.Series, Series{Name: "Model ROC curve", Points: c.Points(), Color: "#26a69a"})
	}
	s.Series = append(s.Series, Series{Name: "Random classifier", Points: Diagonal, Color: "#aaaaaa", Dashed: true})
	return s
}

// PR returns the precision-recall chart of c.
func PR(c *metrics.Curve) Spec {
	s := Spec{
		Title: "Precision-Recall curve",
		XName: "Recall",
		YName: "Precision",
	}
	var pts []metrics.Point
	if c != nil {
		pts = c.Points()
	}
	s.Series = append(s.Series, Series{Name: "Precision-Recall", Points: pts, Color: "#ff7043", Fill: "rgba(255, 112, 67, 0.2)"})
	return s
}

func (s Spec) line(id string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: id,
			Width:   "100%",
			Height:  "420px",
		}),
		charts.WithTitleOpts(opts.Title{Title: s.Title}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(true),
			Bottom: "0",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: s.XName,
			Type: "value",
			Min:  0,
			Max:  1,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: s.YName,
			Type: "value",
			Min:  0,
			Max:  1,
		}),
	)

	for _, ser := range s.Series {
		data := make([]opts.LineData, len(ser.Points))
		for i, p := range ser.Points {
			data[i] = opts.LineData{Value: []float64{p.X, p.Y}}
		}

		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{
				Smooth:     opts.Bool(true),
				ShowSymbol: opts.Bool(false),
			}),
		}
		style := opts.LineStyle{Color: ser.Color, Width: 2}
		if ser.Dashed {
			style.Type = "dashed"
		}
		seriesOpts = append(seriesOpts, charts.WithLineStyleOpts(style))
		if ser.Fill != "" {
			seriesOpts = append(seriesOpts, charts.WithAreaStyleOpts(opts.AreaStyle{
				Color:   ser.Fill,
				Opacity: opts.Float(1),
			}))
		}
		line.AddSeries(ser.Name, data, seriesOpts...)
	}
	return line
}
