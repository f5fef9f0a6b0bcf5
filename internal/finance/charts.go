package finance

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/vicanso/go-charts/v2"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNothingToPlot is returned when the window is too short to draw.
var ErrNothingToPlot = errors.New("not enough data points to plot")

const (
	chartWidth  = 900
	chartHeight = 500
)

// RenderNormalizedChart draws every column of the normalized table (base 100) as a line.
func RenderNormalizedChart(norm *PriceTable, title string) ([]byte, error) {
	if norm == nil || len(norm.Columns) == 0 {
		return nil, errors.New("no data to chart")
	}
	if norm.Rows() < 2 {
		return nil, ErrNothingToPlot
	}

	xLabels := make([]string, norm.Rows())
	for i, d := range norm.Dates {
		xLabels[i] = d.Format(DateLayout)
	}

	var gmin, gmax = math.Inf(1), math.Inf(-1)
	values := make([][]float64, 0, len(norm.Columns))
	for _, col := range norm.Values {
		for _, v := range col {
			gmin = math.Min(gmin, v)
			gmax = math.Max(gmax, v)
		}
		values = append(values, col)
	}
	pad := (gmax - gmin) * 0.05
	if pad == 0 {
		pad = gmax * 0.05
	}
	yMin := gmin - pad
	yMax := gmax + pad

	split := 10
	if n := len(xLabels); n <= 30 {
		split = n / 3
		if split < 2 {
			split = 2
		}
	}

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = norm.Columns[i]
		seriesList[i].AxisIndex = 0
	}
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(title, "base 100"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: norm.Columns, Top: charts.PositionBottom}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(chartWidth),
		charts.HeightOptionFunc(chartHeight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	buf, err := painter.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}

// RenderRiskReturnChart draws one labelled point per column: volatility on x,
// total return on y, both in percent, coloured by Sharpe ratio. Columns with a
// degenerate volatility are left out.
func RenderRiskReturnChart(m *Metrics, title string) ([]byte, error) {
	if m == nil || len(m.Columns()) == 0 {
		return nil, errors.New("no data to chart")
	}

	var xs, ys []float64
	var colors []drawing.Color
	var labels []chart.Value2
	for _, name := range m.Columns() {
		vol, ok := m.Volatility[name].Float()
		ret := m.TotalReturn[name]
		if !ok || math.IsNaN(ret) || math.IsInf(ret, 0) {
			continue
		}
		x, y := roundTo(vol*100, 2), roundTo(ret*100, 2)
		xs = append(xs, x)
		ys = append(ys, y)
		colors = append(colors, sharpeColor(m.Sharpe[name]))
		labels = append(labels, chart.Value2{XValue: x, YValue: y, Label: name})
	}
	if len(xs) == 0 {
		return nil, ErrNothingToPlot
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 40, Bottom: 20},
		},
		XAxis: chart.XAxis{Name: "Volatility (%)", Range: paddedRange(xs)},
		YAxis: chart.YAxis{Name: "Total return (%)", Range: paddedRange(ys)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: "columns",
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    6,
					DotColorProvider: func(_, _ chart.Range, i int, _, _ float64) drawing.Color {
						return colors[i]
					},
				},
				XValues: xs,
				YValues: ys,
			},
			chart.AnnotationSeries{Annotations: labels},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	sharpeNeutral  = drawing.ColorFromHex("9e9e9e")
	sharpeNegative = drawing.ColorFromHex("d32f2f")
	sharpePositive = drawing.ColorFromHex("2e7d32")
)

// sharpeColor shades from red (Sharpe <= -2) through grey (0) to green (>= 2).
// Degenerate ratios are grey.
func sharpeColor(s Stat) drawing.Color {
	v, ok := s.Float()
	if !ok || math.IsNaN(v) {
		return sharpeNeutral
	}
	t := math.Max(-1, math.Min(1, v/2))
	if t < 0 {
		return blend(sharpeNeutral, sharpeNegative, -t)
	}
	return blend(sharpeNeutral, sharpePositive, t)
}

func blend(from, to drawing.Color, t float64) drawing.Color {
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return drawing.Color{R: mix(from.R, to.R), G: mix(from.G, to.G), B: mix(from.B, to.B), A: 255}
}

// paddedRange spans values with a 10% margin, never collapsing to a point.
func paddedRange(values []float64) *chart.ContinuousRange {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.1, 1)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func roundTo(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
