package trend

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/purse/internal/models"
)

// Default chart dimensions.
const (
	DefaultChartWidth  = 900
	DefaultChartHeight = 400
)

// RenderChart renders the trend as a PNG line chart. Returns raw PNG bytes.
func RenderChart(tr *models.Trend, width, height int) ([]byte, error) {
	if tr == nil || len(tr.Points) < 2 {
		n := 0
		if tr != nil {
			n = len(tr.Points)
		}
		return nil, fmt.Errorf("need at least 2 data points, got %d", n)
	}
	if width <= 0 {
		width = DefaultChartWidth
	}
	if height <= 0 {
		height = DefaultChartHeight
	}

	xValues := make([]time.Time, len(tr.Points))
	yValues := make([]float64, len(tr.Points))
	for i, p := range tr.Points {
		xValues[i] = p.Month
		yValues[i] = p.Total.InexactFloat64()
	}

	series := chart.TimeSeries{
		Name: "Net worth (" + tr.Currency + ")",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			FillColor:   drawing.ColorFromHex("2563eb").WithAlpha(32),
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  "Net Worth",
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1fk", f/1000)
				}
				return ""
			},
		},
		Series: []chart.Series{series},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
