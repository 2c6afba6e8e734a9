package valuation

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/alin/internal/models"
)

const (
	chartWidth  = 900
	chartHeight = 400

	// Sessions averaged by the trend overlay
	chartTrendPeriod = 20
)

var (
	indexColor    = drawing.ColorFromHex("7c3aed")
	trendColor    = drawing.ColorFromHex("f59e0b")
	baselineColor = drawing.ColorFromHex("9ca3af")
)

// RenderIndexChart draws the index close as a PNG with a dashed baseline at
// the first close of the range. A moving-average overlay is added once the
// range is longer than the trend period.
func RenderIndexChart(points []models.PricePoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(points))
	}

	dates := make([]time.Time, len(points))
	closes := make([]float64, len(points))
	for i, p := range points {
		dates[i] = p.Date
		closes[i] = p.Close
	}

	index := chart.TimeSeries{
		Name:    "$ALIN",
		Style:   chart.Style{StrokeColor: indexColor, StrokeWidth: 2.5},
		XValues: dates,
		YValues: closes,
	}

	baseline := chart.TimeSeries{
		Name: fmt.Sprintf("Start %.2f", closes[0]),
		Style: chart.Style{
			StrokeColor:     baselineColor,
			StrokeWidth:     1,
			StrokeDashArray: []float64{4, 4},
		},
		XValues: []time.Time{dates[0], dates[len(dates)-1]},
		YValues: []float64{closes[0], closes[0]},
	}

	series := []chart.Series{index, baseline}
	if len(points) > chartTrendPeriod {
		series = append(series, &chart.SMASeries{
			Name:        fmt.Sprintf("%d-day average", chartTrendPeriod),
			Style:       chart.Style{StrokeColor: trendColor, StrokeWidth: 1.5},
			InnerSeries: index,
			Period:      chartTrendPeriod,
		})
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("$ALIN %s to %s", dates[0].Format("Jan 02 2006"), dates[len(dates)-1].Format("Jan 02 2006")),
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition:   chart.TickPositionBetweenTicks,
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f", f)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
