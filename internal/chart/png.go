package chart

import (
	"errors"
	"fmt"
	"io"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrNotEnoughPoints = errors.New("chart needs at least two points")

// SeriesColors are shared with the terminal renderer.
var SeriesColors = []string{"#ff6b6b", "#4ecdc4", "#ffd93d"}

// RenderPNG draws a window snapshot as a line chart.
func RenderPNG(st State, width, height int, out io.Writer) error {
	if len(st.Labels) < 2 {
		return ErrNotEnoughPoints
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	xs := make([]float64, len(st.Labels))
	for i := range xs {
		xs[i] = float64(i)
	}
	series := make([]gochart.Series, 0, len(st.Series))
	for i, ys := range st.Series {
		col := drawing.ColorFromHex(SeriesColors[i%len(SeriesColors)][1:])
		name := fmt.Sprintf("Serie %d", i+1)
		if i < len(st.Names) {
			name = st.Names[i]
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				FillColor:   col.WithAlpha(26),
			},
		})
	}
	labels := st.Labels
	ch := gochart.Chart{
		Title:      st.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 24, Left: 16, Right: 12, Bottom: 16}},
		XAxis: gochart.XAxis{
			ValueFormatter: func(v interface{}) string {
				f, ok := v.(float64)
				if !ok {
					return ""
				}
				i := int(f + 0.5)
				if i < 0 || i >= len(labels) {
					return ""
				}
				return labels[i]
			},
		},
		YAxis: gochart.YAxis{
			Name:  st.Unit,
			Range: &gochart.ContinuousRange{Min: 0, Max: st.Max},
		},
		Series: series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	if err := ch.Render(gochart.PNG, out); err != nil {
		return fmt.Errorf("render %s chart: %w", st.Title, err)
	}
	return nil
}
