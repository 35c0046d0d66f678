package chart

import (
	"errors"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartWidth   = 960
	chartHeight  = 540
	legendSwatch = 12
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no animals to chart")

// Color returns the bar color for a diet.
func (d Diet) Color() drawing.Color {
	switch d {
	case Herbivore:
		return drawing.ColorFromHex("22c55e")
	case Omnivore:
		return drawing.ColorFromHex("eab308")
	case Carnivore:
		return drawing.ColorFromHex("ef4444")
	}
	return chart.ColorAlternateGray
}

// RenderSVG draws animals as a bar chart, one bar per animal in the given
// order, colored by diet, with a diet legend.
func RenderSVG(w io.Writer, animals []Animal) error {
	top := MaxSpeed(animals)
	if len(animals) == 0 || top <= 0 {
		return ErrNoData
	}

	bars := make([]chart.Value, 0, len(animals))
	for _, a := range animals {
		bars = append(bars, chart.Value{
			Label: a.Name,
			Value: a.Speed,
			Style: chart.Style{
				FillColor:   a.Diet.Color(),
				StrokeColor: a.Diet.Color(),
				StrokeWidth: 1,
			},
		})
	}

	bc := chart.BarChart{
		Title:      "Animal Top Speeds",
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   40,
		BarSpacing: 24,
		Background: chart.Style{
			Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 60},
		},
		XAxis: chart.Style{FontSize: 8},
		YAxis: chart.YAxis{
			Name:  "Speed (km/h)",
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars:     bars,
		Elements: []chart.Renderable{dietLegend},
	}

	return bc.Render(chart.SVG, w)
}

// dietLegend draws a swatch and label per diet in the canvas's top-right
// corner.
func dietLegend(r chart.Renderer, cb chart.Box, defaults chart.Style) {
	style := chart.Style{
		FontSize:  9,
		FontColor: chart.DefaultTextColor,
	}.InheritFrom(defaults)
	style.GetTextOptions().WriteToRenderer(r)

	widest := 0
	for _, d := range Diets {
		if tb := r.MeasureText(d.Label()); tb.Width() > widest {
			widest = tb.Width()
		}
	}

	x := cb.Right - widest - legendSwatch - 16
	y := cb.Top + 8
	for _, d := range Diets {
		chart.Draw.Box(r, chart.Box{
			Top:    y,
			Left:   x,
			Right:  x + legendSwatch,
			Bottom: y + legendSwatch,
		}, chart.Style{FillColor: d.Color(), StrokeColor: d.Color(), StrokeWidth: 1})

		style.GetTextOptions().WriteToRenderer(r)
		r.Text(d.Label(), x+legendSwatch+6, y+legendSwatch-2)
		y += legendSwatch + 8
	}
}
