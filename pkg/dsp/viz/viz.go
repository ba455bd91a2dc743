package viz

import (
	"image/color"

	"gonum.org/v1/plot"
)

type PlotOptions func(p *plot.Plot)

// YRange pins the vertical axis instead of autoscaling.
func YRange(min, max float64) PlotOptions {
	return func(p *plot.Plot) {
		p.Y.Min = min
		p.Y.Max = max
	}
}

// YLabel replaces the default amplitude label, typically with the channel unit.
func YLabel(label string) PlotOptions {
	return func(p *plot.Plot) {
		p.Y.Label.Text = label
	}
}

func plotWithDefaults() *plot.Plot {
	p := plot.New()
	p.BackgroundColor = color.Black
	for _, c := range []*color.Color{
		&p.Title.TextStyle.Color,
		&p.Y.Label.TextStyle.Color,
		&p.Y.Color,
		&p.X.Label.TextStyle.Color,
		&p.X.Color,
		&p.Legend.TextStyle.Color,
		&p.X.Tick.Color,
		&p.Y.Tick.Color,
		&p.X.Tick.Label.Color,
		&p.Y.Tick.Label.Color,
	} {
		*c = color.White
	}
	return p
}
