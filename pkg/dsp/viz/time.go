package viz

import (
	"bytes"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

type PlotType int

const (
	PlotTypeDefault PlotType = iota
	PlotTypeScatter
	PlotTypeLines
)

// TimeDomainPlotter keeps the most recent size samples of a signal.
type TimeDomainPlotter struct {
	mu          sync.Mutex
	bufFloat    []float32
	size        int
	name        string
	plotFunc    func(*plot.Plot, ...interface{}) error
	plotOptions []PlotOptions
}

func NewTimeDomainPlotter(name string, size int) *TimeDomainPlotter {
	return &TimeDomainPlotter{
		bufFloat: make([]float32, 0, size),
		size:     size,
		name:     name,
		plotFunc: plotutil.AddScatters,
	}
}

func (t *TimeDomainPlotter) Name() string {
	return t.name
}

func (t *TimeDomainPlotter) SetPlotType(tp PlotType) {
	switch tp {
	case PlotTypeLines:
		t.plotFunc = plotutil.AddLines
	default:
		t.plotFunc = plotutil.AddScatters
	}
}

func (t *TimeDomainPlotter) AppendFloat(f []float32) {
	t.mu.Lock()
	t.bufFloat = append(t.bufFloat, f...)
	if len(t.bufFloat) > t.size {
		t.bufFloat = append(t.bufFloat[:0], t.bufFloat[len(t.bufFloat)-t.size:]...)
	}
	t.mu.Unlock()
}

func (t *TimeDomainPlotter) AddPlotOption(opt PlotOptions) {
	t.plotOptions = append(t.plotOptions, opt)
}

// Points returns a copy of the plotted samples.
func (t *TimeDomainPlotter) Points() plotter.XYs {
	t.mu.Lock()
	defer t.mu.Unlock()
	ret := make(plotter.XYs, len(t.bufFloat))
	for i, v := range t.bufFloat {
		ret[i] = plotter.XY{X: float64(i), Y: float64(v)}
	}
	return ret
}

func (t *TimeDomainPlotter) GetImage() *ImageContainer {
	points := t.Points()
	if len(points) < t.size {
		return nil
	}

	p := plotWithDefaults()
	p.Title.Text = t.name
	p.Y.Label.Text = "Amplitude"
	p.X.Label.Text = "t"

	for _, opt := range t.plotOptions {
		opt(p)
	}

	p.Add(plotter.NewGrid())
	if err := t.plotFunc(p, "f(t)", points); err != nil {
		return nil
	}

	var imageData bytes.Buffer
	w, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil
	}
	if _, err := w.WriteTo(&imageData); err != nil {
		return nil
	}
	return &ImageContainer{name: t.name, data: imageData.Bytes()}
}
