package viz

import (
	"bytes"
	"math"
	"math/cmplx"
	"sync"

	"github.com/norasector/nexus/pkg/dsp/filters/fir"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const mixAvg = 0.10

// FFTPlotter draws a smoothed power spectrum of a real signal.
type FFTPlotter struct {
	mu           sync.Mutex
	bufFloat     []float32
	sampleRate   int
	len          int
	averagePower []float64
	name         string
	plotOptions  []PlotOptions
}

func (f *FFTPlotter) Name() string {
	return f.name
}

func NewFFTPlotterFloat(name string, len, sampleRate int) *FFTPlotter {
	return &FFTPlotter{
		bufFloat:     make([]float32, len),
		averagePower: make([]float64, len/2+1),
		len:          len,
		sampleRate:   sampleRate,
		name:         name,
	}
}

func (f *FFTPlotter) AppendFloat(s []float32) {
	f.mu.Lock()
	if len(s) >= f.len {
		copy(f.bufFloat, s[len(s)-f.len:])
	} else {
		copy(f.bufFloat, f.bufFloat[len(s):])
		copy(f.bufFloat[f.len-len(s):], s)
	}
	f.mu.Unlock()
}

func (f *FFTPlotter) AddPlotOption(opt PlotOptions) {
	f.plotOptions = append(f.plotOptions, opt)
}

// Spectrum returns the smoothed magnitude in dB per frequency bin.
func (f *FFTPlotter) Spectrum() plotter.XYs {
	f.mu.Lock()
	defer f.mu.Unlock()

	win := fir.BlackmanWindow(f.len)
	data := make([]float64, f.len)
	for i, v := range f.bufFloat {
		data[i] = float64(v) * float64(win[i]) / (0.42 * float64(f.len))
	}

	fft := fourier.NewFFT(f.len)
	coeffs := fft.Coefficients(nil, data)

	ret := make(plotter.XYs, 0, len(coeffs))
	for i, c := range coeffs {
		f.averagePower[i] = (1.0-mixAvg)*f.averagePower[i] + mixAvg*cmplx.Abs(c)
		if f.averagePower[i] <= 0 {
			continue
		}
		ret = append(ret, plotter.XY{
			X: fft.Freq(i) * float64(f.sampleRate),
			Y: 20 * math.Log10(f.averagePower[i]),
		})
	}
	return ret
}

func (f *FFTPlotter) GetImage() *ImageContainer {
	points := f.Spectrum()
	if len(points) == 0 {
		return nil
	}

	p := plotWithDefaults()
	p.Title.Text = f.name
	p.Y.Label.Text = "Power (dB)"
	p.X.Label.Text = "Frequency (Hz)"

	for _, opt := range f.plotOptions {
		opt(p)
	}

	p.Add(plotter.NewGrid())
	if err := plotutil.AddLines(p, "spectrum", points); err != nil {
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
	return &ImageContainer{name: f.name, data: imageData.Bytes()}
}
