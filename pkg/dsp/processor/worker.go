package processor

import "github.com/norasector/nexus/pkg/dsp/viz"

// FFWorker is a float in, float out stage.
type FFWorker interface {
	WorkBuffer([]float32, []float32) int
	PredictOutputSize(int) int
}

type DSPWorker struct {
	Name        string
	DisplayName string
	InputRate   int
	OutputRate  int

	worker        FFWorker
	fOutputBuffer []float32

	timeDomain *viz.TimeDomainPlotter
	spectrum   *viz.FFTPlotter
	vizSize    int
	plotType   viz.PlotType
	showFFT    bool

	plotOptions []viz.PlotOptions
}

type DSPWorkerOption func(r *DSPWorker)

func WithPlotOptions(opts []viz.PlotOptions) DSPWorkerOption {
	return func(r *DSPWorker) {
		r.plotOptions = append(r.plotOptions, opts...)
	}
}

func WithVizLength(length int) DSPWorkerOption {
	return func(r *DSPWorker) {
		r.vizSize = length
	}
}

func WithPlotType(plotType viz.PlotType) DSPWorkerOption {
	return func(r *DSPWorker) {
		r.plotType = plotType
	}
}

// WithSpectrum adds a spectrum plot of the stage output.
func WithSpectrum() DSPWorkerOption {
	return func(r *DSPWorker) {
		r.showFFT = true
	}
}

func NewDSPWorker(name, displayName string, inputRate, outputRate int, worker FFWorker, opts ...DSPWorkerOption) *DSPWorker {
	ret := &DSPWorker{
		Name:        name,
		DisplayName: displayName,
		InputRate:   inputRate,
		OutputRate:  outputRate,
		worker:      worker,
	}

	for _, opt := range opts {
		opt(ret)
	}

	return ret
}

func (w *DSPWorker) work(input []float32) []float32 {
	need := w.worker.PredictOutputSize(len(input))
	if len(w.fOutputBuffer) < need {
		w.fOutputBuffer = make([]float32, need*2)
	}
	length := w.worker.WorkBuffer(input, w.fOutputBuffer)
	out := w.fOutputBuffer[:length]

	if w.timeDomain != nil {
		w.timeDomain.AppendFloat(out)
	}
	if w.spectrum != nil {
		w.spectrum.AppendFloat(out)
	}
	return out
}
