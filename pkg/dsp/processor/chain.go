package processor

import (
	"fmt"

	"github.com/norasector/nexus/pkg/dsp/filters/fir"
	"github.com/norasector/nexus/pkg/dsp/viz"
	"github.com/racerxdl/segdsp/dsp"
)

const (
	defaultTransition = 1.0
	defaultNotchWidth = 4.0
)

// FilterSpec describes the per channel conditioning chain. Zero frequencies disable a stage.
type FilterSpec struct {
	HighPass   float64
	LowPass    float64
	Notch      float64
	NotchWidth float64
	Transition float64
	Window     fir.WindowType
}

func (s FilterSpec) Empty() bool {
	return s.HighPass == 0 && s.LowPass == 0 && s.Notch == 0
}

func (s FilterSpec) withDefaults() FilterSpec {
	if s.Transition <= 0 {
		s.Transition = defaultTransition
	}
	if s.NotchWidth <= 0 {
		s.NotchWidth = defaultNotchWidth
	}
	return s
}

func (s FilterSpec) Validate(sampleRate int) error {
	s = s.withDefaults()
	nyquist := float64(sampleRate) / 2
	for name, f := range map[string]float64{"highpass": s.HighPass, "lowpass": s.LowPass, "notch": s.Notch} {
		if f < 0 || f >= nyquist {
			return fmt.Errorf("%s %.2f Hz outside 0..%.2f Hz", name, f, nyquist)
		}
	}
	if s.HighPass > 0 && s.LowPass > 0 && s.HighPass >= s.LowPass {
		return fmt.Errorf("highpass %.2f Hz must be below lowpass %.2f Hz", s.HighPass, s.LowPass)
	}
	if s.Notch > 0 && s.Notch-s.NotchWidth/2 <= 0 {
		return fmt.Errorf("notch %.2f Hz narrower than its width %.2f Hz", s.Notch, s.NotchWidth)
	}
	return nil
}

// NewFilterChain builds the conditioning chain for one channel.
func NewFilterChain(name, inputName string, sampleRate int, spec FilterSpec, vizServer *viz.Server) (*Processor, error) {
	if err := spec.Validate(sampleRate); err != nil {
		return nil, err
	}
	spec = spec.withDefaults()
	rate := float64(sampleRate)

	p := NewProcessor(name, inputName, vizServer)

	if spec.HighPass > 0 {
		p.AddBlock(NewDSPWorker(
			"highpass",
			fmt.Sprintf("Highpass %.1f Hz", spec.HighPass),
			sampleRate,
			sampleRate,
			dsp.MakeFloatFirFilter(fir.MakeHighPass(1.0, rate, spec.HighPass, spec.Transition, spec.Window)),
			WithPlotType(viz.PlotTypeLines),
		))
	}

	if spec.Notch > 0 {
		p.AddBlock(NewDSPWorker(
			"notch",
			fmt.Sprintf("Notch %.1f Hz", spec.Notch),
			sampleRate,
			sampleRate,
			dsp.MakeFloatFirFilter(fir.MakeBandStop(1.0, rate,
				spec.Notch-spec.NotchWidth/2,
				spec.Notch+spec.NotchWidth/2,
				spec.Transition, spec.Window)),
			WithPlotType(viz.PlotTypeLines),
		))
	}

	if spec.LowPass > 0 {
		p.AddBlock(NewDSPWorker(
			"lowpass",
			fmt.Sprintf("Lowpass %.1f Hz", spec.LowPass),
			sampleRate,
			sampleRate,
			dsp.MakeFloatFirFilter(fir.MakeLowPass(1.0, rate, spec.LowPass, spec.Transition, spec.Window)),
			WithPlotType(viz.PlotTypeLines),
		))
	}

	if p.Blocks() > 0 {
		p.blocks[len(p.blocks)-1].showFFT = true
	}

	return p, nil
}
