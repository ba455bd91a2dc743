package processor

import (
	"errors"
	"fmt"
	"time"

	"github.com/norasector/nexus/pkg/dsp/viz"
)

// Processor runs a single channel through a chain of float stages.
type Processor struct {
	Name        string
	InputName   string
	blocks      []*DSPWorker
	vizServer   *viz.Server
	initialized bool
	input       *viz.TimeDomainPlotter
}

// NewProcessor creates an empty chain. vizServer may be nil.
func NewProcessor(name, inputName string, vizServer *viz.Server) *Processor {
	return &Processor{
		Name:      name,
		InputName: inputName,
		vizServer: vizServer,
	}
}

func (p *Processor) AddBlock(worker *DSPWorker) {
	p.blocks = append(p.blocks, worker)
}

func (p *Processor) Blocks() int {
	return len(p.blocks)
}

func (p *Processor) register(prod viz.Producer) {
	if p.vizServer != nil {
		p.vizServer.Register(p.Name, prod)
	}
}

func (p *Processor) Initialize() error {
	if p.initialized {
		return nil
	}
	if len(p.blocks) == 0 {
		return errors.New("must specify at least 1 block")
	}

	vizIndex := 0
	nextIndexString := func(s string) string {
		vizIndex++
		return fmt.Sprintf("%02d. %s", vizIndex, s)
	}

	first := p.blocks[0]
	if p.vizServer != nil {
		p.input = viz.NewTimeDomainPlotter(nextIndexString(p.InputName), first.InputRate*2)
		p.input.SetPlotType(viz.PlotTypeLines)
		p.register(p.input)
	}

	for i, cur := range p.blocks {
		if i > 0 {
			prev := p.blocks[i-1]
			if prev.OutputRate != cur.InputRate {
				return fmt.Errorf("prev: %s cur %s rate mismatch (%d %d)", prev.Name, cur.Name, prev.OutputRate, cur.InputRate)
			}
		}

		if p.vizServer == nil {
			continue
		}

		vizLength := cur.OutputRate * 2
		if cur.vizSize > 0 {
			vizLength = cur.vizSize
		}
		cur.timeDomain = viz.NewTimeDomainPlotter(nextIndexString(cur.DisplayName), vizLength)
		if cur.plotType != viz.PlotTypeDefault {
			cur.timeDomain.SetPlotType(cur.plotType)
		}
		for _, opt := range cur.plotOptions {
			cur.timeDomain.AddPlotOption(opt)
		}
		p.register(cur.timeDomain)

		if cur.showFFT {
			cur.spectrum = viz.NewFFTPlotterFloat(nextIndexString(cur.DisplayName+" (Spectrum)"), nextPow2(cur.OutputRate), cur.OutputRate)
			p.register(cur.spectrum)
		}
	}

	p.initialized = true
	return nil
}

// Process runs input through every stage. Per stage durations in microseconds are written to metrics.
// The returned slice is owned by the last stage and is only valid until the next call.
func (p *Processor) Process(input []float32, metrics map[string]interface{}) ([]float32, error) {
	if !p.initialized {
		if err := p.Initialize(); err != nil {
			return nil, err
		}
	}
	if len(input) == 0 {
		return nil, errors.New("must specify input")
	}

	if p.input != nil {
		p.input.AppendFloat(input)
	}

	data := input
	for _, block := range p.blocks {
		start := time.Now()
		data = block.work(data)
		if metrics != nil {
			metrics[fmt.Sprintf("%s_duration", block.Name)] = time.Since(start).Microseconds()
		}
	}
	return data, nil
}

func nextPow2(n int) int {
	ret := 16
	for ret < n {
		ret *= 2
	}
	return ret
}
