package oscillator

import (
	"math"
)

const (
	tau float64 = math.Pi * 2
)

// Oscillator is a phase accumulating sine source.
type Oscillator struct {
	sampleRate     int
	frequency      float64
	amplitude      float64
	phase          float64
	phaseIncrement float64
}

func (o *Oscillator) incrementPhase() {
	o.phase += o.phaseIncrement
	if o.phase > tau {
		o.phase -= tau
	} else if o.phase < -tau {
		o.phase += tau
	}
}

func NewOscillator(sampleRate int, frequency, amplitude float64) *Oscillator {
	return &Oscillator{
		sampleRate:     sampleRate,
		frequency:      frequency,
		amplitude:      amplitude,
		phaseIncrement: frequency * tau / float64(sampleRate),
	}
}

func (o *Oscillator) Frequency() float64 {
	return o.frequency
}

// Next returns the next sample.
func (o *Oscillator) Next() float64 {
	v := o.amplitude * math.Sin(o.phase)
	o.incrementPhase()
	return v
}

// WorkBuffer adds the oscillator to input.
func (o *Oscillator) WorkBuffer(input, output []float32) int {
	for i := 0; i < len(input); i++ {
		output[i] = input[i] + float32(o.Next())
	}
	return len(input)
}

func (o *Oscillator) Work(vals []float32) []float32 {
	ret := make([]float32, len(vals))
	o.WorkBuffer(vals, ret)
	return ret
}

func (o *Oscillator) PredictOutputSize(inputSize int) int {
	return inputSize
}
