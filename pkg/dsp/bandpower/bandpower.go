package bandpower

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/norasector/nexus/pkg/dsp/filters/fir"
)

type Band struct {
	Name string
	Low  float64
	High float64
}

// Bands are the conventional EEG rhythms; each band is [Low, High).
var Bands = []Band{
	{"delta", 0.5, 4},
	{"theta", 4, 8},
	{"alpha", 8, 13},
	{"beta", 13, 30},
	{"gamma", 30, 45},
}

// Compute returns the mean squared spectral magnitude of x in each band.
// Bands above Nyquist are reported as zero.
func Compute(x []float64, sampleRate int, bands []Band) map[string]float64 {
	ret := make(map[string]float64, len(bands))
	n := len(x)
	if n == 0 || sampleRate <= 0 {
		return ret
	}

	win := fir.HannWindow(n)
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	windowed := make([]float64, n)
	for i, v := range x {
		windowed[i] = (v - mean) * float64(win[i])
	}

	spectrum := fft.FFTReal(windowed)
	binWidth := float64(sampleRate) / float64(n)

	for _, band := range bands {
		var sum float64
		count := 0
		for k := 0; k <= n/2; k++ {
			freq := float64(k) * binWidth
			if freq < band.Low || freq >= band.High {
				continue
			}
			mag := cmplx.Abs(spectrum[k]) / float64(n)
			sum += mag * mag
			count++
		}
		if count > 0 {
			ret[band.Name] = sum / float64(count)
		} else {
			ret[band.Name] = 0
		}
	}
	return ret
}

// Dominant returns the band with the most power.
func Dominant(powers map[string]float64) string {
	best := ""
	var max float64
	for _, band := range Bands {
		if p, ok := powers[band.Name]; ok && p > max {
			best, max = band.Name, p
		}
	}
	return best
}
