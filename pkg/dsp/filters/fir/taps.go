package fir

import (
	"math"
)

// computeNTaps estimates the filter length for a window's stopband attenuation. The result is always odd.
func computeNTaps(sampleRate, transitionWidth float64, winType WindowType) int {
	maxAttenuation := windowMaxAttenuation[winType]
	ntaps := int(float64(maxAttenuation) * sampleRate / (22.0 * transitionWidth))
	ntaps |= 1
	return ntaps
}

func scale(taps []float32, gain float64) []float32 {
	for i := range taps {
		taps[i] = float32(float64(taps[i]) * gain)
	}
	return taps
}

func MakeLowPass(gain, sampleRate, cutFrequency, transitionWidth float64, winType WindowType) []float32 {
	nTaps := computeNTaps(sampleRate, transitionWidth, winType)
	taps := make([]float32, nTaps)
	w := Window(winType, nTaps)

	M := (nTaps - 1) / 2
	fwT0 := 2 * math.Pi * cutFrequency / sampleRate

	for i := -M; i <= M; i++ {
		if i == 0 {
			taps[i+M] = float32(fwT0 / math.Pi * float64(w[i+M]))
		} else {
			fi := float64(i)
			taps[i+M] = float32(math.Sin(fi*fwT0) / (fi * math.Pi) * float64(w[i+M]))
		}
	}

	fmax := float64(taps[M])
	for i := 1; i <= M; i++ {
		fmax += 2 * float64(taps[i+M])
	}

	return scale(taps, gain/fmax)
}

func MakeHighPass(gain, sampleRate, cutFrequency, transitionWidth float64, winType WindowType) []float32 {
	nTaps := computeNTaps(sampleRate, transitionWidth, winType)
	taps := make([]float32, nTaps)
	w := Window(winType, nTaps)

	M := (nTaps - 1) / 2
	fwT0 := 2 * math.Pi * cutFrequency / sampleRate

	for i := -M; i <= M; i++ {
		if i == 0 {
			taps[i+M] = float32((1 - fwT0/math.Pi) * float64(w[i+M]))
		} else {
			fi := float64(i)
			taps[i+M] = float32(-math.Sin(fi*fwT0) / (fi * math.Pi) * float64(w[i+M]))
		}
	}

	// Normalize at Nyquist.
	fmax := float64(taps[M])
	for i := 1; i <= M; i++ {
		fmax += 2 * float64(taps[i+M]) * math.Cos(float64(i)*math.Pi)
	}

	return scale(taps, gain/fmax)
}

func MakeBandPass(gain, sampleRate, lowCut, highCut, transitionWidth float64, winType WindowType) []float32 {
	nTaps := computeNTaps(sampleRate, transitionWidth, winType)
	taps := make([]float32, nTaps)
	w := Window(winType, nTaps)

	M := (nTaps - 1) / 2
	fwT0 := 2 * math.Pi * lowCut / sampleRate
	fwT1 := 2 * math.Pi * highCut / sampleRate

	for i := -M; i <= M; i++ {
		fi := float64(i)
		if i == 0 {
			taps[i+M] = float32((fwT1 - fwT0) / math.Pi * float64(w[i+M]))
		} else {
			taps[i+M] = float32((math.Sin(fi*fwT1) - math.Sin(fi*fwT0)) / (fi * math.Pi) * float64(w[i+M]))
		}
	}

	// Normalize at the center of the passband.
	fmax := float64(taps[M])
	for i := 1; i <= M; i++ {
		fmax += 2 * float64(taps[i+M]) * math.Cos(float64(i)*(fwT0+fwT1)*0.5)
	}

	return scale(taps, gain/fmax)
}

// MakeBandStop rejects lowCut..highCut; a narrow band makes a mains notch.
func MakeBandStop(gain, sampleRate, lowCut, highCut, transitionWidth float64, winType WindowType) []float32 {
	nTaps := computeNTaps(sampleRate, transitionWidth, winType)
	taps := make([]float32, nTaps)
	w := Window(winType, nTaps)

	M := (nTaps - 1) / 2
	fwT0 := 2 * math.Pi * lowCut / sampleRate
	fwT1 := 2 * math.Pi * highCut / sampleRate

	for i := -M; i <= M; i++ {
		fi := float64(i)
		if i == 0 {
			taps[i+M] = float32((1.0 + (fwT0-fwT1)/math.Pi) * float64(w[i+M]))
		} else {
			taps[i+M] = float32((math.Sin(fi*fwT0) - math.Sin(fi*fwT1)) / (fi * math.Pi) * float64(w[i+M]))
		}
	}

	// Normalize at DC.
	fmax := float64(taps[M])
	for i := 1; i <= M; i++ {
		fmax += 2 * float64(taps[i+M])
	}

	return scale(taps, gain/fmax)
}
