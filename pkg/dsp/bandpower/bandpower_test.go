package bandpower

import (
	"math"
	"testing"
)

func sine(freq float64, rate, n int) []float64 {
	ret := make([]float64, n)
	for i := range ret {
		ret[i] = 100 + 20*math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return ret
}

func TestDominantBand(t *testing.T) {
	tests := []struct {
		freq float64
		want string
	}{
		{2, "delta"},
		{6, "theta"},
		{10, "alpha"},
		{20, "beta"},
		{40, "gamma"},
	}
	for _, tt := range tests {
		powers := Compute(sine(tt.freq, 256, 512), 256, Bands)
		if got := Dominant(powers); got != tt.want {
			t.Errorf("%.0f Hz: dominant = %s, want %s (%v)", tt.freq, got, tt.want, powers)
		}
	}
}

func TestComputeEdgeCases(t *testing.T) {
	if got := Compute(nil, 256, Bands); len(got) != 0 {
		t.Errorf("Compute(nil) = %v", got)
	}
	powers := Compute(sine(10, 50, 50), 50, Bands)
	if powers["gamma"] != 0 {
		t.Errorf("gamma above nyquist = %f, want 0", powers["gamma"])
	}
	if Dominant(map[string]float64{}) != "" {
		t.Error("Dominant of empty map should be empty")
	}
}
