package oscillator

import (
	"math"
	"testing"
)

func TestOscillatorPeriod(t *testing.T) {
	o := NewOscillator(100, 10, 2)
	first := make([]float64, 10)
	for i := range first {
		first[i] = o.Next()
	}
	for i := 0; i < 10; i++ {
		if got := o.Next(); math.Abs(got-first[i]) > 1e-9 {
			t.Fatalf("sample %d = %f, want %f", i, got, first[i])
		}
	}
	if math.Abs(first[0]) > 1e-12 {
		t.Errorf("first sample = %f, want 0", first[0])
	}
}

func TestWorkBufferAdds(t *testing.T) {
	o := NewOscillator(4, 1, 1)
	got := o.Work([]float32{10, 10, 10, 10})
	want := []float32{10, 11, 10, 9}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-5 {
			t.Errorf("Work()[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}
