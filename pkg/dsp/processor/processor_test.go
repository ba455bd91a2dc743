package processor

import (
	"math"
	"testing"

	"github.com/norasector/nexus/pkg/dsp/viz"
)

type gain struct {
	k float32
}

func (g *gain) WorkBuffer(input, output []float32) int {
	for i, v := range input {
		output[i] = v * g.k
	}
	return len(input)
}

func (g *gain) PredictOutputSize(n int) int { return n }

func TestProcessChain(t *testing.T) {
	p := NewProcessor("test", "Input", nil)
	p.AddBlock(NewDSPWorker("double", "Double", 100, 100, &gain{2}))
	p.AddBlock(NewDSPWorker("triple", "Triple", 100, 100, &gain{3}))

	metrics := map[string]interface{}{}
	out, err := p.Process([]float32{1, -1, 0.5}, metrics)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{6, -6, 3}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %f, want %f", i, out[i], want[i])
		}
	}
	for _, key := range []string{"double_duration", "triple_duration"} {
		if _, ok := metrics[key]; !ok {
			t.Errorf("missing metric %s", key)
		}
	}

	// Larger inputs grow the stage buffers.
	big := make([]float32, 1000)
	out, err = p.Process(big, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1000 {
		t.Errorf("len(out) = %d, want 1000", len(out))
	}
}

func TestProcessErrors(t *testing.T) {
	if _, err := NewProcessor("empty", "Input", nil).Process([]float32{1}, nil); err == nil {
		t.Error("expected error for empty chain")
	}

	p := NewProcessor("mismatch", "Input", nil)
	p.AddBlock(NewDSPWorker("a", "A", 100, 50, &gain{1}))
	p.AddBlock(NewDSPWorker("b", "B", 100, 100, &gain{1}))
	if err := p.Initialize(); err == nil {
		t.Error("expected rate mismatch error")
	}

	p = NewProcessor("noinput", "Input", nil)
	p.AddBlock(NewDSPWorker("a", "A", 100, 100, &gain{1}))
	if _, err := p.Process(nil, nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestProcessorRegistersPlots(t *testing.T) {
	srv := viz.NewServer(0, 0)
	p := NewProcessor("chan-A", "Raw", srv)
	p.AddBlock(NewDSPWorker("a", "A", 64, 64, &gain{1}, WithSpectrum()))
	if err := p.Initialize(); err != nil {
		t.Fatal(err)
	}
	got := srv.Producers("chan-A")
	want := []string{"01. Raw", "02. A", "03. A (Spectrum)"}
	if len(got) != len(want) {
		t.Fatalf("producers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("producer %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func rms(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestFilterChainLowPass(t *testing.T) {
	const rate = 256
	p, err := NewFilterChain("A", "Raw", rate, FilterSpec{LowPass: 20, Transition: 5}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.Blocks() != 1 {
		t.Fatalf("blocks = %d, want 1", p.Blocks())
	}

	n := rate * 8
	input := make([]float32, n)
	for i := range input {
		ts := float64(i) / rate
		input[i] = float32(math.Sin(2*math.Pi*5*ts) + math.Sin(2*math.Pi*80*ts))
	}

	// Feed in uneven chunks; filter state carries across calls.
	var output []float32
	for start := 0; start < n; {
		end := start + 100
		if end > n {
			end = n
		}
		out, err := p.Process(input[start:end], nil)
		if err != nil {
			t.Fatal(err)
		}
		output = append(output, out...)
		start = end
	}

	if len(output) != n {
		t.Fatalf("len(output) = %d, want %d", len(output), n)
	}
	tail := output[n/2:]
	if got := rms(tail); math.Abs(got-math.Sqrt2/2) > 0.05 {
		t.Errorf("rms after lowpass = %f, want ~%f", got, math.Sqrt2/2)
	}
}

func TestFilterSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    FilterSpec
		blocks  int
		wantErr bool
	}{
		{"empty", FilterSpec{}, 0, false},
		{"all", FilterSpec{HighPass: 1, LowPass: 40, Notch: 50}, 3, false},
		{"notch only", FilterSpec{Notch: 60}, 1, false},
		{"above nyquist", FilterSpec{LowPass: 300}, 0, true},
		{"inverted", FilterSpec{HighPass: 40, LowPass: 10}, 0, true},
		{"negative", FilterSpec{HighPass: -1}, 0, true},
		{"notch too wide", FilterSpec{Notch: 1, NotchWidth: 4}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewFilterChain("A", "Raw", 512, tt.spec, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.Blocks() != tt.blocks {
				t.Errorf("blocks = %d, want %d", p.Blocks(), tt.blocks)
			}
			if tt.spec.Empty() != (tt.blocks == 0 && !tt.wantErr) {
				t.Errorf("Empty() = %v", tt.spec.Empty())
			}
		})
	}
}
