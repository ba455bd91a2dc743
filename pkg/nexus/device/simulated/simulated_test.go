package simulated

import (
	"context"
	"testing"
	"time"

	"github.com/norasector/nexus/pkg/nexus/types"
)

func TestOpen(t *testing.T) {
	dev, err := NewSimulatedDevice(Options{Channels: 28, Amplitude: 50})
	if err != nil {
		t.Fatal(err)
	}
	info, err := dev.Open()
	if err != nil {
		t.Fatal(err)
	}
	names := info.ChannelNames()
	if len(names) != 28 || names[0] != "A" || names[25] != "Z" || names[26] != "A1" {
		t.Errorf("channel names = %v", names)
	}
	if info.Channels[0].Unit != "uV" {
		t.Errorf("unit = %s, want uV", info.Channels[0].Unit)
	}
}

func TestInvalidChannels(t *testing.T) {
	if _, err := NewSimulatedDevice(Options{}); err == nil {
		t.Error("expected error")
	}
}

func TestStartProducesBlocks(t *testing.T) {
	dev, err := NewSimulatedDevice(Options{Channels: 3, Amplitude: 10, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	blocks := make(chan *types.Block)
	errChan := make(chan error, 1)
	go func() {
		errChan <- dev.Start(ctx, 512, blocks)
	}()

	for i := 1; i <= 3; i++ {
		b := <-blocks
		if b.Samples() != 16 || b.Channels() != 3 {
			t.Fatalf("block dims %dx%d, want 16x3", b.Samples(), b.Channels())
		}
		if b.Number != i || b.SampleRate != 512 {
			t.Errorf("block %d rate %d", b.Number, b.SampleRate)
		}
		for r := 0; r < b.Samples(); r++ {
			for c := 0; c < 3; c++ {
				if v := b.Data.At(r, c); v > 10.001 || v < -10.001 {
					t.Errorf("sample %f outside amplitude", v)
				}
			}
		}
	}

	if err := dev.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := dev.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := <-errChan; err != nil {
		t.Errorf("Start() = %v, want nil", err)
	}
}
