package simulated

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/norasector/nexus/pkg/dsp/oscillator"
	"github.com/norasector/nexus/pkg/nexus/types"
	"gonum.org/v1/gonum/mat"
)

// blocksPerSecond matches the cadence of the vendor library callback.
const blocksPerSecond = 32

var rhythms = []float64{10, 20, 6}

type Options struct {
	Channels  int
	Amplitude float64
	Noise     float64
	Seed      int64
}

// SimulatedDevice produces synthetic EEG-like channels without hardware.
type SimulatedDevice struct {
	opts Options
	info *types.DeviceInfo
	rng  *rand.Rand
	done chan struct{}
}

func NewSimulatedDevice(opts Options) (*SimulatedDevice, error) {
	if opts.Channels <= 0 {
		return nil, fmt.Errorf("simulated device needs at least one channel, got %d", opts.Channels)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedDevice{
		opts: opts,
		rng:  rand.New(rand.NewSource(seed)),
		done: make(chan struct{}),
	}, nil
}

func (s *SimulatedDevice) Open() (*types.DeviceInfo, error) {
	if s.info != nil {
		return s.info, nil
	}
	info := &types.DeviceInfo{
		Name:             "Simulated Nexus",
		SerialNumber:     "SIMU000001",
		Description:      "synthetic signal generator",
		ConnectionType:   "simulated",
		NumberOfChannels: s.opts.Channels,
		Authenticated:    true,
	}
	for i := 0; i < s.opts.Channels; i++ {
		info.Channels = append(info.Channels, types.NewChannel(i, string(rune('A'+i%26))+suffix(i), 0, 1))
	}
	s.info = info
	return info, nil
}

func suffix(i int) string {
	if i < 26 {
		return ""
	}
	return fmt.Sprint(i / 26)
}

func (s *SimulatedDevice) Start(ctx context.Context, sampleRate int, blocks chan *types.Block) error {
	if _, err := s.Open(); err != nil {
		return err
	}
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	n := s.opts.Channels
	oscs := make([]*oscillator.Oscillator, n)
	for i := range oscs {
		oscs[i] = oscillator.NewOscillator(sampleRate, rhythms[i%len(rhythms)], s.opts.Amplitude)
	}

	samplesPerBlock := sampleRate / blocksPerSecond
	if samplesPerBlock < 1 {
		samplesPerBlock = 1
	}
	tick := time.NewTicker(time.Duration(samplesPerBlock) * time.Second / time.Duration(sampleRate))
	defer tick.Stop()

	blockNum := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case now := <-tick.C:
			data := make([]float64, samplesPerBlock*n)
			for i := 0; i < samplesPerBlock; i++ {
				for ch := 0; ch < n; ch++ {
					data[i*n+ch] = oscs[ch].Next() + s.rng.NormFloat64()*s.opts.Noise
				}
			}
			blockNum++

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.done:
				return nil
			case blocks <- &types.Block{
				Number:     blockNum,
				Received:   now,
				SampleRate: sampleRate,
				Data:       mat.NewDense(samplesPerBlock, n, data),
			}:
			}
		}
	}
}

func (s *SimulatedDevice) Stop() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return nil
}
