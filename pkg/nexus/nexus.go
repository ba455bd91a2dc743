package nexus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/influxdata/influxdb-client-go/api"
	"github.com/norasector/nexus/pkg/dsp/processor"
	"github.com/norasector/nexus/pkg/dsp/viz"
	"github.com/norasector/nexus/pkg/nexus/buffer"
	"github.com/norasector/nexus/pkg/nexus/device"
	"github.com/norasector/nexus/pkg/nexus/types"
	"github.com/norasector/nexus/pkg/util"
	"golang.org/x/sync/errgroup"
)

// Acquirer pulls blocks from a device, buffers them and hands filtered frames to every output.
type Acquirer struct {
	device    device.Device
	opts      Options
	writeAPI  api.WriteAPI
	vizServer *viz.Server
	logger    zerolog.Logger

	blocks     chan *types.Block
	buf        *buffer.Buffer
	info       *types.DeviceInfo
	rate       atomic.Int64
	chains     []*processor.Processor
	chainRate  int
	frameNum   int
	deviceDone chan struct{}
	collected  chan struct{}
	completed  atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

type AcquirerOption func(a *Acquirer) error

func WithInfluxDB(influxClient api.WriteAPI) AcquirerOption {
	return func(a *Acquirer) error {
		a.writeAPI = influxClient
		return nil
	}
}

func WithImageServer(vizServer *viz.Server) AcquirerOption {
	return func(a *Acquirer) error {
		a.vizServer = vizServer
		return nil
	}
}

func WithLogger(logger zerolog.Logger) AcquirerOption {
	return func(a *Acquirer) error {
		a.logger = logger
		return nil
	}
}

func NewAcquirer(device device.Device, options Options, opts ...AcquirerOption) (*Acquirer, error) {
	a := &Acquirer{
		device:     device,
		opts:       options,
		writeAPI:   &util.MockWriteAPI{}, // overwritten with option
		logger:     log.Logger,
		blocks:     make(chan *types.Block),
		buf:        buffer.New(),
		deviceDone: make(chan struct{}),
		collected:  make(chan struct{}),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if a.device == nil {
		return nil, errors.New("must specify a device")
	}
	if a.opts.SampleRate <= 0 || a.opts.UpdateInterval <= 0 {
		return nil, fmt.Errorf("must specify sample rate and update interval")
	}
	if err := a.opts.Filters.Validate(a.opts.SampleRate); err != nil {
		return nil, err
	}

	return a, nil
}

// Meta describes the stream attached to every frame.
func (a *Acquirer) Meta() types.Meta {
	meta := types.Meta{
		SerialNumber: a.opts.SerialNumber,
		Rate:         a.opts.SampleRate,
		SearchMode:   a.opts.SearchMode.String(),
	}
	if rate := a.rate.Load(); rate > 0 {
		meta.Rate = int(rate)
	}
	if a.info != nil {
		meta.Units = make(map[string]string, len(a.info.Channels))
		for _, ch := range a.info.Channels {
			meta.Units[ch.Name] = ch.Unit
		}
	}
	return meta
}

func (a *Acquirer) Stop() error {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if a.vizServer != nil {
		a.vizServer.Stop(context.TODO())
	}
	return a.device.Stop()
}

// Start opens the device and runs acquisition until ctx ends, Stop is called or a recording runs out.
func (a *Acquirer) Start(ctx context.Context) error {
	info, err := a.device.Open()
	if err != nil {
		return err
	}
	a.info = info

	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer close(a.deviceDone)
		err := a.device.Start(ctx, a.opts.SampleRate, a.blocks)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, io.EOF):
			a.logger.Info().Msg("playback finished")
			return nil
		}
		return err
	})

	if a.vizServer != nil {
		eg.Go(func() error {
			return a.vizServer.Run(ctx)
		})
	}

	eg.Go(func() error {
		return a.collect(ctx)
	})

	eg.Go(func() error {
		return a.update(ctx, cancel)
	})

	for _, output := range a.opts.Outputs {
		thisOutput := output
		eg.Go(func() error {
			return thisOutput.Start(ctx)
		})
	}

	a.logger.Info().
		Str("device", info.Name).
		Str("serial_number", info.SerialNumber).
		Int("channels", len(info.Channels)).
		Int("sample_rate", a.opts.SampleRate).
		Str("search_mode", a.opts.SearchMode.String()).
		Msg("Starting")

	if err := eg.Wait(); err != nil {
		if a.completed.Load() && errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return nil
}

// collect moves device blocks into the buffer. Once the device has returned every
// block it sent has been appended, so closing collected hands off the final drain.
func (a *Acquirer) collect(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.deviceDone:
			close(a.collected)
			return nil
		case block := <-a.blocks:
			a.rate.Store(int64(block.SampleRate))
			if err := a.buf.Append(block); err != nil {
				a.logger.Warn().Err(err).Int("block", block.Number).Msg("dropping block")
			}
		}
	}
}
