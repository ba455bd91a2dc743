package generic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/norasector/nexus/pkg/nexus/device"
	"github.com/norasector/nexus/pkg/nexus/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// Device drives a Nexus through the vendor Generic Device Interface library.
type Device struct {
	libraryPath  string
	searchMode   device.SearchMode
	serialNumber int64
	logger       zerolog.Logger
	load         func(path string) (library, error)

	lib  library
	info *types.DeviceInfo

	mu         sync.Mutex
	running    bool
	ctx        context.Context
	done       chan struct{}
	outputChan chan *types.Block
	sampleRate int
	blockNum   int
	wg         sync.WaitGroup
}

type Option func(d *Device)

func WithLibraryPath(path string) Option {
	return func(d *Device) {
		d.libraryPath = path
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(d *Device) {
		d.logger = logger
	}
}

// withLibraryLoader swaps the platform loader; it exists for tests.
func withLibraryLoader(load func(path string) (library, error)) Option {
	return func(d *Device) {
		d.load = load
	}
}

func NewDevice(searchMode device.SearchMode, serialNumber int64, opts ...Option) *Device {
	d := &Device{
		libraryPath:  defaultLibraryName(),
		searchMode:   searchMode,
		serialNumber: serialNumber,
		logger:       log.Logger,
		load:         loadLibrary,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With().Str("device", "nexus").Logger()
	return d
}

func (d *Device) Open() (*types.DeviceInfo, error) {
	if d.info != nil {
		return d.info, nil
	}

	lib, err := d.load(d.libraryPath)
	if err != nil {
		return nil, err
	}

	if code := lib.Init(d.onData, d.searchMode, d.serialNumber); code != 0 {
		d.logger.Error().
			Int("code", code).
			Str("message", Message(code)).
			Msg("could not connect to nexus device")

		if code != codeAuthenticationRequired {
			return nil, &Error{Op: "init", Code: code}
		}
		if lib.ShowAuthenticationWindow() == 1 {
			return nil, ErrAuthenticationFailed
		}
	}

	raw, ok := lib.DeviceInfo()
	if !ok {
		return nil, ErrDeviceInfo
	}

	info := &types.DeviceInfo{
		Name:             cString(raw.Name[:]),
		SerialNumber:     cString(raw.SerialNumber[:]),
		Description:      cString(raw.Description[:]),
		ConnectionType:   cString(raw.ConnectionType[:]),
		TypeID:           int(raw.TypeID),
		NumberOfChannels: int(raw.NumberOfChannels),
		Authenticated:    raw.Authenticated,
		Channels:         make([]types.Channel, 0, raw.NumberOfChannels),
	}

	for i := 0; i < info.NumberOfChannels; i++ {
		ch, ok := lib.ChannelInfo(i)
		name := cString(ch.Name[:])
		if !ok {
			d.logger.Warn().Int("channel", i).Msg("failed to retrieve channel info")
			name = fmt.Sprintf("ch%d", i)
		}
		info.Channels = append(info.Channels, types.NewChannel(i, name, int(ch.SampleRate), int(ch.TypeID)))
	}

	d.logger.Info().
		Str("name", info.Name).
		Str("serial_number", info.SerialNumber).
		Str("connection", info.ConnectionType).
		Int("channels", info.NumberOfChannels).
		Bool("authenticated", info.Authenticated).
		Msg("connected")

	d.lib = lib
	d.info = info
	return info, nil
}

// SampleRate returns the rate the library accepted on Start.
func (d *Device) SampleRate() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sampleRate
}

func (d *Device) Start(ctx context.Context, sampleRate int, blocks chan *types.Block) error {
	if d.lib == nil {
		if _, err := d.Open(); err != nil {
			return err
		}
	}

	d.mu.Lock()
	d.ctx = ctx
	d.outputChan = blocks
	d.sampleRate = sampleRate
	d.done = make(chan struct{})
	d.running = true
	d.mu.Unlock()

	fs := uint32(sampleRate)
	if code := d.lib.Start(&fs); code != 0 {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()

		d.logger.Error().
			Int("code", code).
			Str("message", Message(code)).
			Msg("could not start nexus device")
		return &Error{Op: "start", Code: code}
	}

	if int(fs) != sampleRate {
		d.logger.Warn().Int("requested", sampleRate).Int("actual", int(fs)).Msg("library changed sample rate")
		d.mu.Lock()
		d.sampleRate = int(fs)
		d.mu.Unlock()
	}

	d.mu.Lock()
	done := d.done
	d.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (d *Device) onData(nSamples, nChannels int, data []float32) {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	ctx, done, out, rate := d.ctx, d.done, d.outputChan, d.sampleRate
	d.blockNum++
	num := d.blockNum
	d.mu.Unlock()
	defer d.wg.Done()

	values := make([]float64, nSamples*nChannels)
	for i := range values {
		values[i] = float64(data[i])
	}

	block := &types.Block{
		Number:     num,
		Received:   time.Now(),
		SampleRate: rate,
		Data:       mat.NewDense(nSamples, nChannels, values),
	}

	select {
	case <-ctx.Done():
	case <-done:
	case out <- block:
	}
}

func (d *Device) Stop() error {
	if d.lib == nil {
		return nil
	}

	d.mu.Lock()
	wasRunning := d.running
	d.running = false
	if wasRunning {
		close(d.done)
	}
	d.mu.Unlock()

	code := d.lib.Stop()
	d.wg.Wait()

	if code != 0 {
		return &Error{Op: "stop", Code: code}
	}
	return nil
}
