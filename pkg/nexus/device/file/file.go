package file

import (
	"context"
	"os"
	"time"

	"github.com/norasector/nexus/pkg/nexus/recording"
	"github.com/norasector/nexus/pkg/nexus/types"
	"github.com/rs/zerolog"
)

// FileDevice replays a recording at the rate it was captured.
type FileDevice struct {
	readFile *os.File
	reader   *recording.Reader
	header   *recording.Header
	logger   zerolog.Logger
	realtime bool
}

func NewFileDevice(file string, logger zerolog.Logger) (*FileDevice, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	return &FileDevice{
		readFile: f,
		reader:   recording.NewReader(f),
		logger:   logger.With().Str("device", "file").Str("file", file).Logger(),
		realtime: true,
	}, nil
}

// SetRealtime controls whether blocks are paced by their duration or replayed as fast as they are read.
func (f *FileDevice) SetRealtime(realtime bool) {
	f.realtime = realtime
}

func (f *FileDevice) Open() (*types.DeviceInfo, error) {
	if f.header == nil {
		h, err := f.reader.ReadHeader()
		if err != nil {
			return nil, err
		}
		f.header = h
	}
	return f.header.DeviceInfo(), nil
}

func (f *FileDevice) Start(ctx context.Context, sampleRate int, blocks chan *types.Block) error {
	if _, err := f.Open(); err != nil {
		return err
	}
	if sampleRate != f.header.SampleRate {
		f.logger.Warn().
			Int("requested", sampleRate).
			Int("recorded", f.header.SampleRate).
			Msg("replaying at recorded sample rate")
	}

	var wait <-chan time.Time
	for {
		block, err := f.reader.ReadBlock()
		if err != nil {
			return err
		}
		if block.Samples() == 0 {
			continue
		}

		if wait != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-wait:
			}
		}
		if f.realtime && f.header.SampleRate > 0 {
			wait = time.After(time.Duration(block.Samples()) * time.Second / time.Duration(f.header.SampleRate))
		}

		// Restamp so downstream timing reflects the replay, not the capture.
		block.Received = time.Now()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case blocks <- block:
		}
	}
}

func (f *FileDevice) Stop() error {
	return f.readFile.Close()
}
