package output

import (
	"context"
	"io"

	"github.com/norasector/nexus/pkg/nexus/recording"
	"github.com/norasector/nexus/pkg/nexus/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RecordingOutput writes the unfiltered samples of every frame to a recording that the file device can replay.
type RecordingOutput struct {
	dest     io.Writer
	writer   *recording.Writer
	recvChan chan *types.Frame
	header   *recording.Header
	logger   zerolog.Logger
}

func NewRecordingOutput(dest io.Writer) *RecordingOutput {
	return &RecordingOutput{
		dest:     dest,
		writer:   recording.NewWriter(dest),
		recvChan: make(chan *types.Frame, receiveChannels),
		logger:   log.Logger,
	}
}

func (r *RecordingOutput) Receive() chan<- *types.Frame {
	return r.recvChan
}

func headerForFrame(frame *types.Frame) recording.Header {
	h := recording.Header{SampleRate: frame.Meta.Rate}
	if frame.Device != nil && len(frame.Device.Channels) == len(frame.Columns) {
		h.SerialNumber = frame.Device.SerialNumber
		h.Channels = frame.Device.Channels
		return h
	}
	for i, col := range frame.Columns {
		h.Channels = append(h.Channels, types.NewChannel(i, col, frame.Meta.Rate, 0))
	}
	return h
}

func (r *RecordingOutput) write(frame *types.Frame) error {
	raw := frame.Raw
	if raw == nil {
		raw = frame.Data
	}
	if raw == nil || frame.Rows() == 0 {
		return nil
	}

	if r.header == nil {
		h := headerForFrame(frame)
		if err := r.writer.WriteHeader(h); err != nil {
			return err
		}
		r.header = &h
		r.logger.Info().Int("sample_rate", h.SampleRate).Int("channels", len(h.Channels)).Msg("recording started")
	} else if frame.Meta.Rate != r.header.SampleRate {
		r.logger.Warn().Int("recorded", r.header.SampleRate).Int("rate", frame.Meta.Rate).Msg("sample rate changed during recording")
	}

	return r.writer.WriteBlock(frame.Index[len(frame.Index)-1], raw)
}

func (r *RecordingOutput) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-r.recvChan:
			if err := r.write(frame); err != nil {
				return err
			}
		}
	}
}
