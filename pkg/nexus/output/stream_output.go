package output

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/norasector/nexus/pkg/nexus/types"
	"github.com/norasector/nexus/pkg/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const receiveChannels = 8

type OutputDestination struct {
	Host string
	Port int
}

// StreamOutput sends every frame to each destination as length prefixed UDP datagrams.
type StreamOutput struct {
	dests    []OutputDestination
	recvChan chan *types.Frame
	metrics  api.WriteAPI
	logger   zerolog.Logger
}

func NewStreamOutput(dests []OutputDestination, metrics api.WriteAPI) *StreamOutput {
	if metrics == nil {
		metrics = &util.MockWriteAPI{}
	}
	return &StreamOutput{
		dests:    dests,
		recvChan: make(chan *types.Frame, receiveChannels),
		metrics:  metrics,
		logger:   log.Logger,
	}
}

func (s *StreamOutput) Receive() chan<- *types.Frame {
	return s.recvChan
}

func (s *StreamOutput) resolve() ([]*net.UDPAddr, error) {
	destAddrs := make([]*net.UDPAddr, 0, len(s.dests))
	for _, dest := range s.dests {
		ips, err := net.LookupIP(dest.Host)
		if err != nil {
			return nil, err
		}
		if len(ips) == 0 {
			return nil, fmt.Errorf("no IPs returned for %s", dest.Host)
		}

		destAddr := &net.UDPAddr{IP: ips[0], Port: dest.Port}
		destAddrs = append(destAddrs, destAddr)
		s.logger.Info().IPAddr("dest_ip", destAddr.IP).Int("port", dest.Port).Msg("stream output starting")
	}
	return destAddrs, nil
}

func (s *StreamOutput) Start(ctx context.Context) error {
	destAddrs, err := s.resolve()
	if err != nil {
		return err
	}

	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	var msgBuf bytes.Buffer
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-s.recvChan:
			chunks, err := EncodeFrameChunks(frame, MaxPayload)
			if err != nil {
				s.logger.Warn().Err(err).Int("frame", frame.Number).Msg("error encoding frame")
				continue
			}

			sent, dropped, bytesWritten := 0, 0, 0
			for _, encoded := range chunks {
				msgBuf.Reset()
				if err := binary.Write(&msgBuf, binary.LittleEndian, uint16(len(encoded))); err != nil {
					s.logger.Warn().Err(err).Msg("error encoding header size")
					continue
				}
				msgBuf.Write(encoded)

				for _, destAddr := range destAddrs {
					n, err := conn.WriteToUDP(msgBuf.Bytes(), destAddr)
					if err != nil {
						s.logger.Error().Err(err).Msg("error writing")
						dropped++
						continue
					}
					bytesWritten += n
					sent++
				}
			}

			go s.metrics.WritePoint(influxdb2.NewPoint("nexus.sent_frame",
				map[string]string{
					"output": "stream",
				},
				map[string]interface{}{
					"bytes_written": bytesWritten,
					"rows":          frame.Rows(),
					"chunks":        len(chunks),
					"sent":          sent,
					"dropped":       dropped,
				}, time.Now()))
		}
	}
}
