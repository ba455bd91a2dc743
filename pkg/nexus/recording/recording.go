// Package recording reads and writes the raw acquisition file format.
//
// A recording starts with a header:
//
//	magic "NXR1" | rate u32 | nchan u16 | nchan × {name len u8, name, type id u32} | serial len u8, serial
//
// followed by any number of blocks:
//
//	received unix nanos i64 | nSamples u32 | nSamples × nchan float32, row major
//
// All integers are little endian.
package recording

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/norasector/nexus/pkg/nexus/types"
	"gonum.org/v1/gonum/mat"
)

var magic = [4]byte{'N', 'X', 'R', '1'}

var ErrBadMagic = errors.New("not a nexus recording")

// maxBlockSamples bounds a single block read so a corrupt length cannot allocate unbounded memory.
const maxBlockSamples = 1 << 20

type Header struct {
	SampleRate   int
	SerialNumber string
	Channels     []types.Channel
}

// DeviceInfo rebuilds the device description stored in the header.
func (h *Header) DeviceInfo() *types.DeviceInfo {
	return &types.DeviceInfo{
		Name:             "recording",
		SerialNumber:     h.SerialNumber,
		ConnectionType:   "file",
		NumberOfChannels: len(h.Channels),
		Authenticated:    true,
		Channels:         h.Channels,
	}
}

type Writer struct {
	w        *bufio.Writer
	channels int
	scratch  []float32
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func writeString(w io.Writer, s string) error {
	if len(s) > math.MaxUint8 {
		s = s[:math.MaxUint8]
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func (w *Writer) WriteHeader(h Header) error {
	if len(h.Channels) == 0 || len(h.Channels) > math.MaxUint16 {
		return fmt.Errorf("invalid channel count %d", len(h.Channels))
	}
	if _, err := w.w.Write(magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w.w, binary.LittleEndian, uint32(h.SampleRate)); err != nil {
		return err
	}
	if err := binary.Write(w.w, binary.LittleEndian, uint16(len(h.Channels))); err != nil {
		return err
	}
	for _, ch := range h.Channels {
		if err := writeString(w.w, ch.Name); err != nil {
			return err
		}
		if err := binary.Write(w.w, binary.LittleEndian, uint32(ch.TypeID)); err != nil {
			return err
		}
	}
	if err := writeString(w.w, h.SerialNumber); err != nil {
		return err
	}
	w.channels = len(h.Channels)
	return w.w.Flush()
}

// WriteBlock appends rows sampled up to received.
func (w *Writer) WriteBlock(received time.Time, data *mat.Dense) error {
	rows, cols := data.Dims()
	if cols != w.channels {
		return fmt.Errorf("block has %d channels, header declared %d", cols, w.channels)
	}
	if err := binary.Write(w.w, binary.LittleEndian, received.UnixNano()); err != nil {
		return err
	}
	if err := binary.Write(w.w, binary.LittleEndian, uint32(rows)); err != nil {
		return err
	}

	if cap(w.scratch) < rows*cols {
		w.scratch = make([]float32, rows*cols)
	}
	w.scratch = w.scratch[:rows*cols]
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			w.scratch[i*cols+j] = float32(data.At(i, j))
		}
	}
	if err := binary.Write(w.w, binary.LittleEndian, w.scratch); err != nil {
		return err
	}
	return w.w.Flush()
}

type Reader struct {
	r        *bufio.Reader
	header   *Header
	blockNum int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

func readString(r io.Reader) (string, error) {
	var n uint8
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func (r *Reader) ReadHeader() (*Header, error) {
	if r.header != nil {
		return r.header, nil
	}

	var m [4]byte
	if _, err := io.ReadFull(r.r, m[:]); err != nil {
		return nil, err
	}
	if m != magic {
		return nil, ErrBadMagic
	}

	var rate uint32
	if err := binary.Read(r.r, binary.LittleEndian, &rate); err != nil {
		return nil, err
	}
	var nchan uint16
	if err := binary.Read(r.r, binary.LittleEndian, &nchan); err != nil {
		return nil, err
	}

	h := &Header{SampleRate: int(rate), Channels: make([]types.Channel, 0, nchan)}
	for i := 0; i < int(nchan); i++ {
		name, err := readString(r.r)
		if err != nil {
			return nil, err
		}
		var typeID uint32
		if err := binary.Read(r.r, binary.LittleEndian, &typeID); err != nil {
			return nil, err
		}
		h.Channels = append(h.Channels, types.NewChannel(i, name, int(rate), int(typeID)))
	}

	serial, err := readString(r.r)
	if err != nil {
		return nil, err
	}
	h.SerialNumber = serial

	r.header = h
	return h, nil
}

// ReadBlock returns the next stored block, or io.EOF at a clean end of file.
func (r *Reader) ReadBlock() (*types.Block, error) {
	h, err := r.ReadHeader()
	if err != nil {
		return nil, err
	}

	var nanos int64
	if err := binary.Read(r.r, binary.LittleEndian, &nanos); err != nil {
		return nil, err
	}
	var rows uint32
	if err := binary.Read(r.r, binary.LittleEndian, &rows); err != nil {
		return nil, unexpected(err)
	}
	if rows > maxBlockSamples {
		return nil, fmt.Errorf("block of %d samples exceeds limit", rows)
	}

	cols := len(h.Channels)
	raw := make([]float32, int(rows)*cols)
	if err := binary.Read(r.r, binary.LittleEndian, raw); err != nil {
		return nil, unexpected(err)
	}

	values := make([]float64, len(raw))
	for i, v := range raw {
		values[i] = float64(v)
	}

	r.blockNum++
	block := &types.Block{
		Number:     r.blockNum,
		Received:   time.Unix(0, nanos),
		SampleRate: h.SampleRate,
	}
	if rows > 0 {
		block.Data = mat.NewDense(int(rows), cols, values)
	}
	return block, nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
