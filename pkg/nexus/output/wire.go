package output

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/norasector/nexus/pkg/nexus/types"
	"gonum.org/v1/gonum/mat"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the frame message. Data is row major float32, timestamps are unix nanoseconds.
const (
	fieldNumber       protowire.Number = 1
	fieldSerialNumber protowire.Number = 2
	fieldRate         protowire.Number = 3
	fieldSearchMode   protowire.Number = 4
	fieldColumns      protowire.Number = 5
	fieldIndex        protowire.Number = 6
	fieldData         protowire.Number = 7
	fieldUnits        protowire.Number = 8

	fieldUnitKey   protowire.Number = 1
	fieldUnitValue protowire.Number = 2
)

// MaxPayload is the largest encoded frame that fits a UDP datagram behind the uint16 length prefix.
const MaxPayload = 65507 - 2

var ErrFrameTooLarge = errors.New("single row frame exceeds max payload")

// EncodeFrame serializes rows [from, to) of a frame.
func EncodeFrame(f *types.Frame, from, to int) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldNumber, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.Number))
	b = protowire.AppendTag(b, fieldSerialNumber, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(f.Meta.SerialNumber))
	b = protowire.AppendTag(b, fieldRate, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.Meta.Rate))
	b = protowire.AppendTag(b, fieldSearchMode, protowire.BytesType)
	b = protowire.AppendString(b, f.Meta.SearchMode)

	for _, col := range f.Columns {
		b = protowire.AppendTag(b, fieldColumns, protowire.BytesType)
		b = protowire.AppendString(b, col)
	}

	if to > from {
		index := make([]byte, 0, (to-from)*8)
		for i := from; i < to; i++ {
			index = protowire.AppendFixed64(index, uint64(f.Index[i].UnixNano()))
		}
		b = protowire.AppendTag(b, fieldIndex, protowire.BytesType)
		b = protowire.AppendBytes(b, index)

		cols := len(f.Columns)
		data := make([]byte, 0, (to-from)*cols*4)
		for i := from; i < to; i++ {
			for j := 0; j < cols; j++ {
				data = protowire.AppendFixed32(data, math.Float32bits(float32(f.Data.At(i, j))))
			}
		}
		b = protowire.AppendTag(b, fieldData, protowire.BytesType)
		b = protowire.AppendBytes(b, data)
	}

	for _, col := range f.Columns {
		unit, ok := f.Meta.Units[col]
		if !ok {
			continue
		}
		var entry []byte
		entry = protowire.AppendTag(entry, fieldUnitKey, protowire.BytesType)
		entry = protowire.AppendString(entry, col)
		entry = protowire.AppendTag(entry, fieldUnitValue, protowire.BytesType)
		entry = protowire.AppendString(entry, unit)
		b = protowire.AppendTag(b, fieldUnits, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}

	return b
}

// EncodeFrameChunks encodes a frame, splitting it by rows until every message fits max bytes.
func EncodeFrameChunks(f *types.Frame, max int) ([][]byte, error) {
	var ret [][]byte
	var split func(from, to int) error
	split = func(from, to int) error {
		encoded := EncodeFrame(f, from, to)
		if len(encoded) <= max {
			ret = append(ret, encoded)
			return nil
		}
		if to-from <= 1 {
			return ErrFrameTooLarge
		}
		mid := from + (to-from)/2
		if err := split(from, mid); err != nil {
			return err
		}
		return split(mid, to)
	}
	if err := split(0, f.Rows()); err != nil {
		return nil, err
	}
	return ret, nil
}

func consumeString(b []byte) (string, int, error) {
	v, n := protowire.ConsumeString(b)
	if n < 0 {
		return "", 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func decodeUnit(b []byte) (key, value string, err error) {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", "", protowire.ParseError(n)
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return "", "", protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		s, n, err := consumeString(b)
		if err != nil {
			return "", "", err
		}
		b = b[n:]
		switch num {
		case fieldUnitKey:
			key = s
		case fieldUnitValue:
			value = s
		}
	}
	return key, value, nil
}

// DecodeFrame parses a message produced by EncodeFrame. Unknown fields are skipped.
func DecodeFrame(b []byte) (*types.Frame, error) {
	f := &types.Frame{}
	var index []time.Time
	var data []float64

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType && (num == fieldNumber || num == fieldSerialNumber || num == fieldRate):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			switch num {
			case fieldNumber:
				f.Number = int(v)
			case fieldSerialNumber:
				f.Meta.SerialNumber = protowire.DecodeZigZag(v)
			case fieldRate:
				f.Meta.Rate = int(v)
			}

		case typ == protowire.BytesType && num >= fieldSearchMode && num <= fieldUnits:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			switch num {
			case fieldSearchMode:
				f.Meta.SearchMode = string(v)
			case fieldColumns:
				f.Columns = append(f.Columns, string(v))
			case fieldIndex:
				if len(v)%8 != 0 {
					return nil, fmt.Errorf("index length %d not a multiple of 8", len(v))
				}
				for len(v) > 0 {
					ts, n := protowire.ConsumeFixed64(v)
					index = append(index, time.Unix(0, int64(ts)))
					v = v[n:]
				}
			case fieldData:
				if len(v)%4 != 0 {
					return nil, fmt.Errorf("data length %d not a multiple of 4", len(v))
				}
				for len(v) > 0 {
					bits, n := protowire.ConsumeFixed32(v)
					data = append(data, float64(math.Float32frombits(bits)))
					v = v[n:]
				}
			case fieldUnits:
				key, value, err := decodeUnit(v)
				if err != nil {
					return nil, err
				}
				if f.Meta.Units == nil {
					f.Meta.Units = make(map[string]string)
				}
				f.Meta.Units[key] = value
			}

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}

	cols := len(f.Columns)
	if len(data) > 0 {
		if cols == 0 || len(data)%cols != 0 {
			return nil, fmt.Errorf("%d samples do not fill %d columns", len(data), cols)
		}
		rows := len(data) / cols
		if rows != len(index) {
			return nil, fmt.Errorf("%d rows but %d timestamps", rows, len(index))
		}
		f.Data = mat.NewDense(rows, cols, data)
		f.Raw = f.Data
	}
	f.Index = index
	return f, nil
}
