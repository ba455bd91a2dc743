package types

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

var (
	typeIDToUnit = []string{"NA", "uV", "uV", "mV", "Bit"}
	typeIDToKind = []string{"NA", "voltage", "voltage", "voltage", "Binary"}
)

// UnitForTypeID returns the physical unit reported for a channel type id.
func UnitForTypeID(typeID int) string {
	if typeID < 0 || typeID >= len(typeIDToUnit) {
		return typeIDToUnit[0]
	}
	return typeIDToUnit[typeID]
}

// KindForTypeID returns the signal kind reported for a channel type id.
func KindForTypeID(typeID int) string {
	if typeID < 0 || typeID >= len(typeIDToKind) {
		return typeIDToKind[0]
	}
	return typeIDToKind[typeID]
}

type Channel struct {
	Index      int
	Name       string
	SampleRate int
	TypeID     int
	Unit       string
	Kind       string
}

func NewChannel(index int, name string, sampleRate, typeID int) Channel {
	return Channel{
		Index:      index,
		Name:       name,
		SampleRate: sampleRate,
		TypeID:     typeID,
		Unit:       UnitForTypeID(typeID),
		Kind:       KindForTypeID(typeID),
	}
}

type DeviceInfo struct {
	Name             string
	SerialNumber     string
	Description      string
	ConnectionType   string
	TypeID           int
	NumberOfChannels int
	Authenticated    bool
	Channels         []Channel
}

// ChannelNames returns the channel names in device order.
func (d *DeviceInfo) ChannelNames() []string {
	ret := make([]string, len(d.Channels))
	for i, ch := range d.Channels {
		ret[i] = ch.Name
	}
	return ret
}

// Block is a single delivery from a device: one row per sample, one column per channel.
type Block struct {
	Number     int
	Received   time.Time
	SampleRate int
	Data       *mat.Dense
}

// Samples returns the number of rows in the block.
func (b *Block) Samples() int {
	if b.Data == nil {
		return 0
	}
	r, _ := b.Data.Dims()
	return r
}

// Channels returns the number of columns in the block.
func (b *Block) Channels() int {
	if b.Data == nil {
		return 0
	}
	_, c := b.Data.Dims()
	return c
}

type Meta struct {
	SerialNumber int64             `json:"serial_number"`
	Rate         int               `json:"rate"`
	SearchMode   string            `json:"search_mode"`
	Units        map[string]string `json:"units,omitempty"`
}

// Frame is what the acquirer hands to outputs on every update.
// Raw holds the samples before filtering and is Data itself when no filter is configured.
type Frame struct {
	Number  int
	Index   []time.Time
	Columns []string
	Data    *mat.Dense
	Raw     *mat.Dense
	Meta    Meta
	Device  *DeviceInfo
}

func (f *Frame) Rows() int {
	if f.Data == nil {
		return 0
	}
	r, _ := f.Data.Dims()
	return r
}
