package generic

import (
	"bytes"
	"unsafe"

	"github.com/norasector/nexus/pkg/nexus/device"
)

const (
	libraryName32 = "GenericDeviceInterfaceDLL.dll"
	libraryName64 = "GenericDeviceInterfaceDLL_x64.dll"
)

// DataHandler receives row-major samples from the library callback.
// The slice is only valid for the duration of the call.
type DataHandler func(nSamples, nChannels int, data []float32)

// library is the subset of the Generic Device Interface the driver calls into.
type library interface {
	Init(handler DataHandler, mode device.SearchMode, serialNumber int64) int
	DeviceInfo() (rawDeviceInfo, bool)
	ChannelInfo(index int) (rawChannelInfo, bool)
	Start(sampleRate *uint32) int
	Stop() int
	ShowAuthenticationWindow() int
}

// rawDeviceInfo mirrors the library's DeviceInfo struct.
type rawDeviceInfo struct {
	Name             [40]byte
	SerialNumber     [40]byte
	Description      [40]byte
	ConnectionType   [40]byte
	TypeID           uint32
	NumberOfChannels uint32
	Authenticated    bool
}

// rawChannelInfo mirrors the library's ChannelInfo struct.
type rawChannelInfo struct {
	Name       [40]byte
	SampleRate uint32
	TypeID     uint32
}

// LibraryName returns the vendor library file for the given pointer width in bits.
func LibraryName(bitness int) string {
	if bitness == 32 {
		return libraryName32
	}
	return libraryName64
}

func defaultLibraryName() string {
	return LibraryName(int(unsafe.Sizeof(uintptr(0))) * 8)
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
