//go:build windows

package generic

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/norasector/nexus/pkg/nexus/device"
	"golang.org/x/sys/windows"
)

// Windows caps the number of callbacks a process may create, so the library gets one trampoline
// that dispatches to whichever handler is currently installed.
var (
	callbackOnce sync.Once
	callbackPtr  uintptr

	handlerMu     sync.RWMutex
	activeHandler DataHandler
)

func dataCallback(nSamples, nChannels uintptr, data *float32) uintptr {
	handlerMu.RLock()
	h := activeHandler
	handlerMu.RUnlock()

	n, c := int(int32(nSamples)), int(int32(nChannels))
	if h == nil || data == nil || n <= 0 || c <= 0 {
		return 0
	}
	h(n, c, unsafe.Slice(data, n*c))
	return 0
}

type dllLibrary struct {
	dll *windows.LazyDLL

	initDevice  *windows.LazyProc
	deviceInfo  *windows.LazyProc
	channelInfo *windows.LazyProc
	start       *windows.LazyProc
	stop        *windows.LazyProc
	showAuth    *windows.LazyProc
}

func loadLibrary(path string) (library, error) {
	dll := windows.NewLazyDLL(path)
	if err := dll.Load(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	l := &dllLibrary{
		dll:         dll,
		initDevice:  dll.NewProc("InitGenericDevice"),
		deviceInfo:  dll.NewProc("GetDeviceInfo"),
		channelInfo: dll.NewProc("GetChannelInfo"),
		start:       dll.NewProc("StartGenericDevice"),
		stop:        dll.NewProc("StopGenericDevice"),
		showAuth:    dll.NewProc("ShowAuthenticationWindow"),
	}

	for _, proc := range []*windows.LazyProc{l.initDevice, l.deviceInfo, l.channelInfo, l.start, l.stop, l.showAuth} {
		if err := proc.Find(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	callbackOnce.Do(func() {
		callbackPtr = windows.NewCallback(dataCallback)
	})

	return l, nil
}

func (l *dllLibrary) Init(handler DataHandler, mode device.SearchMode, serialNumber int64) int {
	handlerMu.Lock()
	activeHandler = handler
	handlerMu.Unlock()

	var r1 uintptr
	if unsafe.Sizeof(uintptr(0)) == 4 {
		// long long takes two stack slots on 386.
		r1, _, _ = l.initDevice.Call(callbackPtr, uintptr(mode), uintptr(uint32(serialNumber)), uintptr(uint32(serialNumber>>32)))
	} else {
		r1, _, _ = l.initDevice.Call(callbackPtr, uintptr(mode), uintptr(serialNumber))
	}
	return int(int32(r1))
}

func (l *dllLibrary) DeviceInfo() (rawDeviceInfo, bool) {
	var info rawDeviceInfo
	r1, _, _ := l.deviceInfo.Call(uintptr(unsafe.Pointer(&info)))
	return info, byte(r1) != 0
}

func (l *dllLibrary) ChannelInfo(index int) (rawChannelInfo, bool) {
	var info rawChannelInfo
	r1, _, _ := l.channelInfo.Call(uintptr(int32(index)), uintptr(unsafe.Pointer(&info)))
	return info, byte(r1) != 0
}

func (l *dllLibrary) Start(sampleRate *uint32) int {
	r1, _, _ := l.start.Call(uintptr(unsafe.Pointer(sampleRate)))
	return int(int32(r1))
}

func (l *dllLibrary) Stop() int {
	r1, _, _ := l.stop.Call()

	handlerMu.Lock()
	activeHandler = nil
	handlerMu.Unlock()

	return int(int32(r1))
}

func (l *dllLibrary) ShowAuthenticationWindow() int {
	r1, _, _ := l.showAuth.Call()
	return int(int32(r1))
}
