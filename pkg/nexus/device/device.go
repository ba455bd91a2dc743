package device

import (
	"context"
	"fmt"

	"github.com/norasector/nexus/pkg/nexus/types"
)

type Device interface {
	// Open connects to the device and queries its description and channels.
	Open() (*types.DeviceInfo, error)
	// Start begins acquisition and delivers blocks until ctx is done or the device fails.
	Start(ctx context.Context, sampleRate int, blocks chan *types.Block) error
	Stop() error
}

type SearchMode int

const (
	SearchModeAuto SearchMode = iota
	SearchModeUSB
	SearchModeBluetooth
)

var searchModeNames = map[SearchMode]string{
	SearchModeAuto:      "auto",
	SearchModeUSB:       "usb",
	SearchModeBluetooth: "bluetooth",
}

func (s SearchMode) String() string {
	if name, ok := searchModeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SearchMode(%d)", int(s))
}

func ParseSearchMode(s string) (SearchMode, error) {
	for mode, name := range searchModeNames {
		if name == s {
			return mode, nil
		}
	}
	return SearchModeAuto, fmt.Errorf("search_mode must be auto, usb or bluetooth. %s was provided", s)
}
