package nexus

import (
	"time"

	"github.com/norasector/nexus/pkg/dsp/processor"
	"github.com/norasector/nexus/pkg/nexus/device"
)

type Options struct {
	SampleRate     int
	SearchMode     device.SearchMode
	SerialNumber   int64
	UpdateInterval time.Duration
	Filters        processor.FilterSpec
	Outputs        []Output
}
