package util

import (
	"sync"

	"github.com/influxdata/influxdb-client-go/api/write"
)

// MockWriteAPI discards everything. It stands in when no InfluxDB host is configured.
type MockWriteAPI struct{}

func (m *MockWriteAPI) WriteRecord(line string) {}

func (m *MockWriteAPI) WritePoint(point *write.Point) {}

func (m *MockWriteAPI) Flush() {}

func (m *MockWriteAPI) Close() {}

func (m *MockWriteAPI) Errors() <-chan error { return nil }

// CaptureWriteAPI keeps every point written to it.
type CaptureWriteAPI struct {
	MockWriteAPI

	mu     sync.Mutex
	points []*write.Point
}

func (c *CaptureWriteAPI) WritePoint(point *write.Point) {
	c.mu.Lock()
	c.points = append(c.points, point)
	c.mu.Unlock()
}

// Count returns how many points with the given measurement name were written.
func (c *CaptureWriteAPI) Count(measurement string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, p := range c.points {
		if p.Name() == measurement {
			n++
		}
	}
	return n
}
