package util

import (
	"testing"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
)

func TestCaptureWriteAPI(t *testing.T) {
	c := &CaptureWriteAPI{}
	c.WritePoint(influxdb2.NewPoint("a", nil, map[string]interface{}{"v": 1}, time.Now()))
	c.WritePoint(influxdb2.NewPoint("b", nil, map[string]interface{}{"v": 1}, time.Now()))
	c.WritePoint(influxdb2.NewPoint("a", nil, map[string]interface{}{"v": 2}, time.Now()))
	if got := c.Count("a"); got != 2 {
		t.Errorf("Count(a) = %d, want 2", got)
	}
	if got := c.Count("c"); got != 0 {
		t.Errorf("Count(c) = %d, want 0", got)
	}
}

func TestTimeOperationMicroseconds(t *testing.T) {
	got := TimeOperationMicroseconds(func() { time.Sleep(2 * time.Millisecond) })
	if got < 2000 {
		t.Errorf("duration = %dus, want >= 2000", got)
	}
}
