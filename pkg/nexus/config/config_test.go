package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/norasector/nexus/pkg/dsp/filters/fir"
	"github.com/norasector/nexus/pkg/nexus/device"
)

const fullConfig = `
device: nexus
sampling_rate: 2048
search_mode: bluetooth
serial_number: 1190042
library_path: C:\nexus\GenericDeviceInterfaceDLL_x64.dll
update_interval: 250ms
record_location: session.nxr
sqlite_location: session.db
filters:
  highpass: 1
  lowpass: 40
  notch: 50
  window: blackman
output_destinations:
  - host: localhost
    port: 9000
viz_server:
  port: 8080
  update_interval_ms: 500
influxdb:
  host: http://localhost:8086
  organization: lab
  bucket: nexus
`

func TestParseFull(t *testing.T) {
	cfg, err := Parse([]byte(fullConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SamplingRate != 2048 || cfg.SerialNumber != 1190042 || cfg.UpdateInterval != 250*time.Millisecond {
		t.Errorf("cfg = %+v", cfg)
	}
	mode, err := cfg.Mode()
	if err != nil || mode != device.SearchModeBluetooth {
		t.Errorf("Mode() = %v, %v", mode, err)
	}
	spec, err := cfg.FilterSpec()
	if err != nil {
		t.Fatal(err)
	}
	if spec.HighPass != 1 || spec.LowPass != 40 || spec.Notch != 50 || spec.Window != fir.Blackman {
		t.Errorf("spec = %+v", spec)
	}
	if len(cfg.OutputDestinations) != 1 || cfg.OutputDestinations[0].Port != 9000 {
		t.Errorf("destinations = %+v", cfg.OutputDestinations)
	}
	if cfg.VizServer.Port != 8080 || cfg.InfluxDB.Bucket != "nexus" {
		t.Errorf("viz/influx = %+v %+v", cfg.VizServer, cfg.InfluxDB)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Device != DeviceNexus || cfg.SamplingRate != 512 || cfg.SearchMode != "auto" || cfg.UpdateInterval != 100*time.Millisecond {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestPlaybackForcesFile(t *testing.T) {
	cfg, err := Parse([]byte("device: nexus\nplayback_location: capture.nxr\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Device != DeviceFile {
		t.Errorf("device = %s, want file", cfg.Device)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"search mode", "search_mode: wifi", "search_mode must be auto, usb or bluetooth. wifi was provided"},
		{"device", "device: tcp", "unknown device"},
		{"file without playback", "device: file", "requires playback_location"},
		{"rate", "sampling_rate: -1", "sampling_rate must be positive"},
		{"interval", "update_interval: 0s", "update_interval must be positive"},
		{"filter", "filters: {lowpass: 1000}", "lowpass"},
		{"window", "filters: {window: kaiser}", "unknown window"},
		{"destination", "output_destinations: [{host: '', port: 1}]", "invalid output destination"},
		{"simulated", "device: simulated\nsimulated: {channels: -2}", "simulated.channels"},
		{"yaml", "sampling_rate: [", "error unmarshaling yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexus.yaml")
	if err := os.WriteFile(path, []byte("device: simulated\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Device != DeviceSimulated || cfg.Simulated.Channels != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
