package config

import (
	"fmt"
	"os"
	"time"

	"github.com/norasector/nexus/pkg/dsp/filters/fir"
	"github.com/norasector/nexus/pkg/dsp/processor"
	"github.com/norasector/nexus/pkg/nexus/device"
	"gopkg.in/yaml.v2"
)

const (
	DeviceNexus     = "nexus"
	DeviceSimulated = "simulated"
	DeviceFile      = "file"
)

type Config struct {
	Device             string              `yaml:"device"`
	SamplingRate       int                 `yaml:"sampling_rate"`
	SearchMode         string              `yaml:"search_mode"`
	SerialNumber       int64               `yaml:"serial_number"`
	LibraryPath        string              `yaml:"library_path"`
	UpdateInterval     time.Duration       `yaml:"update_interval"`
	PlaybackLocation   string              `yaml:"playback_location"`
	RecordLocation     string              `yaml:"record_location"`
	SQLiteLocation     string              `yaml:"sqlite_location"`
	Filters            Filters             `yaml:"filters"`
	Simulated          Simulated           `yaml:"simulated"`
	OutputDestinations []OutputDestination `yaml:"output_destinations"`
	VizServer          struct {
		Port           int `yaml:"port"`
		UpdateInterval int `yaml:"update_interval_ms"`
	} `yaml:"viz_server"`
	InfluxDB struct {
		Host         string `yaml:"host"`
		Token        string `yaml:"token"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"influxdb"`
}

type Filters struct {
	HighPass   float64 `yaml:"highpass"`
	LowPass    float64 `yaml:"lowpass"`
	Notch      float64 `yaml:"notch"`
	NotchWidth float64 `yaml:"notch_width"`
	Transition float64 `yaml:"transition"`
	Window     string  `yaml:"window"`
}

type Simulated struct {
	Channels  int     `yaml:"channels"`
	Amplitude float64 `yaml:"amplitude"`
	Noise     float64 `yaml:"noise"`
}

type OutputDestination struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func Default() Config {
	return Config{
		Device:         DeviceNexus,
		SamplingRate:   512,
		SearchMode:     "auto",
		UpdateInterval: 100 * time.Millisecond,
		Simulated: Simulated{
			Channels:  4,
			Amplitude: 50,
			Noise:     5,
		},
	}
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(contents []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling yaml: %w", err)
	}
	if cfg.PlaybackLocation != "" {
		cfg.Device = DeviceFile
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(contents)
}

func (c *Config) Validate() error {
	switch c.Device {
	case DeviceNexus, DeviceSimulated:
	case DeviceFile:
		if c.PlaybackLocation == "" {
			return fmt.Errorf("device %q requires playback_location", c.Device)
		}
	default:
		return fmt.Errorf("unknown device %q", c.Device)
	}
	if c.SamplingRate <= 0 {
		return fmt.Errorf("sampling_rate must be positive, got %d", c.SamplingRate)
	}
	if _, err := c.Mode(); err != nil {
		return err
	}
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("update_interval must be positive, got %s", c.UpdateInterval)
	}
	if c.Device == DeviceSimulated && c.Simulated.Channels <= 0 {
		return fmt.Errorf("simulated.channels must be positive, got %d", c.Simulated.Channels)
	}
	for _, dest := range c.OutputDestinations {
		if dest.Host == "" || dest.Port <= 0 || dest.Port > 65535 {
			return fmt.Errorf("invalid output destination %s:%d", dest.Host, dest.Port)
		}
	}
	spec, err := c.FilterSpec()
	if err != nil {
		return err
	}
	return spec.Validate(c.SamplingRate)
}

func (c *Config) Mode() (device.SearchMode, error) {
	return device.ParseSearchMode(c.SearchMode)
}

func (c *Config) FilterSpec() (processor.FilterSpec, error) {
	win, err := fir.ParseWindowType(c.Filters.Window)
	if err != nil {
		return processor.FilterSpec{}, err
	}
	return processor.FilterSpec{
		HighPass:   c.Filters.HighPass,
		LowPass:    c.Filters.LowPass,
		Notch:      c.Filters.Notch,
		NotchWidth: c.Filters.NotchWidth,
		Transition: c.Filters.Transition,
		Window:     win,
	}, nil
}
