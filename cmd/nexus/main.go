package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/norasector/nexus/pkg/dsp/viz"
	"github.com/norasector/nexus/pkg/nexus"
	"github.com/norasector/nexus/pkg/nexus/config"
	"github.com/norasector/nexus/pkg/nexus/device"
	"github.com/norasector/nexus/pkg/nexus/device/file"
	"github.com/norasector/nexus/pkg/nexus/device/generic"
	"github.com/norasector/nexus/pkg/nexus/device/simulated"
	"github.com/norasector/nexus/pkg/nexus/output"
	"github.com/norasector/nexus/pkg/util"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	configFile := flag.String("config", "nexus.yaml", "YAML config file")
	debug := flag.Bool("debug", false, "enable debug logging")

	flag.Parse()
	if *debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	opts, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error loading config")
	}
	mode, _ := opts.Mode()

	var dev device.Device

	switch opts.Device {
	case config.DeviceFile:
		log.Info().Str("device", "file").Str("path", opts.PlaybackLocation).Msg("initializing device...")
		dev, err = file.NewFileDevice(opts.PlaybackLocation, log.Logger)
		if err != nil {
			log.Fatal().Str("device", "file").Err(err).Msg("failed to init file reader")
		}
	case config.DeviceSimulated:
		log.Info().Str("device", "simulated").Int("channels", opts.Simulated.Channels).Msg("initializing device...")
		dev, err = simulated.NewSimulatedDevice(simulated.Options{
			Channels:  opts.Simulated.Channels,
			Amplitude: opts.Simulated.Amplitude,
			Noise:     opts.Simulated.Noise,
		})
		if err != nil {
			log.Fatal().Str("device", "simulated").Err(err).Msg("failed to create simulated device")
		}
	default:
		log.Info().Str("device", "nexus").Str("search_mode", mode.String()).Int64("serial_number", opts.SerialNumber).Msg("initializing device...")
		genericOpts := []generic.Option{generic.WithLogger(log.Logger)}
		if opts.LibraryPath != "" {
			genericOpts = append(genericOpts, generic.WithLibraryPath(opts.LibraryPath))
		}
		dev = generic.NewDevice(mode, opts.SerialNumber, genericOpts...)
	}

	var influxWriteAPI api.WriteAPI = &util.MockWriteAPI{}
	if opts.InfluxDB.Host != "" {
		client := influxdb2.NewClient(opts.InfluxDB.Host, opts.InfluxDB.Token)
		defer client.Close()
		influxWriteAPI = client.WriteAPI(opts.InfluxDB.Organization, opts.InfluxDB.Bucket)
	}

	var outputs []nexus.Output
	if len(opts.OutputDestinations) > 0 {
		dests := make([]output.OutputDestination, 0, len(opts.OutputDestinations))
		for _, d := range opts.OutputDestinations {
			dests = append(dests, output.OutputDestination{Host: d.Host, Port: d.Port})
		}
		outputs = append(outputs, output.NewStreamOutput(dests, influxWriteAPI))
	}
	if opts.RecordLocation != "" {
		recordFile, err := os.Create(opts.RecordLocation)
		if err != nil {
			log.Fatal().Err(err).Str("path", opts.RecordLocation).Msg("failed to create recording")
		}
		defer recordFile.Close()
		outputs = append(outputs, output.NewRecordingOutput(recordFile))
	}
	if opts.SQLiteLocation != "" {
		outputs = append(outputs, output.NewSQLiteOutput(opts.SQLiteLocation))
	}

	filters, _ := opts.FilterSpec()

	acquirerOpts := []nexus.AcquirerOption{
		nexus.WithInfluxDB(influxWriteAPI),
		nexus.WithLogger(log.Logger),
	}
	if opts.VizServer.Port > 0 {
		vizServer := viz.NewServer(opts.VizServer.Port, time.Duration(opts.VizServer.UpdateInterval)*time.Millisecond)
		acquirerOpts = append(acquirerOpts, nexus.WithImageServer(vizServer))
	}

	acquirer, err := nexus.NewAcquirer(dev,
		nexus.Options{
			SampleRate:     opts.SamplingRate,
			SearchMode:     mode,
			SerialNumber:   opts.SerialNumber,
			UpdateInterval: opts.UpdateInterval,
			Filters:        filters,
			Outputs:        outputs,
		}, acquirerOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create acquirer")
	}

	eg, ctx := errgroup.WithContext(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {

		select {
		case <-sigChan:
		case <-ctx.Done():
		}

		return acquirer.Stop()
	})

	eg.Go(func() error {
		if err := acquirer.Start(ctx); err != nil {
			return err
		}
		// Playback finished; unblock the signal goroutine.
		return context.Canceled
	})

	err = eg.Wait()
	influxWriteAPI.Flush()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("exited program")
	}
}
