package record

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/scenecap/scenecap/internal/audio"
	"github.com/scenecap/scenecap/internal/capture"
	"github.com/scenecap/scenecap/internal/conf"
	"github.com/scenecap/scenecap/internal/logging"
	"github.com/scenecap/scenecap/internal/metrics"
	"github.com/scenecap/scenecap/internal/sink"
	"github.com/scenecap/scenecap/internal/telemetry"
)

// Command creates a new command for continuous scene recording.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record audio continuously in fixed duration scenes",
		Long:  "Capture audio from the configured device, slice it into fixed duration scene segments and deliver each segment as a WAV file to the configured sinks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecording(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the record command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().Float64Var(&settings.Scene.DurationMinutes, "duration", viper.GetFloat64("scene.durationminutes"), "Scene segment duration in minutes")
	cmd.Flags().BoolVar(&settings.Export.Enabled, "export", viper.GetBool("export.enabled"), "Write finished scenes to disk")
	cmd.Flags().StringVar(&settings.Export.Path, "path", viper.GetString("export.path"), "Directory for exported scene files")
	cmd.Flags().BoolVar(&settings.Upload.Enabled, "upload", viper.GetBool("upload.enabled"), "Upload finished scenes to the backend")
	cmd.Flags().StringVar(&settings.Upload.URL, "url", viper.GetString("upload.url"), "Backend upload endpoint")
	cmd.Flags().BoolVar(&settings.Telemetry.Enabled, "telemetry", viper.GetBool("telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Telemetry.Listen, "listen", viper.GetString("telemetry.listen"), "Listen address and port of telemetry endpoint")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}

// runRecording wires the capture pipeline together and blocks until an
// interrupt or termination signal arrives.
func runRecording(settings *conf.Settings) error {
	logger := logging.ForService("record")

	if settings.Main.Log.Enabled {
		level := slog.LevelInfo
		if settings.Debug {
			level = slog.LevelDebug
		}
		fileLogger, closeLog, err := logging.NewFileLogger(settings.Main.Log.Path, "record", settings.Main.Log, level)
		if err != nil {
			logger.Warn("file logging unavailable, continuing on console only", "error", err)
		} else {
			logger = fileLogger
			defer closeLog() //nolint:errcheck // nothing actionable at shutdown
		}
	}

	env := audio.NewMalgoEnvironment(settings.Audio.SampleRate, settings.Audio.Channels, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := env.RequestPermission(ctx); err != nil {
		return fmt.Errorf("audio capture unavailable: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// A scene cannot outlive a single capture session.
	maxMinutes := float64(settings.Scene.MaxCaptureSeconds) / 60
	if settings.Scene.DurationMinutes > maxMinutes {
		logger.Warn("scene duration exceeds capture cap, clamping",
			"requested_minutes", settings.Scene.DurationMinutes,
			"max_minutes", maxMinutes)
		settings.Scene.DurationMinutes = maxMinutes
	}

	sinks := buildSinks(settings, logger)
	if len(sinks) == 0 {
		logger.Warn("no delivery sinks configured, scenes will be captured and discarded")
	}

	scheduler := capture.NewScheduler(env, logger)
	scheduler.SetMetrics(m)

	// Deliveries outlive the signal context: the final segment of a run is
	// emitted during shutdown, after the interrupt already fired.
	deliveryCtx := context.WithoutCancel(ctx)

	onSegment := func(wavData []byte, filename string, sequence int) {
		start, seq, err := capture.ParseSceneFilename(filename)
		if err != nil {
			// Deliver anyway; the filename is still usable as-is.
			start, seq = time.Now(), sequence
			logger.Warn("unparseable scene filename", "filename", filename, "error", err)
		}
		seg := sink.Segment{
			Data:      wavData,
			Filename:  filename,
			Sequence:  seq,
			Duration:  time.Duration(settings.Scene.DurationMinutes * 60 * float64(time.Second)),
			Timestamp: start,
		}
		for _, snk := range sinks {
			if err := snk.Deliver(deliveryCtx, seg); err != nil {
				m.DeliveryErrors.Inc()
				logger.Error("scene delivery failed",
					"sink", snk.Name(),
					"filename", filename,
					"error", err)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if settings.Telemetry.Enabled {
		endpoint := telemetry.NewEndpoint(settings.Telemetry.Listen, registry)
		g.Go(func() error {
			return endpoint.Start(gctx)
		})
	}

	if err := scheduler.Start(settings.Audio.Source, settings.Scene.DurationMinutes, onSegment); err != nil {
		stop()
		_ = g.Wait()
		return fmt.Errorf("failed to start recording: %w", err)
	}

	<-gctx.Done()
	stop()

	// A second interrupt aborts the run without waiting for the final
	// segment to be emitted.
	forceCh := make(chan os.Signal, 1)
	signal.Notify(forceCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(forceCh)
	go func() {
		<-forceCh
		logger.Warn("second interrupt received, aborting run")
		scheduler.ForceStop()
	}()

	stats, err := scheduler.Stop()
	if err != nil {
		logger.Warn("recording stop reported error", "error", err)
	}

	if gerr := g.Wait(); gerr != nil {
		logger.Warn("telemetry endpoint exited with error", "error", gerr)
	}

	fmt.Printf("Recording finished: %d scenes, %s captured\n",
		stats.TotalScenes, stats.TotalDuration.Round(time.Second))
	return nil
}

// buildSinks assembles the delivery chain from the configuration. Order is
// disk first so a failed upload never costs the local copy.
func buildSinks(settings *conf.Settings, logger *slog.Logger) []sink.Sink {
	var sinks []sink.Sink
	if settings.Export.Enabled {
		sinks = append(sinks, sink.NewDisk(settings.Export.Path, settings.Export.MaxScenes, logger))
	}
	if settings.Upload.Enabled {
		timeout := time.Duration(settings.Upload.Timeout) * time.Second
		sinks = append(sinks, sink.NewHTTP(settings.Upload.URL, timeout, logger))
	}
	return sinks
}
