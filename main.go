package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/streamnode/streamnode/cmd"
	"github.com/streamnode/streamnode/internal/api"
	"github.com/streamnode/streamnode/internal/config"
	"github.com/streamnode/streamnode/internal/control"
	"github.com/streamnode/streamnode/internal/events"
	"github.com/streamnode/streamnode/internal/ffmpeg"
	"github.com/streamnode/streamnode/internal/logging"
	"github.com/streamnode/streamnode/internal/mediamtx"
	"github.com/streamnode/streamnode/internal/metrics"
	"github.com/streamnode/streamnode/internal/pipeline"
	"github.com/streamnode/streamnode/internal/platform"
	"github.com/streamnode/streamnode/internal/probe"
	"github.com/streamnode/streamnode/internal/session"
	"github.com/streamnode/streamnode/internal/sysinfo"
	"github.com/streamnode/streamnode/internal/systemd"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Address to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Settings file (operator-editable stream defaults)
	SettingsFile string `help:"Node settings file" default:"streamnode.toml" toml:"settings.file" env:"SETTINGS_FILE"`

	// Platform settings
	PlatformHint string `help:"Override platform detection (rockchip, raspberrypi, generic)" default:"" toml:"platform.hint" env:"PLATFORM_HINT"`
	FFmpegBinary string `help:"FFmpeg binary to run" default:"ffmpeg" toml:"platform.ffmpeg_binary" env:"FFMPEG_BINARY"`

	// Sink settings
	SinkHost       string `help:"Default SRT ingest host" default:"127.0.0.1" toml:"sink.host" env:"SINK_HOST"`
	SinkPort       int    `help:"Default SRT ingest port" default:"8890" toml:"sink.port" env:"SINK_PORT"`
	SinkStreamName string `help:"Default publish stream name" default:"live" toml:"sink.stream_name" env:"SINK_STREAM_NAME"`

	// MediaMTX settings
	MediaMTXEnabled    bool   `help:"Manage the local MediaMTX install" default:"true" toml:"mediamtx.enabled" env:"MEDIAMTX_ENABLED"`
	MediaMTXConfigPath string `help:"MediaMTX config file" default:"/etc/mediamtx/mediamtx.yml" toml:"mediamtx.config_path" env:"MEDIAMTX_CONFIG_PATH"`
	MediaMTXAPIURL     string `help:"MediaMTX API base URL" default:"http://127.0.0.1:9997" toml:"mediamtx.api_url" env:"MEDIAMTX_API_URL"`
	MediaMTXUnit       string `help:"MediaMTX systemd unit" default:"mediamtx.service" toml:"mediamtx.unit" env:"MEDIAMTX_UNIT"`

	// Metrics settings
	MetricsEnabled bool `help:"Serve Prometheus metrics at /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSession string `help:"Session supervisor logging level" default:"info" toml:"logging.session" env:"LOGGING_SESSION"`
	LoggingEncoder string `help:"Encoder output logging level" default:"info" toml:"logging.encoder" env:"LOGGING_ENCODER"`
	LoggingProbe   string `help:"Device probe logging level" default:"info" toml:"logging.probe" env:"LOGGING_PROBE"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func main() {
	var rootCmd *cobra.Command

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration with CLI > env > TOML precedence
		if loadErr := config.LoadConfig(opts, rootCmd); loadErr != nil {
			logging.GetLogger("main").Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"session": opts.LoggingSession,
				"encoder": opts.LoggingEncoder,
				"probe":   opts.LoggingProbe,
				"api":     opts.LoggingAPI,
			},
		})

		logger := logging.GetLogger("main")

		// Resolve the platform profile and verify its encoder exists in
		// the local FFmpeg build, demoting to software when it doesn't.
		hint := opts.PlatformHint
		if hint == "" {
			hint = platform.DetectHint()
		}
		plat := platform.Resolve(hint)

		verifyCtx, cancelVerify := context.WithTimeout(context.Background(), 10*time.Second)
		plat = ffmpeg.VerifyProfile(verifyCtx, opts.FFmpegBinary, plat, logging.GetLogger("ffmpeg"))
		cancelVerify()

		logger.Info("Platform resolved",
			"platform", plat.Name,
			"encoder", plat.Encoder(),
			"hardware", plat.HardwareAccelerated())

		// Event bus connects the supervisor to metrics and future listeners
		eventBus := events.New()

		var recorder *metrics.Recorder
		var onProgress func(ffmpeg.Progress)
		if opts.MetricsEnabled {
			recorder = metrics.NewRecorder()
			recorder.Attach(eventBus)
			onProgress = recorder.ObserveProgress
		}

		supervisor := session.New(session.Config{
			Binary:     opts.FFmpegBinary,
			OnProgress: onProgress,
		}, logging.GetLogger("session"), logging.GetLogger("encoder"), eventBus)

		// MediaMTX manager doubles as the facade's publisher. The systemd
		// connection is best-effort: without it config reconciliation
		// still runs, only the unit restart is skipped.
		var publisher control.Publisher
		var mtxManager *mediamtx.Manager
		if opts.MediaMTXEnabled {
			var units *systemd.UnitManager
			unitsCtx, cancelUnits := context.WithTimeout(context.Background(), 5*time.Second)
			units, err := systemd.NewSystem(unitsCtx)
			cancelUnits()
			if err != nil {
				logger.Warn("Systemd unavailable, media server restarts disabled", "error", err)
				units = nil
			}

			mtxManager = mediamtx.NewManager(mediamtx.ManagerConfig{
				ConfigPath: opts.MediaMTXConfigPath,
				APIURL:     opts.MediaMTXAPIURL,
				Unit:       opts.MediaMTXUnit,
			}, units, logging.GetLogger("mediamtx"))
			publisher = mtxManager
		}

		prober := probe.NewProber(logging.GetLogger("probe"))

		facade := control.New(control.Config{
			DefaultSink: pipeline.Sink{
				Host:       opts.SinkHost,
				Port:       opts.SinkPort,
				StreamName: opts.SinkStreamName,
			},
		}, prober, plat, supervisor, publisher, logger)

		// Persisted operator settings with live reload
		settingsStore := config.NewSettingsStore(opts.SettingsFile)
		if err := settingsStore.Load(); err != nil {
			logger.Warn("Failed to load settings, using defaults", "error", err)
		}

		settingsWatcher := config.NewWatcher(settingsStore.Path(), config.LoadSettings, logger)
		settingsWatcher.OnReload(func(config.Settings) {
			if err := settingsStore.Load(); err != nil {
				logger.Warn("Failed to reload settings", "error", err)
			}
		})

		serverOpts := &api.Options{
			Facade:   facade,
			Settings: settingsStore,
			System:   sysinfo.NewCollector(),
		}
		if recorder != nil {
			serverOpts.MetricsHandler = recorder.Handler()
		}

		server := api.NewServer(serverOpts)

		hooks.OnStart(func() {
			if err := settingsWatcher.Start(); err != nil {
				logger.Warn("Failed to start settings watcher, hot-reload disabled", "error", err)
			}

			// Autostart runs in the background so a slow or missing
			// device never delays the API coming up.
			if settings := settingsStore.Get(); settings.Autostart && settings.Stream.Device != "" {
				go func() {
					startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
					defer cancel()

					profile, err := facade.Start(startCtx, settings.Request())
					if err != nil {
						logger.Error("Autostart failed", "device", settings.Stream.Device, "error", err)
						return
					}
					logger.Info("Autostarted stream", "profile", profile.Summary())
				}()
			}

			logger.Info("Starting HTTP server", "addr", opts.Port)
			if err := server.Start(opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			if err := server.Stop(); err != nil {
				logger.Error("Error stopping HTTP server", "error", err)
			}

			if err := settingsWatcher.Stop(); err != nil {
				logger.Error("Error stopping settings watcher", "error", err)
			}

			// Stop the encoder after the API stops accepting commands
			stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := facade.Stop(stopCtx); err != nil {
				logger.Error("Error stopping stream session", "error", err)
			}
		})
	})

	rootCmd = cli.Root()
	rootCmd.AddCommand(cmd.CreateProbeCmd())
	rootCmd.AddCommand(cmd.CreateStreamCmd())

	cli.Run()
}
