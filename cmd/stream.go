package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/streamnode/streamnode/internal/control"
	"github.com/streamnode/streamnode/internal/ffmpeg"
	"github.com/streamnode/streamnode/internal/logging"
	"github.com/streamnode/streamnode/internal/pipeline"
	"github.com/streamnode/streamnode/internal/platform"
	"github.com/streamnode/streamnode/internal/probe"
	"github.com/streamnode/streamnode/internal/session"
)

// CreateStreamCmd creates the stream command.
func CreateStreamCmd() *cobra.Command {
	var (
		width       uint32
		height      uint32
		fps         float64
		format      string
		bitrateKbps int
		sinkHost    string
		sinkPort    int
		streamName  string
		binary      string
		logJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "stream <device-ref>",
		Short: "Run a single streaming session headless",
		Long: `Probes the device, negotiates a stream profile against the detected ` +
			`platform, and supervises the FFmpeg session until interrupted. Width, ` +
			`height, and fps are preferences; format is a hard constraint when set.`,
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			deviceRef := args[0]

			loggingConfig := logging.Config{Level: "info", Format: "text"}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("stream").With("device", deviceRef)

			hint := platform.DetectHint()
			plat := platform.Resolve(hint)

			verifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			plat = ffmpeg.VerifyProfile(verifyCtx, binary, plat, logging.GetLogger("ffmpeg"))
			cancel()

			logger.Info("Platform resolved", "platform", plat.Name, "encoder", plat.Encoder())

			sup := session.New(session.Config{Binary: binary},
				logging.GetLogger("session"), logging.GetLogger("encoder"), nil)
			facade := control.New(control.Config{},
				probe.NewProber(logging.GetLogger("probe")), plat, sup, nil, logger)

			req := pipeline.Request{
				DeviceRef:   deviceRef,
				Width:       width,
				Height:      height,
				FPS:         fps,
				Format:      probe.PixelFormat(format),
				BitrateKbps: bitrateKbps,
				Sink: pipeline.Sink{
					Host:       sinkHost,
					Port:       sinkPort,
					StreamName: streamName,
				},
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			profile, err := facade.Start(ctx, req)
			if err != nil {
				logger.Error("Failed to start stream", "error", err)
				os.Exit(1)
			}
			logger.Info("Streaming", "profile", profile.Summary(), "sink", profile.Sink.URL())

			// Run until interrupted or the session parks in Error.
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
		wait:
			for {
				select {
				case <-ctx.Done():
					break wait
				case <-ticker.C:
					if st := facade.Status(); st.State == session.StateError {
						logger.Error("Session failed", "error", st.LastError)
						_ = facade.Stop(context.Background())
						os.Exit(1)
					}
				}
			}

			logger.Info("Shutting down")
			if err := facade.Stop(context.Background()); err != nil {
				logger.Error("Stop failed", "error", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().Uint32Var(&width, "width", 0, "Preferred capture width (0 = best available)")
	cmd.Flags().Uint32Var(&height, "height", 0, "Preferred capture height (0 = best available)")
	cmd.Flags().Float64Var(&fps, "fps", 0, "Preferred framerate (0 = best available)")
	cmd.Flags().StringVar(&format, "format", "", "Pixel format constraint (e.g. MJPG, YUYV)")
	cmd.Flags().IntVar(&bitrateKbps, "bitrate", 0, "Target bitrate in kbps (0 = platform default)")
	cmd.Flags().StringVar(&sinkHost, "sink-host", "", "SRT ingest host (default 127.0.0.1)")
	cmd.Flags().IntVar(&sinkPort, "sink-port", 0, "SRT ingest port (default 8890)")
	cmd.Flags().StringVar(&streamName, "stream-name", "", "Publish stream name (default live)")
	cmd.Flags().StringVar(&binary, "ffmpeg", ffmpeg.DefaultBinary, "FFmpeg binary to run")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}
