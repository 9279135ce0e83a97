package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/streamnode/streamnode/internal/logging"
	"github.com/streamnode/streamnode/internal/probe"
)

// CreateProbeCmd creates the probe command.
func CreateProbeCmd() *cobra.Command {
	var asJSON bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "probe [device-ref]",
		Short: "List capture devices or probe one device's capabilities",
		Long: `Without arguments, enumerates attached capture devices. With a device ` +
			`reference (stable ID or /dev node path), probes and prints the normalized ` +
			`capability set: pixel formats, frame sizes, and exact framerates.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})
			prober := probe.NewProber(logging.GetLogger("probe"))

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if len(args) == 0 {
				listDevices(ctx, prober, asJSON)
				return
			}
			probeDevice(ctx, prober, args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Probe timeout")

	return cmd
}

func listDevices(ctx context.Context, prober probe.Prober, asJSON bool) {
	devices, err := prober.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "device enumeration failed: %v\n", err)
		os.Exit(1)
	}

	if asJSON {
		printJSON(devices)
		return
	}

	if len(devices) == 0 {
		fmt.Println("no capture devices found")
		return
	}
	for _, dev := range devices {
		fmt.Printf("%-32s %-14s %s (%s)\n", dev.ID, dev.Path, dev.Name, dev.Transport)
	}
}

func probeDevice(ctx context.Context, prober probe.Prober, deviceRef string, asJSON bool) {
	caps, err := prober.Probe(ctx, deviceRef)
	if err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}

	if asJSON {
		printJSON(caps)
		return
	}

	fmt.Printf("%s (%s)\n", caps.Device.Name, caps.Device.Path)
	for _, c := range caps.Capabilities {
		fmt.Printf("  %-6s %4dx%-4d @", c.Format, c.Width, c.Height)
		for _, r := range c.Rates {
			fmt.Printf(" %.5g", r.FPS())
		}
		fmt.Println()
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode failed: %v\n", err)
		os.Exit(1)
	}
}
