// Package probe discovers capture devices and enumerates what they can
// produce: pixel formats, frame sizes, and exact framerates. The output is
// a normalized capability snapshot the pipeline selector negotiates
// against.
package probe

import (
	"context"
	"log/slog"
)

// Prober enumerates capture devices and their capabilities.
type Prober interface {
	// ListDevices returns all capture devices currently attached.
	ListDevices(ctx context.Context) ([]Device, error)

	// Probe takes a fresh capability snapshot for the referenced device.
	// The reference is either a stable device ID or a /dev node path.
	Probe(ctx context.Context, deviceRef string) (*CapabilitySet, error)
}

// NewProber returns the prober for the current platform.
func NewProber(logger *slog.Logger) Prober {
	return newProber(logger)
}
