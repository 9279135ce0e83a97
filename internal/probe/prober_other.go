//go:build !linux

package probe

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
)

// stubProber is used on platforms without a V4L2-style capture stack.
type stubProber struct {
	logger *slog.Logger
}

func newProber(logger *slog.Logger) Prober {
	return &stubProber{logger: logger}
}

func (p *stubProber) ListDevices(_ context.Context) ([]Device, error) {
	return []Device{}, nil
}

func (p *stubProber) Probe(_ context.Context, deviceRef string) (*CapabilitySet, error) {
	return nil, fmt.Errorf("%w: no capture backend on %s", ErrProbeUnavailable, runtime.GOOS)
}
