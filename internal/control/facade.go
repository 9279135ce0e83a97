// Package control is the single entry point for stream operations. It
// serializes start, stop, and status, runs the probe-negotiate-render
// chain, and translates component errors into the typed taxonomy the API
// exposes.
package control

import (
	"context"
	"sync"

	"github.com/streamnode/streamnode/internal/logging"
	"github.com/streamnode/streamnode/internal/pipeline"
	"github.com/streamnode/streamnode/internal/platform"
	"github.com/streamnode/streamnode/internal/probe"
	"github.com/streamnode/streamnode/internal/session"
)

// Publisher prepares the media server to accept a stream. Implementations
// are best-effort; a failure is logged, never fatal.
type Publisher interface {
	EnsureReady(ctx context.Context, streamName string) error
}

// Config carries the façade's fixed collaborators and defaults.
type Config struct {
	// DefaultSink fills in sink fields the request leaves empty.
	DefaultSink pipeline.Sink
}

func (c Config) withDefaults() Config {
	if c.DefaultSink.Host == "" {
		c.DefaultSink.Host = "127.0.0.1"
	}
	if c.DefaultSink.Port == 0 {
		c.DefaultSink.Port = 8890
	}
	if c.DefaultSink.StreamName == "" {
		c.DefaultSink.StreamName = "live"
	}
	return c
}

// Facade coordinates the prober, the pipeline selector, and the session
// supervisor behind a serialized command surface.
type Facade struct {
	cfg       Config
	prober    probe.Prober
	plat      platform.Profile
	sup       *session.Supervisor
	publisher Publisher
	logger    logging.Logger

	// ops serializes start and stop so interleaved commands observe
	// consistent session states. Status reads bypass it.
	ops sync.Mutex
}

// New assembles the façade. publisher may be nil.
func New(cfg Config, prober probe.Prober, plat platform.Profile, sup *session.Supervisor, publisher Publisher, logger logging.Logger) *Facade {
	return &Facade{
		cfg:       cfg.withDefaults(),
		prober:    prober,
		plat:      plat,
		sup:       sup,
		publisher: publisher,
		logger:    logger,
	}
}

// ListDevices enumerates attached capture devices.
func (f *Facade) ListDevices(ctx context.Context) ([]probe.Device, error) {
	devices, err := f.prober.ListDevices(ctx)
	if err != nil {
		return nil, classify(err, "device enumeration failed")
	}
	return devices, nil
}

// Capabilities probes one device's capability set.
func (f *Facade) Capabilities(ctx context.Context, deviceRef string) (*probe.CapabilitySet, error) {
	if deviceRef == "" {
		return nil, newStreamError(CodeInvalidRequest, "device reference is required", nil)
	}
	caps, err := f.prober.Probe(ctx, deviceRef)
	if err != nil {
		return nil, classify(err, "capability probe failed")
	}
	return caps, nil
}

// Start negotiates a profile for the request and launches the session.
// On success the returned profile is the negotiated contract.
func (f *Facade) Start(ctx context.Context, req pipeline.Request) (*pipeline.StreamProfile, error) {
	f.ops.Lock()
	defer f.ops.Unlock()

	if req.DeviceRef == "" {
		return nil, newStreamError(CodeInvalidRequest, "device reference is required", nil)
	}
	req.Sink = f.fillSink(req.Sink)

	// Reject early so a doomed start never probes hardware.
	if f.sup.Status().State.Active() {
		return nil, newStreamError(CodeAlreadyRunning, "a streaming session is already active", session.ErrAlreadyRunning)
	}

	caps, err := f.prober.Probe(ctx, req.DeviceRef)
	if err != nil {
		return nil, classify(err, "capability probe failed")
	}

	profile, err := pipeline.Select(caps, f.plat, req)
	if err != nil {
		return nil, classify(err, "capability negotiation failed")
	}

	spec := pipeline.Render(profile, f.plat)
	f.logger.Info("Negotiated stream profile",
		"device", profile.Device.ID,
		"profile", profile.Summary(),
		"sink", profile.Sink.URL())

	if f.publisher != nil {
		if err := f.publisher.EnsureReady(ctx, req.Sink.StreamName); err != nil {
			f.logger.Warn("Media server not confirmed ready, starting anyway", "error", err)
		}
	}

	if err := f.sup.Start(profile, spec.CommandArgs()); err != nil {
		return nil, classify(err, "session start failed")
	}
	return profile, nil
}

// Stop terminates the active session. Stopping when idle succeeds.
func (f *Facade) Stop(ctx context.Context) error {
	f.ops.Lock()
	defer f.ops.Unlock()

	if err := f.sup.Stop(); err != nil {
		return classify(err, "session stop failed")
	}
	return nil
}

// Status reports the current session snapshot. It never blocks behind a
// start or stop in flight.
func (f *Facade) Status() session.Status {
	return f.sup.Status()
}

// Platform reports the active platform profile.
func (f *Facade) Platform() platform.Profile {
	return f.plat
}

func (f *Facade) fillSink(sink pipeline.Sink) pipeline.Sink {
	if sink.Host == "" {
		sink.Host = f.cfg.DefaultSink.Host
	}
	if sink.Port == 0 {
		sink.Port = f.cfg.DefaultSink.Port
	}
	if sink.StreamName == "" {
		sink.StreamName = f.cfg.DefaultSink.StreamName
	}
	return sink
}
