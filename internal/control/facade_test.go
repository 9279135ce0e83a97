package control

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/streamnode/streamnode/internal/pipeline"
	"github.com/streamnode/streamnode/internal/platform"
	"github.com/streamnode/streamnode/internal/probe"
	"github.com/streamnode/streamnode/internal/session"
)

type fakeProber struct {
	devices []probe.Device
	caps    map[string]*probe.CapabilitySet
	err     error
}

func (p *fakeProber) ListDevices(_ context.Context) ([]probe.Device, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.devices, nil
}

func (p *fakeProber) Probe(_ context.Context, deviceRef string) (*probe.CapabilitySet, error) {
	if p.err != nil {
		return nil, p.err
	}
	caps, ok := p.caps[deviceRef]
	if !ok {
		return nil, probe.ErrDeviceNotFound
	}
	return caps, nil
}

type fakePublisher struct {
	calls []string
	err   error
}

func (p *fakePublisher) EnsureReady(_ context.Context, streamName string) error {
	p.calls = append(p.calls, streamName)
	return p.err
}

func testCaps(dev probe.Device) *probe.CapabilitySet {
	return &probe.CapabilitySet{
		Device: dev,
		Capabilities: []probe.Capability{
			{Format: probe.FormatYUYV, Width: 1920, Height: 1080, Rates: []probe.Rate{{Num: 30, Den: 1}}},
			{Format: probe.FormatMJPEG, Width: 1280, Height: 720, Rates: []probe.Rate{{Num: 60, Den: 1}, {Num: 30, Den: 1}}},
		},
		ProbedAt: time.Now(),
	}
}

func testFacade(t *testing.T, prober probe.Prober, publisher Publisher) *Facade {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sup := session.New(session.Config{
		Binary:      "sh",
		GracePeriod: 50 * time.Millisecond,
	}, logger, logger, nil)
	t.Cleanup(func() { _ = sup.Stop() })
	// Software profile keeps the rendered args self-contained; the fake
	// shell ignores them anyway.
	return New(Config{}, prober, platform.Resolve("unknown"), sup, publisher, logger)
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var se *StreamError
	if !errors.As(err, &se) {
		t.Fatalf("error %v is not a StreamError", err)
	}
	return se.Code
}

func TestStartNegotiatesProfile(t *testing.T) {
	dev := probe.Device{ID: "usb-Logitech_BRIO-video-index0", Path: "/dev/video0", Name: "BRIO"}
	prober := &fakeProber{caps: map[string]*probe.CapabilitySet{dev.ID: testCaps(dev)}}
	publisher := &fakePublisher{}
	f := testFacade(t, prober, publisher)

	// "sh" can't run FFmpeg args, so the start fails at runtime, but the
	// negotiation result and publisher call are what this test checks.
	profile, err := f.Start(context.Background(), pipeline.Request{
		DeviceRef: dev.ID,
		Width:     1280,
		Height:    720,
		FPS:       60,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if profile.Width != 1280 || profile.Height != 720 {
		t.Errorf("negotiated %dx%d, want 1280x720", profile.Width, profile.Height)
	}
	if profile.Rate.FPS() != 60 {
		t.Errorf("negotiated %v fps, want 60", profile.Rate.FPS())
	}
	if profile.Sink.Host != "127.0.0.1" || profile.Sink.Port != 8890 || profile.Sink.StreamName != "live" {
		t.Errorf("sink defaults not applied: %+v", profile.Sink)
	}
	if len(publisher.calls) != 1 || publisher.calls[0] != "live" {
		t.Errorf("publisher calls = %v, want [live]", publisher.calls)
	}
}

func TestStartUnknownDevice(t *testing.T) {
	f := testFacade(t, &fakeProber{caps: map[string]*probe.CapabilitySet{}}, nil)

	_, err := f.Start(context.Background(), pipeline.Request{DeviceRef: "usb-gone"})
	if got := codeOf(t, err); got != CodeDeviceNotFound {
		t.Errorf("code = %s, want %s", got, CodeDeviceNotFound)
	}
}

func TestStartWithoutDeviceRef(t *testing.T) {
	f := testFacade(t, &fakeProber{}, nil)

	_, err := f.Start(context.Background(), pipeline.Request{})
	if got := codeOf(t, err); got != CodeInvalidRequest {
		t.Errorf("code = %s, want %s", got, CodeInvalidRequest)
	}
}

func TestStartProbeUnavailable(t *testing.T) {
	f := testFacade(t, &fakeProber{err: probe.ErrProbeUnavailable}, nil)

	_, err := f.Start(context.Background(), pipeline.Request{DeviceRef: "/dev/video0"})
	if got := codeOf(t, err); got != CodeProbeUnavailable {
		t.Errorf("code = %s, want %s", got, CodeProbeUnavailable)
	}
}

func TestStartNoCompatibleCapability(t *testing.T) {
	dev := probe.Device{ID: "usb-cam", Path: "/dev/video0"}
	prober := &fakeProber{caps: map[string]*probe.CapabilitySet{dev.ID: testCaps(dev)}}
	f := testFacade(t, prober, nil)

	_, err := f.Start(context.Background(), pipeline.Request{
		DeviceRef: dev.ID,
		Format:    probe.FormatH264, // device offers YUYV and MJPG only
	})
	if got := codeOf(t, err); got != CodeNoCompatibleCapability {
		t.Errorf("code = %s, want %s", got, CodeNoCompatibleCapability)
	}
}

func TestSecondStartRejected(t *testing.T) {
	dev := probe.Device{ID: "usb-cam", Path: "/dev/video0"}
	prober := &fakeProber{caps: map[string]*probe.CapabilitySet{dev.ID: testCaps(dev)}}
	f := testFacade(t, prober, nil)

	if _, err := f.Start(context.Background(), pipeline.Request{DeviceRef: dev.ID}); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}

	_, err := f.Start(context.Background(), pipeline.Request{DeviceRef: dev.ID})
	if got := codeOf(t, err); got != CodeAlreadyRunning {
		t.Errorf("code = %s, want %s", got, CodeAlreadyRunning)
	}
}

func TestStopThenRestart(t *testing.T) {
	dev := probe.Device{ID: "usb-cam", Path: "/dev/video0"}
	prober := &fakeProber{caps: map[string]*probe.CapabilitySet{dev.ID: testCaps(dev)}}
	f := testFacade(t, prober, nil)

	if _, err := f.Start(context.Background(), pipeline.Request{DeviceRef: dev.ID}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := f.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if st := f.Status(); st.State != session.StateIdle {
		t.Fatalf("state after stop = %s, want idle", st.State)
	}
	if _, err := f.Start(context.Background(), pipeline.Request{DeviceRef: dev.ID}); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
}

func TestStopWhenIdle(t *testing.T) {
	f := testFacade(t, &fakeProber{}, nil)

	if err := f.Stop(context.Background()); err != nil {
		t.Fatalf("Stop on idle facade returned error: %v", err)
	}
}

func TestPublisherFailureIsNonFatal(t *testing.T) {
	dev := probe.Device{ID: "usb-cam", Path: "/dev/video0"}
	prober := &fakeProber{caps: map[string]*probe.CapabilitySet{dev.ID: testCaps(dev)}}
	publisher := &fakePublisher{err: errors.New("media server down")}
	f := testFacade(t, prober, publisher)

	if _, err := f.Start(context.Background(), pipeline.Request{DeviceRef: dev.ID}); err != nil {
		t.Fatalf("Start failed despite best-effort publisher: %v", err)
	}
}

func TestListDevices(t *testing.T) {
	devices := []probe.Device{
		{ID: "usb-cam-a", Path: "/dev/video0", Transport: probe.TransportUSB},
		{ID: "platform-cam", Path: "/dev/video2", Transport: probe.TransportPlatform},
	}
	f := testFacade(t, &fakeProber{devices: devices}, nil)

	got, err := f.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "usb-cam-a" {
		t.Errorf("unexpected device list: %+v", got)
	}
}

func TestCapabilitiesRequiresRef(t *testing.T) {
	f := testFacade(t, &fakeProber{}, nil)

	_, err := f.Capabilities(context.Background(), "")
	if got := codeOf(t, err); got != CodeInvalidRequest {
		t.Errorf("code = %s, want %s", got, CodeInvalidRequest)
	}
}
