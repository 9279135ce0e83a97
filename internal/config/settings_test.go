package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/streamnode/streamnode/internal/probe"
)

func TestSettingsStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings", "streamnode.toml")
	store := NewSettingsStore(path)

	if err := store.Load(); err != nil {
		t.Fatalf("Load of missing file failed: %v", err)
	}

	err := store.Update(func(s *Settings) {
		s.Autostart = true
		s.Stream = StreamSettings{
			Device: "usb-cam",
			Width:  1280,
			Height: 720,
			FPS:    30,
			Format: "MJPG",
		}
		s.Sink = SinkSettings{Host: "ingest.local", Port: 8890, StreamName: "cam1"}
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fresh := NewSettingsStore(path)
	if err := fresh.Load(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	got := fresh.Get()
	if !got.Autostart {
		t.Error("autostart lost in round trip")
	}
	if got.Stream.Device != "usb-cam" || got.Stream.Width != 1280 {
		t.Errorf("stream settings lost: %+v", got.Stream)
	}
	if got.Sink.StreamName != "cam1" {
		t.Errorf("sink settings lost: %+v", got.Sink)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped")
	}
}

func TestSettingsRequestConversion(t *testing.T) {
	s := Settings{
		Stream: StreamSettings{Device: "/dev/video0", FPS: 29.97, Format: "YUYV", BitrateKbps: 2500},
		Sink:   SinkSettings{Host: "127.0.0.1", Port: 8890, StreamName: "live"},
	}

	req := s.Request()
	if req.DeviceRef != "/dev/video0" {
		t.Errorf("DeviceRef = %s", req.DeviceRef)
	}
	if req.Format != probe.FormatYUYV {
		t.Errorf("Format = %s, want YUYV", req.Format)
	}
	if req.Sink.URL() != "srt://127.0.0.1:8890?streamid=publish:live" {
		t.Errorf("sink URL = %s", req.Sink.URL())
	}
}

func TestLoadSettingsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Fatal("LoadSettings accepted malformed TOML")
	}
}
