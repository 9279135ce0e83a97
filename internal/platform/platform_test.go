package platform

import (
	"testing"

	"github.com/streamnode/streamnode/internal/probe"
)

func TestResolveKnownHints(t *testing.T) {
	tests := []struct {
		hint        string
		wantName    string
		wantEncoder string
	}{
		{"rockchip rk3566 radxa-zero3", "rockchip", "h264_rkmpp"},
		{"RK3588", "rockchip", "h264_rkmpp"},
		{"raspberrypi bcm2711", "raspberrypi", "h264_v4l2m2m"},
		{"Raspberry Pi 4 Model B", "raspberrypi", "h264_v4l2m2m"},
		{"generic x86_64 box", "generic", "libx264"},
		{"", "generic", "libx264"},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			p := Resolve(tt.hint)
			if p.Name != tt.wantName {
				t.Errorf("Resolve(%q).Name = %q, want %q", tt.hint, p.Name, tt.wantName)
			}
			if p.Encoder() != tt.wantEncoder {
				t.Errorf("Resolve(%q).Encoder() = %q, want %q", tt.hint, p.Encoder(), tt.wantEncoder)
			}
		})
	}
}

func TestResolveNeverReturnsEmptyProfile(t *testing.T) {
	for _, hint := range []string{"", "???", "amlogic s905", "jetson"} {
		p := Resolve(hint)
		if p.Encoder() == "" {
			t.Errorf("Resolve(%q) has no encoder", hint)
		}
		if p.MaxBitrateKbps <= 0 {
			t.Errorf("Resolve(%q) has no bitrate ceiling", hint)
		}
		if len(p.EncoderFormats) == 0 {
			t.Errorf("Resolve(%q) has no encoder formats", hint)
		}
	}
}

func TestSoftwareDemotionKeepsName(t *testing.T) {
	p := Resolve("rockchip").Software()
	if p.HardwareEncoder != "" {
		t.Error("demoted profile still carries a hardware encoder")
	}
	if p.Encoder() != SoftwareEncoder {
		t.Errorf("demoted encoder = %q, want %q", p.Encoder(), SoftwareEncoder)
	}
	if p.Name != "rockchip" {
		t.Errorf("demoted profile lost its name: %q", p.Name)
	}
	if p.EncoderFormats[0] != probe.FormatYUV420 {
		t.Errorf("demoted profile should prefer YUV420, got %v", p.EncoderFormats)
	}
}

func TestHardwareAccelerated(t *testing.T) {
	if !Resolve("rockchip").HardwareAccelerated() {
		t.Error("rockchip profile should be hardware accelerated")
	}
	if Resolve("unknown").HardwareAccelerated() {
		t.Error("generic profile should not be hardware accelerated")
	}
}
