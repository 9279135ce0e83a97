// Package platform maps a host hint to the encoder capabilities of the
// board the service runs on. Resolution is pure data: no file or process
// I/O happens here, and an unrecognized hint always falls back to the
// software profile instead of failing.
package platform

import (
	"strings"

	"github.com/streamnode/streamnode/internal/probe"
)

// SoftwareEncoder is the encoder every profile can fall back to.
const SoftwareEncoder = "libx264"

// Profile describes the encoding capabilities of one board family.
type Profile struct {
	Name string `json:"name"`

	// HardwareEncoder is the FFmpeg encoder backed by the SoC video
	// block, empty when the board has none.
	HardwareEncoder string `json:"hardware_encoder,omitempty"`

	// EncoderFormats lists pixel formats the active encoder ingests
	// without a convert stage, in preference order.
	EncoderFormats []probe.PixelFormat `json:"encoder_formats"`

	// HardwareScaler reports whether scaling is offloaded (e.g. RGA on
	// Rockchip), making resolution conversion cheap.
	HardwareScaler bool `json:"hardware_scaler"`

	// MaxBitrateKbps caps the bitrate ladder for the board's encoder.
	MaxBitrateKbps int `json:"max_bitrate_kbps"`

	// ExtraEncoderArgs are appended verbatim after the encoder flag.
	ExtraEncoderArgs []string `json:"extra_encoder_args,omitempty"`
}

// Encoder returns the FFmpeg encoder the profile uses.
func (p Profile) Encoder() string {
	if p.HardwareEncoder != "" {
		return p.HardwareEncoder
	}
	return SoftwareEncoder
}

// HardwareAccelerated reports whether encoding is offloaded.
func (p Profile) HardwareAccelerated() bool {
	return p.HardwareEncoder != ""
}

// Software returns a copy of the profile demoted to the software encoder,
// used when the FFmpeg build lacks the hardware encoder.
func (p Profile) Software() Profile {
	demoted := softwareProfile
	demoted.Name = p.Name
	return demoted
}

var (
	rockchipProfile = Profile{
		Name:            "rockchip",
		HardwareEncoder: "h264_rkmpp",
		EncoderFormats:  []probe.PixelFormat{probe.FormatNV12, probe.FormatYUYV},
		HardwareScaler:  true,
		MaxBitrateKbps:  12000,
	}

	raspberryProfile = Profile{
		Name:            "raspberrypi",
		HardwareEncoder: "h264_v4l2m2m",
		EncoderFormats:  []probe.PixelFormat{probe.FormatYUV420, probe.FormatNV12},
		HardwareScaler:  false,
		MaxBitrateKbps:  8000,
	}

	softwareProfile = Profile{
		Name:           "generic",
		EncoderFormats: []probe.PixelFormat{probe.FormatYUV420},
		HardwareScaler: false,
		MaxBitrateKbps: 8000,
		ExtraEncoderArgs: []string{
			"-preset", "ultrafast",
			"-tune", "zerolatency",
		},
	}
)

// Resolve maps a host hint to a profile. Unknown hints never error; they
// resolve to the software profile so a stream can always start.
func Resolve(hint string) Profile {
	h := strings.ToLower(strings.TrimSpace(hint))
	switch {
	case strings.Contains(h, "rockchip"), strings.Contains(h, "rk35"), strings.Contains(h, "radxa"):
		return rockchipProfile
	case strings.Contains(h, "raspberry"), strings.Contains(h, "bcm27"), strings.Contains(h, "bcm28"):
		return raspberryProfile
	default:
		return softwareProfile
	}
}
