package v4l2

import "testing"

func TestFormatFourCC(t *testing.T) {
	tests := []struct {
		format uint32
		want   string
	}{
		{PixFmtYUYV, "YUYV"},
		{PixFmtMJPEG, "MJPG"},
		{PixFmtH264, "H264"},
		{PixFmtNV12, "NV12"},
		{PixFmtYUV420, "YU12"},
		{PixFmtRGB24, "RGB3"},
		{PixFmtBGR24, "BGR3"},
	}

	for _, tt := range tests {
		if got := FormatFourCC(tt.format); got != tt.want {
			t.Errorf("FormatFourCC(%#x) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestFramerateFPS(t *testing.T) {
	tests := []struct {
		name string
		fr   Framerate
		want float64
	}{
		{"30fps", Framerate{1, 30}, 30},
		{"ntsc", Framerate{1001, 30000}, 30000.0 / 1001.0},
		{"zero numerator", Framerate{0, 30}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fr.FPS(); got != tt.want {
				t.Errorf("FPS() = %v, want %v", got, tt.want)
			}
		})
	}
}
