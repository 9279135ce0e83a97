package pipeline

import (
	"testing"

	"github.com/streamnode/streamnode/internal/platform"
)

func TestNegotiateBitrateLadder(t *testing.T) {
	rockchip := platform.Resolve("rockchip")
	pi := platform.Resolve("raspberrypi")

	tests := []struct {
		name      string
		w, h      uint32
		fps       float64
		requested int
		plat      platform.Profile
		want      int
	}{
		// 1920*1080*30*0.1/1000 ≈ 6220 → snaps to 6000.
		{"1080p30 auto", 1920, 1080, 30, 0, rockchip, 6000},
		// 1280*720*30*0.1/1000 ≈ 2765 → snaps to 2500.
		{"720p30 auto", 1280, 720, 30, 0, rockchip, 2500},
		// 640*480*15*0.1/1000 ≈ 461 → floors at the ladder bottom.
		{"480p15 auto", 640, 480, 15, 0, rockchip, 800},
		// 4K30 ≈ 24883 → nearest 12000, also the rockchip ceiling.
		{"4k30 auto", 3840, 2160, 30, 0, rockchip, 12000},
		// Same on the pi clamps to its lower ceiling.
		{"4k30 auto pi", 3840, 2160, 30, 0, pi, 8000},
		{"explicit respected", 1920, 1080, 30, 3000, rockchip, 3000},
		{"explicit clamped", 1920, 1080, 30, 99999, pi, 8000},
		{"explicit floored", 1920, 1080, 30, 1, pi, 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := negotiateBitrate(tt.w, tt.h, tt.fps, tt.requested, tt.plat)
			if got != tt.want {
				t.Errorf("negotiateBitrate = %d, want %d", got, tt.want)
			}
		})
	}
}
