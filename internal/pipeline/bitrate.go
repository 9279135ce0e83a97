package pipeline

import "github.com/streamnode/streamnode/internal/platform"

// bitsPerPixel is the budget the auto ladder assumes for H.264 at
// streaming latencies.
const bitsPerPixel = 0.1

// bitrateLadder holds the kbps steps auto-negotiated bitrates snap to.
var bitrateLadder = []int{800, 1200, 2500, 4500, 6000, 8000, 12000}

// negotiateBitrate picks the session bitrate in kbps. An explicit request
// is honored but clamped to the platform ceiling; otherwise the raw
// pixels-per-second budget snaps to the nearest ladder step.
func negotiateBitrate(width, height uint32, fps float64, requested int, plat platform.Profile) int {
	if requested > 0 {
		return clamp(requested, bitrateLadder[0], plat.MaxBitrateKbps)
	}

	raw := float64(width) * float64(height) * fps * bitsPerPixel / 1000

	best := bitrateLadder[0]
	bestDelta := absDiff(raw, float64(best))
	for _, step := range bitrateLadder[1:] {
		if d := absDiff(raw, float64(step)); d < bestDelta {
			best, bestDelta = step, d
		}
	}

	return clamp(best, bitrateLadder[0], plat.MaxBitrateKbps)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
