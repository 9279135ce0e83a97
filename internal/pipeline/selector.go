package pipeline

import (
	"fmt"

	"github.com/streamnode/streamnode/internal/platform"
	"github.com/streamnode/streamnode/internal/probe"
)

// Select negotiates the best capability for the request on the given
// platform. It is pure and deterministic: candidates are compared under a
// total order, and ties resolve to the earlier entry of the normalized
// capability set.
//
// When the platform has a hardware encoder, candidates in a format it
// ingests directly are preferred as a group over all others, whatever
// their resolution fit: the zero-copy path wins before any scoring.
// Within the retained group the order weighs, most significant first:
//  1. resolution fit (exact request, then nearest pixel area),
//  2. framerate fit (exact request, then nearest, then highest),
//  3. format cost (encoder-native, then raw, then compressed).
func Select(caps *probe.CapabilitySet, plat platform.Profile, req Request) (*StreamProfile, error) {
	if caps == nil || len(caps.Capabilities) == 0 {
		return nil, fmt.Errorf("%w: device %q offers no usable formats", ErrNoCompatibleCapability, req.DeviceRef)
	}

	var best, bestNative *candidate
	for _, c := range caps.Capabilities {
		if req.Format != "" && c.Format != req.Format {
			continue
		}

		rate, ok := pickRate(c.Rates, req.FPS)
		if !ok {
			continue
		}

		cand := newCandidate(c, rate, plat, req)
		if best == nil || cand.betterThan(best) {
			cc := cand
			best = &cc
		}
		if plat.HardwareAccelerated() && cand.formatClass == 0 &&
			(bestNative == nil || cand.betterThan(bestNative)) {
			cc := cand
			bestNative = &cc
		}
	}

	// Encoder-native candidates, when any exist, beat everything else.
	if bestNative != nil {
		best = bestNative
	}

	if best == nil {
		if req.Format != "" {
			return nil, fmt.Errorf("%w: device %q does not offer format %s", ErrNoCompatibleCapability, req.DeviceRef, req.Format)
		}
		return nil, fmt.Errorf("%w: device %q", ErrNoCompatibleCapability, req.DeviceRef)
	}

	// The hardware encoder runs only when it ingests the chosen format
	// directly, or the hardware scaler can repack to one it does.
	encoder := plat.Encoder()
	hardware := plat.HardwareAccelerated()
	if hardware && best.formatClass != 0 && !plat.HardwareScaler {
		encoder = platform.SoftwareEncoder
		hardware = false
	}

	profile := &StreamProfile{
		Device:      caps.Device,
		Format:      best.cap.Format,
		Width:       best.cap.Width,
		Height:      best.cap.Height,
		Rate:        best.rate,
		Encoder:     encoder,
		Hardware:    hardware,
		BitrateKbps: negotiateBitrate(best.cap.Width, best.cap.Height, best.rate.FPS(), req.BitrateKbps, plat),
		Sink:        req.Sink,
	}

	// When the device cannot capture the requested size but the platform
	// scaler is free, downscale the larger capture to the request.
	// Upscaling gains nothing and is never planned.
	if req.wantsResolution() && plat.HardwareScaler &&
		(best.cap.Width != req.Width || best.cap.Height != req.Height) &&
		best.area > uint64(req.Width)*uint64(req.Height) {
		profile.OutputWidth = req.Width
		profile.OutputHeight = req.Height
	}

	return profile, nil
}

// pickRate chooses the framerate within one capability: the exact or
// nearest match when the request pins one, the highest otherwise.
func pickRate(rates []probe.Rate, wantFPS float64) (probe.Rate, bool) {
	if len(rates) == 0 {
		return probe.Rate{}, false
	}
	if wantFPS <= 0 {
		return rates[0], true
	}

	best := rates[0]
	bestDelta := absDiff(rates[0].FPS(), wantFPS)
	for _, r := range rates[1:] {
		// Rates are sorted descending, so on equal delta the higher
		// rate stays.
		if d := absDiff(r.FPS(), wantFPS); d < bestDelta {
			best, bestDelta = r, d
		}
	}
	return best, true
}

// candidate carries the precomputed comparison keys for one option.
type candidate struct {
	cap  probe.Capability
	rate probe.Rate

	resolutionDelta uint64 // 0 means exact or no preference expressed
	area            uint64
	rateDelta       float64
	fps             float64
	formatClass     int // 0 native, 1 raw, 2 compressed
	formatRank      int
	wantsRes        bool
	wantsFPS        bool
}

func newCandidate(c probe.Capability, rate probe.Rate, plat platform.Profile, req Request) candidate {
	cand := candidate{
		cap:      c,
		rate:     rate,
		area:     uint64(c.Width) * uint64(c.Height),
		fps:      rate.FPS(),
		wantsRes: req.wantsResolution(),
		wantsFPS: req.FPS > 0,
	}

	if cand.wantsRes {
		reqArea := uint64(req.Width) * uint64(req.Height)
		if cand.area > reqArea {
			cand.resolutionDelta = cand.area - reqArea
		} else {
			cand.resolutionDelta = reqArea - cand.area
		}
	}
	if cand.wantsFPS {
		cand.rateDelta = absDiff(cand.fps, req.FPS)
	}

	cand.formatClass, cand.formatRank = formatCost(c.Format, plat)
	return cand
}

// formatCost ranks a capture format by the work it forces on the pipeline:
// encoder-native formats stream straight through, other raw formats pay a
// convert, compressed formats pay a full decode.
func formatCost(f probe.PixelFormat, plat platform.Profile) (class, rank int) {
	for i, native := range plat.EncoderFormats {
		if f == native {
			return 0, i
		}
	}
	if f.Compressed() {
		return 2, f.PriorityIndex()
	}
	return 1, f.PriorityIndex()
}

// betterThan is the strict total order over candidates. Returning false
// for equals keeps the earlier (normalized-order) candidate.
func (c *candidate) betterThan(o *candidate) bool {
	if c.wantsRes {
		if c.resolutionDelta != o.resolutionDelta {
			return c.resolutionDelta < o.resolutionDelta
		}
		// Equidistant above and below the request: take the smaller,
		// upscaling a capture gains nothing.
		if c.area != o.area {
			return c.area < o.area
		}
	} else if c.area != o.area {
		return c.area > o.area
	}

	if c.wantsFPS {
		if c.rateDelta != o.rateDelta {
			return c.rateDelta < o.rateDelta
		}
	}
	if c.fps != o.fps {
		return c.fps > o.fps
	}

	if c.formatClass != o.formatClass {
		return c.formatClass < o.formatClass
	}
	return c.formatRank < o.formatRank
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
