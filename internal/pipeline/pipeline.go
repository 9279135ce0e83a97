// Package pipeline negotiates a concrete stream profile from a capability
// snapshot and renders it into an FFmpeg invocation. Both steps are pure:
// the same inputs always produce the same profile and the same argv.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/streamnode/streamnode/internal/probe"
)

// ErrNoCompatibleCapability means the device offers nothing the request
// and platform can agree on.
var ErrNoCompatibleCapability = errors.New("no compatible capability")

// Sink describes the SRT ingest endpoint the stream publishes to.
type Sink struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	StreamName string `json:"stream_name"`
}

// URL renders the SRT publish URL.
func (s Sink) URL() string {
	return fmt.Sprintf("srt://%s:%d?streamid=publish:%s", s.Host, s.Port, s.StreamName)
}

// Request carries the caller's wishes. Zero values mean "best available";
// a non-empty Format is a hard constraint.
type Request struct {
	DeviceRef   string            `json:"device_ref"`
	Width       uint32            `json:"width,omitempty"`
	Height      uint32            `json:"height,omitempty"`
	FPS         float64           `json:"fps,omitempty"`
	Format      probe.PixelFormat `json:"format,omitempty"`
	BitrateKbps int               `json:"bitrate_kbps,omitempty"`
	Sink        Sink              `json:"sink"`
}

// wantsResolution reports whether the request pins a resolution.
func (r Request) wantsResolution() bool {
	return r.Width > 0 && r.Height > 0
}

// StreamProfile is the negotiated contract for one session: exactly what
// the device will produce and what the encoder will do with it.
type StreamProfile struct {
	Device      probe.Device      `json:"device"`
	Format      probe.PixelFormat `json:"format"`
	Width       uint32            `json:"width"`
	Height      uint32            `json:"height"`
	Rate        probe.Rate        `json:"rate"`

	// OutputWidth/OutputHeight are set when the platform scaler resizes
	// the capture before encoding; zero means encode at capture size.
	OutputWidth  uint32 `json:"output_width,omitempty"`
	OutputHeight uint32 `json:"output_height,omitempty"`

	Encoder     string            `json:"encoder"`
	Hardware    bool              `json:"hardware"`
	BitrateKbps int               `json:"bitrate_kbps"`
	Sink        Sink              `json:"sink"`
}

// Summary renders a compact description for status output and logs.
func (p *StreamProfile) Summary() string {
	return fmt.Sprintf("%s %dx%d@%.5g -> %s %dkbps", p.Format, p.Width, p.Height, p.Rate.FPS(), p.Encoder, p.BitrateKbps)
}
