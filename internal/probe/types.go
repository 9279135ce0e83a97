package probe

import "time"

// Transport classifies how a capture device is attached to the host.
type Transport string

// Transport classes.
const (
	TransportUSB      Transport = "usb"
	TransportCSI      Transport = "csi"
	TransportPlatform Transport = "platform"
	TransportUnknown  Transport = "unknown"
)

// PixelFormat identifies a capture pixel format by its FourCC name.
type PixelFormat string

// Pixel formats the pipeline knows how to consume. Anything else is kept
// only in the raw diagnostic listing.
const (
	FormatYUYV   PixelFormat = "YUYV"
	FormatMJPEG  PixelFormat = "MJPG"
	FormatH264   PixelFormat = "H264"
	FormatRGB24  PixelFormat = "RGB24"
	FormatBGR24  PixelFormat = "BGR24"
	FormatYUV420 PixelFormat = "YUV420"
	FormatNV12   PixelFormat = "NV12"
)

// Compressed reports whether the format requires a decode stage before
// feeding an encoder.
func (f PixelFormat) Compressed() bool {
	return f == FormatMJPEG || f == FormatH264
}

// Known reports whether the pipeline can consume the format.
func (f PixelFormat) Known() bool {
	switch f {
	case FormatYUYV, FormatMJPEG, FormatH264, FormatRGB24, FormatBGR24, FormatYUV420, FormatNV12:
		return true
	}
	return false
}

// formatPriority orders formats for capture preference: cheap raw formats
// first, then compressed formats, then exotic raw layouts.
var formatPriority = []PixelFormat{
	FormatYUYV,
	FormatMJPEG,
	FormatH264,
	FormatRGB24,
	FormatBGR24,
	FormatYUV420,
	FormatNV12,
}

// PriorityIndex returns the capture preference rank of the format.
// Unknown formats sort last.
func (f PixelFormat) PriorityIndex() int {
	for i, p := range formatPriority {
		if p == f {
			return i
		}
	}
	return len(formatPriority)
}

// Rate is an exact framerate expressed as frames per second.
type Rate struct {
	Num uint32 `json:"num"`
	Den uint32 `json:"den"`
}

// FPS returns the rate as a float for display and distance comparisons.
func (r Rate) FPS() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Device identifies one capture device.
type Device struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Transport Transport `json:"transport"`
}

// Capability is one (format, resolution) pair with the exact framerates the
// device offers for it.
type Capability struct {
	Format PixelFormat `json:"format"`
	Width  uint32      `json:"width"`
	Height uint32      `json:"height"`
	Rates  []Rate      `json:"rates"`
}

// BestRate returns the highest framerate offered for this capability.
func (c Capability) BestRate() Rate {
	if len(c.Rates) == 0 {
		return Rate{}
	}
	return c.Rates[0]
}

// RawFormat is an unprocessed format listing kept for diagnostics,
// including formats the pipeline cannot consume.
type RawFormat struct {
	FourCC   string `json:"fourcc"`
	Name     string `json:"name"`
	Emulated bool   `json:"emulated"`
}

// CapabilitySet is a normalized snapshot of what one device can produce.
type CapabilitySet struct {
	Device       Device       `json:"device"`
	Capabilities []Capability `json:"capabilities"`
	RawFormats   []RawFormat  `json:"raw_formats,omitempty"`
	ProbedAt     time.Time    `json:"probed_at"`
}

// Lookup returns the capability matching format and resolution exactly.
func (s *CapabilitySet) Lookup(format PixelFormat, width, height uint32) (Capability, bool) {
	for _, c := range s.Capabilities {
		if c.Format == format && c.Width == width && c.Height == height {
			return c, true
		}
	}
	return Capability{}, false
}
