package probe

import "errors"

// Sentinel errors returned by probers. Callers distinguish a missing or
// unplugged device from a broken probing layer.
var (
	// ErrDeviceNotFound means the device reference resolved to nothing,
	// or the node exists but is not a video capture device.
	ErrDeviceNotFound = errors.New("capture device not found")

	// ErrProbeUnavailable means the device exists but its capabilities
	// could not be enumerated.
	ErrProbeUnavailable = errors.New("capability probe unavailable")
)
