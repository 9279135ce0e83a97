//go:build linux

package probe

import (
	"fmt"
	"os"
	"strings"

	"github.com/streamnode/streamnode/pkg/linuxav/v4l2"
)

// ResolveDevicePath converts a device reference (stable ID or /dev path)
// to a usable device node path.
func ResolveDevicePath(deviceRef string) (string, error) {
	if strings.HasPrefix(deviceRef, "/dev/") {
		if _, err := os.Stat(deviceRef); err != nil {
			return "", fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceRef)
		}
		return deviceRef, nil
	}

	// Stable udev symlinks first: by-id for USB devices, by-path for
	// platform attachments.
	if strings.HasPrefix(deviceRef, "usb-") {
		devicePath := "/dev/v4l/by-id/" + deviceRef
		if _, err := os.Stat(devicePath); err == nil {
			return devicePath, nil
		}
	}
	if strings.HasPrefix(deviceRef, "platform-") || strings.HasPrefix(deviceRef, "usb-") {
		devicePath := "/dev/v4l/by-path/" + deviceRef
		if _, err := os.Stat(devicePath); err == nil {
			return devicePath, nil
		}
	}

	// Synthetic IDs don't exist as symlinks; match against enumeration.
	if path, err := v4l2.GetDevicePathByID(deviceRef); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: no device for reference %q", ErrDeviceNotFound, deviceRef)
}
