//go:build linux

package v4l2

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"
)

// FindDevices finds all V4L2 video capture devices on the system.
func FindDevices() ([]DeviceInfo, error) {
	entries, err := os.ReadDir("/sys/class/video4linux")
	if err != nil {
		if os.IsNotExist(err) {
			return []DeviceInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read video4linux directory: %w", err)
	}

	var devices []DeviceInfo

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		devicePath := "/dev/" + entry.Name()

		info, err := QueryDevice(devicePath)
		if err != nil {
			slog.With("component", "linuxav").Debug("failed to query video device", "path", devicePath, "error", err)
			continue
		}

		// Only include video capture devices
		if info.Caps&v4l2CapVideoCapture == 0 {
			continue
		}

		indexPath := filepath.Join("/sys/class/video4linux", entry.Name(), "index")
		indexValue := readSysfsInt(indexPath)

		info.DeviceID = findStableID(entry.Name(), indexValue)
		if info.DeviceID == "" {
			// Fallback: synthetic ID from bus_info + index
			if strings.HasPrefix(info.BusInfo, "usb-") {
				info.DeviceID = fmt.Sprintf("%s-video-index%d", info.BusInfo, indexValue)
			} else {
				info.DeviceID = fmt.Sprintf("platform-%s-video-index%d", info.BusInfo, indexValue)
			}
		}

		devices = append(devices, *info)
	}

	return devices, nil
}

// QueryDevice queries capability information for a single device node.
func QueryDevice(devicePath string) (*DeviceInfo, error) {
	fd, err := open(devicePath)
	if err != nil {
		return nil, err
	}
	defer closeFd(fd)

	cap := v4l2Capability{}
	if err := ioctl(fd, vidiocQuerycap, unsafe.Pointer(&cap)); err != nil {
		return nil, err
	}

	// Prefer per-node capabilities when the driver reports them.
	caps := cap.capabilities
	if caps&v4l2CapDeviceCaps != 0 {
		caps = cap.deviceCaps
	}

	return &DeviceInfo{
		DevicePath: devicePath,
		DeviceName: cstr(cap.card[:]),
		BusInfo:    cstr(cap.busInfo[:]),
		Caps:       caps,
	}, nil
}

// GetDevicePathByID finds the device path for a given stable device ID.
func GetDevicePathByID(deviceID string) (string, error) {
	devices, err := FindDevices()
	if err != nil {
		return "", fmt.Errorf("failed to find devices: %w", err)
	}

	for _, device := range devices {
		if device.DeviceID == deviceID {
			return device.DevicePath, nil
		}
	}

	return "", fmt.Errorf("device with ID %s not found", deviceID)
}

// findStableID looks for a stable ID symlink in /dev/v4l/by-id/,
// falling back to /dev/v4l/by-path/.
func findStableID(deviceName string, indexValue int) string {
	expectedSuffix := fmt.Sprintf("-video-index%d", indexValue)
	for _, dir := range []string{"/dev/v4l/by-id", "/dev/v4l/by-path"} {
		if id := findSymlinkTo(dir, deviceName, expectedSuffix); id != "" {
			return id
		}
	}
	return ""
}

func findSymlinkTo(dir, deviceName, expectedSuffix string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}

		target, err := os.Readlink(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		if filepath.Base(target) == deviceName && strings.HasSuffix(entry.Name(), expectedSuffix) {
			return entry.Name()
		}
	}

	return ""
}

// readSysfsInt reads an integer value from a sysfs file.
func readSysfsInt(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	val, _ := strconv.Atoi(strings.TrimSpace(string(data)))
	return val
}

// cstr converts a null-terminated byte slice to a Go string.
func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
