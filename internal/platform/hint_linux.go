//go:build linux

package platform

import (
	"os"
	"strings"
)

// DetectHint derives a host hint from the device tree and cpuinfo. The
// registry stays pure; all I/O for hint derivation lives here.
func DetectHint() string {
	return detectHint("/")
}

// detectHint is split out so tests can point it at a fake root.
func detectHint(root string) string {
	// Device tree is the authoritative board identity on ARM SBCs.
	if data, err := os.ReadFile(root + "proc/device-tree/compatible"); err == nil {
		// The compatible property is a NUL-separated string list.
		compatible := strings.ToLower(strings.ReplaceAll(string(data), "\x00", " "))
		if hint := hintFromIdentity(compatible); hint != "" {
			return hint
		}
	}

	if data, err := os.ReadFile(root + "proc/cpuinfo"); err == nil {
		if hint := hintFromIdentity(strings.ToLower(string(data))); hint != "" {
			return hint
		}
	}

	// The MPP service node only exists on Rockchip kernels.
	if _, err := os.Stat(root + "dev/mpp_service"); err == nil {
		return "rockchip"
	}

	return ""
}

func hintFromIdentity(identity string) string {
	switch {
	case strings.Contains(identity, "rockchip"), strings.Contains(identity, "rk35"), strings.Contains(identity, "radxa"):
		return "rockchip"
	case strings.Contains(identity, "raspberry"), strings.Contains(identity, "bcm27"), strings.Contains(identity, "bcm28"):
		return "raspberrypi"
	default:
		return ""
	}
}
