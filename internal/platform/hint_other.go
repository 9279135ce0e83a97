//go:build !linux

package platform

// DetectHint returns an empty hint on platforms without a device tree;
// Resolve falls back to the software profile.
func DetectHint() string {
	return ""
}
