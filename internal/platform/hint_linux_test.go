//go:build linux

package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func fakeRoot(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir() + "/"
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestDetectHintFromDeviceTree(t *testing.T) {
	root := fakeRoot(t, map[string]string{
		"proc/device-tree/compatible": "radxa,zero3\x00rockchip,rk3566\x00",
	})

	if hint := detectHint(root); hint != "rockchip" {
		t.Errorf("detectHint = %q, want rockchip", hint)
	}
}

func TestDetectHintFromCpuinfo(t *testing.T) {
	root := fakeRoot(t, map[string]string{
		"proc/cpuinfo": "processor : 0\nModel : Raspberry Pi 4 Model B Rev 1.4\n",
	})

	if hint := detectHint(root); hint != "raspberrypi" {
		t.Errorf("detectHint = %q, want raspberrypi", hint)
	}
}

func TestDetectHintFromMppNode(t *testing.T) {
	root := fakeRoot(t, map[string]string{
		"proc/cpuinfo":    "processor : 0\n",
		"dev/mpp_service": "",
	})

	if hint := detectHint(root); hint != "rockchip" {
		t.Errorf("detectHint = %q, want rockchip", hint)
	}
}

func TestDetectHintUnknown(t *testing.T) {
	root := fakeRoot(t, map[string]string{
		"proc/cpuinfo": "vendor_id : GenuineIntel\n",
	})

	if hint := detectHint(root); hint != "" {
		t.Errorf("detectHint = %q, want empty", hint)
	}
}
