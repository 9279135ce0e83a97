package sysinfo

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestCollectBasics(t *testing.T) {
	c := NewCollector()
	snap := c.Collect(context.Background())

	if snap.OS != runtime.GOOS {
		t.Errorf("OS = %s, want %s", snap.OS, runtime.GOOS)
	}
	if snap.CPUCores <= 0 {
		t.Errorf("CPUCores = %d, want > 0", snap.CPUCores)
	}
	if snap.MemoryTotalBytes == 0 {
		t.Error("MemoryTotalBytes = 0, want > 0")
	}
}

func TestReadThermalZones(t *testing.T) {
	dir := t.TempDir()
	zone := filepath.Join(dir, "thermal_zone0")
	if err := os.MkdirAll(zone, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(zone, "temp"), []byte("48312\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(zone, "type"), []byte("soc-thermal\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A cooling device entry must be ignored.
	if err := os.MkdirAll(filepath.Join(dir, "cooling_device0"), 0o755); err != nil {
		t.Fatal(err)
	}

	c := &Collector{thermalDir: dir}
	zones := c.readThermalZones()

	if len(zones) != 1 {
		t.Fatalf("got %d zones, want 1", len(zones))
	}
	if zones[0].Name != "soc-thermal" {
		t.Errorf("zone name = %s, want soc-thermal", zones[0].Name)
	}
	if zones[0].Celsius != 48.312 {
		t.Errorf("zone temp = %v, want 48.312", zones[0].Celsius)
	}
}

func TestReadThermalZonesMissingDir(t *testing.T) {
	c := &Collector{thermalDir: "/nonexistent/thermal"}
	if zones := c.readThermalZones(); zones != nil {
		t.Errorf("got %v, want nil", zones)
	}
}
