// Package sysinfo reports host health for the system endpoint: CPU,
// memory, disk, load, uptime, and the SoC temperature sensors that matter
// on the single-board computers this runs on.
package sysinfo

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// ThermalZone is one SoC temperature sensor reading.
type ThermalZone struct {
	Name    string  `json:"name"`
	Celsius float64 `json:"celsius"`
}

// Snapshot is a point-in-time view of host health. Fields that could not
// be collected keep their zero value.
type Snapshot struct {
	Hostname string `json:"hostname"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`

	UptimeSeconds uint64 `json:"uptime_seconds"`

	CPUCores   int     `json:"cpu_cores"`
	CPUPercent float64 `json:"cpu_percent"`
	LoadAvg1m  float64 `json:"load_avg_1m"`
	LoadAvg5m  float64 `json:"load_avg_5m"`
	LoadAvg15m float64 `json:"load_avg_15m"`

	MemoryTotalBytes uint64  `json:"memory_total_bytes"`
	MemoryUsedBytes  uint64  `json:"memory_used_bytes"`
	MemoryPercent    float64 `json:"memory_percent"`

	DiskTotalBytes uint64  `json:"disk_total_bytes"`
	DiskUsedBytes  uint64  `json:"disk_used_bytes"`
	DiskPercent    float64 `json:"disk_percent"`

	ThermalZones []ThermalZone `json:"thermal_zones,omitempty"`
}

// Collector gathers host snapshots.
type Collector struct {
	hostname   string
	thermalDir string
}

// NewCollector creates a collector for this host.
func NewCollector() *Collector {
	hostname, _ := os.Hostname()
	return &Collector{
		hostname:   hostname,
		thermalDir: "/sys/class/thermal",
	}
}

// Collect gathers a snapshot. Individual probe failures leave the affected
// fields zeroed rather than failing the whole collection.
func (c *Collector) Collect(ctx context.Context) Snapshot {
	snap := Snapshot{
		Hostname: c.hostname,
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
	}

	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		snap.UptimeSeconds = uptime
	}
	if cores, err := cpu.CountsWithContext(ctx, true); err == nil {
		snap.CPUCores = cores
	}
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}
	if loadAvg, err := load.AvgWithContext(ctx); err == nil {
		snap.LoadAvg1m = loadAvg.Load1
		snap.LoadAvg5m = loadAvg.Load5
		snap.LoadAvg15m = loadAvg.Load15
	}
	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snap.MemoryTotalBytes = memInfo.Total
		snap.MemoryUsedBytes = memInfo.Used
		snap.MemoryPercent = memInfo.UsedPercent
	}
	if diskInfo, err := disk.UsageWithContext(ctx, "/"); err == nil {
		snap.DiskTotalBytes = diskInfo.Total
		snap.DiskUsedBytes = diskInfo.Used
		snap.DiskPercent = diskInfo.UsedPercent
	}

	snap.ThermalZones = c.readThermalZones()
	return snap
}

// readThermalZones walks /sys/class/thermal. Millidegree readings come
// from the kernel; anything unreadable is skipped.
func (c *Collector) readThermalZones() []ThermalZone {
	entries, err := os.ReadDir(c.thermalDir)
	if err != nil {
		return nil
	}

	var zones []ThermalZone
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "thermal_zone") {
			continue
		}
		zoneDir := filepath.Join(c.thermalDir, entry.Name())

		raw, err := os.ReadFile(filepath.Join(zoneDir, "temp"))
		if err != nil {
			continue
		}
		milli, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
		if err != nil {
			continue
		}

		name := entry.Name()
		if t, err := os.ReadFile(filepath.Join(zoneDir, "type")); err == nil {
			name = strings.TrimSpace(string(t))
		}

		zones = append(zones, ThermalZone{
			Name:    name,
			Celsius: float64(milli) / 1000.0,
		})
	}
	return zones
}

// StartedAt is the process start time, used for service uptime reporting.
var StartedAt = time.Now()
