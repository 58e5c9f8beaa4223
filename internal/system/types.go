// Package system reads host health data for a Linux NAS from the proc and
// sys filesystems: CPU model and utilization, memory, temperatures, and
// mounted filesystems.
package system

import "context"

// Overview holds a point-in-time snapshot of the host's resource usage.
type Overview struct {
	// CPUUsagePercent is the overall CPU utilisation as a percentage (0–100),
	// sampled over a short interval.
	CPUUsagePercent float64 `json:"cpu_usage_percent"`

	// Memory figures in kibibytes, as reported by /proc/meminfo.
	MemTotalKB     uint64 `json:"mem_total_kb"`
	MemFreeKB      uint64 `json:"mem_free_kb"`
	MemAvailableKB uint64 `json:"mem_available_kb"`
	SwapTotalKB    uint64 `json:"swap_total_kb"`
	SwapFreeKB     uint64 `json:"swap_free_kb"`

	// Temperatures lists every sensor discovered under {sys}/class/hwmon.
	Temperatures []Temperature `json:"temperatures,omitempty"`
}

// Temperature represents a single hardware temperature sensor reading.
type Temperature struct {
	// Label is a human-readable identifier derived from the sensor path
	// (e.g. "hwmon0/temp1").
	Label string `json:"label"`

	// Celsius is the sensor value converted from millidegrees.
	Celsius float64 `json:"celsius"`
}

// CPUInfo describes the host processor as reported by /proc/cpuinfo.
type CPUInfo struct {
	// Model is the processor model name string.
	Model string `json:"model"`

	// LogicalCores is the number of logical processors.
	LogicalCores int `json:"logical_cores"`

	// MHz is the reported clock of the first processor entry (0 if absent).
	MHz float64 `json:"mhz"`
}

// Mount describes one mounted filesystem from /proc/mounts.
type Mount struct {
	Device     string `json:"device"`
	Mountpoint string `json:"mountpoint"`
	FsType     string `json:"fstype"`
}

// FsUsage holds capacity figures for a mounted filesystem.
type FsUsage struct {
	TotalGB     float64 `json:"total_gb"`
	UsedGB      float64 `json:"used_gb"`
	FreeGB      float64 `json:"free_gb"`
	UsedPercent float64 `json:"percent"`
}

// StorageEntry pairs a physical-device mount with its usage figures. Usage is
// nil when the filesystem could not be statted.
type StorageEntry struct {
	Mount
	Usage *FsUsage `json:"usage,omitempty"`
}

// Monitor defines the read-only operations for querying host health.
type Monitor interface {
	// Overview returns a current snapshot of CPU, memory, and temperature data.
	Overview(ctx context.Context) (*Overview, error)

	// CPUInfo returns the processor model, core count, and clock.
	CPUInfo(ctx context.Context) (*CPUInfo, error)

	// Usage returns a fresh CPU utilization sample as a percentage.
	Usage(ctx context.Context) (float64, error)

	// Model returns the processor model name string.
	Model(ctx context.Context) (string, error)

	// Mounts lists every mounted filesystem.
	Mounts(ctx context.Context) ([]Mount, error)

	// StorageOverview lists mounted physical devices with usage figures.
	StorageOverview(ctx context.Context) ([]StorageEntry, error)
}
