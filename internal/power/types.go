package power

import (
	"context"

	"github.com/jamesprial/nas-power-mcp/internal/disk"
	"github.com/jamesprial/nas-power-mcp/internal/system"
)

// Compile-time interface check: the estimator backs the CPU tool's power
// fields.
var _ system.CPUPowerResolver = (*Estimator)(nil)

// Source values for the breakdown's source tag.
const (
	SourceExternal = "external"
	SourceInternal = "internal"
)

// DiskCounts holds per-technology disk counts used by the disk power term.
type DiskCounts struct {
	HDD  int `json:"hdd"`
	SSD  int `json:"ssd"`
	NVMe int `json:"nvme"`
}

// Detail is the per-component wattage breakdown. For external readings only
// Source, Total, and ExternalData are populated; for internal estimates the
// component fields sum to Total (within 2-decimal rounding).
type Detail struct {
	Source       string         `json:"source"`
	Total        float64        `json:"total"`
	Base         float64        `json:"base,omitempty"`
	CPU          float64        `json:"cpu,omitempty"`
	Disk         float64        `json:"disk,omitempty"`
	Memory       float64        `json:"memory,omitempty"`
	ExternalData map[string]any `json:"external_data,omitempty"`
}

// Breakdown is the result of a power estimation.
type Breakdown struct {
	TotalWatts float64    `json:"total_watts"`
	Breakdown  Detail     `json:"breakdown"`
	DiskCounts DiskCounts `json:"disk_counts"`
}

// ExternalReading is an authoritative power figure supplied by an upstream
// sensor. Watts must be non-nil for the reading to be usable; Raw carries the
// sensor payload through to the breakdown verbatim.
type ExternalReading struct {
	Watts      *float64
	DiskCounts map[string]int
	Raw        map[string]any
}

// Request carries the optional inputs to an estimation. Nil fields select the
// default behavior: sample CPU usage from the host and auto-detect disk
// counts via classification.
type Request struct {
	CPUUsagePercent *float64
	DiskCounts      *DiskCounts
	Idle            bool
	External        *ExternalReading
}

// DiskSummarizer is the slice of the disk classifier the estimator needs.
type DiskSummarizer interface {
	Summarize(ctx context.Context) (disk.Summary, error)
}

// StorageInventory lists mounted filesystems; the estimator only consults it
// on the degraded fallback path when classification fails outright.
type StorageInventory interface {
	Mounts(ctx context.Context) ([]system.Mount, error)
}

// CPUSampler supplies the host's CPU model string and a fresh utilization
// sample.
type CPUSampler interface {
	Model(ctx context.Context) (string, error)
	Usage(ctx context.Context) (float64, error)
}

// Overrides shadows individual catalog wattages with configuration-sourced
// values. Nil fields fall through to the catalog.
type Overrides struct {
	CPUTDP      *float64
	HDDActive   *float64
	HDDIdle     *float64
	SSD         *float64
	NVMe        *float64
	MemoryStick *float64
}

// OverrideSource resolves the current overrides. It is consulted on every
// estimation call so reconfiguration takes effect without a restart.
type OverrideSource interface {
	Overrides() Overrides
}

// FuncSource adapts a plain function to the OverrideSource interface.
type FuncSource func() Overrides

// Overrides implements OverrideSource.
func (f FuncSource) Overrides() Overrides { return f() }
