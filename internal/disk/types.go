// Package disk provides storage device enumeration and technology
// classification for a NAS host. Classification runs a fixed-order cascade of
// probing methods (sysfs rotational flag, lsblk, smartctl, naming heuristics)
// and memoizes the result per device.
package disk

import "context"

// DeviceType identifies the storage technology of a block device.
type DeviceType string

const (
	// TypeUnknown means no probe could determine the device technology.
	TypeUnknown DeviceType = "unknown"

	// TypeHDD is a rotational (spinning) disk.
	TypeHDD DeviceType = "hdd"

	// TypeSSD is a SATA solid-state drive.
	TypeSSD DeviceType = "ssd"

	// TypeNVMe is an NVMe solid-state drive.
	TypeNVMe DeviceType = "nvme"
)

// TypeCounts holds per-technology device counts.
type TypeCounts struct {
	HDD     int `json:"hdd"`
	SSD     int `json:"ssd"`
	NVMe    int `json:"nvme"`
	Unknown int `json:"unknown"`
}

// Summary aggregates the classification results for every enumerated device.
type Summary struct {
	// TotalDisks is the number of devices enumerated.
	TotalDisks int `json:"total_disks"`

	// KnownTypes is the number of devices with a non-unknown classification.
	KnownTypes int `json:"known_types"`

	// UnknownTypes is the number of devices every probe was inconclusive for.
	UnknownTypes int `json:"unknown_types"`

	// ByType breaks the totals down per technology.
	ByType TypeCounts `json:"by_type"`

	// Devices maps each normalized device name to its classified type.
	Devices map[string]DeviceType `json:"devices"`
}

// Enumerator lists candidate storage devices visible to the host.
type Enumerator interface {
	// Devices returns the normalized names of all physical block devices.
	// An empty slice means no disks were detected; it is not an error.
	Devices(ctx context.Context) ([]string, error)
}

// Classifier defines the public classification operations.
type Classifier interface {
	// Classify resolves a single device identifier to its technology type.
	// It never returns an error; the worst case result is TypeUnknown.
	Classify(ctx context.Context, deviceID string) DeviceType

	// ClassifyAll classifies every enumerated device, keyed by normalized name.
	ClassifyAll(ctx context.Context) (map[string]DeviceType, error)

	// Summarize aggregates ClassifyAll results into per-type counts.
	Summarize(ctx context.Context) (Summary, error)
}
