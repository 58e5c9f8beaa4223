// Package power estimates the NAS's instantaneous electrical power draw.
// An externally supplied sensor reading always wins; otherwise the draw is
// computed from CPU utilization, classified disk counts, and a reference
// wattage catalog.
package power

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

// Hardcoded fallbacks used when a value is missing from both the catalog and
// the configuration overrides.
const (
	fallbackCPUTDP      = 15.0
	fallbackHDDActive   = 6.5
	fallbackHDDIdle     = 0.8
	fallbackSSD         = 2.5
	fallbackNVMe        = 3.5
	fallbackMemoryStick = 3.0
	fallbackBaseSystem  = 10.0
)

//go:embed hardware_tdp.json
var catalogData []byte

// diskWatts holds the per-technology unit wattages from the catalog file.
type diskWatts struct {
	DefaultHDD  float64 `json:"default_hdd"`
	DefaultSSD  float64 `json:"default_ssd"`
	DefaultNVMe float64 `json:"default_nvme"`
	IdleHDD     float64 `json:"idle_hdd"`
}

// Catalog is the reference wattage table bundled with the binary. It maps CPU
// model substrings to TDP figures and carries default unit wattages for disk
// technologies, memory sticks, and the base system. A Catalog is immutable
// after load; configuration overrides are applied by the estimator at read
// time, never written back into the catalog.
type Catalog struct {
	CPU        map[string]float64 `json:"cpu"`
	Disk       diskWatts          `json:"disk"`
	Memory     map[string]float64 `json:"memory"`
	BaseSystem float64            `json:"base_system"`
}

// LoadCatalog parses the bundled reference table. It is called once at
// startup.
func LoadCatalog() (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(catalogData, &c); err != nil {
		return nil, fmt.Errorf("parse tdp catalog: %w", err)
	}
	return &c, nil
}

// CPUTDP returns the TDP in watts for the given CPU model string. Catalog
// keys match by case-sensitive substring containment; the catalog's "default"
// entry (or 15W) is returned when no key is contained in the model.
func (c *Catalog) CPUTDP(model string) float64 {
	for key, watts := range c.CPU {
		if key == "default" {
			continue
		}
		if strings.Contains(model, key) {
			return watts
		}
	}
	if def, ok := c.CPU["default"]; ok {
		return def
	}
	return fallbackCPUTDP
}

// HDDActiveWatts returns the active-state unit wattage for a rotational disk.
func (c *Catalog) HDDActiveWatts() float64 {
	return nonZero(c.Disk.DefaultHDD, fallbackHDDActive)
}

// HDDIdleWatts returns the idle (spun-down) unit wattage for a rotational disk.
func (c *Catalog) HDDIdleWatts() float64 {
	return nonZero(c.Disk.IdleHDD, fallbackHDDIdle)
}

// SSDWatts returns the unit wattage for a SATA SSD.
func (c *Catalog) SSDWatts() float64 {
	return nonZero(c.Disk.DefaultSSD, fallbackSSD)
}

// NVMeWatts returns the unit wattage for an NVMe drive.
func (c *Catalog) NVMeWatts() float64 {
	return nonZero(c.Disk.DefaultNVMe, fallbackNVMe)
}

// MemoryStickWatts returns the per-module memory wattage.
func (c *Catalog) MemoryStickWatts() float64 {
	return nonZero(c.Memory["ddr4_stick"], fallbackMemoryStick)
}

// BaseSystemWatts returns the constant board/PSU/fan floor wattage.
func (c *Catalog) BaseSystemWatts() float64 {
	return nonZero(c.BaseSystem, fallbackBaseSystem)
}

// nonZero returns v unless it is zero, in which case def is returned.
func nonZero(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
