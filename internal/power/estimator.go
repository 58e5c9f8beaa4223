package power

import (
	"context"
	"log"
	"math"
	"strings"
)

// CPU load model: idle draw is assumed to be 20% of TDP, with the remaining
// 80% scaling linearly with utilization.
const (
	cpuIdleRatio   = 0.2
	cpuActiveRatio = 1.0 - cpuIdleRatio
)

// memorySticks is the assumed number of installed memory modules. Stick count
// is not detectable from userspace on most NAS appliances, so a fixed
// two-module assumption is used.
const memorySticks = 2

// Estimator computes a wattage breakdown for the host. It holds no locks of
// its own: the catalog is immutable after load and overrides are resolved
// through the OverrideSource on every call.
type Estimator struct {
	catalog   *Catalog
	disks     DiskSummarizer
	inventory StorageInventory
	cpu       CPUSampler
	overrides OverrideSource
}

// NewEstimator returns an Estimator over the given collaborators. overrides
// may be nil, in which case the catalog values are used unmodified.
func NewEstimator(catalog *Catalog, disks DiskSummarizer, inventory StorageInventory, cpu CPUSampler, overrides OverrideSource) *Estimator {
	if overrides == nil {
		overrides = FuncSource(func() Overrides { return Overrides{} })
	}
	return &Estimator{
		catalog:   catalog,
		disks:     disks,
		inventory: inventory,
		cpu:       cpu,
		overrides: overrides,
	}
}

// Estimate produces a power breakdown for the host. An external reading with
// a numeric wattage short-circuits every internal computation and is returned
// verbatim. Estimate never fails: every sub-failure degrades to a default and
// is logged, and the only caller-visible variability is the source tag.
func (e *Estimator) Estimate(ctx context.Context, req Request) Breakdown {
	if req.External != nil && req.External.Watts != nil {
		return externalBreakdown(req.External)
	}

	ov := e.overrides.Overrides()

	cpuPower := e.cpuPower(ctx, req.CPUUsagePercent, ov)

	counts := e.diskCounts(ctx, req.DiskCounts)
	diskPower := e.diskPower(counts, req.Idle, ov)

	memPower := float64(memorySticks) * resolve(ov.MemoryStick, e.catalog.MemoryStickWatts())

	base := e.catalog.BaseSystemWatts()
	total := round2(base + cpuPower + diskPower + memPower)

	return Breakdown{
		TotalWatts: total,
		Breakdown: Detail{
			Source: SourceInternal,
			Total:  total,
			Base:   base,
			CPU:    cpuPower,
			Disk:   diskPower,
			Memory: memPower,
		},
		DiskCounts: counts,
	}
}

// externalBreakdown wraps an authoritative upstream reading; the payload is
// passed through untouched.
func externalBreakdown(ext *ExternalReading) Breakdown {
	total := round2(*ext.Watts)
	var counts DiskCounts
	if ext.DiskCounts != nil {
		counts = DiskCounts{
			HDD:  ext.DiskCounts["hdd"],
			SSD:  ext.DiskCounts["ssd"],
			NVMe: ext.DiskCounts["nvme"],
		}
	}
	return Breakdown{
		TotalWatts: total,
		Breakdown: Detail{
			Source:       SourceExternal,
			Total:        total,
			ExternalData: ext.Raw,
		},
		DiskCounts: counts,
	}
}

// cpuPower computes the CPU term: TDP * (0.2 + 0.8 * usage/100), rounded to
// two decimals. A nil usage triggers a fresh host sample; sampling failure
// degrades to 0% (the idle floor).
func (e *Estimator) cpuPower(ctx context.Context, usage *float64, ov Overrides) float64 {
	pct := 0.0
	if usage != nil {
		pct = *usage
	} else if sampled, err := e.cpu.Usage(ctx); err != nil {
		log.Printf("power: cpu usage sample failed, assuming idle: %v", err)
	} else {
		pct = sampled
	}

	tdp := e.cpuTDP(ctx, ov)
	return round2(tdp * (cpuIdleRatio + cpuActiveRatio*pct/100.0))
}

// CPUPower reports the resolved CPU TDP and the estimated draw at the given
// utilization, using the same model as Estimate.
func (e *Estimator) CPUPower(ctx context.Context, usagePercent float64) (float64, float64) {
	tdp := e.cpuTDP(ctx, e.overrides.Overrides())
	return tdp, round2(tdp * (cpuIdleRatio + cpuActiveRatio*usagePercent/100.0))
}

// cpuTDP resolves the CPU TDP: configured override first, then a catalog
// lookup by model substring, then the catalog default.
func (e *Estimator) cpuTDP(ctx context.Context, ov Overrides) float64 {
	if ov.CPUTDP != nil {
		return *ov.CPUTDP
	}
	model, err := e.cpu.Model(ctx)
	if err != nil {
		log.Printf("power: cpu model unavailable, using default tdp: %v", err)
		model = ""
	}
	return e.catalog.CPUTDP(model)
}

// diskCounts resolves the per-technology counts: an explicit request wins,
// then classifier auto-detection, then the conservative mount-scan fallback.
func (e *Estimator) diskCounts(ctx context.Context, explicit *DiskCounts) DiskCounts {
	if explicit != nil {
		return *explicit
	}

	summary, err := e.disks.Summarize(ctx)
	if err == nil {
		if summary.UnknownTypes > 0 {
			log.Printf("power: %d disk(s) of unknown type excluded from the disk term; estimate may be low", summary.UnknownTypes)
		}
		return DiskCounts{
			HDD:  summary.ByType.HDD,
			SSD:  summary.ByType.SSD,
			NVMe: summary.ByType.NVMe,
		}
	}

	// Degraded path: count distinct non-loopback mounted devices and charge
	// them all at the SSD unit wattage, which avoids over-estimating when we
	// know nothing about the hardware.
	log.Printf("power: disk classification failed (%v); falling back to mount scan", err)

	mounts, merr := e.inventory.Mounts(ctx)
	if merr != nil {
		log.Printf("power: mount scan failed, assuming zero disks: %v", merr)
		return DiskCounts{}
	}

	devices := make(map[string]struct{})
	for _, m := range mounts {
		if !strings.HasPrefix(m.Device, "/dev/") || strings.Contains(m.Device, "loop") {
			continue
		}
		devices[m.Device] = struct{}{}
	}
	log.Printf("power: fallback counted %d mounted device(s) as ssd", len(devices))
	return DiskCounts{SSD: len(devices)}
}

// diskPower computes the disk term from counts and unit wattages. Idle only
// changes the HDD unit; SSD and NVMe draw is treated as load-independent.
func (e *Estimator) diskPower(counts DiskCounts, idle bool, ov Overrides) float64 {
	hddUnit := resolve(ov.HDDActive, e.catalog.HDDActiveWatts())
	if idle {
		hddUnit = resolve(ov.HDDIdle, e.catalog.HDDIdleWatts())
	}
	ssdUnit := resolve(ov.SSD, e.catalog.SSDWatts())
	nvmeUnit := resolve(ov.NVMe, e.catalog.NVMeWatts())

	return float64(counts.HDD)*hddUnit + float64(counts.SSD)*ssdUnit + float64(counts.NVMe)*nvmeUnit
}

// resolve returns the override when set, otherwise the catalog value.
func resolve(override *float64, catalogVal float64) float64 {
	if override != nil {
		return *override
	}
	return catalogVal
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
