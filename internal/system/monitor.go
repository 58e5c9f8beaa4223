package system

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// defaultSampleInterval is the delta window for a CPU utilization sample.
// It keeps Usage close to "instantaneous" without blocking callers noticeably.
const defaultSampleInterval = 200 * time.Millisecond

// Compile-time interface check.
var _ Monitor = (*FileSystemMonitor)(nil)

// FileSystemMonitor implements Monitor by reading the proc and sys
// filesystems at the configured paths.
type FileSystemMonitor struct {
	procPath       string
	sysPath        string
	sampleInterval time.Duration
}

// NewFileSystemMonitor returns a monitor reading from the given directory
// paths (normally /proc and /sys).
func NewFileSystemMonitor(procPath, sysPath string) *FileSystemMonitor {
	return &FileSystemMonitor{
		procPath:       procPath,
		sysPath:        sysPath,
		sampleInterval: defaultSampleInterval,
	}
}

// Overview returns CPU usage, memory figures, and hardware temperatures.
func (m *FileSystemMonitor) Overview(ctx context.Context) (*Overview, error) {
	ov := &Overview{}

	usage, err := m.Usage(ctx)
	if err != nil {
		return nil, fmt.Errorf("sample cpu: %w", err)
	}
	ov.CPUUsagePercent = usage

	if err := m.parseMemInfo(ov); err != nil {
		return nil, fmt.Errorf("read meminfo: %w", err)
	}

	temps, err := m.readTemperatures()
	if err != nil {
		// Non-fatal: missing hwmon just means no sensor data.
		temps = nil
	}
	ov.Temperatures = temps

	return ov, nil
}

// Usage samples {procPath}/stat twice across the sample interval and returns
// the CPU utilization percentage over that window. The wait is cancellable
// through ctx.
func (m *FileSystemMonitor) Usage(ctx context.Context) (float64, error) {
	total1, idle1, err := m.readCPUStat()
	if err != nil {
		return 0, err
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(m.sampleInterval):
	}

	total2, idle2, err := m.readCPUStat()
	if err != nil {
		return 0, err
	}

	dTotal := total2 - total1
	if dTotal <= 0 {
		return 0, nil
	}
	return (dTotal - (idle2 - idle1)) / dTotal * 100, nil
}

// readCPUStat reads the aggregate cpu line from {procPath}/stat and returns
// the cumulative total and idle jiffy counts.
//
// Format:  cpu  user nice system idle iowait irq softirq steal guest guest_nice
func (m *FileSystemMonitor) readCPUStat() (total, idle float64, err error) {
	path := filepath.Join(m.procPath, "stat")
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return 0, 0, fmt.Errorf("unexpected cpu line format: %q", line)
		}

		for i, field := range fields[1:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return 0, 0, fmt.Errorf("parse cpu field %d: %w", i, err)
			}
			total += val
			// Field index 3 after the label is idle.
			if i == 3 {
				idle = val
			}
		}
		return total, idle, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, fmt.Errorf("scan %s: %w", path, err)
	}
	return 0, 0, fmt.Errorf("no aggregate cpu line found in %s", path)
}

// Model returns the processor model name from {procPath}/cpuinfo.
func (m *FileSystemMonitor) Model(ctx context.Context) (string, error) {
	info, err := m.CPUInfo(ctx)
	if err != nil {
		return "", err
	}
	return info.Model, nil
}

// CPUInfo parses {procPath}/cpuinfo for the model name, logical core count,
// and clock of the first processor entry.
func (m *FileSystemMonitor) CPUInfo(ctx context.Context) (*CPUInfo, error) {
	path := filepath.Join(m.procPath, "cpuinfo")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info := &CPUInfo{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])

		switch key {
		case "processor":
			info.LogicalCores++
		case "model name":
			if info.Model == "" {
				info.Model = val
			}
		case "cpu MHz":
			if info.MHz == 0 {
				if mhz, err := strconv.ParseFloat(val, 64); err == nil {
					info.MHz = mhz
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	if info.Model == "" && info.LogicalCores == 0 {
		return nil, fmt.Errorf("no processor entries in %s", path)
	}
	return info, nil
}

// parseMemInfo reads {procPath}/meminfo and populates the memory fields of ov.
func (m *FileSystemMonitor) parseMemInfo(ov *Overview) error {
	path := filepath.Join(m.procPath, "meminfo")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		// Each line looks like:  MemTotal:       32768000 kB
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		valStr := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(parts[1]), " kB"))

		val, err := strconv.ParseUint(valStr, 10, 64)
		if err != nil {
			continue
		}

		switch key {
		case "MemTotal":
			ov.MemTotalKB = val
		case "MemFree":
			ov.MemFreeKB = val
		case "MemAvailable":
			ov.MemAvailableKB = val
		case "SwapTotal":
			ov.SwapTotalKB = val
		case "SwapFree":
			ov.SwapFreeKB = val
		}
	}
	return scanner.Err()
}

// readTemperatures globs {sysPath}/class/hwmon/*/temp*_input and converts
// each millidegree value to degrees Celsius.
func (m *FileSystemMonitor) readTemperatures() ([]Temperature, error) {
	pattern := filepath.Join(m.sysPath, "class", "hwmon", "*", "temp*_input")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}

	var temps []Temperature
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		millideg, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
		if err != nil {
			continue
		}

		// Label from the last two path components: hwmonN/tempX.
		label := filepath.Join(filepath.Base(filepath.Dir(path)), strings.TrimSuffix(filepath.Base(path), "_input"))

		temps = append(temps, Temperature{
			Label:   label,
			Celsius: millideg / 1000.0,
		})
	}
	return temps, nil
}

// Mounts parses {procPath}/mounts and returns every mounted filesystem.
func (m *FileSystemMonitor) Mounts(ctx context.Context) ([]Mount, error) {
	path := filepath.Join(m.procPath, "mounts")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var mounts []Mount
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		// Each line: device mountpoint fstype options dump pass
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mounts = append(mounts, Mount{
			Device:     fields[0],
			Mountpoint: fields[1],
			FsType:     fields[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return mounts, nil
}

// StorageOverview filters Mounts down to physical devices and attaches
// capacity figures from statfs. Filesystems that cannot be statted are still
// listed, with nil usage.
func (m *FileSystemMonitor) StorageOverview(ctx context.Context) ([]StorageEntry, error) {
	mounts, err := m.Mounts(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]StorageEntry, 0, len(mounts))
	for _, mnt := range mounts {
		if !strings.HasPrefix(mnt.Device, "/dev/") || strings.Contains(mnt.Device, "loop") {
			continue
		}
		entries = append(entries, StorageEntry{
			Mount: mnt,
			Usage: statFs(mnt.Mountpoint),
		})
	}
	return entries, nil
}

// statFs returns usage figures for the filesystem at path, or nil if the
// statfs call fails.
func statFs(path string) *FsUsage {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return nil
	}

	bsize := float64(st.Bsize)
	total := float64(st.Blocks) * bsize
	free := float64(st.Bfree) * bsize
	used := total - free
	if total <= 0 {
		return nil
	}

	const gb = 1024 * 1024 * 1024
	return &FsUsage{
		TotalGB:     round2(total / gb),
		UsedGB:      round2(used / gb),
		FreeGB:      round2(free / gb),
		UsedPercent: round2(used / total * 100),
	}
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
