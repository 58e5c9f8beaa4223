package system

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

const statIdle = "cpu  100 0 100 800 0 0 0 0 0 0\ncpu0 50 0 50 400 0 0 0 0 0 0\n"

// statBusy advances total by 500 and idle by 200 relative to statIdle, which
// works out to 60% utilization over the window.
const statBusy = "cpu  250 0 250 1000 0 0 0 0 0 0\ncpu0 125 0 125 500 0 0 0 0 0 0\n"

const memInfo = `MemTotal:       32768000 kB
MemFree:         1024000 kB
MemAvailable:   16384000 kB
Buffers:          512000 kB
SwapTotal:       2048000 kB
SwapFree:        2048000 kB
`

const cpuInfo = `processor	: 0
model name	: Intel(R) Celeron(R) J4125 CPU @ 2.00GHz
cpu MHz		: 1992.000

processor	: 1
model name	: Intel(R) Celeron(R) J4125 CPU @ 2.00GHz
cpu MHz		: 1992.000

processor	: 2
model name	: Intel(R) Celeron(R) J4125 CPU @ 2.00GHz
cpu MHz		: 1992.000

processor	: 3
model name	: Intel(R) Celeron(R) J4125 CPU @ 2.00GHz
cpu MHz		: 1992.000
`

// writeProcDir writes the given proc files into a fresh temp dir.
func writeProcDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", full, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", full, err)
		}
	}
	return dir
}

// ---------------------------------------------------------------------------
// CPU usage sampling
// ---------------------------------------------------------------------------

func Test_Usage_StaticCountersMeanZeroUsage(t *testing.T) {
	proc := writeProcDir(t, map[string]string{"stat": statIdle})
	m := NewFileSystemMonitor(proc, t.TempDir())
	m.sampleInterval = 10 * time.Millisecond

	usage, err := m.Usage(context.Background())
	if err != nil {
		t.Fatalf("Usage() error: %v", err)
	}
	if usage != 0 {
		t.Errorf("Usage() = %v, want 0 for an unchanged counter file", usage)
	}
}

func Test_Usage_ComputesDeltaBetweenSamples(t *testing.T) {
	proc := writeProcDir(t, map[string]string{"stat": statIdle})
	m := NewFileSystemMonitor(proc, t.TempDir())
	m.sampleInterval = 250 * time.Millisecond

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(proc, "stat"), []byte(statBusy), 0o644)
	}()

	usage, err := m.Usage(context.Background())
	if err != nil {
		t.Fatalf("Usage() error: %v", err)
	}
	if usage < 59.9 || usage > 60.1 {
		t.Errorf("Usage() = %v, want 60", usage)
	}
}

func Test_Usage_CancelledContextReturnsError(t *testing.T) {
	proc := writeProcDir(t, map[string]string{"stat": statIdle})
	m := NewFileSystemMonitor(proc, t.TempDir())
	m.sampleInterval = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Usage(ctx); err == nil {
		t.Fatal("Usage() error = nil, want context error")
	}
}

func Test_Usage_MissingStatIsAnError(t *testing.T) {
	m := NewFileSystemMonitor(t.TempDir(), t.TempDir())

	if _, err := m.Usage(context.Background()); err == nil {
		t.Fatal("Usage() error = nil, want error for missing stat")
	}
}

// ---------------------------------------------------------------------------
// CPU info
// ---------------------------------------------------------------------------

func Test_CPUInfo_ParsesModelCoresAndClock(t *testing.T) {
	proc := writeProcDir(t, map[string]string{"cpuinfo": cpuInfo})
	m := NewFileSystemMonitor(proc, t.TempDir())

	info, err := m.CPUInfo(context.Background())
	if err != nil {
		t.Fatalf("CPUInfo() error: %v", err)
	}
	if info.Model != "Intel(R) Celeron(R) J4125 CPU @ 2.00GHz" {
		t.Errorf("Model = %q", info.Model)
	}
	if info.LogicalCores != 4 {
		t.Errorf("LogicalCores = %d, want 4", info.LogicalCores)
	}
	if info.MHz != 1992.0 {
		t.Errorf("MHz = %v, want 1992", info.MHz)
	}
}

func Test_Model_ReturnsModelName(t *testing.T) {
	proc := writeProcDir(t, map[string]string{"cpuinfo": cpuInfo})
	m := NewFileSystemMonitor(proc, t.TempDir())

	model, err := m.Model(context.Background())
	if err != nil {
		t.Fatalf("Model() error: %v", err)
	}
	if model != "Intel(R) Celeron(R) J4125 CPU @ 2.00GHz" {
		t.Errorf("Model() = %q", model)
	}
}

// ---------------------------------------------------------------------------
// Overview
// ---------------------------------------------------------------------------

func Test_Overview_PopulatesMemoryFigures(t *testing.T) {
	proc := writeProcDir(t, map[string]string{
		"stat":    statIdle,
		"meminfo": memInfo,
	})
	m := NewFileSystemMonitor(proc, t.TempDir())
	m.sampleInterval = 10 * time.Millisecond

	ov, err := m.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview() error: %v", err)
	}
	if ov.MemTotalKB != 32768000 {
		t.Errorf("MemTotalKB = %d, want 32768000", ov.MemTotalKB)
	}
	if ov.MemAvailableKB != 16384000 {
		t.Errorf("MemAvailableKB = %d, want 16384000", ov.MemAvailableKB)
	}
	if ov.SwapFreeKB != 2048000 {
		t.Errorf("SwapFreeKB = %d, want 2048000", ov.SwapFreeKB)
	}
}

func Test_Overview_ReadsHwmonTemperatures(t *testing.T) {
	proc := writeProcDir(t, map[string]string{
		"stat":    statIdle,
		"meminfo": memInfo,
	})
	sys := writeProcDir(t, map[string]string{
		"class/hwmon/hwmon0/temp1_input": "42500\n",
	})
	m := NewFileSystemMonitor(proc, sys)
	m.sampleInterval = 10 * time.Millisecond

	ov, err := m.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview() error: %v", err)
	}
	if len(ov.Temperatures) != 1 {
		t.Fatalf("Temperatures = %v, want one entry", ov.Temperatures)
	}
	if ov.Temperatures[0].Celsius != 42.5 {
		t.Errorf("Celsius = %v, want 42.5", ov.Temperatures[0].Celsius)
	}
}

// ---------------------------------------------------------------------------
// Mounts and storage overview
// ---------------------------------------------------------------------------

func Test_Mounts_ParsesProcMounts(t *testing.T) {
	proc := writeProcDir(t, map[string]string{
		"mounts": "/dev/sda1 / ext4 rw,relatime 0 0\ntmpfs /tmp tmpfs rw 0 0\n/dev/nvme0n1p1 /boot vfat rw 0 0\n",
	})
	m := NewFileSystemMonitor(proc, t.TempDir())

	mounts, err := m.Mounts(context.Background())
	if err != nil {
		t.Fatalf("Mounts() error: %v", err)
	}
	if len(mounts) != 3 {
		t.Fatalf("Mounts() returned %d entries, want 3", len(mounts))
	}
	if mounts[0].Device != "/dev/sda1" || mounts[0].Mountpoint != "/" || mounts[0].FsType != "ext4" {
		t.Errorf("mounts[0] = %+v", mounts[0])
	}
}

func Test_StorageOverview_KeepsOnlyPhysicalDevices(t *testing.T) {
	// Point the physical mounts at a real directory so statfs succeeds.
	target := t.TempDir()
	proc := writeProcDir(t, map[string]string{
		"mounts": "/dev/sda1 " + target + " ext4 rw 0 0\n" +
			"tmpfs /tmp tmpfs rw 0 0\n" +
			"/dev/loop3 /snap/x squashfs ro 0 0\n",
	})
	m := NewFileSystemMonitor(proc, t.TempDir())

	entries, err := m.StorageOverview(context.Background())
	if err != nil {
		t.Fatalf("StorageOverview() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("StorageOverview() returned %d entries, want 1", len(entries))
	}
	if entries[0].Device != "/dev/sda1" {
		t.Errorf("Device = %q, want /dev/sda1", entries[0].Device)
	}
	if entries[0].Usage == nil {
		t.Error("Usage is nil, want statfs figures for an existing mountpoint")
	} else if entries[0].Usage.UsedPercent < 0 || entries[0].Usage.UsedPercent > 100 {
		t.Errorf("UsedPercent = %v, want 0-100", entries[0].Usage.UsedPercent)
	}
}

func Test_StorageOverview_MissingMountpointYieldsNilUsage(t *testing.T) {
	proc := writeProcDir(t, map[string]string{
		"mounts": "/dev/sdb1 /nonexistent/mountpoint xfs rw 0 0\n",
	})
	m := NewFileSystemMonitor(proc, t.TempDir())

	entries, err := m.StorageOverview(context.Background())
	if err != nil {
		t.Fatalf("StorageOverview() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("StorageOverview() returned %d entries, want 1", len(entries))
	}
	if entries[0].Usage != nil {
		t.Errorf("Usage = %+v, want nil for unstatable mountpoint", entries[0].Usage)
	}
}
