package disk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesprial/nas-power-mcp/internal/safety"
)

// mkdirs creates each named subdirectory under a fresh temp dir and returns it.
func mkdirs(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
	}
	return dir
}

// touch creates empty files under dir.
func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("touch %s: %v", name, err)
		}
	}
}

func Test_Devices_ListsSysBlockEntries(t *testing.T) {
	sys := mkdirs(t, "block/sda", "block/sdb", "block/nvme0n1", "block/loop0", "block/loop1")
	e := NewFileSystemEnumerator(sys, t.TempDir(), nil)

	got, err := e.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices() error: %v", err)
	}

	want := []string{"nvme0", "sda", "sdb"}
	assertDevices(t, got, want)
}

func Test_Devices_FallsBackToDevScanWhenSysBlockMissing(t *testing.T) {
	dev := t.TempDir()
	touch(t, dev, "sda", "sda1", "sda2", "nvme0n1", "nvme0n1p1", "vdb", "tty0", "null")

	e := NewFileSystemEnumerator(t.TempDir(), dev, nil)

	got, err := e.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices() error: %v", err)
	}

	// Partitions collapse onto their whole device; non-disk nodes are skipped.
	want := []string{"nvme0", "sda", "vdb"}
	assertDevices(t, got, want)
}

func Test_Devices_BothSourcesInaccessibleReturnsEmpty(t *testing.T) {
	e := NewFileSystemEnumerator("/nonexistent/sys", "/nonexistent/dev", nil)

	got, err := e.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices() error: %v (inaccessible sources must not be an error)", err)
	}
	if len(got) != 0 {
		t.Fatalf("Devices() = %v, want empty", got)
	}
}

func Test_Devices_AppliesDeviceFilter(t *testing.T) {
	sys := mkdirs(t, "block/sda", "block/sdb", "block/sdc")
	filter := safety.NewFilter(nil, []string{"sdc"})
	e := NewFileSystemEnumerator(sys, t.TempDir(), filter)

	got, err := e.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices() error: %v", err)
	}
	assertDevices(t, got, []string{"sda", "sdb"})
}

func assertDevices(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Devices() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Devices() = %v, want %v", got, want)
		}
	}
}
