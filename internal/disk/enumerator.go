package disk

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jamesprial/nas-power-mcp/internal/safety"
)

// diskNamePrefixes are the device-node name prefixes considered to be
// physical (or virtualized) disks when scanning the /dev fallback.
var diskNamePrefixes = []string{"sd", "nvme", "vd"}

// Compile-time interface check.
var _ Enumerator = (*FileSystemEnumerator)(nil)

// FileSystemEnumerator implements Enumerator by listing the host's block
// device registry ({sysPath}/block), falling back to a filtered scan of the
// device-node directory ({devPath}) when the registry is missing or empty.
//
// An optional safety.Filter restricts which device names are reported,
// letting operators exclude devices (USB enclosures, passthrough disks)
// from classification and the power model.
type FileSystemEnumerator struct {
	sysPath string
	devPath string
	filter  *safety.Filter
}

// NewFileSystemEnumerator returns an enumerator reading from the given
// directory paths (normally /sys and /dev). filter may be nil, in which case
// every discovered device is reported.
func NewFileSystemEnumerator(sysPath, devPath string, filter *safety.Filter) *FileSystemEnumerator {
	return &FileSystemEnumerator{
		sysPath: sysPath,
		devPath: devPath,
		filter:  filter,
	}
}

// Devices returns the normalized names of all physical block devices visible
// to the host, sorted for stable output. Loop devices and partitions are
// excluded. When both sources are inaccessible an empty slice is returned;
// callers must treat that as "no disks detected", never as failure.
func (e *FileSystemEnumerator) Devices(ctx context.Context) ([]string, error) {
	names := e.listSysBlock()
	if len(names) == 0 {
		names = e.scanDevNodes()
	}

	out := make([]string, 0, len(names))
	for name := range names {
		if e.filter != nil && !e.filter.IsAllowed(name) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// listSysBlock reads {sysPath}/block, which lists whole devices only.
// Loop devices and purely numeric names are skipped.
func (e *FileSystemEnumerator) listSysBlock() map[string]struct{} {
	entries, err := os.ReadDir(filepath.Join(e.sysPath, "block"))
	if err != nil {
		return nil
	}

	names := make(map[string]struct{})
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "loop") || isAllDigits(name) {
			continue
		}
		names[Normalize(name)] = struct{}{}
	}
	return names
}

// scanDevNodes lists {devPath} and keeps entries with a known disk-name
// prefix. Entries are normalized before deduplication so partitions collapse
// onto their whole device.
func (e *FileSystemEnumerator) scanDevNodes() map[string]struct{} {
	entries, err := os.ReadDir(e.devPath)
	if err != nil {
		log.Printf("disk: could not scan %s: %v", e.devPath, err)
		return nil
	}

	names := make(map[string]struct{})
	for _, entry := range entries {
		name := entry.Name()
		for _, prefix := range diskNamePrefixes {
			if strings.HasPrefix(name, prefix) {
				names[Normalize(name)] = struct{}{}
				break
			}
		}
	}
	return names
}

// isAllDigits reports whether s is non-empty and consists only of digits.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
