package disk

import "strings"

// Normalize reduces a raw device identifier to its base (whole-device) name.
// Partition suffixes and NVMe namespace suffixes are stripped, and a leading
// /dev/ prefix is removed. Normalizing an already-normalized name returns it
// unchanged.
//
//	sda      -> sda
//	sda1     -> sda
//	nvme0n1  -> nvme0
//	nvme0n1p2 -> nvme0
//	/dev/sdb -> sdb
func Normalize(device string) string {
	device = strings.TrimPrefix(device, "/dev/")

	// NVMe names are nvme<ctrl>[n<ns>[p<part>]]; the base device is the
	// controller, e.g. nvme0.
	if rest, ok := strings.CutPrefix(device, "nvme"); ok {
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 {
			return device
		}
		return "nvme" + rest[:i]
	}

	// Everything else uses trailing digits for partitions, e.g. sda1.
	end := len(device)
	for end > 0 && device[end-1] >= '0' && device[end-1] <= '9' {
		end--
	}
	if end == 0 {
		return device
	}
	return device[:end]
}
