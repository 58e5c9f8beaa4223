package disk

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Probe timeouts for the external-command probes.
const (
	lsblkTimeout    = 5 * time.Second
	smartctlTimeout = 10 * time.Second
)

// ProbeResult is the tri-state outcome of a single probe: a conclusive device
// type, or inconclusive (advance to the next probe in the cascade).
type ProbeResult struct {
	Type       DeviceType
	Conclusive bool
}

// Conclusive wraps t as a conclusive probe result.
func Conclusive(t DeviceType) ProbeResult {
	return ProbeResult{Type: t, Conclusive: true}
}

// Inconclusive is the result of a probe that could not determine the type.
var Inconclusive = ProbeResult{Type: TypeUnknown}

// Probe is one concrete method of inferring a device's storage technology.
// Probes must never panic or block past their internal time budget; any
// internal failure is reported as an inconclusive result.
type Probe interface {
	// Name identifies the probe in log output.
	Name() string

	// Probe inspects the named (normalized) device.
	Probe(ctx context.Context, device string) ProbeResult
}

// nonRotationalType maps a non-rotational device to NVMe or SATA SSD based
// on its name prefix.
func nonRotationalType(device string) DeviceType {
	if strings.HasPrefix(device, "nvme") {
		return TypeNVMe
	}
	return TypeSSD
}

// ---------------------------------------------------------------------------
// Probe 1: sysfs rotational flag
// ---------------------------------------------------------------------------

// Compile-time interface checks.
var (
	_ Probe = (*RotationalFileProbe)(nil)
	_ Probe = (*LsblkProbe)(nil)
	_ Probe = (*SmartctlProbe)(nil)
	_ Probe = NamingProbe{}
)

// RotationalFileProbe reads {sysPath}/block/<device>/queue/rotational.
// It requires no elevated privilege: 0 means non-rotational (SSD/NVMe),
// 1 means HDD. A missing or unreadable flag file is inconclusive.
type RotationalFileProbe struct {
	sysPath string
}

// NewRotationalFileProbe returns a probe reading from the given sys
// filesystem root (normally /sys).
func NewRotationalFileProbe(sysPath string) *RotationalFileProbe {
	return &RotationalFileProbe{sysPath: sysPath}
}

// Name implements Probe.
func (p *RotationalFileProbe) Name() string { return "rotational-file" }

// Probe implements Probe.
func (p *RotationalFileProbe) Probe(ctx context.Context, device string) ProbeResult {
	path := filepath.Join(p.sysPath, "block", device, "queue", "rotational")
	data, err := os.ReadFile(path)
	if err != nil {
		return Inconclusive
	}

	switch strings.TrimSpace(string(data)) {
	case "0":
		return Conclusive(nonRotationalType(device))
	case "1":
		return Conclusive(TypeHDD)
	default:
		log.Printf("disk: unexpected rotational value in %s: %q", path, strings.TrimSpace(string(data)))
		return Inconclusive
	}
}

// ---------------------------------------------------------------------------
// Probe 2: lsblk ROTA column
// ---------------------------------------------------------------------------

// LsblkProbe invokes lsblk to list whole devices with their rotational flag.
// It usually works without elevated privilege. A missing binary, non-zero
// exit code, timeout, or unparseable output is inconclusive.
type LsblkProbe struct {
	runner CommandRunner
}

// NewLsblkProbe returns a probe using the given command runner.
func NewLsblkProbe(runner CommandRunner) *LsblkProbe {
	return &LsblkProbe{runner: runner}
}

// Name implements Probe.
func (p *LsblkProbe) Name() string { return "lsblk" }

// Probe implements Probe.
func (p *LsblkProbe) Probe(ctx context.Context, device string) ProbeResult {
	exitCode, stdout, err := p.runner.Run(ctx, lsblkTimeout, "lsblk", "-d", "-n", "-o", "NAME,ROTA")
	if err != nil {
		log.Printf("disk: lsblk probe for %s: %v", device, err)
		return Inconclusive
	}
	if exitCode != 0 {
		return Inconclusive
	}

	for _, line := range strings.Split(stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != device {
			continue
		}
		switch fields[1] {
		case "0":
			return Conclusive(nonRotationalType(device))
		case "1":
			return Conclusive(TypeHDD)
		}
	}
	return Inconclusive
}

// ---------------------------------------------------------------------------
// Probe 3: smartctl
// ---------------------------------------------------------------------------

// SmartctlProbe invokes smartctl -a against the raw device node. It usually
// requires root or a privileged container. Exit code 1 (access denied or
// device open failure) and timeouts are inconclusive.
//
// Interpretation note: when the output carries a "Rotation Rate:" marker the
// device is reported as SSD, because once the device responds the tool output
// alone does not let us distinguish HDD from SSD reliably. The sysfs and
// lsblk probes ahead of this one settle rotational devices in practice.
type SmartctlProbe struct {
	runner  CommandRunner
	devPath string
}

// NewSmartctlProbe returns a probe using the given command runner and
// device-node directory (normally /dev).
func NewSmartctlProbe(runner CommandRunner, devPath string) *SmartctlProbe {
	return &SmartctlProbe{runner: runner, devPath: devPath}
}

// Name implements Probe.
func (p *SmartctlProbe) Name() string { return "smartctl" }

// Probe implements Probe.
func (p *SmartctlProbe) Probe(ctx context.Context, device string) ProbeResult {
	// The raw path addresses the whole device; Normalize already stripped
	// any NVMe namespace suffix from the name.
	rawPath := filepath.Join(p.devPath, Normalize(device))

	exitCode, stdout, err := p.runner.Run(ctx, smartctlTimeout, "smartctl", "-a", rawPath)
	if err != nil {
		log.Printf("disk: smartctl probe for %s: %v", rawPath, err)
		return Inconclusive
	}
	if exitCode == 1 {
		// Access denied or the device could not be opened.
		log.Printf("disk: smartctl access denied for %s", rawPath)
		return Inconclusive
	}
	if exitCode != 0 {
		return Inconclusive
	}

	if strings.Contains(stdout, "Rotation Rate:") {
		return Conclusive(TypeSSD)
	}
	// No rotation marker, or explicit non-rotational/SSD text: solid state.
	return Conclusive(nonRotationalType(device))
}

// ---------------------------------------------------------------------------
// Probe 4: naming heuristics
// ---------------------------------------------------------------------------

// namingRule maps a device-name prefix to an assumed technology.
type namingRule struct {
	prefix string
	typ    DeviceType
}

// namingRules is evaluated in order; the first matching prefix wins.
// vd* devices are virtual disks, assumed to be backed by solid state;
// sd* defaults to SSD as the conservative non-HDD choice.
var namingRules = []namingRule{
	{prefix: "nvme", typ: TypeNVMe},
	{prefix: "vd", typ: TypeSSD},
	{prefix: "sd", typ: TypeSSD},
}

// NamingProbe guesses the device type from its name prefix. It is the last
// resort in the cascade; an unrecognized prefix is inconclusive and the
// device ends up classified as unknown.
type NamingProbe struct{}

// Name implements Probe.
func (NamingProbe) Name() string { return "naming" }

// Probe implements Probe.
func (NamingProbe) Probe(ctx context.Context, device string) ProbeResult {
	for _, rule := range namingRules {
		if strings.HasPrefix(device, rule.prefix) {
			return Conclusive(rule.typ)
		}
	}
	return Inconclusive
}
