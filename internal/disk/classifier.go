package disk

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Compile-time interface check.
var _ Classifier = (*CascadeClassifier)(nil)

// CascadeClassifier resolves device types by running an ordered probe cascade
// and memoizing the outcome per normalized device name. A cached result —
// including unknown — is never re-probed for the lifetime of the classifier
// unless Invalidate is called.
//
// Concurrent callers may race on a first-touch cache miss and duplicate the
// probe work for the same device; the probes are idempotent, so the cache
// simply keeps whichever result lands first and duplicates are discarded.
type CascadeClassifier struct {
	enum   Enumerator
	probes []Probe

	mu    sync.Mutex
	cache map[string]DeviceType
}

// NewCascadeClassifier returns a classifier over the given enumerator and
// probe list. Probes are tried in slice order; pass DefaultProbes for the
// standard cascade.
func NewCascadeClassifier(enum Enumerator, probes []Probe) *CascadeClassifier {
	return &CascadeClassifier{
		enum:   enum,
		probes: probes,
		cache:  make(map[string]DeviceType),
	}
}

// DefaultProbes returns the standard probe cascade: sysfs rotational flag,
// lsblk, smartctl, then naming heuristics.
func DefaultProbes(sysPath, devPath string, runner CommandRunner) []Probe {
	return []Probe{
		NewRotationalFileProbe(sysPath),
		NewLsblkProbe(runner),
		NewSmartctlProbe(runner, devPath),
		NamingProbe{},
	}
}

// Classify resolves deviceID to its technology type. The identifier is
// normalized first, so partitions resolve to their whole device. Classify
// never fails: if every probe is inconclusive the device is recorded as
// unknown and that result is cached like any other.
func (c *CascadeClassifier) Classify(ctx context.Context, deviceID string) DeviceType {
	name := Normalize(deviceID)

	c.mu.Lock()
	if typ, ok := c.cache[name]; ok {
		c.mu.Unlock()
		return typ
	}
	c.mu.Unlock()

	typ := c.runCascade(ctx, name)

	c.mu.Lock()
	// First writer wins so a concurrent duplicate probe cannot flip a
	// result already handed out to another caller.
	if cached, ok := c.cache[name]; ok {
		typ = cached
	} else {
		c.cache[name] = typ
	}
	c.mu.Unlock()

	return typ
}

// runCascade tries each probe in order and short-circuits on the first
// conclusive result.
func (c *CascadeClassifier) runCascade(ctx context.Context, name string) DeviceType {
	for _, p := range c.probes {
		res := c.runProbe(ctx, p, name)
		if res.Conclusive {
			log.Printf("disk: classified %s as %s (probe %s)", name, res.Type, p.Name())
			return res.Type
		}
	}
	log.Printf("disk: could not determine type of %s; recording as unknown", name)
	return TypeUnknown
}

// runProbe invokes a single probe, converting a panic into an inconclusive
// result so one faulty probe can never break classification.
func (c *CascadeClassifier) runProbe(ctx context.Context, p Probe, name string) (res ProbeResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("disk: probe %s panicked for %s: %v", p.Name(), name, r)
			res = Inconclusive
		}
	}()
	return p.Probe(ctx, name)
}

// ClassifyAll classifies every enumerated device and returns the results
// keyed by normalized device name. The returned map is never nil.
func (c *CascadeClassifier) ClassifyAll(ctx context.Context) (map[string]DeviceType, error) {
	devices, err := c.enum.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	results := make(map[string]DeviceType, len(devices))
	for _, device := range devices {
		results[Normalize(device)] = c.Classify(ctx, device)
	}
	return results, nil
}

// Summarize aggregates ClassifyAll results into per-type totals.
func (c *CascadeClassifier) Summarize(ctx context.Context) (Summary, error) {
	devices, err := c.ClassifyAll(ctx)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		TotalDisks: len(devices),
		Devices:    devices,
	}
	for _, typ := range devices {
		switch typ {
		case TypeHDD:
			s.ByType.HDD++
		case TypeSSD:
			s.ByType.SSD++
		case TypeNVMe:
			s.ByType.NVMe++
		default:
			s.ByType.Unknown++
		}
	}
	s.UnknownTypes = s.ByType.Unknown
	s.KnownTypes = s.TotalDisks - s.UnknownTypes
	return s, nil
}

// Invalidate drops every cached classification so the next request re-probes.
func (c *CascadeClassifier) Invalidate() {
	c.mu.Lock()
	c.cache = make(map[string]DeviceType)
	c.mu.Unlock()
}
