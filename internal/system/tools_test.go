package system

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

// ---------------------------------------------------------------------------
// Fakes and helpers
// ---------------------------------------------------------------------------

// fakeMonitor implements Monitor with function fields for tool handler tests.
type fakeMonitor struct {
	overviewFunc func(ctx context.Context) (*Overview, error)
	cpuInfoFunc  func(ctx context.Context) (*CPUInfo, error)
	usageFunc    func(ctx context.Context) (float64, error)
	storageFunc  func(ctx context.Context) ([]StorageEntry, error)
}

func (f *fakeMonitor) Overview(ctx context.Context) (*Overview, error) { return f.overviewFunc(ctx) }
func (f *fakeMonitor) CPUInfo(ctx context.Context) (*CPUInfo, error)   { return f.cpuInfoFunc(ctx) }
func (f *fakeMonitor) Usage(ctx context.Context) (float64, error)      { return f.usageFunc(ctx) }
func (f *fakeMonitor) Model(ctx context.Context) (string, error) {
	info, err := f.cpuInfoFunc(ctx)
	if err != nil {
		return "", err
	}
	return info.Model, nil
}
func (f *fakeMonitor) Mounts(ctx context.Context) ([]Mount, error) { return nil, nil }
func (f *fakeMonitor) StorageOverview(ctx context.Context) ([]StorageEntry, error) {
	return f.storageFunc(ctx)
}

var _ Monitor = (*fakeMonitor)(nil)

// fakeResolver implements CPUPowerResolver with fixed figures.
type fakeResolver struct {
	tdp, watts float64
}

func (f *fakeResolver) CPUPower(ctx context.Context, usagePercent float64) (float64, float64) {
	return f.tdp, f.watts
}

func newCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// decodeResult unmarshals the text payload of a CallToolResult into dst.
func decodeResult(t *testing.T, result *mcp.CallToolResult, dst any) {
	t.Helper()
	if result == nil {
		t.Fatal("result is nil")
	}
	if len(result.Content) == 0 {
		t.Fatal("result has no content entries")
	}
	tc, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("first content entry is not TextContent, got %T", result.Content[0])
	}
	if err := json.Unmarshal([]byte(tc.Text), dst); err != nil {
		t.Fatalf("result is not valid JSON: %v\ntext: %s", err, tc.Text)
	}
}

// ---------------------------------------------------------------------------
// system_cpu
// ---------------------------------------------------------------------------

func Test_SystemCPU_IncludesPowerFigures(t *testing.T) {
	mon := &fakeMonitor{
		cpuInfoFunc: func(ctx context.Context) (*CPUInfo, error) {
			return &CPUInfo{Model: "Intel(R) N100", LogicalCores: 4, MHz: 800}, nil
		},
		usageFunc: func(ctx context.Context) (float64, error) { return 50, nil },
	}
	reg := systemCPU(mon, &fakeResolver{tdp: 6, watts: 3.6}, nil)

	result, err := reg.Handler(context.Background(), newCallToolRequest("system_cpu", nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload struct {
		Info         CPUInfo `json:"info"`
		UsagePercent float64 `json:"usage_percent"`
		TDPWatts     float64 `json:"tdp_watts"`
		PowerWatts   float64 `json:"estimated_power_watts"`
	}
	decodeResult(t, result, &payload)

	if payload.Info.Model != "Intel(R) N100" || payload.Info.LogicalCores != 4 {
		t.Errorf("info = %+v", payload.Info)
	}
	if payload.UsagePercent != 50 {
		t.Errorf("usage_percent = %v, want 50", payload.UsagePercent)
	}
	if payload.TDPWatts != 6 || payload.PowerWatts != 3.6 {
		t.Errorf("tdp = %v, power = %v, want 6 and 3.6", payload.TDPWatts, payload.PowerWatts)
	}
}

func Test_SystemCPU_NilResolverOmitsPowerFields(t *testing.T) {
	mon := &fakeMonitor{
		cpuInfoFunc: func(ctx context.Context) (*CPUInfo, error) {
			return &CPUInfo{Model: "Intel(R) N100"}, nil
		},
		usageFunc: func(ctx context.Context) (float64, error) { return 10, nil },
	}
	reg := systemCPU(mon, nil, nil)

	result, err := reg.Handler(context.Background(), newCallToolRequest("system_cpu", nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload map[string]any
	decodeResult(t, result, &payload)

	if _, present := payload["tdp_watts"]; present {
		t.Error("tdp_watts present without a resolver")
	}
	if _, present := payload["estimated_power_watts"]; present {
		t.Error("estimated_power_watts present without a resolver")
	}
}

func Test_SystemCPU_UsageFailureReturnsErrorText(t *testing.T) {
	mon := &fakeMonitor{
		cpuInfoFunc: func(ctx context.Context) (*CPUInfo, error) {
			return &CPUInfo{Model: "x"}, nil
		},
		usageFunc: func(ctx context.Context) (float64, error) {
			return 0, errors.New("stat unreadable")
		},
	}
	reg := systemCPU(mon, nil, nil)

	result, err := reg.Handler(context.Background(), newCallToolRequest("system_cpu", nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	tc, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("first content entry is %T, want TextContent", result.Content[0])
	}
	if tc.Text != "error: stat unreadable" {
		t.Errorf("text = %q, want error text", tc.Text)
	}
}

// ---------------------------------------------------------------------------
// system_overview / system_storage
// ---------------------------------------------------------------------------

func Test_SystemOverview_MarshalsSnapshot(t *testing.T) {
	mon := &fakeMonitor{
		overviewFunc: func(ctx context.Context) (*Overview, error) {
			return &Overview{CPUUsagePercent: 12.5, MemTotalKB: 1024}, nil
		},
	}
	reg := systemOverview(mon, nil)

	result, err := reg.Handler(context.Background(), newCallToolRequest("system_overview", nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload Overview
	decodeResult(t, result, &payload)
	if payload.CPUUsagePercent != 12.5 || payload.MemTotalKB != 1024 {
		t.Errorf("payload = %+v", payload)
	}
}

func Test_SystemStorage_MarshalsEntries(t *testing.T) {
	mon := &fakeMonitor{
		storageFunc: func(ctx context.Context) ([]StorageEntry, error) {
			return []StorageEntry{
				{Mount: Mount{Device: "/dev/sda1", Mountpoint: "/", FsType: "ext4"}},
			}, nil
		},
	}
	reg := systemStorage(mon, nil)

	result, err := reg.Handler(context.Background(), newCallToolRequest("system_storage", nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload []StorageEntry
	decodeResult(t, result, &payload)
	if len(payload) != 1 || payload[0].Device != "/dev/sda1" {
		t.Errorf("payload = %+v", payload)
	}
}
