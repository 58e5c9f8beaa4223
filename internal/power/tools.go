package power

import (
	"context"
	"log"
	"time"

	"github.com/jamesprial/nas-power-mcp/internal/safety"
	"github.com/jamesprial/nas-power-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ExternalProvider supplies an authoritative power reading from an upstream
// sensor. A nil provider (or a failed fetch) means the estimator computes the
// figure internally.
type ExternalProvider interface {
	Reading(ctx context.Context) (*ExternalReading, error)
}

// PowerTools returns the tool registrations for power estimation. ext may be
// nil when no external power source is configured.
func PowerTools(est *Estimator, ext ExternalProvider, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		powerEstimate(est, ext, audit),
	}
}

func powerEstimate(est *Estimator, ext ExternalProvider, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("power_estimate",
		mcp.WithDescription("Estimate the system's current power draw in watts, with a per-component breakdown. Prefers a configured external power sensor; otherwise computes from CPU usage, disk counts, and memory."),
		mcp.WithNumber("cpu_usage_percent",
			mcp.Description("CPU utilization (0-100) to use instead of sampling the host."),
		),
		mcp.WithNumber("hdd",
			mcp.Description("Number of rotational disks. Supplying any disk count skips auto-detection."),
		),
		mcp.WithNumber("ssd",
			mcp.Description("Number of SATA SSDs."),
		),
		mcp.WithNumber("nvme",
			mcp.Description("Number of NVMe drives."),
		),
		mcp.WithBoolean("idle",
			mcp.Description("Assume rotational disks are spun down and charge them at the idle unit wattage."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		var er Request
		er.Idle = req.GetBool("idle", false)

		params := map[string]any{"idle": er.Idle}

		if usage := req.GetFloat("cpu_usage_percent", -1); usage >= 0 {
			er.CPUUsagePercent = &usage
			params["cpu_usage_percent"] = usage
		}

		hdd := req.GetInt("hdd", -1)
		ssd := req.GetInt("ssd", -1)
		nvme := req.GetInt("nvme", -1)
		if hdd >= 0 || ssd >= 0 || nvme >= 0 {
			er.DiskCounts = &DiskCounts{HDD: clampCount(hdd), SSD: clampCount(ssd), NVMe: clampCount(nvme)}
			params["disk_counts"] = er.DiskCounts
		}

		if ext != nil {
			reading, err := ext.Reading(ctx)
			if err != nil {
				log.Printf("power: external reading unavailable, estimating internally: %v", err)
			} else {
				er.External = reading
			}
		}

		breakdown := est.Estimate(ctx, er)

		tools.LogAudit(audit, "power_estimate", params, "ok: source="+breakdown.Breakdown.Source, start)
		return tools.JSONResult(breakdown), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// clampCount maps the "not supplied" sentinel (-1) to zero.
func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
