package system

import (
	"context"
	"time"

	"github.com/jamesprial/nas-power-mcp/internal/safety"
	"github.com/jamesprial/nas-power-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CPUPowerResolver reports the resolved TDP and the estimated CPU draw at a
// given utilization, so the CPU tool can show wattage next to usage.
type CPUPowerResolver interface {
	CPUPower(ctx context.Context, usagePercent float64) (tdpWatts, watts float64)
}

// SystemTools returns the tool registrations for the host health tools.
// These are all read-only. cpuPower may be nil, which drops the power fields
// from the CPU tool output.
func SystemTools(mon Monitor, cpuPower CPUPowerResolver, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		systemOverview(mon, audit),
		systemCPU(mon, cpuPower, audit),
		systemStorage(mon, audit),
	}
}

func systemOverview(mon Monitor, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("system_overview",
		mcp.WithDescription("Get a snapshot of overall system health: CPU usage, memory usage, and hardware temperatures."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		overview, err := mon.Overview(ctx)
		if err != nil {
			tools.LogAudit(audit, "system_overview", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "system_overview", params, "ok", start)
		return tools.JSONResult(overview), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func systemCPU(mon Monitor, cpuPower CPUPowerResolver, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("system_cpu",
		mcp.WithDescription("Get processor details: model name, logical core count, clock, a fresh utilization sample, and the estimated CPU power draw."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		info, err := mon.CPUInfo(ctx)
		if err != nil {
			tools.LogAudit(audit, "system_cpu", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		usage, err := mon.Usage(ctx)
		if err != nil {
			tools.LogAudit(audit, "system_cpu", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		out := map[string]any{
			"info":          info,
			"usage_percent": usage,
		}
		if cpuPower != nil {
			tdp, watts := cpuPower.CPUPower(ctx, usage)
			out["tdp_watts"] = tdp
			out["estimated_power_watts"] = watts
		}

		tools.LogAudit(audit, "system_cpu", params, "ok", start)
		return tools.JSONResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func systemStorage(mon Monitor, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("system_storage",
		mcp.WithDescription("List mounted physical filesystems with capacity and usage figures."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		entries, err := mon.StorageOverview(ctx)
		if err != nil {
			tools.LogAudit(audit, "system_storage", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "system_storage", params, "ok", start)
		return tools.JSONResult(entries), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
