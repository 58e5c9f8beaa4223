package disk

import (
	"context"
	"time"

	"github.com/jamesprial/nas-power-mcp/internal/safety"
	"github.com/jamesprial/nas-power-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DiskTools returns the tool registrations for the device classification
// tools. All of them are read-only.
func DiskTools(classifier Classifier, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		diskClassify(classifier, audit),
		diskClassifyAll(classifier, audit),
		diskClassificationSummary(classifier, audit),
	}
}

func diskClassify(classifier Classifier, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("disk_classify",
		mcp.WithDescription("Classify a single storage device as hdd, ssd, nvme, or unknown. Partition names resolve to their whole device."),
		mcp.WithString("device",
			mcp.Required(),
			mcp.Description("Device name or path, e.g. sda, nvme0n1, /dev/sdb2."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		device := req.GetString("device", "")
		params := map[string]any{"device": device}

		if device == "" {
			tools.LogAudit(audit, "disk_classify", params, "error: device is required", start)
			return tools.ErrorResult("device is required"), nil
		}

		typ := classifier.Classify(ctx, device)

		tools.LogAudit(audit, "disk_classify", params, "ok", start)
		return tools.JSONResult(map[string]any{
			"device": Normalize(device),
			"type":   typ,
		}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func diskClassifyAll(classifier Classifier, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("disk_classify_all",
		mcp.WithDescription("Classify every storage device visible to the host, returning a map of device name to technology type."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		devices, err := classifier.ClassifyAll(ctx)
		if err != nil {
			tools.LogAudit(audit, "disk_classify_all", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "disk_classify_all", params, "ok", start)
		return tools.JSONResult(devices), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func diskClassificationSummary(classifier Classifier, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("disk_classification_summary",
		mcp.WithDescription("Get aggregate disk classification counts: total disks, known and unknown types, and per-technology totals."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		summary, err := classifier.Summarize(ctx)
		if err != nil {
			tools.LogAudit(audit, "disk_classification_summary", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "disk_classification_summary", params, "ok", start)
		return tools.JSONResult(summary), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
