// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leseb/beebot-mcp/pkg/archive"
	"github.com/leseb/beebot-mcp/pkg/mcp"
	"github.com/leseb/beebot-mcp/pkg/toolkit"
)

// ListReports returns the list_reports tool.
func (t *Tools) ListReports() toolkit.Tool {
	return toolkit.Tool{
		Descriptor: toolkit.Descriptor{
			Name:        "list_reports",
			Description: "List previously generated deep research reports, newest first",
			InputSchema: toolkit.Object(map[string]toolkit.Property{
				"limit": toolkit.Integer("Maximum number of reports to list (1-50)").Between(1, 50).WithDefault(10),
			}),
		},
		Handler: t.listReports,
	}
}

func (t *Tools) listReports(ctx context.Context, args toolkit.Arguments) (*mcp.ToolCallResult, error) {
	reports, err := t.archive.List(ctx, args.Int("limit"))
	if err != nil {
		t.logger.Warn("list reports failed", "error", err)
		return toolkit.ErrorResult("Error listing reports: %v", err), nil
	}
	if len(reports) == 0 {
		return toolkit.TextResult("No archived reports."), nil
	}

	var b strings.Builder
	b.WriteString("Archived research reports:\n\n")
	for i, r := range reports {
		fmt.Fprintf(&b, "%d. %s | %s | %s (focus: %s)\n",
			i+1, r.ID, r.CreatedAt.UTC().Format(time.RFC3339), r.Topic, r.Focus)
	}
	return toolkit.TextResult(b.String()), nil
}

// GetReport returns the get_report tool.
func (t *Tools) GetReport() toolkit.Tool {
	return toolkit.Tool{
		Descriptor: toolkit.Descriptor{
			Name:        "get_report",
			Description: "Fetch an archived deep research report by id",
			InputSchema: toolkit.Object(map[string]toolkit.Property{
				"id": toolkit.String("Report id returned by deep_research or list_reports"),
			}, "id"),
		},
		Handler: t.getReport,
	}
}

func (t *Tools) getReport(ctx context.Context, args toolkit.Arguments) (*mcp.ToolCallResult, error) {
	id := strings.TrimSpace(args.String("id"))
	report, err := t.archive.Get(ctx, id)
	if errors.Is(err, archive.ErrReportNotFound) {
		return toolkit.ErrorResult("Report %q not found.", id), nil
	}
	if err != nil {
		t.logger.Warn("get report failed", "id", id, "error", err)
		return toolkit.ErrorResult("Error fetching report: %v", err), nil
	}
	return toolkit.TextResult(report.Content), nil
}

// DeleteReport returns the delete_report tool.
func (t *Tools) DeleteReport() toolkit.Tool {
	return toolkit.Tool{
		Descriptor: toolkit.Descriptor{
			Name:        "delete_report",
			Description: "Delete an archived deep research report by id",
			InputSchema: toolkit.Object(map[string]toolkit.Property{
				"id": toolkit.String("Report id returned by deep_research or list_reports"),
			}, "id"),
		},
		Handler: t.deleteReport,
	}
}

func (t *Tools) deleteReport(ctx context.Context, args toolkit.Arguments) (*mcp.ToolCallResult, error) {
	id := strings.TrimSpace(args.String("id"))
	err := t.archive.Delete(ctx, id)
	if errors.Is(err, archive.ErrReportNotFound) {
		return toolkit.ErrorResult("Report %q not found.", id), nil
	}
	if err != nil {
		t.logger.Warn("delete report failed", "id", id, "error", err)
		return toolkit.ErrorResult("Error deleting report: %v", err), nil
	}
	return toolkit.TextResult(fmt.Sprintf("Deleted report %s.", id)), nil
}
