// Package mcpserver exposes placement reports, job matching and analysis as
// MCP tools over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"placement/internal/errors"
	"placement/internal/formatters"
	"placement/internal/placement"
	"placement/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Service is the subset of *service.Service the tools call.
type Service interface {
	Statistics(ctx context.Context) (placement.StatsSummary, error)
	Breakdown(ctx context.Context, by string) ([]placement.Breakdown, error)
	MatchJobs(ctx context.Context, studentID string, eligibleOnly bool) ([]placement.MatchResult, error)
	Analyze(ctx context.Context, question string) (service.Analysis, error)
}

// Tools holds the tool handlers.
type Tools struct {
	svc    Service
	logger *errors.Logger
}

// New builds an MCP server with every placement tool registered.
func New(svc Service, version string, logger *errors.Logger) *server.MCPServer {
	s := server.NewMCPServer("placement", version)
	t := &Tools{svc: svc, logger: logger}
	t.register(s)
	return s
}

// ServeStdio serves the tools on stdin and stdout until EOF.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (t *Tools) register(s *server.MCPServer) {
	statsTool := mcp.NewTool("placement_statistics",
		mcp.WithDescription("Overall placement statistics: students, placement rate, CGPA, attendance, backlogs, jobs and companies"),
	)
	statsTool.InputSchema = mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{},
	}
	s.AddTool(statsTool, t.statistics)

	breakdownTool := mcp.NewTool("placement_breakdown",
		mcp.WithDescription("Placement figures grouped by course, department or year"),
	)
	breakdownTool.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"by": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"course", "department", "year"},
				"description": "Grouping dimension",
			},
		},
		Required: []string{"by"},
	}
	s.AddTool(breakdownTool, t.breakdown)

	matchTool := mcp.NewTool("match_jobs",
		mcp.WithDescription("Rank open jobs for a student by skill overlap, branch fit and CGPA eligibility"),
	)
	matchTool.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"student_id":    map[string]interface{}{"type": "string", "description": "Student ID"},
			"eligible_only": map[string]interface{}{"type": "boolean", "description": "Only list jobs whose CGPA minimum the student meets (default: false)"},
		},
		Required: []string{"student_id"},
	}
	s.AddTool(matchTool, t.matchJobs)

	askTool := mcp.NewTool("ask_placement",
		mcp.WithDescription("Answer a natural-language question about students, placements, companies and jobs"),
	)
	askTool.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"query": map[string]interface{}{"type": "string", "description": "The question to answer"},
		},
		Required: []string{"query"},
	}
	s.AddTool(askTool, t.ask)
}

func (t *Tools) statistics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.svc.Statistics(ctx)
	if err != nil {
		return t.toolError("placement_statistics", err), nil
	}
	return markdownResult(stats)
}

func (t *Tools) breakdown(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	by, _ := args["by"].(string)
	if strings.TrimSpace(by) == "" {
		return mcp.NewToolResultError("missing required field: by"), nil
	}

	rows, err := t.svc.Breakdown(ctx, by)
	if err != nil {
		return t.toolError("placement_breakdown", err), nil
	}
	return markdownResult(rows)
}

func (t *Tools) matchJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	studentID, _ := args["student_id"].(string)
	if strings.TrimSpace(studentID) == "" {
		return mcp.NewToolResultError("missing required field: student_id"), nil
	}
	eligibleOnly := false
	if v, ok := args["eligible_only"].(bool); ok {
		eligibleOnly = v
	}

	results, err := t.svc.MatchJobs(ctx, strings.TrimSpace(studentID), eligibleOnly)
	if err != nil {
		return t.toolError("match_jobs", err), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No open jobs match this student."), nil
	}
	return markdownResult(results)
}

func (t *Tools) ask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("missing required field: query"), nil
	}

	answer, err := t.svc.Analyze(ctx, query)
	if err != nil {
		return t.toolError("ask_placement", err), nil
	}
	return mcp.NewToolResultText(answer.Content), nil
}

func markdownResult(data any) (*mcp.CallToolResult, error) {
	out, err := formatters.GlobalRegistry.Format(data, formatters.FormatMarkdown)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(out), nil
}

// toolError reports err to the client as a tool error rather than a protocol error.
func (t *Tools) toolError(tool string, err error) *mcp.CallToolResult {
	if appErr, ok := errors.AsAppError(err); ok && !errors.IsType(err, errors.ErrorTypeStore) {
		return mcp.NewToolResultError(appErr.Message)
	}
	t.logger.LogError(err, "MCP tool failed", "tool", tool)
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: internal error", tool))
}
