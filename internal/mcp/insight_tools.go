// ABOUTME: MCP tool implementation for AI insights over recent entries.
// ABOUTME: Registers generate_insight when an insight client is configured.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/jotter/internal/insight"
)

func (s *Server) registerInsightTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "generate_insight",
		Description: "Ask the configured AI companion for reflections on the most recent journal entries.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {"type": "number", "description": "How many recent entries to include (default: 10)"}
			}
		}`),
	}, s.handleGenerateInsight)
}

func (s *Server) handleGenerateInsight(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Limit int `json:"limit"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.Limit <= 0 || args.Limit > insight.MaxPromptEntries {
		args.Limit = insight.MaxPromptEntries
	}

	result, err := s.insight.Generate(ctx, s.journal.Recent(args.Limit))
	if errors.Is(err, insight.ErrNoEntries) {
		return toolError("no journal entries yet; write one first"), nil
	}
	if err != nil {
		s.logger.Warn("mcp: insight failed", "err", err)
		return toolError("failed to generate insight: %v", err), nil
	}
	return textResult(FormatInsight(result)), nil
}

// FormatInsight renders an insight as plain text.
func FormatInsight(in *insight.Insight) string {
	if !in.Structured {
		return in.Text
	}
	var sb strings.Builder
	if in.Mood != "" {
		sb.WriteString("Mood: " + in.Mood + "\n")
	}
	if len(in.Insights) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Insights:\n")
		for _, item := range in.Insights {
			sb.WriteString("- " + item + "\n")
		}
	}
	if in.Reflection != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(in.Reflection + "\n")
	}
	return sb.String()
}
