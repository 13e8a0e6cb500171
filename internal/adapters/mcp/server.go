// Package mcpadapter exposes the journal over the Model Context Protocol so an
// assistant can analyze, save and browse entries on behalf of one principal.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
)

const (
	serverName = "Mood Builder MCP Server"
	dateLayout = "2006-01-02"
)

type Server struct {
	mcpServer *server.MCPServer
	journal   ports.JournalService
	insights  ports.InsightsService
	principal domain.Principal
	location  *time.Location
}

// New registers every journal tool. All calls act as principal and date
// arguments are read in location.
func New(version string, journal ports.JournalService, insights ports.InsightsService, principal domain.Principal, location *time.Location) *Server {
	if location == nil {
		location = time.UTC
	}
	s := &Server{
		mcpServer: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(false),
			server.WithLogging(),
			server.WithRecovery(),
		),
		journal:   journal,
		insights:  insights,
		principal: principal,
		location:  location,
	}
	s.registerTools()
	return s
}

// Start runs the stdio event loop until stdin closes.
func (s *Server) Start() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("analyze_mood",
		mcp.WithDescription("Analyzes the mood of a piece of journal text without saving it."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Journal text to analyze.")),
	), s.analyzeMood)

	s.mcpServer.AddTool(mcp.NewTool("save_entry",
		mcp.WithDescription("Analyzes journal text and saves it as a new entry."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Journal text to save.")),
	), s.saveEntry)

	s.mcpServer.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("Lists saved journal entries, newest first."),
		mcp.WithString("from", mcp.Description("Inclusive start date, YYYY-MM-DD.")),
		mcp.WithString("to", mcp.Description("Inclusive end date, YYYY-MM-DD.")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries to return.")),
	), s.listEntries)

	s.mcpServer.AddTool(mcp.NewTool("mood_summary",
		mcp.WithDescription("Returns dashboard statistics: totals, weekly average and streak."),
	), s.moodSummary)

	s.mcpServer.AddTool(mcp.NewTool("mood_trends",
		mcp.WithDescription("Returns mood points, emotion frequency and distribution for a range."),
		mcp.WithString("range", mcp.Description("One of 7d, 30d, 90d or 1y.")),
	), s.moodTrends)
}

func (s *Server) analyzeMood(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outcome, err := s.journal.Preview(ctx, content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to analyze mood: %v", err)), nil
	}
	return jsonResult(outcome)
}

func (s *Server) saveEntry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	saved, err := s.journal.CreateFromText(ctx, s.principal, content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save entry: %v", err)), nil
	}
	return jsonResult(saved)
}

func (s *Server) listEntries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var filter domain.EntryFilter
	if raw := request.GetString("from", ""); raw != "" {
		from, err := time.ParseInLocation(dateLayout, raw, s.location)
		if err != nil {
			return mcp.NewToolResultError("'from' must be a date like 2026-05-01"), nil
		}
		filter.From = from
	}
	if raw := request.GetString("to", ""); raw != "" {
		to, err := time.ParseInLocation(dateLayout, raw, s.location)
		if err != nil {
			return mcp.NewToolResultError("'to' must be a date like 2026-05-31"), nil
		}
		filter.To = to.AddDate(0, 0, 1)
	}
	filter.Limit = request.GetInt("limit", 0)

	entries, err := s.journal.ListEntries(ctx, s.principal, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list entries: %v", err)), nil
	}
	return jsonResult(entries)
}

func (s *Server) moodSummary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := s.insights.Summary(ctx, s.principal)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build summary: %v", err)), nil
	}
	return jsonResult(summary)
}

func (s *Server) moodTrends(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	trends, err := s.insights.MoodTrends(ctx, s.principal, request.GetString("range", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build trends: %v", err)), nil
	}
	return jsonResult(trends)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result to JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}
