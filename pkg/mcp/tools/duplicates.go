package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/windrose-energy/windrose-engine/pkg/models"
)

// RegisterDuplicateTools registers proximity-based duplicate detection tools.
func RegisterDuplicateTools(s *server.MCPServer, deps *Deps) {
	registerCheckDuplicatesTool(s, deps)
	registerHandleDuplicateChoiceTool(s, deps)
	registerFindDuplicatesTool(s, deps)
}

func registerCheckDuplicatesTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"check_duplicates",
		mcp.WithDescription(
			"Check for existing projects near a coordinate before creating a new one. "+
				"When duplicates exist, the result carries a numbered prompt to show the "+
				"user; feed their reply to handle_duplicate_choice.",
		),
		mcp.WithNumber(
			"latitude",
			mcp.Required(),
			mcp.Description("Latitude of the proposed site"),
		),
		mcp.WithNumber(
			"longitude",
			mcp.Required(),
			mcp.Description("Longitude of the proposed site"),
		),
		mcp.WithNumber(
			"radius_km",
			mcp.Description("Search radius in kilometers; defaults to the configured dedup radius"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		lat, err := req.RequireFloat("latitude")
		if err != nil {
			return nil, err
		}
		lon, err := req.RequireFloat("longitude")
		if err != nil {
			return nil, err
		}
		radius := req.GetFloat("radius_km", 0)

		check := deps.Lifecycle.CheckForDuplicates(ctx,
			models.Coordinates{Latitude: lat, Longitude: lon}, radius)
		return jsonResult(check)
	})
}

func registerHandleDuplicateChoiceTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"handle_duplicate_choice",
		mcp.WithDescription(
			"Handle the user's reply to a duplicate prompt: 1 continues with the "+
				"nearest existing project, 2 creates a new one, 3 shows details. "+
				"Anything else falls back to creating a new project. Pass the matches "+
				"from the check_duplicates result.",
		),
		mcp.WithString(
			"choice",
			mcp.Required(),
			mcp.Description("The user's reply, e.g. '1'"),
		),
		mcp.WithString(
			"matches",
			mcp.Required(),
			mcp.Description("JSON array of matches from the check_duplicates result"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		choice, err := req.RequireString("choice")
		if err != nil {
			return nil, err
		}
		rawMatches, err := req.RequireString("matches")
		if err != nil {
			return nil, err
		}

		var matches []models.DuplicateMatch
		if err := json.Unmarshal([]byte(rawMatches), &matches); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("matches must be a JSON array of duplicate matches: %v", err)), nil
		}

		outcome := deps.Lifecycle.HandleDuplicateChoice(ctx, choice, matches, sessionID(ctx, req))
		return jsonResult(outcome)
	})
}

func registerFindDuplicatesTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"find_duplicates",
		mcp.WithDescription(
			"Scan all projects for clusters of sites within the given radius of each "+
				"other. Use this to surface merge candidates.",
		),
		mcp.WithNumber(
			"radius_km",
			mcp.Description("Cluster radius in kilometers; defaults to the configured dedup radius"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		radius := req.GetFloat("radius_km", 0)
		return jsonResult(deps.Lifecycle.FindDuplicates(ctx, radius))
	})
}
