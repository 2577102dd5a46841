package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/windrose-energy/windrose-engine/pkg/models"
)

// RegisterResultTools registers tools that read and write analysis results.
func RegisterResultTools(s *server.MCPServer, deps *Deps) {
	registerSaveAnalysisResultTool(s, deps)
	registerGetProjectTool(s, deps)
	registerGenerateProjectNameTool(s, deps)
}

func registerSaveAnalysisResultTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"save_analysis_result",
		mcp.WithDescription(
			"Attach an analysis result payload to a project under one of the four "+
				"categories (terrain, layout, simulation, report). Saving the first "+
				"result creates the project; the project then becomes the session's "+
				"active project.",
		),
		mcp.WithString(
			"project_name",
			mcp.Required(),
			mcp.Description("Name of the project; created if it does not exist"),
		),
		mcp.WithString(
			"category",
			mcp.Required(),
			mcp.Description("One of: terrain, layout, simulation, report"),
		),
		mcp.WithString(
			"payload",
			mcp.Required(),
			mcp.Description("JSON analysis result payload"),
		),
		mcp.WithNumber("latitude", mcp.Description("Site latitude, recorded on first save")),
		mcp.WithNumber("longitude", mcp.Description("Site longitude, recorded on first save")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("project_name")
		if err != nil {
			return nil, err
		}
		rawCategory, err := req.RequireString("category")
		if err != nil {
			return nil, err
		}
		payload, err := req.RequireString("payload")
		if err != nil {
			return nil, err
		}

		category := models.ResultCategory(rawCategory)
		valid := false
		for _, c := range models.ResultCategories {
			if c == category {
				valid = true
				break
			}
		}
		if !valid {
			return mcp.NewToolResultError(fmt.Sprintf("unknown category %q; expected terrain, layout, simulation, or report", rawCategory)), nil
		}
		if !json.Valid([]byte(payload)) {
			return mcp.NewToolResultError("payload must be valid JSON"), nil
		}

		var coords *models.Coordinates
		args := req.GetArguments()
		if _, ok := args["latitude"]; ok {
			coords = &models.Coordinates{
				Latitude:  req.GetFloat("latitude", 0),
				Longitude: req.GetFloat("longitude", 0),
			}
		}

		outcome := deps.Lifecycle.SaveAnalysisResult(ctx, name, category,
			json.RawMessage(payload), coords, sessionID(ctx, req))
		return jsonResult(outcome)
	})
}

func registerGetProjectTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"get_project",
		mcp.WithDescription(
			"Fetch a project with its coordinates, metadata, and all stored "+
				"analysis results.",
		),
		mcp.WithString(
			"project_name",
			mcp.Required(),
			mcp.Description("Exact name of the project"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("project_name")
		if err != nil {
			return nil, err
		}
		project, err := deps.Lifecycle.GetProject(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(project)
	})
}

func registerGenerateProjectNameTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"generate_project_name",
		mcp.WithDescription(
			"Derive a unique project name from the user's request, falling back to "+
				"reverse geocoding when coordinates are given. The result is the "+
				"canonical kebab-case form, deconflicted against existing projects.",
		),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("The user's request text, e.g. 'terrain analysis in Amarillo'"),
		),
		mcp.WithNumber("latitude", mcp.Description("Site latitude for the geocoding fallback")),
		mcp.WithNumber("longitude", mcp.Description("Site longitude for the geocoding fallback")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return nil, err
		}

		var coords *models.Coordinates
		args := req.GetArguments()
		if _, ok := args["latitude"]; ok {
			coords = &models.Coordinates{
				Latitude:  req.GetFloat("latitude", 0),
				Longitude: req.GetFloat("longitude", 0),
			}
		}

		name, err := deps.Lifecycle.GenerateProjectName(ctx, query, coords)
		if err != nil {
			return nil, fmt.Errorf("failed to generate project name: %w", err)
		}
		return jsonResult(struct {
			ProjectName string `json:"project_name"`
		}{ProjectName: name})
	})
}
