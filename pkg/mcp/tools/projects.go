package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/windrose-energy/windrose-engine/pkg/models"
	"github.com/windrose-energy/windrose-engine/pkg/services"
)

// RegisterProjectTools registers listing, search, archive, resolution, and
// dashboard tools.
func RegisterProjectTools(s *server.MCPServer, deps *Deps) {
	registerListProjectsTool(s, deps)
	registerSearchProjectsTool(s, deps)
	registerArchiveProjectTool(s, deps)
	registerUnarchiveProjectTool(s, deps)
	registerSetActiveProjectTool(s, deps)
	registerResolveProjectTool(s, deps)
	registerProjectDashboardTool(s, deps)
}

func registerListProjectsTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"list_projects",
		mcp.WithDescription(
			"List projects. Active projects by default; pass archived=true for the archive.",
		),
		mcp.WithBoolean(
			"archived",
			mcp.Description("List archived projects instead of active ones"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if req.GetBool("archived", false) {
			return jsonResult(deps.Lifecycle.ListArchivedProjects(ctx))
		}
		return jsonResult(deps.Lifecycle.ListActiveProjects(ctx))
	})
}

func registerSearchProjectsTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"search_projects",
		mcp.WithDescription(
			"Search projects by any combination of location substring, creation date "+
				"window (RFC 3339), incompleteness, proximity to a point, and archive state. "+
				"Filters narrow cumulatively.",
		),
		mcp.WithString("location", mcp.Description("Substring to match against project names")),
		mcp.WithString("date_from", mcp.Description("Only projects created at or after this RFC 3339 timestamp")),
		mcp.WithString("date_to", mcp.Description("Only projects created at or before this RFC 3339 timestamp")),
		mcp.WithBoolean("incomplete_only", mcp.Description("Only projects missing at least one analysis")),
		mcp.WithNumber("latitude", mcp.Description("Center latitude for a proximity filter")),
		mcp.WithNumber("longitude", mcp.Description("Center longitude for a proximity filter")),
		mcp.WithNumber("radius_km", mcp.Description("Proximity radius in kilometers; defaults to the configured dedup radius")),
		mcp.WithBoolean("archived", mcp.Description("Filter by archive state")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filters := services.SearchFilters{
			Location:       req.GetString("location", ""),
			IncompleteOnly: req.GetBool("incomplete_only", false),
			RadiusKm:       req.GetFloat("radius_km", 0),
		}

		if raw := req.GetString("date_from", ""); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return mcp.NewToolResultError("date_from must be RFC 3339, e.g. 2026-01-01T00:00:00Z"), nil
			}
			filters.DateFrom = &parsed
		}
		if raw := req.GetString("date_to", ""); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return mcp.NewToolResultError("date_to must be RFC 3339, e.g. 2026-12-31T00:00:00Z"), nil
			}
			filters.DateTo = &parsed
		}

		args := req.GetArguments()
		if _, ok := args["latitude"]; ok {
			filters.Near = &models.Coordinates{
				Latitude:  req.GetFloat("latitude", 0),
				Longitude: req.GetFloat("longitude", 0),
			}
		}
		if raw, ok := args["archived"]; ok {
			if archived, isBool := raw.(bool); isBool {
				filters.Archived = &archived
			}
		}

		return jsonResult(deps.Lifecycle.SearchProjects(ctx, filters))
	})
}

func registerArchiveProjectTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"archive_project",
		mcp.WithDescription(
			"Archive a project. Archived projects keep their analysis results but "+
				"drop out of active listings and the session working set.",
		),
		mcp.WithString(
			"project_name",
			mcp.Required(),
			mcp.Description("Name of the project to archive"),
		),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("project_name")
		if err != nil {
			return nil, err
		}
		return jsonResult(deps.Lifecycle.ArchiveProject(ctx, name, sessionID(ctx, req)))
	})
}

func registerUnarchiveProjectTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"unarchive_project",
		mcp.WithDescription("Restore an archived project to the active set."),
		mcp.WithString(
			"project_name",
			mcp.Required(),
			mcp.Description("Name of the project to restore"),
		),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("project_name")
		if err != nil {
			return nil, err
		}
		return jsonResult(deps.Lifecycle.UnarchiveProject(ctx, name))
	})
}

func registerSetActiveProjectTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"set_active_project",
		mcp.WithDescription(
			"Point the conversation at a project. Later references like 'it' or "+
				"'the current project' resolve to this project.",
		),
		mcp.WithString(
			"project_name",
			mcp.Required(),
			mcp.Description("Name of the project to make active"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("project_name")
		if err != nil {
			return nil, err
		}
		return jsonResult(deps.Lifecycle.SetActiveProject(ctx, sessionID(ctx, req), name))
	})
}

func registerResolveProjectTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"resolve_project",
		mcp.WithDescription(
			"Map a free-text project reference ('it', 'the Amarillo site', a partial "+
				"name) to a concrete project name, or list the candidates when the "+
				"reference is ambiguous.",
		),
		mcp.WithString(
			"reference",
			mcp.Required(),
			mcp.Description("The user's project reference"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reference, err := req.RequireString("reference")
		if err != nil {
			return nil, err
		}
		resolution, err := deps.Lifecycle.ResolveProject(ctx, reference, sessionID(ctx, req))
		if err != nil {
			return nil, err
		}
		return jsonResult(resolution)
	})
}

func registerProjectDashboardTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"project_dashboard",
		mcp.WithDescription(
			"Summarize every project: completion per analysis category, archive "+
				"state, duplicate clusters, and the session's active project, ordered "+
				"by most recent activity.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(deps.Lifecycle.GenerateDashboard(ctx, sessionID(ctx, req)))
	})
}
