package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterLifecycleTools registers the destructive project lifecycle tools:
// delete, bulk delete, rename, and merge. Deletion is two-phase; the first
// call returns CONFIRMATION_REQUIRED and the caller repeats it with
// skip_confirmation once the user agrees.
func RegisterLifecycleTools(s *server.MCPServer, deps *Deps) {
	registerDeleteProjectTool(s, deps)
	registerDeleteProjectsBulkTool(s, deps)
	registerRenameProjectTool(s, deps)
	registerMergeProjectsTool(s, deps)
}

func registerDeleteProjectTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"delete_project",
		mcp.WithDescription(
			"Delete a project and all of its analysis results. "+
				"The first call returns CONFIRMATION_REQUIRED; once the user has confirmed, "+
				"call again with skip_confirmation=true to actually delete.",
		),
		mcp.WithString(
			"project_name",
			mcp.Required(),
			mcp.Description("Exact name of the project to delete"),
		),
		mcp.WithBoolean(
			"skip_confirmation",
			mcp.Description("Set to true after the user has confirmed the deletion"),
		),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("project_name")
		if err != nil {
			return nil, err
		}
		skip := req.GetBool("skip_confirmation", false)

		outcome := deps.Lifecycle.DeleteProject(ctx, name, skip, sessionID(ctx, req))
		return jsonResult(outcome)
	})
}

func registerDeleteProjectsBulkTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"delete_projects_bulk",
		mcp.WithDescription(
			"Delete every project whose name contains the given pattern. "+
				"The first call lists the matches and returns CONFIRMATION_REQUIRED; "+
				"call again with skip_confirmation=true to delete them. "+
				"Members that are mid-analysis are skipped and reported individually.",
		),
		mcp.WithString(
			"pattern",
			mcp.Required(),
			mcp.Description("Substring to match against project names, e.g. 'test-'"),
		),
		mcp.WithBoolean(
			"skip_confirmation",
			mcp.Description("Set to true after the user has confirmed the deletion"),
		),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pattern, err := req.RequireString("pattern")
		if err != nil {
			return nil, err
		}
		skip := req.GetBool("skip_confirmation", false)

		outcome := deps.Lifecycle.DeleteBulk(ctx, pattern, skip)
		return jsonResult(outcome)
	})
}

func registerRenameProjectTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"rename_project",
		mcp.WithDescription(
			"Rename a project. The new name is normalized to the canonical "+
				"kebab-case form and must not collide with an existing project. "+
				"Analysis results and session references move with the rename.",
		),
		mcp.WithString(
			"old_name",
			mcp.Required(),
			mcp.Description("Current name of the project"),
		),
		mcp.WithString(
			"new_name",
			mcp.Required(),
			mcp.Description("Desired new name; normalized before use"),
		),
		mcp.WithIdempotentHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		oldName, err := req.RequireString("old_name")
		if err != nil {
			return nil, err
		}
		newName, err := req.RequireString("new_name")
		if err != nil {
			return nil, err
		}

		outcome := deps.Lifecycle.RenameProject(ctx, oldName, newName, sessionID(ctx, req))
		return jsonResult(outcome)
	})
}

func registerMergeProjectsTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"merge_projects",
		mcp.WithDescription(
			"Merge two projects into one. The kept project's analysis results win "+
				"per category; gaps are filled from the other project, and the losing "+
				"name is deleted. keep_name defaults to the target project.",
		),
		mcp.WithString(
			"source",
			mcp.Required(),
			mcp.Description("Name of the source project"),
		),
		mcp.WithString(
			"target",
			mcp.Required(),
			mcp.Description("Name of the target project"),
		),
		mcp.WithString(
			"keep_name",
			mcp.Description("Which of the two names survives; must be source or target"),
		),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		source, err := req.RequireString("source")
		if err != nil {
			return nil, err
		}
		target, err := req.RequireString("target")
		if err != nil {
			return nil, err
		}
		keepName := req.GetString("keep_name", "")

		outcome := deps.Lifecycle.MergeProjects(ctx, source, target, keepName, sessionID(ctx, req))
		return jsonResult(outcome)
	})
}
