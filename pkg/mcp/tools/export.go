package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/windrose-energy/windrose-engine/pkg/models"
)

// RegisterExportTools registers project export and import tools.
func RegisterExportTools(s *server.MCPServer, deps *Deps) {
	registerExportProjectTool(s, deps)
	registerImportProjectTool(s, deps)
}

func registerExportProjectTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"export_project",
		mcp.WithDescription(
			"Export a project as a versioned envelope containing its analysis "+
				"results and artifact key references. The envelope can later be fed "+
				"to import_project.",
		),
		mcp.WithString(
			"project_name",
			mcp.Required(),
			mcp.Description("Name of the project to export"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("project_name")
		if err != nil {
			return nil, err
		}
		return jsonResult(deps.Lifecycle.ExportProject(ctx, name))
	})
}

func registerImportProjectTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"import_project",
		mcp.WithDescription(
			"Import a previously exported project envelope. Unsupported envelope "+
				"versions are rejected before any write; name collisions are resolved "+
				"by suffixing, never by overwriting.",
		),
		mcp.WithString(
			"envelope",
			mcp.Required(),
			mcp.Description("JSON export envelope produced by export_project"),
		),
		mcp.WithIdempotentHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("envelope")
		if err != nil {
			return nil, err
		}

		var envelope models.ExportEnvelope
		if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("envelope must be valid JSON: %v", err)), nil
		}

		return jsonResult(deps.Lifecycle.ImportProject(ctx, &envelope))
	})
}
