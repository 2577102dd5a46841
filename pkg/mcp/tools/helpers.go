// Package tools provides the MCP tool surface for windrose-engine's project
// lifecycle: duplicate detection, deletion, rename, merge, archive, search,
// export/import, and the project dashboard.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/windrose-energy/windrose-engine/pkg/auth"
	"github.com/windrose-energy/windrose-engine/pkg/services"
)

// Deps contains dependencies shared by all lifecycle tools.
type Deps struct {
	Lifecycle services.ProjectLifecycleManager
	Logger    *zap.Logger
}

// sessionID resolves the conversational session: an explicit session_id
// argument wins, then the authenticated token's session claim.
func sessionID(ctx context.Context, req mcp.CallToolRequest) string {
	if sid := req.GetString("session_id", ""); sid != "" {
		return sid
	}
	return auth.SessionIDFromContext(ctx)
}

// jsonResult marshals a payload into an MCP text result.
func jsonResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
