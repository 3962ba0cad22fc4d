// Package mcpserver exposes the ctxfetch operations as MCP tools over stdio.
//
// Every tool answers with a JSON document in a single text content block.
// Failures are reported inside that document as {"error": ...} or
// {"success": false, "error": ...}; handlers never return a Go error.
package mcpserver

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/remotecontext/ctxfetch/internal/core"
)

// ServerName is announced to MCP clients during initialization.
const ServerName = "RemoteContextMCP"

// Tool is one registered MCP tool.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Tools returns the ctxfetch tools in registration order.
func Tools(svc *core.Service, logger *zap.Logger) []Tool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return []Tool{
		&workspaceContextTool{svc: svc, logger: logger},
		&fetchTool{svc: svc, logger: logger},
		&listConfigTool{svc: svc, logger: logger},
		&setActiveProfileTool{svc: svc, logger: logger},
		&availableProfilesTool{svc: svc, logger: logger},
	}
}

// New creates the MCP server with every ctxfetch tool registered.
func New(svc *core.Service, version string, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, t := range Tools(svc, logger) {
		s.AddTool(t.Definition(), t.Handle)
	}
	return s
}

// Serve runs s on the given streams until ctx is cancelled or in is closed.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, logger *zap.Logger) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(zap.NewStdLog(logger.Named("mcp")))
	logger.Info("serving MCP over stdio", zap.String("server", ServerName))
	return stdio.Listen(ctx, in, out)
}

const instructions = `ctxfetch downloads AI-assistant instruction, chat mode and prompt files
into .github/<profile>/ of a git repository and registers those directories
in .vscode/settings.json.

Call get_workspace_context first to see detected project types and
conditions, then fetch_and_setup_copilot_files. Use get_available_profiles
and set_active_profile to switch between configured profiles.`
