// Package mcpserver exposes the planner as Model Context Protocol tools
// over stdio, so MCP-capable assistants can request robot plans.
package mcpserver

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/roach88/roboplan/internal/planner"
	"github.com/roach88/roboplan/internal/scene"
	"github.com/roach88/roboplan/internal/store"
)

// ServerName is the MCP implementation name reported to clients.
const ServerName = "roboplan"

// Options wires the server's dependencies. Planner and Resolver are
// required; History is optional.
type Options struct {
	Planner  *planner.Planner
	Resolver *scene.CatalogResolver

	// History, when set, receives every successful plan.
	History History
	IDs     store.IDGenerator

	// Model names the synthesizer in history records.
	Model   string
	Version string
	Logger  *slog.Logger
}

// New creates an MCP server with the plan_robot_actions and list_scenes
// tools registered.
func New(opts Options) *server.MCPServer {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	s := server.NewMCPServer(
		ServerName,
		opts.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	planTool := NewPlanTool(opts)
	s.AddTool(planTool.Definition(), planTool.Handle)

	scenesTool := NewScenesTool(opts.Resolver)
	s.AddTool(scenesTool.Definition(), scenesTool.Handle)

	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(opts Options) error {
	return server.ServeStdio(New(opts))
}

const instructions = `roboplan turns natural-language robot commands into ordered action plans.
Call list_scenes to see the available scene identifiers, then call
plan_robot_actions with the command and optionally a scene. Unknown or
omitted scenes fall back to the default scene.`
