package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/roach88/roboplan/internal/ir"
	"github.com/roach88/roboplan/internal/planner"
	"github.com/roach88/roboplan/internal/scene"
	"github.com/roach88/roboplan/internal/store"
)

// History records completed plans. *store.Store satisfies it.
type History interface {
	Record(ctx context.Context, id string, cmd ir.Command, sceneKey string, s ir.Scene, plan ir.ActionPlan, model string) (ir.PlanRecord, error)
}

var _ History = (*store.Store)(nil)

// PlanTool handles the plan_robot_actions MCP tool.
type PlanTool struct {
	planner *planner.Planner
	history History
	ids     store.IDGenerator
	model   string
	logger  *slog.Logger
}

// NewPlanTool creates a PlanTool from the server options.
func NewPlanTool(opts Options) *PlanTool {
	t := &PlanTool{
		planner: opts.Planner,
		history: opts.History,
		ids:     opts.IDs,
		model:   opts.Model,
		logger:  opts.Logger,
	}
	if t.ids == nil {
		t.ids = store.UUIDv7Generator{}
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}
	return t
}

// Definition returns the MCP tool definition for plan_robot_actions.
func (t *PlanTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_robot_actions",
		mcp.WithDescription(
			"Translate a natural-language robot command into an ordered action plan "+
				"(move to, grasp, release, look_at) grounded in a scene. Returns the plan as JSON.",
		),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("The instruction for the robot, e.g. 'pick up the red block'"),
		),
		mcp.WithString("scene",
			mcp.Description("Scene identifier such as 'scene1' or 'images/scene2.jpg'. Defaults to the default scene."),
		),
	)
}

// Handle processes the plan_robot_actions tool call. Planning failures are
// reported as tool errors, not protocol errors.
func (t *PlanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("command", "")
	sceneID := req.GetString("scene", "")
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("command is required"), nil
	}

	out, err := t.planner.PlanOutcome(ctx, text, sceneID)
	if err != nil {
		t.logger.Warn("planning failed", "command", text, "scene", sceneID, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("planning failed: %v", err)), nil
	}
	plan := out.Plan

	if t.history != nil {
		id := t.ids.Generate()
		if _, err := t.history.Record(ctx, id, out.Command, out.SceneKey, out.Scene, plan, t.model); err != nil {
			// The plan is still valid; history is best-effort here.
			t.logger.Error("failed to record plan", "id", id, "error", err)
		}
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode plan: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ScenesTool handles the list_scenes MCP tool.
type ScenesTool struct {
	resolver *scene.CatalogResolver
}

// NewScenesTool creates a ScenesTool over the resolver's catalog.
func NewScenesTool(resolver *scene.CatalogResolver) *ScenesTool {
	return &ScenesTool{resolver: resolver}
}

// Definition returns the MCP tool definition for list_scenes.
func (t *ScenesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_scenes",
		mcp.WithDescription("List the scene identifiers accepted by plan_robot_actions, with their objects."),
	)
}

// Handle processes the list_scenes tool call.
func (t *ScenesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catalog := t.resolver.Catalog()

	var sb strings.Builder
	for _, key := range t.resolver.ListAvailable() {
		s, _ := catalog.Lookup(key)
		sb.WriteString("- " + key)
		if key == catalog.DefaultKey() {
			sb.WriteString(" (default)")
		}
		if s.Description != "" {
			sb.WriteString(": " + s.Description)
		}
		if names := s.ObjectNames(); len(names) > 0 {
			sb.WriteString(" [" + strings.Join(names, ", ") + "]")
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}
