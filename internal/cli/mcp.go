package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/roboplan/internal/mcpserver"
)

// MCPOptions holds flags for the mcp command.
type MCPOptions struct {
	*RootOptions
	PlannerFlags
}

// NewMCPCommand creates the mcp command.
func NewMCPCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MCPOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the planner over MCP (stdio)",
		Long: `Run a Model Context Protocol server on stdin/stdout.

Tools:
  plan_robot_actions   plan a command against a scene
  list_scenes          list available scenes

Logs go to stderr so they never interleave with the protocol stream.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(opts, cmd)
		},
	}

	opts.PlannerFlags.register(cmd)

	return cmd
}

func runMCP(opts *MCPOptions, cmd *cobra.Command) error {
	// Protocol output owns stdout; errors go to stderr.
	formatter := newFormatter(opts.RootOptions, cmd)
	formatter.Writer = cmd.ErrOrStderr()

	rt, err := newRuntime(opts.RootOptions, &opts.PlannerFlags, formatter, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	return mcpserver.Serve(rt.mcpOptions())
}

// mcpOptions maps the runtime onto server options.
func (r *runtime) mcpOptions() mcpserver.Options {
	opts := mcpserver.Options{
		Planner:  r.planner,
		Resolver: r.resolver,
		IDs:      r.ids,
		Model:    r.model,
		Version:  Version,
		Logger:   r.logger,
	}
	// Leave History a nil interface rather than a nil *store.Store.
	if r.history != nil {
		opts.History = r.history
	}
	return opts
}
