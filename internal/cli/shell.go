package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

const shellPrompt = "roboplan> "

// ShellOptions holds flags for the shell command.
type ShellOptions struct {
	*RootOptions
	PlannerFlags
	Scene string
}

// NewShellCommand creates the interactive shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShellOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Plan commands interactively",
		Long: `Read robot commands line by line and print a plan for each.

Shell commands:
  :scenes        list available scenes
  :scene NAME    switch the current scene
  :quit          exit (also :exit or end of input)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Scene, "scene", "", "initial scene identifier")
	opts.PlannerFlags.register(cmd)

	return cmd
}

func runShell(opts *ShellOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	rt, err := newRuntime(opts.RootOptions, &opts.PlannerFlags, formatter, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	sh := &shell{
		rt:      rt,
		out:     cmd.OutOrStdout(),
		errOut:  formatter.GetErrWriter(),
		verbose: opts.Verbose,
		sceneID: opts.Scene,
	}
	return sh.run(cmd, cmd.InOrStdin())
}

// shell is the state of one interactive session.
type shell struct {
	rt      *runtime
	out     io.Writer
	errOut  io.Writer
	verbose bool
	sceneID string
}

func (sh *shell) run(cmd *cobra.Command, in io.Reader) error {
	fmt.Fprintf(sh.out, "Scene: %s (:scenes to list, :quit to exit)\n", sh.rt.resolver.ResolveKey(sh.sceneID))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(sh.out, shellPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == ":quit" || line == ":exit":
			return nil
		case line == ":scenes":
			for _, key := range sh.rt.resolver.ListAvailable() {
				fmt.Fprintln(sh.out, "  "+key)
			}
		case line == ":scene" || strings.HasPrefix(line, ":scene "):
			sh.sceneID = strings.TrimSpace(strings.TrimPrefix(line, ":scene"))
			key := sh.rt.resolver.ResolveKey(sh.sceneID)
			if sh.sceneID != "" && !sh.rt.resolver.Known(sh.sceneID) {
				fmt.Fprintf(sh.out, "Unknown scene %q, using %s\n", sh.sceneID, key)
				continue
			}
			fmt.Fprintf(sh.out, "Scene: %s\n", key)
		case strings.HasPrefix(line, ":"):
			fmt.Fprintf(sh.out, "Unknown shell command %s\n", line)
		default:
			sh.plan(cmd, line)
		}
	}
}

// plan prints the plan for one line of input. Failures are printed and
// the session continues.
func (sh *shell) plan(cmd *cobra.Command, text string) {
	outcome, err := sh.rt.plan(cmd.Context(), text, sh.sceneID)
	if err != nil {
		fmt.Fprintf(sh.out, "Error: %v\n", err)
		return
	}
	writePlanSummary(sh.errOut, sh.verbose, outcome.Plan)

	data, err := encodePlan(outcome.Plan, true)
	if err != nil {
		fmt.Fprintf(sh.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(sh.out, string(data))
}
