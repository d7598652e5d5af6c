package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/roboplan/internal/ir"
	"github.com/roach88/roboplan/internal/planner"
	"github.com/roach88/roboplan/internal/synth"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	PlannerFlags
	Scene  string // scene identifier, e.g. "scene1" or "images/scene1.jpg"
	Output string // write the plan JSON here instead of stdout
	Pretty bool   // indent the plan JSON
}

// PlanOutput is the JSON payload of a successful plan command.
type PlanOutput struct {
	Command  string        `json:"command"`
	SceneKey string        `json:"scene_key"`
	Model    string        `json:"model"`
	PlanHash string        `json:"plan_hash"`
	Plan     ir.ActionPlan `json:"plan"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <command>",
		Short: "Generate an action plan for a robot command",
		Long: `Generate an action plan for a natural-language robot command.

The command is grounded in a scene selected by --scene. Unknown scene
identifiers fall back to the default scene.

Exit codes:
  0 - Plan generated
  1 - Synthesis or validation failed
  2 - Command error (missing API key, unreadable catalog, etc.)

Examples:
  roboplan plan "pick up the red block" --scene scene1
  roboplan plan "grab the mug" --scene images/scene2.jpg --pretty
  roboplan plan "look at the ball" --offline --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Scene, "scene", "", "scene identifier (default: the default scene)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the plan JSON to a file")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "indent the plan JSON")
	opts.PlannerFlags.register(cmd)

	return cmd
}

func runPlan(opts *PlanOptions, text string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	rt, err := newRuntime(opts.RootOptions, &opts.PlannerFlags, formatter, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	outcome, err := rt.plan(cmd.Context(), text, opts.Scene)
	if err != nil {
		return planFailure(formatter, err)
	}

	formatter.VerboseLog("Scene: %s", outcome.SceneKey)
	formatter.VerboseLog("Model: %s", rt.model)
	writePlanSummary(formatter.GetErrWriter(), opts.Verbose, outcome.Plan)

	data, err := encodePlan(outcome.Plan, opts.Pretty)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, "failed to encode plan", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0644); err != nil {
			return commandError(formatter, ErrCodeWriteFailed, "failed to write plan", err)
		}
	}

	if opts.Format == "json" {
		hash, err := ir.PlanHash(outcome.Plan)
		if err != nil {
			return commandError(formatter, ErrCodeGeneric, "failed to hash plan", err)
		}
		return json.NewEncoder(formatter.Writer).Encode(CLIResponse{
			Status: "ok",
			Data: PlanOutput{
				Command:  text,
				SceneKey: outcome.SceneKey,
				Model:    rt.model,
				PlanHash: hash,
				Plan:     outcome.Plan,
			},
			RequestID: outcome.recordID,
		})
	}

	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "✓ Plan written to %s\n", opts.Output)
		return nil
	}
	fmt.Fprintln(formatter.Writer, string(data))
	return nil
}

// planOutcome is one successful planning request.
type planOutcome struct {
	planner.Outcome
	recordID string // empty unless recorded to history
}

// plan resolves the scene, synthesizes a plan and records it to history
// when a database is configured.
func (r *runtime) plan(ctx context.Context, text, sceneID string) (planOutcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	r.logger.Debug("planning", "command", text, "scene", sceneID, "model", r.model)

	res, err := r.planner.PlanOutcome(ctx, text, sceneID)
	if err != nil {
		return planOutcome{}, err
	}
	out := planOutcome{Outcome: res}

	if r.history != nil {
		id := r.ids.Generate()
		if _, err := r.history.Record(ctx, id, res.Command, res.SceneKey, res.Scene, res.Plan, r.model); err != nil {
			return planOutcome{}, &historyError{err: err}
		}
		out.recordID = id
	}
	return out, nil
}

// historyError marks a plan that succeeded but could not be recorded.
type historyError struct {
	err error
}

func (e *historyError) Error() string { return "failed to record plan: " + e.err.Error() }

func (e *historyError) Unwrap() error { return e.err }

// planFailure reports a planning error. Synthesis and validation failures
// exit with ExitFailure; history failures are command errors.
func planFailure(f *OutputFormatter, err error) error {
	var histErr *historyError
	if errors.As(err, &histErr) {
		return commandError(f, ErrCodeDatabase, "failed to record plan", histErr.err)
	}

	var synthErr *synth.SynthesisError
	if errors.As(err, &synthErr) {
		details := map[string]any{"synthesis_code": string(synthErr.Code)}
		if synthErr.Attempts > 0 {
			details["attempts"] = synthErr.Attempts
		}
		_ = f.Error(ErrCodeSynthesis, synthErr.Error(), details)
		return WrapExitError(ExitFailure, ErrCodeSynthesis+": synthesis failed", err)
	}

	var verrs ir.ValidationErrors
	if errors.As(err, &verrs) {
		_ = f.Error(ErrCodeValidation, verrs.Error(), nil)
		return WrapExitError(ExitFailure, ErrCodeValidation+": invalid command", err)
	}

	_ = f.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitFailure, ErrCodeGeneric+": planning failed", err)
}

// encodePlan renders a plan as compact or indented JSON.
func encodePlan(plan ir.ActionPlan, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(plan, "", "  ")
	}
	return json.Marshal(plan)
}

// writePlanSummary prints one line per action when verbose.
func writePlanSummary(w io.Writer, verbose bool, plan ir.ActionPlan) {
	if !verbose {
		return
	}
	fmt.Fprintf(w, "Plan: %d action(s), confidence %.2f\n", len(plan.Actions), plan.Confidence)
	for i, a := range plan.Actions {
		fmt.Fprintf(w, "  %d. %s %s (%s)\n", i+1, a.Type, a.Target, a.EndEffector)
	}
	if plan.Reasoning != "" {
		fmt.Fprintf(w, "Reasoning: %s\n", plan.Reasoning)
	}
}
