package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/roboplan/internal/ir"
	"github.com/roach88/roboplan/internal/planner"
	"github.com/roach88/roboplan/internal/synth"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Scene   string // check grounding against this scene when set
	Catalog string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	Actions    int      `json:"actions"`
	Confidence float64  `json:"confidence"`
	PlanHash   string   `json:"plan_hash,omitempty"`
	SceneKey   string   `json:"scene_key,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <plan.json>",
		Short: "Validate a stored action plan",
		Long: `Validate an action plan file against the plan schema.

Accepts raw plan JSON as written by "plan --output", including model output
wrapped in markdown fences. With --scene, also checks that every action
target exists in that scene.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Scene, "scene", "", "check target grounding against this scene")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "scene catalog file (.cue, .yaml)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		code := ErrCodeReadFailed
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return commandError(formatter, code, "failed to read plan file", err)
	}
	formatter.VerboseLog("Read %d byte(s) from %s", len(data), path)

	plan, err := synth.ParsePlan(string(data))
	if err != nil {
		return outputValidationErrors(formatter, ErrCodeValidation, ValidationResult{
			Errors: []string{err.Error()},
		})
	}

	hash, err := ir.PlanHash(plan)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, "failed to hash plan", err)
	}
	result := ValidationResult{
		Valid:      true,
		Actions:    len(plan.Actions),
		Confidence: plan.Confidence,
		PlanHash:   hash,
	}

	if cmd.Flags().Changed("scene") {
		cfg, err := loadConfig(opts.RootOptions, &PlannerFlags{Catalog: opts.Catalog})
		if err != nil {
			return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
		}
		resolver, err := loadResolver(cfg)
		if err != nil {
			return commandError(formatter, ErrCodeCatalog, "failed to load scene catalog", err)
		}
		result.SceneKey = resolver.ResolveKey(opts.Scene)
		formatter.VerboseLog("Checking grounding against scene %s", result.SceneKey)

		if findings := planner.CheckGrounding(plan, resolver.Resolve(opts.Scene)); len(findings) > 0 {
			result.Valid = false
			for _, f := range findings {
				result.Errors = append(result.Errors, f.Error())
			}
			return outputValidationErrors(formatter, ErrCodeGrounding, result)
		}
	}

	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Plan valid (%d action(s), confidence %.2f)\n", result.Actions, result.Confidence)
	formatter.VerboseLog("Plan hash: %s", result.PlanHash)
	return nil
}

// outputValidationErrors outputs a failed validation.
func outputValidationErrors(formatter *OutputFormatter, code string, result ValidationResult) error {
	message := "plan validation failed"
	if code == ErrCodeGrounding {
		message = "plan is not grounded in the scene"
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    code,
				Message: message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, e := range result.Errors {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", code, e)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
