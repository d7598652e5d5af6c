package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/roboplan/internal/ir"
	"github.com/roach88/roboplan/internal/planner"
	"github.com/roach88/roboplan/internal/scene"
	"github.com/roach88/roboplan/internal/synth"
	"github.com/roach88/roboplan/internal/testutil"
)

// Harness is the test execution engine.
type Harness struct {
	resolver  *scene.CatalogResolver
	planner   *planner.Planner
	completer *testutil.ScriptedCompleter // nil for heuristic scenarios
	logger    *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario gets its own resolver, synthesizer and planner, so runs
// are isolated and can execute in parallel.
//
// Execution flow:
// 1. Load the scenario's catalog (or the built-in one)
// 2. Build the synthesizer: scripted service replies or the heuristic
// 3. Plan the command through the Planner
// 4. Check the expectation, then evaluate assertions on the plan
//
// An error is returned only when the scenario cannot be executed; a plan
// that misses expectations yields a failing Result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return RunWithLogger(ctx, scenario, slog.New(slog.DiscardHandler))
}

// RunWithLogger is Run with synthesizer debug logs sent to logger.
func RunWithLogger(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	h, err := newHarness(scenario, logger)
	if err != nil {
		return nil, err
	}
	return h.run(ctx, scenario), nil
}

func newHarness(scenario *Scenario, logger *slog.Logger) (*Harness, error) {
	var catalog *scene.Catalog
	if scenario.Catalog != "" {
		c, err := scene.LoadCatalogFile(scenario.Catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		catalog = c
	}

	h := &Harness{
		resolver: scene.NewResolver(catalog),
		logger:   logger,
	}

	var synthesizer synth.Synthesizer = synth.Heuristic{}
	if len(scenario.Responses) > 0 {
		h.completer = testutil.NewScriptedCompleter(scriptedReplies(scenario.Responses)...)
		retry := synth.DefaultRetryConfig()
		retry.InitialInterval = 0
		retry.MaxInterval = 0
		if scenario.MaxRetries != nil {
			retry.MaxRetries = *scenario.MaxRetries
		}
		synthesizer = synth.NewLLMSynthesizer(h.completer,
			synth.WithRetryConfig(retry),
			synth.WithLogger(logger),
		)
	}

	var opts []planner.Option
	if scenario.Strict {
		opts = append(opts, planner.WithStrictGrounding())
	}
	h.planner = planner.New(h.resolver, synthesizer, opts...)
	return h, nil
}

func scriptedReplies(responses []Response) []testutil.Reply {
	replies := make([]testutil.Reply, len(responses))
	for i, r := range responses {
		if r.Status != 0 {
			replies[i] = testutil.Reply{Err: &synth.APIError{
				StatusCode: r.Status,
				Message:    r.Message,
				Retryable:  r.Status == 429 || r.Status >= 500,
			}}
			continue
		}
		replies[i] = testutil.Reply{Text: r.Text}
	}
	return replies
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) *Result {
	result := NewResult()
	result.SceneKey = h.resolver.ResolveKey(scenario.Scene)

	plan, err := h.planner.Plan(ctx, scenario.Command, scenario.Scene)
	if h.completer != nil {
		result.Attempts = h.completer.Calls()
	}
	if err != nil {
		result.Err = err
		result.ErrorCode = errorCode(err)
		h.logger.Debug("scenario planning failed", "scenario", scenario.Name, "error", err)
	} else {
		result.Plan = &plan
	}

	expect := scenario.Expect
	if expect == nil {
		expect = &ExpectClause{}
	}
	checkExpectation(result, expect)

	if result.Plan != nil && len(scenario.Assertions) > 0 {
		s := h.resolver.Resolve(scenario.Scene)
		for _, msg := range EvaluateAssertions(*result.Plan, s, scenario.Assertions) {
			result.AddError(msg)
		}
	}
	return result
}

func checkExpectation(result *Result, expect *ExpectClause) {
	switch {
	case expect.ErrorCode == "" && result.Err != nil:
		result.AddError(fmt.Sprintf("expected a plan, got error: %v", result.Err))
	case expect.ErrorCode != "" && result.Err == nil:
		result.AddError(fmt.Sprintf("expected error %s, got a plan with %d actions", expect.ErrorCode, len(result.Plan.Actions)))
	case expect.ErrorCode != "" && result.ErrorCode != expect.ErrorCode:
		result.AddError(fmt.Sprintf("expected error %s, got %s: %v", expect.ErrorCode, result.ErrorCode, result.Err))
	}

	if expect.Attempts > 0 && result.Attempts != expect.Attempts {
		result.AddError(fmt.Sprintf("expected %d service calls, got %d", expect.Attempts, result.Attempts))
	}
	if expect.SceneKey != "" && result.SceneKey != expect.SceneKey {
		result.AddError(fmt.Sprintf("expected scene %q, resolved %q", expect.SceneKey, result.SceneKey))
	}
}

// errorCode classifies a planning error for comparison with error_code.
func errorCode(err error) string {
	if code := synth.CodeOf(err); code != "" {
		return string(code)
	}
	var verrs ir.ValidationErrors
	if errors.As(err, &verrs) {
		return ErrCodeValidation
	}
	return "UNKNOWN"
}
