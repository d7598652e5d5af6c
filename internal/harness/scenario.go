package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/roboplan/internal/synth"
)

// Scenario defines a conformance test scenario: one planning request and
// the outcome it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Command is the natural-language instruction.
	Command string `yaml:"command"`

	// Scene is the scene identifier. Empty selects the default scene.
	Scene string `yaml:"scene,omitempty"`

	// Catalog is an optional scene catalog file (.cue, .yaml).
	// Relative paths are resolved against the scenario file's directory.
	Catalog string `yaml:"catalog,omitempty"`

	// Strict enables grounding checks on the synthesized plan.
	Strict bool `yaml:"strict,omitempty"`

	// Responses scripts the text-generation service. When empty the
	// offline heuristic synthesizer is used instead.
	Responses []Response `yaml:"responses,omitempty"`

	// MaxRetries overrides the retry budget for scripted responses.
	MaxRetries *int `yaml:"max_retries,omitempty"`

	// Expect describes the overall outcome. A nil Expect means the
	// request must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate the returned plan. Only evaluated on success.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Response is one scripted reply from the text-generation service:
// either reply text or an HTTP error status.
type Response struct {
	Text    string `yaml:"text,omitempty"`
	Status  int    `yaml:"status,omitempty"`
	Message string `yaml:"message,omitempty"`
}

// ExpectClause specifies the expected outcome.
type ExpectClause struct {
	// ErrorCode is the expected SynthesisError code ("VALIDATION" for an
	// invalid command). Empty means the request must succeed.
	ErrorCode string `yaml:"error_code,omitempty"`

	// Attempts is the expected number of service calls. Zero skips the check.
	Attempts int `yaml:"attempts,omitempty"`

	// SceneKey is the catalog key the scene must resolve to.
	SceneKey string `yaml:"scene_key,omitempty"`
}

// Assertion validates the returned plan.
type Assertion struct {
	// Type specifies the assertion type; see the package documentation.
	Type string `yaml:"type"`

	// Actions is the expected action type sequence (action_types).
	Actions []string `yaml:"actions,omitempty"`

	// Targets is the expected target sequence (targets).
	Targets []string `yaml:"targets,omitempty"`

	// Target is the object name (contains_target).
	Target string `yaml:"target,omitempty"`

	// Count is the expected number of actions (action_count).
	Count *int `yaml:"count,omitempty"`

	// Min and Max bound the plan confidence (confidence).
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`

	// EndEffector is the expected hand (end_effector).
	EndEffector string `yaml:"end_effector,omitempty"`

	// Index, Key and Value select and compare a parameter (parameter).
	Index int         `yaml:"index,omitempty"`
	Key   string      `yaml:"key,omitempty"`
	Value interface{} `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertActionTypes    = "action_types"
	AssertTargets        = "targets"
	AssertActionCount    = "action_count"
	AssertContainsTarget = "contains_target"
	AssertConfidence     = "confidence"
	AssertEndEffector    = "end_effector"
	AssertParameter      = "parameter"
	AssertGrounded       = "grounded"
)

// ErrCodeValidation is the expected error_code for requests rejected by
// input validation rather than by the synthesizer.
const ErrCodeValidation = "VALIDATION"

var knownErrorCodes = map[string]bool{
	ErrCodeValidation:                 true,
	string(synth.CodeTransportFailed): true,
	string(synth.CodeEmptyResponse):   true,
	string(synth.CodeMalformedOutput): true,
	string(synth.CodeSchemaViolation): true,
	string(synth.CodeInvalidPlan):     true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve the catalog path relative to the scenario file
	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string)
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%s: duplicate scenario name %q (also in %s)", path, s.Name, prev)
		}
		seen[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\ `) {
		return fmt.Errorf("name %q must not contain spaces or path separators", s.Name)
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.MaxRetries != nil && *s.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}

	for i, r := range s.Responses {
		switch {
		case r.Status == 0 && r.Message != "":
			return fmt.Errorf("responses[%d]: message requires status", i)
		case r.Status != 0 && r.Text != "":
			return fmt.Errorf("responses[%d]: text and status are mutually exclusive", i)
		case r.Status != 0 && (r.Status < 400 || r.Status > 599):
			return fmt.Errorf("responses[%d]: status must be an HTTP error code, got %d", i, r.Status)
		}
	}

	if s.Expect != nil {
		if s.Expect.ErrorCode != "" && !knownErrorCodes[s.Expect.ErrorCode] {
			return fmt.Errorf("expect: unknown error_code %q", s.Expect.ErrorCode)
		}
		if s.Expect.Attempts < 0 {
			return fmt.Errorf("expect: attempts must be non-negative")
		}
		if s.Expect.ErrorCode != "" && len(s.Assertions) > 0 {
			return fmt.Errorf("assertions cannot be combined with an expected error")
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertActionTypes:
		if a.Actions == nil {
			return fmt.Errorf("assertions[%d]: actions list is required for action_types", index)
		}
	case AssertTargets:
		if a.Targets == nil {
			return fmt.Errorf("assertions[%d]: targets list is required for targets", index)
		}
	case AssertActionCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for action_count", index)
		}
	case AssertContainsTarget:
		if a.Target == "" {
			return fmt.Errorf("assertions[%d]: target is required for contains_target", index)
		}
	case AssertConfidence:
		if a.Min == nil && a.Max == nil {
			return fmt.Errorf("assertions[%d]: min or max is required for confidence", index)
		}
	case AssertEndEffector:
		if a.EndEffector == "" {
			return fmt.Errorf("assertions[%d]: end_effector is required for end_effector", index)
		}
	case AssertParameter:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for parameter", index)
		}
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative for parameter", index)
		}
	case AssertGrounded:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
