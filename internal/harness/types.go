package harness

import "github.com/roach88/roboplan/internal/ir"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expectation and every assertion hold.
	Pass bool `json:"pass"`

	// SceneKey is the catalog key the scene identifier resolved to.
	SceneKey string `json:"scene_key"`

	// Plan is the returned plan, nil when planning failed.
	Plan *ir.ActionPlan `json:"plan,omitempty"`

	// ErrorCode is the failure code, empty on success.
	ErrorCode string `json:"error_code,omitempty"`

	// Err is the planning error, if any.
	Err error `json:"-"`

	// Attempts is the number of scripted service calls made.
	Attempts int `json:"attempts"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
