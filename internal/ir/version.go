package ir

// Version constants for the plan schema and the planner.
const (
	// SchemaVersion is the ActionPlan wire schema version.
	SchemaVersion = "1"

	// PlannerVersion is the roboplan planner version.
	PlannerVersion = "0.1.0"
)
