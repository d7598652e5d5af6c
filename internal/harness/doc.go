// Package harness provides conformance testing for the planning pipeline.
//
// The harness loads scenarios, runs each one through a real Planner with
// either the offline heuristic synthesizer or a scripted text-generation
// service, and checks the outcome against expectations and assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	command: "pick up the red block"
//	scene: scene1.jpg          # optional; unknown or empty uses the default scene
//	catalog: scenes.cue        # optional; relative to the scenario file
//	strict: false              # optional; reject ungrounded plans
//	responses:                 # optional; scripted service replies, in order
//	  - text: '{"actions": [], "confidence": 0.0}'
//	  - status: 503
//	    message: "unavailable"
//	expect:
//	  error_code: SCHEMA_VIOLATION   # omit when the plan must succeed
//	  attempts: 1
//	  scene_key: scene1
//	assertions:
//	  - type: action_types
//	    actions: ["move to", "grasp"]
//	  - type: targets
//	    targets: [red_block, red_block]
//	  - type: confidence
//	    min: 0.5
//
// Without responses the heuristic synthesizer plans offline. Once the
// scripted replies run out the last one repeats.
//
// # Assertion Types
//
//   - action_types: the plan's action types, in order
//   - targets: the plan's action targets, in order
//   - action_count: exact number of actions
//   - contains_target: some action targets the named object
//   - confidence: plan confidence within [min, max]
//   - end_effector: every action uses the named hand
//   - parameter: actions[index].parameters[key] equals value
//   - grounded: every target is grounded in the resolved scene
//
// # Deterministic Testing
//
// Scripted replies, zero-delay retries and a fixed request-id generator
// make every run reproducible, so the resulting plan can be compared
// against a golden snapshot under testdata/golden.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/pick_default.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
