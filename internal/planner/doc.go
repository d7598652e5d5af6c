// Package planner orchestrates one planning request: build the command,
// resolve its scene, synthesize a plan, and check the result.
//
// The planner holds no mutable state and does no logging, caching or
// retrying of its own; retries belong to the synthesizer. A plan that
// reaches the caller is exactly what the synthesizer produced, and it is
// valid: a synthesizer that hands back an invalid value gets an
// INVALID_PLAN synthesis error instead.
package planner
