// Package synth turns a command and a scene into an action plan.
//
// A Synthesizer is the one-method seam between the planner and whatever
// produces plans. This package ships three:
//
//   - LLMSynthesizer: prompts an OpenAI-compatible chat completion service
//     (Groq by default) through a Completer, retrying transient transport
//     failures with bounded exponential backoff.
//   - Heuristic: a deterministic offline synthesizer that matches command
//     words against scene object names.
//   - Func: adapts a plain function, mostly for tests.
//
// Every failure is reported as a *SynthesisError carrying one of the
// ErrorCode values. Responses from a text-generation service are checked
// twice: first against the #ActionPlan CUE schema in plan.cue, then by the
// ir decoders, so a plan returned from GeneratePlan is always valid.
package synth
