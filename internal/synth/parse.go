package synth

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/roboplan/internal/ir"
)

//go:embed plan.cue
var planSchemaSource []byte

// ParsePlan extracts and validates an ActionPlan from raw service output.
//
// Markdown code fences and any prose around the outermost JSON object are
// ignored. The object is checked against #ActionPlan, then decoded through
// the ir validators. Failures are *SynthesisError with code
// EMPTY_RESPONSE, MALFORMED_OUTPUT or SCHEMA_VIOLATION.
func ParsePlan(text string) (ir.ActionPlan, error) {
	if strings.TrimSpace(text) == "" {
		return ir.ActionPlan{}, &SynthesisError{
			Code:    CodeEmptyResponse,
			Message: "service returned no content",
		}
	}

	body, ok := extractJSON(text)
	if !ok {
		return ir.ActionPlan{}, &SynthesisError{
			Code:    CodeMalformedOutput,
			Message: fmt.Sprintf("no JSON object in response: %s", truncate(text, 120)),
		}
	}

	if err := checkSchema(body); err != nil {
		return ir.ActionPlan{}, err
	}

	var plan ir.ActionPlan
	if err := json.Unmarshal([]byte(body), &plan); err != nil {
		var verrs ir.ValidationErrors
		if errors.As(err, &verrs) {
			return ir.ActionPlan{}, &SynthesisError{
				Code:    CodeSchemaViolation,
				Message: verrs.Error(),
				Err:     err,
			}
		}
		return ir.ActionPlan{}, &SynthesisError{
			Code:    CodeMalformedOutput,
			Message: "response JSON does not decode as a plan",
			Err:     err,
		}
	}
	return plan, nil
}

// checkSchema validates body against #ActionPlan. A cue.Context is not
// safe for concurrent use, so each call builds its own.
func checkSchema(body string) error {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(planSchemaSource, cue.Filename("plan.cue"))
	if err := schema.Err(); err != nil {
		return &SynthesisError{Code: CodeSchemaViolation, Message: "plan schema does not compile", Err: err}
	}

	expr, err := cuejson.Extract("response.json", []byte(body))
	if err != nil {
		return &SynthesisError{
			Code:    CodeMalformedOutput,
			Message: "response is not valid JSON",
			Err:     err,
		}
	}

	v := schema.LookupPath(cue.ParsePath("#ActionPlan")).Unify(ctx.BuildExpr(expr))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		msg, ok := actionTypeError(body)
		if !ok {
			msg = firstCUEError(err)
		}
		return &SynthesisError{
			Code:    CodeSchemaViolation,
			Message: msg,
			Err:     err,
		}
	}
	return nil
}

// actionTypeError names the first out-of-set action type in body along
// with the allowed set. CUE reports a failed enum as an opaque empty
// disjunction.
func actionTypeError(body string) (string, bool) {
	var raw struct {
		Actions []struct {
			Type *string `json:"type"`
		} `json:"actions"`
	}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return "", false
	}
	for i, a := range raw.Actions {
		if a.Type == nil {
			continue
		}
		if _, err := ir.ParseActionType(*a.Type); err != nil {
			return fmt.Sprintf("actions[%d].%s", i, err), true
		}
	}
	return "", false
}

func firstCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	return errs[0].Error()
}

// extractJSON returns the outermost {...} span of text after stripping a
// surrounding markdown code fence.
func extractJSON(text string) (string, bool) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Drop the info string ("json") up to the first newline
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		if j := strings.LastIndex(s, "```"); j >= 0 {
			s = s[:j]
		}
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
