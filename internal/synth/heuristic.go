package synth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/roach88/roboplan/internal/ir"
)

// Confidence levels reported by Heuristic.
const (
	heuristicExactConfidence   = 0.9
	heuristicPartialConfidence = 0.6
)

// Verb groups recognized by Heuristic, checked in this order.
var (
	placeVerbs   = []string{"put", "place", "stack", "set", "drop", "move"}
	placePreps   = []string{"on", "onto", "in", "into", "inside", "next", "beside", "to"}
	lookVerbs    = []string{"look", "find", "see", "inspect", "locate", "watch", "observe"}
	pickVerbs    = []string{"pick", "grab", "grasp", "take", "lift", "get", "hold"}
	releaseVerbs = []string{"release", "drop", "let"}
	moveVerbs    = []string{"move", "go", "reach", "touch", "approach", "point"}
)

// Heuristic is a deterministic offline Synthesizer. It matches command
// words against scene object names and a small verb vocabulary. It never
// fails: a command it cannot ground yields an empty plan with zero
// confidence.
type Heuristic struct{}

var _ Synthesizer = Heuristic{}

// GeneratePlan implements Synthesizer.
func (Heuristic) GeneratePlan(ctx context.Context, cmd ir.Command, scene ir.Scene) (ir.ActionPlan, error) {
	if err := ctx.Err(); err != nil {
		return ir.ActionPlan{}, NewTransportError(0, err)
	}

	words := tokenize(cmd.Text)
	mentions, exact := findMentions(words, scene)
	if len(mentions) == 0 {
		return emptyPlan("no scene object matches the command")
	}

	hand := ir.DefaultEndEffector
	if has(words, "left") && (has(words, "hand") || has(words, "arm") || has(words, "gripper")) {
		hand = "left hand"
	}
	b := &planBuilder{hand: hand}

	first := mentions[0].DetectedObject
	var reasoning string
	switch {
	case hasAny(words, placeVerbs) && hasAny(words, placePreps) && len(mentions) >= 2:
		dest := mentions[1].DetectedObject
		b.add(ir.ActionMoveTo, first, true, nil)
		b.add(ir.ActionGrasp, first, false, graspParams(words))
		b.add(ir.ActionMoveTo, dest, true, nil)
		b.add(ir.ActionRelease, first, false, nil)
		reasoning = fmt.Sprintf("place %s at %s", first.Name, dest.Name)
	case hasAny(words, lookVerbs):
		b.add(ir.ActionLookAt, first, true, nil)
		reasoning = fmt.Sprintf("look at %s", first.Name)
	case hasAny(words, pickVerbs):
		b.add(ir.ActionMoveTo, first, true, nil)
		b.add(ir.ActionGrasp, first, false, graspParams(words))
		reasoning = fmt.Sprintf("pick up %s", first.Name)
	case hasAny(words, releaseVerbs):
		b.add(ir.ActionRelease, first, false, nil)
		reasoning = fmt.Sprintf("release %s", first.Name)
	case hasAny(words, moveVerbs):
		b.add(ir.ActionMoveTo, first, true, nil)
		reasoning = fmt.Sprintf("move to %s", first.Name)
	default:
		return emptyPlan("no known action verb in the command")
	}
	if b.err != nil {
		return ir.ActionPlan{}, NewInvalidPlanError("heuristic built an invalid action", b.err)
	}

	confidence := heuristicPartialConfidence
	if exact {
		confidence = heuristicExactConfidence
	}
	plan, err := ir.NewActionPlan(b.actions, confidence, reasoning)
	if err != nil {
		return ir.ActionPlan{}, NewInvalidPlanError("heuristic built an invalid plan", err)
	}
	return plan, nil
}

type planBuilder struct {
	hand    string
	actions []ir.RobotAction
	err     error
}

func (b *planBuilder) add(t ir.ActionType, obj ir.DetectedObject, withPosition bool, params ir.Params) {
	if b.err != nil {
		return
	}
	opts := []ir.ActionOption{ir.WithEndEffector(b.hand)}
	if withPosition {
		opts = append(opts, ir.WithPosition(obj.Position))
	}
	if params != nil {
		opts = append(opts, ir.WithParams(params))
	}
	a, err := ir.NewRobotAction(string(t), obj.Name, opts...)
	if err != nil {
		b.err = err
		return
	}
	b.actions = append(b.actions, a)
}

func emptyPlan(reason string) (ir.ActionPlan, error) {
	plan, err := ir.NewActionPlan(nil, 0, reason)
	if err != nil {
		return ir.ActionPlan{}, NewInvalidPlanError("heuristic built an invalid plan", err)
	}
	return plan, nil
}

// graspParams maps adverbs to a normalized grasp force.
func graspParams(words []string) ir.Params {
	switch {
	case hasAny(words, []string{"gently", "carefully", "softly"}):
		return ir.Params{"force": ir.Float(0.3)}
	case hasAny(words, []string{"firmly", "tightly"}):
		return ir.Params{"force": ir.Float(0.8)}
	}
	return nil
}

type mention struct {
	ir.DetectedObject
	index int // word offset of the mention in the command
	order int // position in the scene
}

// findMentions returns the scene objects named in words, ordered by where
// they appear in the command. Exact mentions name every part of an
// object's name ("red block" for red_block). Only when there are none do
// partial mentions count: the last name part or the object type ("apple"
// for red_apple), keeping the first object in scene order per word.
func findMentions(words []string, scene ir.Scene) ([]mention, bool) {
	var exact, partial []mention
	for i, obj := range scene.Objects {
		parts := strings.FieldsFunc(strings.ToLower(obj.Name), func(r rune) bool {
			return r == '_' || r == '-' || unicode.IsSpace(r)
		})
		if len(parts) == 0 {
			continue
		}
		if idx := phraseIndex(words, parts); idx >= 0 {
			exact = append(exact, mention{obj, idx, i})
			continue
		}
		noun := parts[len(parts)-1]
		if idx := indexOf(words, noun); idx >= 0 {
			partial = append(partial, mention{obj, idx, i})
		} else if t := strings.ToLower(obj.ObjectType); t != "" {
			if idx := indexOf(words, t); idx >= 0 {
				partial = append(partial, mention{obj, idx, i})
			}
		}
	}

	if len(exact) > 0 {
		sortMentions(exact)
		return exact, true
	}

	sortMentions(partial)
	var deduped []mention
	for _, m := range partial {
		if len(deduped) > 0 && deduped[len(deduped)-1].index == m.index {
			continue
		}
		deduped = append(deduped, m)
	}
	return deduped, false
}

func sortMentions(ms []mention) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].index != ms[j].index {
			return ms[i].index < ms[j].index
		}
		return ms[i].order < ms[j].order
	})
}

// phraseIndex returns the offset of parts as a contiguous phrase in words,
// or, failing that, the offset of the first part when every part occurs
// somewhere. It returns -1 if any part is missing.
func phraseIndex(words, parts []string) int {
	for i := 0; i+len(parts) <= len(words); i++ {
		match := true
		for j, p := range parts {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	for _, p := range parts {
		if !has(words, p) {
			return -1
		}
	}
	return indexOf(words, parts[0])
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func indexOf(words []string, w string) int {
	for i, x := range words {
		if x == w {
			return i
		}
	}
	return -1
}

func has(words []string, w string) bool {
	return indexOf(words, w) >= 0
}

func hasAny(words, candidates []string) bool {
	for _, c := range candidates {
		if has(words, c) {
			return true
		}
	}
	return false
}
