package synth

import (
	"context"

	"github.com/roach88/roboplan/internal/ir"
)

// Synthesizer produces an action plan for a command in a scene.
//
// Implementations return either a valid plan or a *SynthesisError. The
// call may block on network I/O and must honor ctx cancellation.
type Synthesizer interface {
	GeneratePlan(ctx context.Context, cmd ir.Command, scene ir.Scene) (ir.ActionPlan, error)
}

// Func adapts an ordinary function to the Synthesizer interface.
type Func func(ctx context.Context, cmd ir.Command, scene ir.Scene) (ir.ActionPlan, error)

// GeneratePlan calls f(ctx, cmd, scene).
func (f Func) GeneratePlan(ctx context.Context, cmd ir.Command, scene ir.Scene) (ir.ActionPlan, error) {
	return f(ctx, cmd, scene)
}
