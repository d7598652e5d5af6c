package planner

import (
	"context"

	"github.com/roach88/roboplan/internal/ir"
	"github.com/roach88/roboplan/internal/scene"
	"github.com/roach88/roboplan/internal/synth"
)

// Planner turns natural-language commands into validated action plans.
// It is safe for concurrent use when its resolver and synthesizer are.
type Planner struct {
	resolver    scene.Resolver
	synthesizer synth.Synthesizer
	strict      bool
}

// Option configures a Planner.
type Option func(*Planner)

// WithStrictGrounding rejects plans whose targets are not in the scene
// (see CheckGrounding) with an INVALID_PLAN synthesis error.
func WithStrictGrounding() Option {
	return func(p *Planner) {
		p.strict = true
	}
}

// New creates a Planner.
func New(resolver scene.Resolver, synthesizer synth.Synthesizer, opts ...Option) *Planner {
	p := &Planner{resolver: resolver, synthesizer: synthesizer}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// KeyResolver is a Resolver that can name the catalog key an identifier
// resolves to. *scene.CatalogResolver implements it.
type KeyResolver interface {
	scene.Resolver
	ResolveKey(identifier string) string
}

// Outcome is a planned request together with the inputs it was planned
// against.
type Outcome struct {
	Command  ir.Command
	SceneKey string
	Scene    ir.Scene
	Plan     ir.ActionPlan
}

// Plan plans text against the scene named by sceneID. An empty sceneID
// selects the default scene.
//
// Errors are ir.ValidationErrors for empty text, or *synth.SynthesisError.
func (p *Planner) Plan(ctx context.Context, text, sceneID string) (ir.ActionPlan, error) {
	out, err := p.PlanOutcome(ctx, text, sceneID)
	if err != nil {
		return ir.ActionPlan{}, err
	}
	return out.Plan, nil
}

// PlanOutcome plans like Plan and also reports the command, the resolved
// scene and its key. The key comes from ResolveKey when the resolver is a
// KeyResolver, and from scene.Key otherwise.
func (p *Planner) PlanOutcome(ctx context.Context, text, sceneID string) (Outcome, error) {
	cmd, err := ir.NewCommand(text, sceneID)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Command:  cmd,
		SceneKey: scene.Key(sceneID),
		Scene:    p.resolver.Resolve(sceneID),
	}
	if kr, ok := p.resolver.(KeyResolver); ok {
		out.SceneKey = kr.ResolveKey(sceneID)
	}

	out.Plan, err = p.PlanWithScene(ctx, cmd, out.Scene)
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// PlanCommand plans a prepared Command, resolving its scene from
// cmd.ImagePath.
func (p *Planner) PlanCommand(ctx context.Context, cmd ir.Command) (ir.ActionPlan, error) {
	if errs := cmd.Validate(); len(errs) > 0 {
		return ir.ActionPlan{}, errs
	}
	return p.PlanWithScene(ctx, cmd, p.resolver.Resolve(cmd.ImagePath))
}

// PlanWithScene plans cmd against an explicit scene, skipping resolution.
func (p *Planner) PlanWithScene(ctx context.Context, cmd ir.Command, s ir.Scene) (ir.ActionPlan, error) {
	if errs := cmd.Validate(); len(errs) > 0 {
		return ir.ActionPlan{}, errs
	}
	if errs := s.Validate(); len(errs) > 0 {
		return ir.ActionPlan{}, errs
	}

	plan, err := p.synthesizer.GeneratePlan(ctx, cmd, s)
	if err != nil {
		if synth.IsSynthesisError(err) {
			return ir.ActionPlan{}, err
		}
		return ir.ActionPlan{}, synth.NewTransportError(0, err)
	}

	if errs := plan.Validate(); len(errs) > 0 {
		return ir.ActionPlan{}, synth.NewInvalidPlanError("synthesizer returned an invalid plan", errs)
	}
	if p.strict {
		if findings := CheckGrounding(plan, s); len(findings) > 0 {
			return ir.ActionPlan{}, synth.NewInvalidPlanError("plan is not grounded in the scene", findings)
		}
	}
	return plan, nil
}

// Resolver returns the planner's scene resolver.
func (p *Planner) Resolver() scene.Resolver {
	return p.resolver
}
