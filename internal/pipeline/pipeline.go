package pipeline

import (
	"context"
)

// Pipeline applies a fixed sequence of stages to one item. Unlike a best
// effort enrichment chain, a failing step aborts the run: later stages never
// see a partially built item.
//
// Pipeline is generic over the item type T.
type Pipeline[T any] struct {
	stages  []Stage[T]
	onEnter func(ctx context.Context, stage string)
}

// NewPipeline constructs a Pipeline from the provided stages. Stages will be
// applied in order.
func NewPipeline[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages}
}

// OnEnter registers a hook called right before each stage starts. It returns
// the pipeline for chaining.
func (p *Pipeline[T]) OnEnter(fn func(ctx context.Context, stage string)) *Pipeline[T] {
	p.onEnter = fn
	return p
}

// Stages returns the stage names in execution order.
func (p *Pipeline[T]) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.name
	}
	return names
}

// Run executes every stage on item. It returns nil when all steps succeeded,
// otherwise a *StageError for the first failing step. Cancellation of ctx is
// checked before every stage and every step, and is reported as a failure of
// the stage that was about to run.
func (p *Pipeline[T]) Run(ctx context.Context, item *T) error {
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: stage.name, Err: err}
		}
		if p.onEnter != nil {
			p.onEnter(ctx, stage.name)
		}
		for _, step := range stage.steps {
			if err := ctx.Err(); err != nil {
				return &StageError{Stage: stage.name, Err: err}
			}
			if err := step(ctx, item); err != nil {
				return &StageError{Stage: stage.name, Err: err}
			}
		}
	}
	return nil
}
