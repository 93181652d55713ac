// Package pipeline provides a small, generic abstraction for running named
// stages over a single item, strictly one after another.
package pipeline

import (
	"context"
	"fmt"
)

// Step is a single operation that mutates the given item in place. A step
// that fails returns an error; the pipeline stops at the first failure.
// The context should be honored for cancellation.
//
// Example:
//
//	func fetchDem(ctx context.Context, s *state) error { s.raw, err = f.FetchJSON(ctx, url); return err }
type Step[T any] func(ctx context.Context, item *T) error

// Stage groups the steps that make up one named phase. Steps run in order and
// the next stage only starts once every step of this one returned nil.
type Stage[T any] struct {
	name  string
	steps []Step[T]
}

// NewStage constructs a named Stage from the provided steps.
func NewStage[T any](name string, steps ...Step[T]) Stage[T] {
	return Stage[T]{name: name, steps: steps}
}

// Name returns the stage name used in errors and hooks.
func (s Stage[T]) Name() string { return s.name }

// StageError is the single terminal error of a failed run. It names the
// stage that failed and wraps the original cause.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
