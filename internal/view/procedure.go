package view

import (
	"context"
	"fmt"

	"github.com/conneroisu/keystone/internal/errors"
	"github.com/conneroisu/keystone/internal/outcome"
)

// Result is the outcome of running a view: Rendered or Immediate.
type Result interface {
	result()
}

// Rendered carries the bindings the markup renders with.
type Rendered struct {
	Bindings Bindings
}

// Immediate carries a body that bypasses the markup.
type Immediate struct {
	Body string
}

func (Rendered) result()  {}
func (Immediate) result() {}

// Procedure is an executable view.
type Procedure interface {
	Execute(ctx context.Context, in Bindings) (Result, error)
}

type identity struct{}

// Identity is the view of a template without a code section. It renders
// with its input bindings unchanged.
var Identity Procedure = identity{}

func (identity) Execute(_ context.Context, in Bindings) (Result, error) {
	return Rendered{Bindings: in}, nil
}

// Func adapts a Go function to a Procedure.
type Func func(v *Scope) error

func (f Func) Execute(ctx context.Context, in Bindings) (Result, error) {
	return run(ctx, "", f, in)
}

// run executes fn against a fresh scope. A recorded Respond wins over any
// returned error. Outcomes pass through unchanged; other failures, panics
// included, become internal errors.
func run(ctx context.Context, name string, fn func(*Scope) error, in Bindings) (res Result, err error) {
	scope := NewScope(ctx, in)

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = errors.NewInternalError(errors.CodeViewFailed, "view panicked", fmt.Errorf("%v", r)).
				WithLocation(name, 0)
		}
	}()

	runErr := fn(scope)

	if body, ok := scope.Immediate(); ok {
		return Immediate{Body: body}, nil
	}

	if runErr != nil {
		if o, ok := outcome.As(runErr); ok {
			return nil, o
		}

		return nil, errors.NewInternalError(errors.CodeViewFailed, "view failed", runErr).
			WithLocation(name, 0)
	}

	return Rendered{Bindings: scope.Bindings()}, nil
}
