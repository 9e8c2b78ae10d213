package expressions

import "context"

// Engine evaluates a single expression against an environment.
// Three implementations: Expr (default template language), CEL (conditions),
// GoJQ (transforms). An engine instance belongs to one component, whose
// environment shape is fixed for the component's lifetime.
type Engine interface {
	Name() string
	// Compile checks the expression eagerly so that authoring errors
	// surface at component construction rather than on first use.
	Compile(expression string) error
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}
