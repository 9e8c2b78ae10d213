package expressions

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rendis/flowgate/pkg/schema"
)

// CELEngine implements the Engine interface using Google's Common Expression
// Language. It is the alternative condition language for route entries.
// Thread-safe: compiled programs are cached and reused across goroutines.
type CELEngine struct {
	env      *cel.Env
	varNames []string

	mu    sync.RWMutex
	cache map[string]cel.Program
}

// NewCELEngine creates a CEL engine whose environment declares the given
// variable names, each typed dyn. The set of names is fixed for the engine's
// lifetime; it matches the owning component's declared inputs.
func NewCELEngine(varNames []string) (*CELEngine, error) {
	opts := make([]cel.EnvOption, 0, len(varNames))
	for _, name := range varNames {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return &CELEngine{
		env:      env,
		varNames: varNames,
		cache:    make(map[string]cel.Program),
	}, nil
}

// Name returns the engine identifier.
func (e *CELEngine) Name() string {
	return "cel"
}

// Compile checks the expression against the declared environment. Both
// syntax errors and references to undeclared variables are caught here.
func (e *CELEngine) Compile(expression string) error {
	_, err := e.getOrCompile(expression)
	return err
}

// Evaluate compiles (or retrieves from cache) a CEL expression and evaluates
// it against the provided data. Missing keys default to null.
func (e *CELEngine) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeSyntax, "empty CEL expression")
	}

	prg, err := e.getOrCompile(expression)
	if err != nil {
		return nil, err
	}

	activation := make(map[string]any, len(e.varNames))
	for _, name := range e.varNames {
		activation[name] = data[name]
	}

	out, _, err := prg.Eval(activation)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeRuntime,
			"CEL evaluation failed for %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	return out.Value(), nil
}

// getOrCompile returns a cached compiled program or compiles and caches a new one.
func (e *CELEngine) getOrCompile(expression string) (cel.Program, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeSyntax, "empty CEL expression")
	}

	e.mu.RLock()
	if prg, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return prg, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock.
	if prg, ok := e.cache[expression]; ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		compileErr := issues.Err()
		if strings.Contains(compileErr.Error(), "undeclared reference") {
			return nil, schema.NewErrorf(schema.ErrCodeUndefinedVariable,
				"undefined variable in CEL expression %q: %s", expression, compileErr.Error()).
				WithCause(compileErr).
				WithDetails(map[string]any{"expression": expression, "available": e.varNames})
		}
		return nil, schema.NewErrorf(schema.ErrCodeSyntax,
			"CEL compile error in %q: %s", expression, compileErr.Error()).
			WithCause(compileErr).
			WithDetails(map[string]any{"expression": expression})
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeSyntax,
			"CEL program error for %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	e.cache[expression] = prg
	return prg, nil
}

var _ Engine = (*CELEngine)(nil)
