package expressions

import (
	"context"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/rendis/flowgate/pkg/schema"
)

// ExprEngine implements the Engine interface using expr-lang/expr, the
// default template expression language. It supports attribute and index
// access, arithmetic, comparisons, array operations (filter, map, sum, min,
// max, any, all), string operations, nil coalescing (??), optional chaining
// (?.), and pipe chaining (|).
// Thread-safe: compiled *vm.Program objects are cached and reused across
// goroutines. Programs compiled against the live environment are cached
// separately from the syntax-only programs produced by Compile.
type ExprEngine struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewExprEngine creates a new Expr expression engine.
func NewExprEngine() *ExprEngine {
	return &ExprEngine{
		cache: make(map[string]*vm.Program),
	}
}

// Name returns the engine identifier.
func (e *ExprEngine) Name() string {
	return "expr"
}

// Compile performs a syntax-only compile. Variable references are not
// resolved here (the environment exists only at render time), so undefined
// variables are reported by Evaluate, not Compile.
func (e *ExprEngine) Compile(expression string) error {
	if expression == "" {
		return schema.NewError(schema.ErrCodeSyntax, "empty expression")
	}

	_, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeSyntax,
			"expression syntax error in %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}
	return nil
}

// Evaluate compiles (or retrieves from cache) an expression and evaluates it
// against the provided data. The data map is injected as the expression
// environment, making all keys available as top-level variables. Undefined
// variable references fail with UNDEFINED_VARIABLE rather than silently
// yielding nil.
func (e *ExprEngine) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeSyntax, "empty expression")
	}

	env := data
	if env == nil {
		env = map[string]any{}
	}

	prg, err := e.getOrCompile(expression, env)
	if err != nil {
		return nil, err
	}

	out, err := vm.Run(prg, env)
	if err != nil {
		// Builtins gated by the safety policy surface their own error.
		var fe *schema.FlowError
		if ok := asFlowError(err, &fe); ok {
			return nil, fe
		}
		return nil, schema.NewErrorf(schema.ErrCodeRuntime,
			"expression evaluation failed for %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	return out, nil
}

// getOrCompile returns a cached compiled program or compiles and caches a
// new one. Compiling against the environment makes its keys known names, so
// references to anything else fail here with UNDEFINED_VARIABLE. Caching by
// expression alone is sound because an engine instance serves one component,
// whose environment keys do not change between invocations.
func (e *ExprEngine) getOrCompile(expression string, env map[string]any) (*vm.Program, error) {
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

	prg, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		if strings.Contains(err.Error(), "unknown name") {
			return nil, schema.NewErrorf(schema.ErrCodeUndefinedVariable,
				"undefined variable in %q: %s", expression, err.Error()).
				WithCause(err).
				WithDetails(map[string]any{"expression": expression, "available": envKeys(env)})
		}
		return nil, schema.NewErrorf(schema.ErrCodeSyntax,
			"expression compile error in %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	e.cache[expression] = prg
	return prg, nil
}

var _ Engine = (*ExprEngine)(nil)
