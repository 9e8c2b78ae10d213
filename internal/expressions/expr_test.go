package expressions

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/flowgate/pkg/schema"
)

func TestNewExprEngine(t *testing.T) {
	e := NewExprEngine()
	assert.NotNil(t, e)
	assert.Equal(t, "expr", e.Name())
}

// --- Interface compliance ---

func TestExprEngine_ImplementsEngine(t *testing.T) {
	var _ Engine = (*ExprEngine)(nil)
}

// --- Basic evaluation ---

func TestExpr_IntegerLiteral(t *testing.T) {
	e := NewExprEngine()

	out, err := e.Evaluate(context.Background(), "42", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}

func TestExpr_StringLiteral(t *testing.T) {
	e := NewExprEngine()

	out, err := e.Evaluate(context.Background(), `"hello"`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestExpr_Arithmetic(t *testing.T) {
	e := NewExprEngine()
	data := map[string]any{"a": 10, "b": 3}

	t.Run("addition", func(t *testing.T) {
		out, err := e.Evaluate(context.Background(), "a + b", data)
		require.NoError(t, err)
		assert.Equal(t, 13, out)
	})

	t.Run("comparison", func(t *testing.T) {
		out, err := e.Evaluate(context.Background(), "a > b", data)
		require.NoError(t, err)
		assert.Equal(t, true, out)
	})

	t.Run("modulo", func(t *testing.T) {
		out, err := e.Evaluate(context.Background(), "a % b", data)
		require.NoError(t, err)
		assert.Equal(t, 1, out)
	})
}

func TestExpr_ArrayOperations(t *testing.T) {
	e := NewExprEngine()
	data := map[string]any{"numbers": []any{1, 2, 3}}

	t.Run("sum", func(t *testing.T) {
		out, err := e.Evaluate(context.Background(), "sum(numbers)", data)
		require.NoError(t, err)
		assert.EqualValues(t, 6, out)
	})

	t.Run("pipe chaining", func(t *testing.T) {
		out, err := e.Evaluate(context.Background(), "numbers | sum()", data)
		require.NoError(t, err)
		assert.EqualValues(t, 6, out)
	})

	t.Run("indexing", func(t *testing.T) {
		out, err := e.Evaluate(context.Background(), "numbers[0]", data)
		require.NoError(t, err)
		assert.Equal(t, 1, out)
	})

	t.Run("filter", func(t *testing.T) {
		out, err := e.Evaluate(context.Background(), "filter(numbers, # > 1)", data)
		require.NoError(t, err)
		assert.Equal(t, []any{2, 3}, out)
	})
}

func TestExpr_NestedAccess(t *testing.T) {
	e := NewExprEngine()
	data := map[string]any{
		"payload": map[string]any{
			"user": map[string]any{"name": "ada"},
		},
	}

	out, err := e.Evaluate(context.Background(), "payload.user.name", data)
	require.NoError(t, err)
	assert.Equal(t, "ada", out)
}

// --- Error taxonomy ---

func TestExpr_EmptyExpression(t *testing.T) {
	e := NewExprEngine()

	_, err := e.Evaluate(context.Background(), "", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeSyntax, schema.CodeOf(err))
}

func TestExpr_SyntaxError(t *testing.T) {
	e := NewExprEngine()

	err := e.Compile("1 +")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeSyntax, schema.CodeOf(err))
}

func TestExpr_UndefinedVariable(t *testing.T) {
	e := NewExprEngine()

	_, err := e.Evaluate(context.Background(), "missing + 1", map[string]any{"present": 1})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeUndefinedVariable, schema.CodeOf(err))
	assert.Contains(t, err.Error(), "missing")
}

func TestExpr_RuntimeError(t *testing.T) {
	e := NewExprEngine()

	_, err := e.Evaluate(context.Background(), "a / b", map[string]any{"a": 1, "b": 0})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeRuntime, schema.CodeOf(err))
}

// --- Compile-once semantics ---

func TestExpr_CompileIsSyntaxOnly(t *testing.T) {
	e := NewExprEngine()

	// Unknown names pass Compile; they are resolved against the live
	// environment at Evaluate.
	require.NoError(t, e.Compile("anything > 10"))

	_, err := e.Evaluate(context.Background(), "anything > 10", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeUndefinedVariable, schema.CodeOf(err))
}

func TestExpr_ConcurrentEvaluate(t *testing.T) {
	e := NewExprEngine()
	data := map[string]any{"n": 7}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := e.Evaluate(context.Background(), "n * 2", data)
			assert.NoError(t, err)
			assert.Equal(t, 14, out)
		}()
	}
	wg.Wait()
}

func TestExpr_DoesNotMutateEnvironment(t *testing.T) {
	e := NewExprEngine()
	data := map[string]any{"items": []any{1, 2}}

	_, err := e.Evaluate(context.Background(), "items", data)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, data["items"])
}
