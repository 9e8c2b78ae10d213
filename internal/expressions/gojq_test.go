package expressions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/flowgate/pkg/schema"
)

func TestNewGoJQEngine(t *testing.T) {
	e := NewGoJQEngine()
	assert.NotNil(t, e)
	assert.Equal(t, "jq", e.Name())
}

func TestGoJQEngine_ImplementsEngine(t *testing.T) {
	var _ Engine = (*GoJQEngine)(nil)
}

func TestGoJQ_Aggregation(t *testing.T) {
	e := NewGoJQEngine()
	data := map[string]any{"numbers": []any{1, 2, 3}}

	out, err := e.Evaluate(context.Background(), ".numbers | add", data)
	require.NoError(t, err)
	assert.EqualValues(t, 6, out)
}

func TestGoJQ_Reshaping(t *testing.T) {
	e := NewGoJQEngine()
	data := map[string]any{
		"user": map[string]any{"name": "ada", "age": 36},
	}

	out, err := e.Evaluate(context.Background(), "{who: .user.name}", data)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"who": "ada"}, out)
}

func TestGoJQ_MultipleOutputs(t *testing.T) {
	e := NewGoJQEngine()
	data := map[string]any{"items": []any{"a", "b"}}

	out, err := e.Evaluate(context.Background(), ".items[]", data)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, out)
}

func TestGoJQ_NoOutput(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), "empty", map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestGoJQ_ParseError(t *testing.T) {
	e := NewGoJQEngine()

	err := e.Compile(".items[")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeSyntax, schema.CodeOf(err))
}

func TestGoJQ_RuntimeError(t *testing.T) {
	e := NewGoJQEngine()

	_, err := e.Evaluate(context.Background(), ".missing.deep", map[string]any{"missing": "not-an-object"})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeRuntime, schema.CodeOf(err))
}

func TestGoJQ_EmptyExpression(t *testing.T) {
	e := NewGoJQEngine()

	_, err := e.Evaluate(context.Background(), "", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeSyntax, schema.CodeOf(err))
}

func TestGoJQ_NormalizesRichObjects(t *testing.T) {
	e := NewGoJQEngine()
	data := map[string]any{
		"doc": &schema.Document{ID: "d1", Content: "hello"},
	}

	// jq sees rich objects as plain mappings; the result is structural data.
	out, err := e.Evaluate(context.Background(), ".doc.content", data)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestGoJQ_IntegerInputs(t *testing.T) {
	e := NewGoJQEngine()
	data := map[string]any{"n": 21}

	out, err := e.Evaluate(context.Background(), ".n * 2", data)
	require.NoError(t, err)
	assert.EqualValues(t, 42, out)
}
