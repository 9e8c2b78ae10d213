package expressions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/flowgate/internal/safety"
	"github.com/rendis/flowgate/pkg/schema"
)

func newExprTemplate(t *testing.T, source string, unsafe bool) *Template {
	t.Helper()
	tmpl, err := NewTemplate(source, NewExprEngine(), safety.NewPolicy(unsafe))
	require.NoError(t, err)
	return tmpl
}

// --- Parsing ---

func TestTemplate_FreeTextOnly(t *testing.T) {
	tmpl := newExprTemplate(t, "plain text, no expressions", false)

	out, err := tmpl.Render(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "plain text, no expressions", out)
}

func TestTemplate_EmptySource(t *testing.T) {
	tmpl := newExprTemplate(t, "", false)

	out, err := tmpl.Render(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestTemplate_UnclosedExpression(t *testing.T) {
	_, err := NewTemplate("{{ value > 10", NewExprEngine(), safety.NewPolicy(false))
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeSyntax, schema.CodeOf(err))
}

func TestTemplate_NestedExpression(t *testing.T) {
	_, err := NewTemplate("{{ {{ value }} }}", NewExprEngine(), safety.NewPolicy(false))
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeSyntax, schema.CodeOf(err))
}

func TestTemplate_EmptyExpression(t *testing.T) {
	_, err := NewTemplate("{{  }}", NewExprEngine(), safety.NewPolicy(false))
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeSyntax, schema.CodeOf(err))
}

func TestTemplate_SyntaxErrorFailsConstruction(t *testing.T) {
	// Malformed templates fail at construction, not on first render.
	_, err := NewTemplate("{{ 1 + }}", NewExprEngine(), safety.NewPolicy(false))
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeSyntax, schema.CodeOf(err))
}

// --- Rendering ---

func TestTemplate_SingleExpressionIsNative(t *testing.T) {
	tmpl := newExprTemplate(t, "{{ value > 10 }}", false)

	out, err := tmpl.Render(context.Background(), map[string]any{"value": 15})
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestTemplate_SingleExpressionSequence(t *testing.T) {
	tmpl := newExprTemplate(t, "{{ numbers }}", false)

	out, err := tmpl.Render(context.Background(), map[string]any{"numbers": []any{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, out)
}

func TestTemplate_MixedSegmentsConcatenate(t *testing.T) {
	tmpl := newExprTemplate(t, "hello {{ name }}, you have {{ count }} items", false)

	out, err := tmpl.Render(context.Background(), map[string]any{"name": "ada", "count": 3})
	require.NoError(t, err)
	assert.Equal(t, "hello ada, you have 3 items", out)
}

func TestTemplate_MixedSegmentsStringifyContainers(t *testing.T) {
	tmpl := newExprTemplate(t, "items: {{ items }}", false)

	out, err := tmpl.Render(context.Background(), map[string]any{"items": []any{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, "items: [1,2]", out)
}

func TestTemplate_RenderIsDeterministic(t *testing.T) {
	tmpl := newExprTemplate(t, "{{ sum(numbers) }}", false)
	env := map[string]any{"numbers": []any{1, 2, 3}}

	first, err := tmpl.Render(context.Background(), env)
	require.NoError(t, err)
	second, err := tmpl.Render(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTemplate_UndefinedVariablePropagates(t *testing.T) {
	tmpl := newExprTemplate(t, "{{ missing }}", false)

	_, err := tmpl.Render(context.Background(), map[string]any{"present": 1})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeUndefinedVariable, schema.CodeOf(err))
}

// --- Safety boundary ---

func TestTemplate_ConstructorBlockedInSafeMode(t *testing.T) {
	tmpl := newExprTemplate(t, `{{ document("some text") }}`, false)

	_, err := tmpl.Render(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeUnsafeBlocked, schema.CodeOf(err))
}

func TestTemplate_ConstructorAllowedInUnsafeMode(t *testing.T) {
	tmpl := newExprTemplate(t, `{{ document("some text") }}`, true)

	out, err := tmpl.Render(context.Background(), map[string]any{})
	require.NoError(t, err)

	doc, ok := out.(*schema.Document)
	require.True(t, ok)
	assert.Equal(t, "some text", doc.Content)
	assert.NotEmpty(t, doc.ID)
}

func TestTemplate_MessageConstructor(t *testing.T) {
	tmpl := newExprTemplate(t, `{{ message("user", greeting) }}`, true)

	out, err := tmpl.Render(context.Background(), map[string]any{"greeting": "hi"})
	require.NoError(t, err)

	msg, ok := out.(*schema.ChatMessage)
	require.True(t, ok)
	assert.Equal(t, "user", msg.Role)
	assert.Equal(t, "hi", msg.Content)
}

func TestTemplate_RichAccessUnderUnsafe(t *testing.T) {
	doc := &schema.Document{ID: "d1", Content: "body", Score: 0.9}
	tmpl := newExprTemplate(t, "{{ documents[0] }}", true)

	out, err := tmpl.Render(context.Background(), map[string]any{"documents": []any{doc}})
	require.NoError(t, err)
	assert.Same(t, doc, out)
}

func TestTemplate_InputsDoNotSeeBuiltinsShadowed(t *testing.T) {
	// A user value under a non-reserved name coexists with builtins.
	tmpl := newExprTemplate(t, "{{ text }}", false)

	out, err := tmpl.Render(context.Background(), map[string]any{"text": "ok"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

// --- Engine selection ---

func TestTemplate_WithJQEngine(t *testing.T) {
	tmpl, err := NewTemplate("{{ .numbers | add }}", NewGoJQEngine(), safety.NewPolicy(false))
	require.NoError(t, err)

	out, err := tmpl.Render(context.Background(), map[string]any{"numbers": []any{1, 2, 3}})
	require.NoError(t, err)
	assert.EqualValues(t, 6, out)
}

func TestTemplate_WithCELEngine(t *testing.T) {
	eng, err := NewCELEngine([]string{"value"})
	require.NoError(t, err)

	tmpl, err := NewTemplate("{{ value > 10 }}", eng, safety.NewPolicy(false))
	require.NoError(t, err)

	out, err := tmpl.Render(context.Background(), map[string]any{"value": 15})
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestTemplate_Source(t *testing.T) {
	tmpl := newExprTemplate(t, "{{ value }}", false)
	assert.Equal(t, "{{ value }}", tmpl.Source())
}
