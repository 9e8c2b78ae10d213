package expressions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rendis/flowgate/internal/safety"
	"github.com/rendis/flowgate/pkg/schema"
)

// Template is an immutable parsed template: free-text segments interleaved
// with {{ ... }} expression segments. A template that consists of a single
// expression with no surrounding text renders to the expression's native
// value; any other shape renders to a string built by concatenating segment
// renderings.
//
// Templates are parsed and their expressions compiled at construction, so
// malformed templates fail at component build time rather than on first use.
// A Template is safe for concurrent Render calls.
type Template struct {
	source   string
	engine   Engine
	policy   safety.Policy
	segments []segment
}

// segment is either free text (expr == "") or one expression.
type segment struct {
	literal string
	expr    string
}

// NewTemplate parses source and eagerly compiles every expression segment
// with the given engine. The policy decides which builtins are usable by
// expressions at render time.
func NewTemplate(source string, engine Engine, policy safety.Policy) (*Template, error) {
	segments, err := parseSegments(source)
	if err != nil {
		return nil, err
	}

	for _, seg := range segments {
		if seg.expr == "" {
			continue
		}
		if err := engine.Compile(seg.expr); err != nil {
			return nil, err
		}
	}

	return &Template{
		source:   source,
		engine:   engine,
		policy:   policy,
		segments: segments,
	}, nil
}

// Source returns the original template string.
func (t *Template) Source() string {
	return t.source
}

// Render evaluates the template against the environment. The environment is
// never mutated: builtins are merged into a fresh map.
func (t *Template) Render(ctx context.Context, env map[string]any) (any, error) {
	evalEnv := t.buildEvalEnv(env)

	// Single pure expression: return the native value.
	if len(t.segments) == 1 && t.segments[0].expr != "" {
		return t.engine.Evaluate(ctx, t.segments[0].expr, evalEnv)
	}

	var sb strings.Builder
	sb.Grow(len(t.source))

	for _, seg := range t.segments {
		if seg.expr == "" {
			sb.WriteString(seg.literal)
			continue
		}

		val, err := t.engine.Evaluate(ctx, seg.expr, evalEnv)
		if err != nil {
			return nil, err
		}
		sb.WriteString(stringify(val))
	}

	return sb.String(), nil
}

// buildEvalEnv merges the constructor builtins into the caller environment.
// Only the expr engine can call Go functions from its environment; CEL and
// jq environments carry data only.
func (t *Template) buildEvalEnv(env map[string]any) map[string]any {
	if t.engine.Name() != "expr" {
		return env
	}

	builtins := Builtins(t.policy)
	merged := make(map[string]any, len(env)+len(builtins))
	for k, v := range builtins {
		merged[k] = v
	}
	for k, v := range env {
		merged[k] = v
	}
	return merged
}

// parseSegments splits a template into literal and expression segments.
// Delimiters are {{ and }}; nesting is rejected.
func parseSegments(source string) ([]segment, error) {
	var segments []segment

	i := 0
	for i < len(source) {
		idx := strings.Index(source[i:], "{{")
		if idx == -1 {
			segments = append(segments, segment{literal: source[i:]})
			break
		}

		if idx > 0 {
			segments = append(segments, segment{literal: source[i : i+idx]})
		}
		start := i + idx + 2 // skip "{{".

		end := strings.Index(source[start:], "}}")
		if end == -1 {
			return nil, schema.NewErrorf(schema.ErrCodeSyntax,
				"unclosed {{ expression in template %q", source).
				WithDetails(map[string]any{"template": source})
		}
		end += start

		expr := strings.TrimSpace(source[start:end])

		if strings.Contains(expr, "{{") {
			return nil, schema.NewError(schema.ErrCodeSyntax,
				"nested template expressions are not allowed: {{...}} cannot contain {{")
		}

		if expr == "" {
			return nil, schema.NewError(schema.ErrCodeSyntax, "empty template expression: {{ }}")
		}

		segments = append(segments, segment{expr: expr})
		i = end + 2 // skip "}}".
	}

	if len(segments) == 0 {
		segments = append(segments, segment{literal: ""})
	}

	return segments, nil
}

// stringify converts a rendered value into its inline string representation
// for concatenation inside mixed templates.
func stringify(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case nil:
		return ""
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%v", v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
