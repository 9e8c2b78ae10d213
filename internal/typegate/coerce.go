package typegate

import (
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/rendis/flowgate/internal/safety"
	"github.com/rendis/flowgate/pkg/schema"
)

// Coerce validates and converts a rendered value into the declared type.
//
// The safety check runs first and overrides type acceptance: under a safe
// policy a value that is, or transitively contains, a rich object fails with
// UNSAFE_VALUE_REJECTED regardless of the declared type. Unsafe mode lifts
// only that reachability restriction; the rendered value's runtime kind must
// still match the declared kind, with no widening across rich kinds.
func Coerce(v any, declared Descriptor, policy safety.Policy) (any, error) {
	if !policy.IsAllowed(v) {
		kind, _ := safety.FindRich(v)
		return nil, schema.NewErrorf(schema.ErrCodeUnsafeRejected,
			"rendered value contains a %s object, which requires unsafe mode", kind).
			WithDetails(map[string]any{"rich_kind": string(kind), "declared": declared.Describe()})
	}

	return coerceStructural(v, declared)
}

// Validate reports whether a value structurally matches the declared type.
// The safety policy is not consulted here; this is the shape check only.
func Validate(v any, declared Descriptor) bool {
	_, err := coerceStructural(v, declared)
	return err == nil
}

// coerceStructural converts v to the declared shape or fails with TYPE_MISMATCH.
func coerceStructural(v any, declared Descriptor) (any, error) {
	switch declared.kind {
	case kindAny:
		return v, nil

	case kindRich:
		kind, ok := schema.KindOf(v)
		if !ok || kind != declared.rich {
			return nil, mismatch(declared, v)
		}
		return v, nil

	case kindMapping:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, mismatch(declared, v)
		}
		return m, nil

	case kindList:
		items, ok := toSlice(v)
		if !ok {
			return nil, mismatch(declared, v)
		}
		out := make([]any, len(items))
		for i, item := range items {
			coerced, err := coerceStructural(item, *declared.elem)
			if err != nil {
				return nil, schema.NewErrorf(schema.ErrCodeTypeMismatch,
					"element %d: expected %s, got %s", i, declared.elem.Describe(), describeActual(item)).
					WithDetails(map[string]any{"index": i, "declared": declared.Describe()})
			}
			out[i] = coerced
		}
		return out, nil

	case kindPrimitive:
		return coercePrimitive(v, declared)

	default:
		return nil, mismatch(declared, v)
	}
}

// coercePrimitive converts scalar values through cty conversion semantics:
// numeric strings convert to numbers, numbers to strings, "true"/"false" to
// booleans, and so on.
func coercePrimitive(v any, declared Descriptor) (any, error) {
	cv, ok := toCtyScalar(v)
	if !ok {
		return nil, mismatch(declared, v)
	}

	converted, err := convert.Convert(cv, declared.prim)
	if err != nil {
		return nil, mismatch(declared, v)
	}

	switch {
	case declared.prim == cty.String:
		return converted.AsString(), nil
	case declared.prim == cty.Bool:
		return converted.True(), nil
	default:
		bf := converted.AsBigFloat()
		if declared.wantInt {
			i, acc := bf.Int64()
			if acc != 0 || !bf.IsInt() {
				return nil, schema.NewErrorf(schema.ErrCodeTypeMismatch,
					"expected integer, got non-integral number %s", bf.Text('g', -1)).
					WithDetails(map[string]any{"declared": declared.Describe()})
			}
			return int(i), nil
		}
		f, _ := bf.Float64()
		return f, nil
	}
}

// toCtyScalar lifts a Go scalar into a cty value. Containers and rich
// objects have no scalar representation and report false.
func toCtyScalar(v any) (cty.Value, bool) {
	switch val := v.(type) {
	case string:
		return cty.StringVal(val), true
	case bool:
		return cty.BoolVal(val), true
	case int:
		return cty.NumberIntVal(int64(val)), true
	case int8:
		return cty.NumberIntVal(int64(val)), true
	case int16:
		return cty.NumberIntVal(int64(val)), true
	case int32:
		return cty.NumberIntVal(int64(val)), true
	case int64:
		return cty.NumberIntVal(val), true
	case uint:
		return cty.NumberUIntVal(uint64(val)), true
	case uint8:
		return cty.NumberUIntVal(uint64(val)), true
	case uint16:
		return cty.NumberUIntVal(uint64(val)), true
	case uint32:
		return cty.NumberUIntVal(uint64(val)), true
	case uint64:
		return cty.NumberUIntVal(val), true
	case float32:
		return cty.NumberFloatVal(float64(val)), true
	case float64:
		return cty.NumberFloatVal(val), true
	default:
		return cty.NilVal, false
	}
}

// toSlice normalizes any slice value to []any. Typed slices (for example
// []*schema.Document from an unsafe render) are flattened reflectively.
func toSlice(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}

	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// mismatch builds a TYPE_MISMATCH error naming expected vs actual shape.
func mismatch(declared Descriptor, v any) *schema.FlowError {
	return schema.NewErrorf(schema.ErrCodeTypeMismatch,
		"expected %s, got %s", declared.Describe(), describeActual(v)).
		WithDetails(map[string]any{
			"declared": declared.Describe(),
			"actual":   describeActual(v),
		})
}

// describeActual names the runtime shape of a value for error messages.
func describeActual(v any) string {
	if v == nil {
		return "nil"
	}
	if kind, ok := schema.KindOf(v); ok {
		return string(kind)
	}

	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32, float64:
		return "float"
	case map[string]any:
		return "mapping"
	case []any:
		return "sequence"
	}

	if reflect.ValueOf(v).Kind() == reflect.Slice {
		return "sequence"
	}
	return fmt.Sprintf("%T", v)
}
