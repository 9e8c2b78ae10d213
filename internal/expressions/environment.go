package expressions

// BuildEnvironment creates the per-invocation evaluation environment from a
// component's named inputs. Structural data is deep-copied so evaluation can
// never mutate caller-owned containers. Rich domain objects are bound by
// reference: the template layer treats them as opaque handles, never as
// targets for mutation.
//
// The environment lives for a single invocation and is discarded when the
// call returns; nothing is cached across calls.
func BuildEnvironment(inputs map[string]any) map[string]any {
	if inputs == nil {
		return map[string]any{}
	}
	return deepCopyMap(inputs)
}

// deepCopyMap creates a deep copy of a map[string]any.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = deepCopyAny(v)
	}
	return cp
}

// deepCopyAny recursively deep-copies a value. Maps and slices are copied;
// primitives are value types; everything else (including rich objects) is
// shared by reference.
func deepCopyAny(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = deepCopyAny(item)
		}
		return cp
	default:
		return v
	}
}
