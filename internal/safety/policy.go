// Package safety defines the evaluation sandbox boundary. A Policy is fixed
// at component construction time and decides whether rich domain objects
// (chat messages, documents, answers) may flow through template evaluation.
package safety

import (
	"reflect"

	"github.com/rendis/flowgate/pkg/schema"
)

// OperationKind classifies operations an expression can perform that the
// policy may need to gate.
type OperationKind string

const (
	// OpConstructRich covers builtins that create a new rich object
	// instance (message(), document(), answer()).
	OpConstructRich OperationKind = "construct_rich"
	// OpAccessData covers plain variable, attribute, and index access over
	// primitive and structural data. Always permitted.
	OpAccessData OperationKind = "access_data"
)

// Policy is an immutable predicate object attached to each component at
// construction. The rich-kind allow-list is fixed at the system level
// (schema.RichKinds); only the unsafe toggle is user-configurable.
type Policy struct {
	unsafe bool
}

// NewPolicy creates a Policy. Passing unsafe=true is the single, explicit
// opt-in that allows templates to reach, return, and construct rich objects.
func NewPolicy(unsafe bool) Policy {
	return Policy{unsafe: unsafe}
}

// Unsafe reports whether rich-object evaluation is permitted.
func (p Policy) Unsafe() bool {
	return p.unsafe
}

// Allows reports whether the given operation kind is permitted.
func (p Policy) Allows(op OperationKind) bool {
	switch op {
	case OpConstructRich:
		return p.unsafe
	default:
		return true
	}
}

// IsAllowed reports whether a rendered value may be emitted under this
// policy. Containers are walked transitively: a rich object nested anywhere
// inside a sequence or mapping is subject to the same restriction as a rich
// object at the top level.
func (p Policy) IsAllowed(v any) bool {
	if p.unsafe {
		return true
	}
	_, found := FindRich(v)
	return !found
}

// FindRich locates the first rich object reachable from v, walking
// containers transitively. The walk is reflective so typed containers
// ([]schema.Document, map[string]*schema.Document, ...) are covered the same
// as []any and map[string]any. Returns its kind and true if found.
func FindRich(v any) (schema.RichKind, bool) {
	if kind, ok := schema.KindOf(v); ok {
		return kind, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if kind, ok := FindRich(rv.Index(i).Interface()); ok {
				return kind, true
			}
		}
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if kind, ok := FindRich(iter.Value().Interface()); ok {
				return kind, true
			}
		}
	case reflect.Pointer:
		if !rv.IsNil() {
			return FindRich(rv.Elem().Interface())
		}
	}

	return "", false
}
