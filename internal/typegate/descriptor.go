// Package typegate validates and coerces rendered template values against
// declared output types. The safety policy check always runs before any
// structural check: a disallowed rich value is rejected even when the
// declared type would accept it.
package typegate

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/rendis/flowgate/pkg/schema"
)

// descKind discriminates the descriptor variants.
type descKind int

const (
	kindAny descKind = iota
	kindPrimitive
	kindMapping
	kindList
	kindRich
)

// Descriptor is a declared type: a primitive kind, a sequence of a declared
// element type, a string-keyed mapping, one of the enumerable rich object
// kinds, or any. Primitive structure is carried as a cty.Type so coercion
// can lean on cty conversion semantics.
type Descriptor struct {
	kind    descKind
	prim    cty.Type
	wantInt bool
	rich    schema.RichKind
	elem    *Descriptor
}

// Any accepts every value (subject to the safety policy).
func Any() Descriptor { return Descriptor{kind: kindAny} }

// String declares a string.
func String() Descriptor { return Descriptor{kind: kindPrimitive, prim: cty.String} }

// Integer declares a whole number.
func Integer() Descriptor { return Descriptor{kind: kindPrimitive, prim: cty.Number, wantInt: true} }

// Float declares a number.
func Float() Descriptor { return Descriptor{kind: kindPrimitive, prim: cty.Number} }

// Bool declares a boolean.
func Bool() Descriptor { return Descriptor{kind: kindPrimitive, prim: cty.Bool} }

// Mapping declares a string-keyed mapping with unconstrained values.
func Mapping() Descriptor { return Descriptor{kind: kindMapping} }

// ListOf declares an ordered sequence whose elements coerce to elem.
func ListOf(elem Descriptor) Descriptor {
	return Descriptor{kind: kindList, elem: &elem}
}

// Rich declares one of the fixed rich object kinds.
func Rich(kind schema.RichKind) Descriptor {
	return Descriptor{kind: kindRich, rich: kind}
}

// Parse builds a Descriptor from its textual form, e.g. "string", "integer",
// "boolean", "mapping", "any", "document", "list(integer)", "list(document)".
func Parse(s string) (Descriptor, error) {
	name := strings.ToLower(strings.TrimSpace(s))

	if rest, ok := strings.CutPrefix(name, "list("); ok {
		inner, ok := strings.CutSuffix(rest, ")")
		if !ok {
			return Descriptor{}, schema.NewErrorf(schema.ErrCodeValidation,
				"malformed type %q: missing closing parenthesis", s)
		}
		elem, err := Parse(inner)
		if err != nil {
			return Descriptor{}, err
		}
		return ListOf(elem), nil
	}

	switch name {
	case "", "any":
		return Any(), nil
	case "string", "str":
		return String(), nil
	case "int", "integer":
		return Integer(), nil
	case "float", "number":
		return Float(), nil
	case "bool", "boolean":
		return Bool(), nil
	case "map", "mapping":
		return Mapping(), nil
	case string(schema.RichKindMessage):
		return Rich(schema.RichKindMessage), nil
	case string(schema.RichKindDocument):
		return Rich(schema.RichKindDocument), nil
	case string(schema.RichKindAnswer):
		return Rich(schema.RichKindAnswer), nil
	default:
		return Descriptor{}, schema.NewErrorf(schema.ErrCodeValidation,
			"unknown type %q", s)
	}
}

// IsRich reports whether the descriptor names a rich kind, directly or as a
// list element.
func (d Descriptor) IsRich() bool {
	switch d.kind {
	case kindRich:
		return true
	case kindList:
		return d.elem.IsRich()
	default:
		return false
	}
}

// Describe returns the canonical shape name of the declared type.
func (d Descriptor) Describe() string {
	switch d.kind {
	case kindAny:
		return "any"
	case kindMapping:
		return "mapping"
	case kindList:
		return fmt.Sprintf("list(%s)", d.elem.Describe())
	case kindRich:
		return string(d.rich)
	case kindPrimitive:
		switch {
		case d.prim == cty.String:
			return "string"
		case d.prim == cty.Bool:
			return "boolean"
		case d.wantInt:
			return "integer"
		default:
			return "float"
		}
	default:
		return "unknown"
	}
}
