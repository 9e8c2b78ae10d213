// Package validation checks router and adapter definitions before component
// construction. Two stages: structural (JSON Schema Draft 2020-12) and
// semantic (slot uniqueness, type names, language/input consistency).
// Structural errors short-circuit the semantic stage.
package validation

import (
	"github.com/rendis/flowgate/pkg/schema"
)

// ValidateRouter runs the full validation pipeline on a router definition.
func ValidateRouter(def *schema.RouterDefinition) *schema.ValidationResult {
	if def == nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.ErrCodeValidation, "router definition is nil")
		return r
	}

	routerSchema, _, err := compiledSchemas()
	if err != nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.ErrCodeValidation, err.Error())
		return r
	}

	result := validateStructural(routerSchema, def)
	if !result.Valid() {
		return result
	}

	result.Merge(validateRouterSemantic(def))
	return result
}

// ValidateAdapter runs the full validation pipeline on an adapter definition.
func ValidateAdapter(def *schema.AdapterDefinition) *schema.ValidationResult {
	if def == nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.ErrCodeValidation, "adapter definition is nil")
		return r
	}

	_, adapterSchema, err := compiledSchemas()
	if err != nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.ErrCodeValidation, err.Error())
		return r
	}

	result := validateStructural(adapterSchema, def)
	if !result.Valid() {
		return result
	}

	result.Merge(validateAdapterSemantic(def))
	return result
}
