package validation

import (
	"fmt"

	"github.com/rendis/flowgate/internal/typegate"
	"github.com/rendis/flowgate/pkg/schema"
)

// reservedNames are environment names claimed by the template builtins;
// declared inputs may not shadow them.
var reservedNames = map[string]bool{
	"message":  true,
	"document": true,
	"answer":   true,
}

// validateRouterSemantic performs the checks JSON Schema cannot express:
// unique output slots, fallback not shadowing a route slot, parseable type
// names, language/input consistency.
func validateRouterSemantic(def *schema.RouterDefinition) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	validateInputNames(def.Inputs, result)

	seen := make(map[string]int, len(def.Routes))
	for i, rt := range def.Routes {
		path := fmt.Sprintf("routes[%d]", i)

		if prev, exists := seen[rt.Output]; exists {
			result.AddError(path+".output", schema.ErrCodeValidation,
				fmt.Sprintf("duplicate output slot %q (already used by routes[%d])", rt.Output, prev))
		} else {
			seen[rt.Output] = i
		}

		if _, err := typegate.Parse(rt.OutputType); err != nil {
			result.AddError(path+".output_type", schema.ErrCodeValidation, err.Error())
		}

		validateLanguage(rt.ConditionLanguage, def.Inputs, path+".condition_language", result)
		if rt.Transform != "" {
			validateLanguage(rt.TransformLanguage, def.Inputs, path+".transform_language", result)
		} else if rt.TransformLanguage != "" {
			result.AddWarning(path+".transform_language", schema.ErrCodeValidation,
				"transform_language has no effect without a transform")
		}
	}

	if _, exists := seen[def.Fallback]; exists {
		result.AddError("fallback", schema.ErrCodeValidation,
			fmt.Sprintf("fallback slot %q collides with a route output slot", def.Fallback))
	}

	if def.Input != "" && len(def.Inputs) > 0 && !contains(def.Inputs, def.Input) {
		result.AddError("input", schema.ErrCodeValidation,
			fmt.Sprintf("forwarded input %q is not in the declared inputs", def.Input))
	}

	return result
}

// validateAdapterSemantic performs the adapter checks JSON Schema cannot express.
func validateAdapterSemantic(def *schema.AdapterDefinition) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	validateInputNames(def.Inputs, result)
	validateLanguage(def.Language, def.Inputs, "language", result)

	if _, err := typegate.Parse(def.OutputType); err != nil {
		result.AddError("output_type", schema.ErrCodeValidation, err.Error())
	}

	return result
}

// validateLanguage checks a declared expression language and its input
// requirements. The empty language defaults to expr.
func validateLanguage(lang schema.ExpressionLanguage, inputs []string, path string, result *schema.ValidationResult) {
	switch lang {
	case "", schema.LanguageExpr, schema.LanguageJQ:
	case schema.LanguageCEL:
		if len(inputs) == 0 {
			result.AddError(path, schema.ErrCodeValidation,
				"the cel language requires declared inputs")
		}
	default:
		result.AddError(path, schema.ErrCodeValidation,
			fmt.Sprintf("unknown expression language %q (available: expr, cel, jq)", lang))
	}
}

// validateInputNames rejects duplicate and reserved input names.
func validateInputNames(inputs []string, result *schema.ValidationResult) {
	seen := make(map[string]bool, len(inputs))
	for i, name := range inputs {
		path := fmt.Sprintf("inputs[%d]", i)
		if seen[name] {
			result.AddError(path, schema.ErrCodeValidation,
				fmt.Sprintf("duplicate input name %q", name))
		}
		seen[name] = true

		if reservedNames[name] {
			result.AddError(path, schema.ErrCodeValidation,
				fmt.Sprintf("input name %q shadows a builtin", name))
		}
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
