package expressions

import (
	"github.com/rendis/flowgate/pkg/schema"
)

// ForLanguage constructs the engine for a declared expression language.
// varNames is the component's declared input list; the cel language needs it
// to build its typed environment, the others infer names at render time.
func ForLanguage(lang schema.ExpressionLanguage, varNames []string) (Engine, error) {
	switch lang {
	case "", schema.LanguageExpr:
		return NewExprEngine(), nil
	case schema.LanguageCEL:
		if len(varNames) == 0 {
			return nil, schema.NewError(schema.ErrCodeValidation,
				"the cel language requires declared inputs")
		}
		return NewCELEngine(varNames)
	case schema.LanguageJQ:
		return NewGoJQEngine(), nil
	default:
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"unknown expression language %q (available: expr, cel, jq)", lang)
	}
}
