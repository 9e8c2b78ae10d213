package schema

// ComponentKind enumerates the component kinds a definition document can declare.
type ComponentKind string

const (
	ComponentKindRouter  ComponentKind = "router"
	ComponentKindAdapter ComponentKind = "adapter"
)

// ExpressionLanguage selects the engine used for a condition or transform.
type ExpressionLanguage string

const (
	LanguageExpr ExpressionLanguage = "expr"
	LanguageCEL  ExpressionLanguage = "cel"
	LanguageJQ   ExpressionLanguage = "jq"
)

// RouterDefinition is the declarative configuration for a conditional router.
// Routes are evaluated in declaration order; the first matching condition wins.
type RouterDefinition struct {
	Name string `json:"name" yaml:"name"`
	// Inputs declares the named inputs bound into every condition and
	// transform environment. Required when any entry uses the cel
	// language; otherwise inferred per invocation.
	Inputs   []string          `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Routes   []RouteDefinition `json:"routes" yaml:"routes"`
	Fallback string            `json:"fallback" yaml:"fallback"`
	// Input names the input forwarded when a matched entry (or the
	// fallback) has no transform and no entry-level input. Optional when
	// every invocation carries exactly one input.
	Input  string `json:"input,omitempty" yaml:"input,omitempty"`
	Unsafe bool   `json:"unsafe,omitempty" yaml:"unsafe,omitempty"`
}

// RouteDefinition is a single entry in a router's route table.
type RouteDefinition struct {
	// Condition is a template that must render to a boolean.
	Condition string `json:"condition" yaml:"condition"`
	// ConditionLanguage selects the condition engine (default: expr).
	ConditionLanguage ExpressionLanguage `json:"condition_language,omitempty" yaml:"condition_language,omitempty"`
	// Output is the slot name populated when the condition matches.
	Output string `json:"output" yaml:"output"`
	// OutputType is the declared type of the emitted value (default: any).
	OutputType string `json:"output_type,omitempty" yaml:"output_type,omitempty"`
	// Transform, when set, renders the emitted value. When absent the
	// matched input is forwarded unchanged.
	Transform string `json:"transform,omitempty" yaml:"transform,omitempty"`
	// TransformLanguage selects the transform engine (default: expr).
	TransformLanguage ExpressionLanguage `json:"transform_language,omitempty" yaml:"transform_language,omitempty"`
	// Input names the input forwarded when Transform is absent. Optional
	// when the router has exactly one declared input.
	Input string `json:"input,omitempty" yaml:"input,omitempty"`
}

// AdapterDefinition is the declarative configuration for an output adapter.
type AdapterDefinition struct {
	Name string `json:"name" yaml:"name"`
	// Inputs declares the named inputs bound into the template
	// environment. Optional unless the cel language is used.
	Inputs   []string           `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Template string             `json:"template" yaml:"template"`
	Language ExpressionLanguage `json:"language,omitempty" yaml:"language,omitempty"`
	// OutputType is the declared type the rendered value must coerce to.
	OutputType string `json:"output_type" yaml:"output_type"`
	// Output is the single output slot name (default: "output").
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
	Unsafe bool   `json:"unsafe,omitempty" yaml:"unsafe,omitempty"`
}
