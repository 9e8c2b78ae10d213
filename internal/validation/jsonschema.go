package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rendis/flowgate/pkg/schema"
)

// routerSchemaJSON is the JSON Schema for RouterDefinition validation.
// Embedded as a constant to avoid filesystem dependencies.
const routerSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flowgate.dev/schemas/router.json",
  "type": "object",
  "required": ["routes", "fallback"],
  "properties": {
    "name": { "type": "string" },
    "inputs": {
      "type": "array",
      "items": { "type": "string", "minLength": 1 }
    },
    "routes": {
      "type": "array",
      "minItems": 1,
      "items": { "$ref": "#/$defs/route" }
    },
    "fallback": { "type": "string", "minLength": 1 },
    "input": { "type": "string" },
    "unsafe": { "type": "boolean" }
  },
  "additionalProperties": false,
  "$defs": {
    "route": {
      "type": "object",
      "required": ["condition", "output"],
      "properties": {
        "condition": { "type": "string", "minLength": 1 },
        "condition_language": {
          "type": "string",
          "enum": ["expr", "cel", "jq"]
        },
        "output": { "type": "string", "minLength": 1 },
        "output_type": { "type": "string" },
        "transform": { "type": "string" },
        "transform_language": {
          "type": "string",
          "enum": ["expr", "cel", "jq"]
        },
        "input": { "type": "string" }
      },
      "additionalProperties": false
    }
  }
}`

// adapterSchemaJSON is the JSON Schema for AdapterDefinition validation.
const adapterSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flowgate.dev/schemas/adapter.json",
  "type": "object",
  "required": ["template", "output_type"],
  "properties": {
    "name": { "type": "string" },
    "inputs": {
      "type": "array",
      "items": { "type": "string", "minLength": 1 }
    },
    "template": { "type": "string", "minLength": 1 },
    "language": {
      "type": "string",
      "enum": ["expr", "cel", "jq"]
    },
    "output_type": { "type": "string", "minLength": 1 },
    "output": { "type": "string" },
    "unsafe": { "type": "boolean" }
  },
  "additionalProperties": false
}`

var (
	compileOnce   sync.Once
	routerSchema  *jsonschema.Schema
	adapterSchema *jsonschema.Schema
	compileErr    error
)

// compiledSchemas compiles the embedded definition schemas once per process.
// The set of schemas is fixed, so the cache never needs eviction.
func compiledSchemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	compileOnce.Do(func() {
		routerSchema, compileErr = compileSchema("https://flowgate.dev/schemas/router.json", routerSchemaJSON)
		if compileErr != nil {
			return
		}
		adapterSchema, compileErr = compileSchema("https://flowgate.dev/schemas/adapter.json", adapterSchemaJSON)
	})
	return routerSchema, adapterSchema, compileErr
}

func compileSchema(url, raw string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema %s: %w", url, err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", url, err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", url, err)
	}
	return compiled, nil
}

// validateStructural validates a definition against a compiled JSON Schema,
// converting violations into a ValidationResult.
func validateStructural(compiled *jsonschema.Schema, def any) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	doc, err := toJSONValue(def)
	if err != nil {
		result.AddError("/", schema.ErrCodeValidation, "failed to serialize definition: "+err.Error())
		return result
	}

	if err := compiled.Validate(doc); err != nil {
		verr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			result.AddError("/", schema.ErrCodeValidation, err.Error())
			return result
		}
		for _, violation := range collectViolations(verr) {
			result.AddError("/", schema.ErrCodeValidation, violation)
		}
	}

	return result
}

// toJSONValue round-trips a Go value through JSON encoding/decoding so that
// numeric values become json.Number (required by the jsonschema library).
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// collectViolations walks a ValidationError tree and collects leaf error
// messages with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
