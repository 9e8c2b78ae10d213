// Package router implements the conditional router component: an ordered
// route table of condition templates evaluated against named inputs, where
// the first matching entry decides which output slot receives the value.
package router

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rendis/flowgate/internal/expressions"
	"github.com/rendis/flowgate/internal/logging"
	"github.com/rendis/flowgate/internal/safety"
	"github.com/rendis/flowgate/internal/typegate"
	"github.com/rendis/flowgate/internal/validation"
	"github.com/rendis/flowgate/pkg/schema"
)

// Router routes an input to one of several named output slots based on
// evaluated boolean conditions. All configuration (route table, templates,
// safety policy) is immutable after construction, so concurrent Route calls
// on one instance are safe without locking.
type Router struct {
	name         string
	policy       safety.Policy
	routes       []route
	fallback     string
	defaultInput string
	declared     []string
	logger       *slog.Logger
}

// route is one compiled entry of the route table.
type route struct {
	condition  *expressions.Template
	output     string
	outputType typegate.Descriptor
	transform  *expressions.Template
	input      string
}

// New builds a Router from its definition. The definition is validated and
// every template compiled eagerly: a malformed condition or transform fails
// here, not on first Route call. A nil logger falls back to slog.Default.
func New(def schema.RouterDefinition, logger *slog.Logger) (*Router, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := validation.ValidateRouter(&def).ToError(); err != nil {
		return nil, wrap(err, def.Name, "")
	}

	policy := safety.NewPolicy(def.Unsafe)

	r := &Router{
		name:         def.Name,
		policy:       policy,
		fallback:     def.Fallback,
		defaultInput: def.Input,
		declared:     def.Inputs,
		logger:       logger,
	}

	for _, rd := range def.Routes {
		condEngine, err := expressions.ForLanguage(rd.ConditionLanguage, def.Inputs)
		if err != nil {
			return nil, wrap(err, def.Name, rd.Output)
		}
		cond, err := expressions.NewTemplate(rd.Condition, condEngine, policy)
		if err != nil {
			return nil, wrap(err, def.Name, rd.Output)
		}

		outputType, err := typegate.Parse(rd.OutputType)
		if err != nil {
			return nil, wrap(err, def.Name, rd.Output)
		}

		var transform *expressions.Template
		if rd.Transform != "" {
			tfEngine, err := expressions.ForLanguage(rd.TransformLanguage, def.Inputs)
			if err != nil {
				return nil, wrap(err, def.Name, rd.Output)
			}
			transform, err = expressions.NewTemplate(rd.Transform, tfEngine, policy)
			if err != nil {
				return nil, wrap(err, def.Name, rd.Output)
			}
		}

		input := rd.Input
		if input == "" {
			input = def.Input
		}

		r.routes = append(r.routes, route{
			condition:  cond,
			output:     rd.Output,
			outputType: outputType,
			transform:  transform,
			input:      input,
		})
	}

	return r, nil
}

// Name returns the component name.
func (r *Router) Name() string {
	return r.name
}

// Slots returns every output slot the router can populate, fallback last.
func (r *Router) Slots() []string {
	slots := make([]string, 0, len(r.routes)+1)
	for _, rt := range r.routes {
		slots = append(slots, rt.output)
	}
	return append(slots, r.fallback)
}

// Route evaluates the route table against the named inputs and returns a map
// with exactly one populated slot. Entries are tried in declaration order
// and the first condition that coerces to true wins; later entries are not
// evaluated. When no entry matches, the fallback slot receives the
// unmodified input — "no match" is a normal terminal state, never an error.
//
// Condition evaluation and coercion failures propagate as routing failures;
// they are never treated as the condition being false.
func (r *Router) Route(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	ctx = logging.WithComponentID(ctx, r.name)
	ctx = logging.WithInvocationID(ctx, uuid.NewString())
	logger := logging.LogWith(ctx, r.logger)

	if err := r.checkDeclared(inputs); err != nil {
		return nil, err
	}

	env := expressions.BuildEnvironment(inputs)

	for i, rt := range r.routes {
		matched, err := r.evalCondition(ctx, rt, env)
		if err != nil {
			return nil, wrap(err, r.name, rt.output)
		}
		if !matched {
			continue
		}

		value, err := r.emitValue(ctx, rt, env, inputs)
		if err != nil {
			return nil, wrap(err, r.name, rt.output)
		}

		logger.DebugContext(ctx, "route matched",
			slog.Int("entry", i), slog.String("slot", rt.output))
		return map[string]any{rt.output: value}, nil
	}

	// Fallback: forward the unmodified input. The safety policy still
	// applies to the emitted value.
	value, err := r.forwardInput(r.defaultInput, inputs)
	if err != nil {
		return nil, wrap(err, r.name, r.fallback)
	}
	checked, err := typegate.Coerce(value, typegate.Any(), r.policy)
	if err != nil {
		return nil, wrap(err, r.name, r.fallback)
	}

	logger.DebugContext(ctx, "no route matched, using fallback",
		slog.String("slot", r.fallback))
	return map[string]any{r.fallback: checked}, nil
}

// evalCondition renders one condition template and coerces it to a boolean.
func (r *Router) evalCondition(ctx context.Context, rt route, env map[string]any) (bool, error) {
	rendered, err := rt.condition.Render(ctx, env)
	if err != nil {
		return false, err
	}

	coerced, err := typegate.Coerce(rendered, typegate.Bool(), r.policy)
	if err != nil {
		return false, err
	}

	return coerced.(bool), nil
}

// emitValue produces the value for a matched entry: the rendered transform
// when one is configured, otherwise the forwarded input, both gated by the
// declared output type and the safety policy.
func (r *Router) emitValue(ctx context.Context, rt route, env, inputs map[string]any) (any, error) {
	var value any
	var err error

	if rt.transform != nil {
		value, err = rt.transform.Render(ctx, env)
		if err != nil {
			return nil, err
		}
	} else {
		value, err = r.forwardInput(rt.input, inputs)
		if err != nil {
			return nil, err
		}
	}

	return typegate.Coerce(value, rt.outputType, r.policy)
}

// forwardInput picks the input value forwarded when no transform applies.
func (r *Router) forwardInput(name string, inputs map[string]any) (any, error) {
	if name != "" {
		v, ok := inputs[name]
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeUndefinedVariable,
				"forwarded input %q was not provided", name).
				WithDetails(map[string]any{"input": name})
		}
		return v, nil
	}

	if len(inputs) == 1 {
		for _, v := range inputs {
			return v, nil
		}
	}

	return nil, schema.NewErrorf(schema.ErrCodeValidation,
		"cannot pick a forwarded input from %d inputs without an input name", len(inputs))
}

// checkDeclared verifies that every declared input was provided.
func (r *Router) checkDeclared(inputs map[string]any) error {
	for _, name := range r.declared {
		if _, ok := inputs[name]; !ok {
			return schema.NewErrorf(schema.ErrCodeUndefinedVariable,
				"declared input %q was not provided", name).
				WithComponent(r.name).
				WithDetails(map[string]any{"input": name, "declared": r.declared})
		}
	}
	return nil
}

// wrap attaches component and slot context to an error, preserving an
// existing FlowError's code.
func wrap(err error, component, slot string) error {
	var fe *schema.FlowError
	if errors.As(err, &fe) {
		if fe.Component == "" {
			fe.Component = component
		}
		if fe.Slot == "" {
			fe.Slot = slot
		}
		return fe
	}
	return schema.NewError(schema.ErrCodeRuntime, err.Error()).
		WithComponent(component).
		WithSlot(slot).
		WithCause(err)
}
