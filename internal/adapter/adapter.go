// Package adapter implements the output adapter component: a single
// transformation template rendered against named inputs, with the result
// coerced against a declared output type before emission.
package adapter

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

// DefaultSlot is the output slot name used when the definition declares none.
const DefaultSlot = "output"

// Adapter transforms named inputs into a single declared-type output via one
// evaluated template. Configuration is immutable after construction, so
// concurrent Adapt calls on one instance are safe without locking.
type Adapter struct {
	name       string
	policy     safety.Policy
	template   *expressions.Template
	outputType typegate.Descriptor
	slot       string
	declared   []string
	logger     *slog.Logger
}

// New builds an Adapter from its definition. The template is compiled
// eagerly so authoring errors surface here. A nil logger falls back to
// slog.Default.
func New(def schema.AdapterDefinition, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := validation.ValidateAdapter(&def).ToError(); err != nil {
		return nil, wrap(err, def.Name)
	}

	policy := safety.NewPolicy(def.Unsafe)

	engine, err := expressions.ForLanguage(def.Language, def.Inputs)
	if err != nil {
		return nil, wrap(err, def.Name)
	}

	tmpl, err := expressions.NewTemplate(def.Template, engine, policy)
	if err != nil {
		return nil, wrap(err, def.Name)
	}

	outputType, err := typegate.Parse(def.OutputType)
	if err != nil {
		return nil, wrap(err, def.Name)
	}

	slot := def.Output
	if slot == "" {
		slot = DefaultSlot
	}

	return &Adapter{
		name:       def.Name,
		policy:     policy,
		template:   tmpl,
		outputType: outputType,
		slot:       slot,
		declared:   def.Inputs,
		logger:     logger,
	}, nil
}

// Name returns the component name.
func (a *Adapter) Name() string {
	return a.name
}

// Slot returns the single output slot name.
func (a *Adapter) Slot() string {
	return a.slot
}

// Adapt renders the template against the named inputs and coerces the result
// to the declared output type. Any evaluation or coercion failure fails the
// whole invocation; no partial or default output is produced. Adapt is
// idempotent for a fixed (template, inputs, policy).
func (a *Adapter) Adapt(ctx context.Context, inputs map[string]any) (any, error) {
	ctx = logging.WithComponentID(ctx, a.name)
	ctx = logging.WithInvocationID(ctx, uuid.NewString())
	logger := logging.LogWith(ctx, a.logger)

	if err := a.checkDeclared(inputs); err != nil {
		return nil, err
	}

	env := expressions.BuildEnvironment(inputs)

	rendered, err := a.template.Render(ctx, env)
	if err != nil {
		return nil, wrap(err, a.name)
	}

	value, err := typegate.Coerce(rendered, a.outputType, a.policy)
	if err != nil {
		return nil, wrap(err, a.name)
	}

	logger.DebugContext(ctx, "adapted value",
		slog.String("slot", a.slot), slog.String("output_type", a.outputType.Describe()))
	return value, nil
}

// AdaptSlots is Adapt shaped as a slot map, for callers that consume
// components uniformly.
func (a *Adapter) AdaptSlots(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	value, err := a.Adapt(ctx, inputs)
	if err != nil {
		return nil, err
	}
	return map[string]any{a.slot: value}, nil
}

// checkDeclared verifies that every declared input was provided.
func (a *Adapter) checkDeclared(inputs map[string]any) error {
	for _, name := range a.declared {
		if _, ok := inputs[name]; !ok {
			return schema.NewErrorf(schema.ErrCodeUndefinedVariable,
				"declared input %q was not provided", name).
				WithComponent(a.name).
				WithDetails(map[string]any{"input": name, "declared": a.declared})
		}
	}
	return nil
}

// wrap attaches component context to an error, preserving an existing
// FlowError's code.
func wrap(err error, component string) error {
	var fe *schema.FlowError
	if errors.As(err, &fe) {
		if fe.Component == "" {
			fe.Component = component
		}
		return fe
	}
	return schema.NewError(schema.ErrCodeRuntime, err.Error()).
		WithComponent(component).
		WithCause(err)
}
