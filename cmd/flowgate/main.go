// Command flowgate validates and dry-runs router and adapter definitions so
// pipeline authors can exercise a component against sample inputs before
// wiring it into an execution engine.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rendis/flowgate/internal/adapter"
	"github.com/rendis/flowgate/internal/logging"
	"github.com/rendis/flowgate/internal/router"
	"github.com/rendis/flowgate/internal/validation"
	"github.com/rendis/flowgate/pkg/schema"
)

// Document is the on-disk wrapper for a component definition.
type Document struct {
	Kind    schema.ComponentKind      `json:"kind" yaml:"kind"`
	Router  *schema.RouterDefinition  `json:"router,omitempty" yaml:"router,omitempty"`
	Adapter *schema.AdapterDefinition `json:"adapter,omitempty" yaml:"adapter,omitempty"`
}

func main() {
	cfg := loadConfig()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		err = runValidate(os.Args[2:])
	case "run":
		err = runComponent(logger, os.Args[2:])
	case "version":
		printVersion()
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  flowgate validate <definition.(yaml|json)>
  flowgate run <definition.(yaml|json)> <inputs.json>
  flowgate version`)
}

func newLogger(cfg Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var inner slog.Handler
	if cfg.LogFormat == "json" {
		inner = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		inner = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(logging.NewCorrelationHandler(inner))
}

// runValidate loads a definition document and reports validation issues.
func runValidate(args []string) error {
	if len(args) != 1 {
		usage()
		return fmt.Errorf("validate takes exactly one definition file")
	}

	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}

	var result *schema.ValidationResult
	switch doc.Kind {
	case schema.ComponentKindRouter:
		result = validation.ValidateRouter(doc.Router)
	case schema.ComponentKindAdapter:
		result = validation.ValidateAdapter(doc.Adapter)
	default:
		return fmt.Errorf("unknown component kind %q (available: router, adapter)", doc.Kind)
	}

	for _, w := range result.Warnings {
		fmt.Printf("warning: %s: %s\n", w.Path, w.Message)
	}
	for _, e := range result.Errors {
		fmt.Printf("error: %s: %s\n", e.Path, e.Message)
	}

	if !result.Valid() {
		return fmt.Errorf("definition is invalid (%d errors)", len(result.Errors))
	}

	fmt.Println("definition is valid")
	return nil
}

// runComponent builds the component and evaluates it against sample inputs.
func runComponent(logger *slog.Logger, args []string) error {
	if len(args) != 2 {
		usage()
		return fmt.Errorf("run takes a definition file and an inputs file")
	}

	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}

	inputs, err := loadInputs(args[1])
	if err != nil {
		return err
	}

	ctx := logging.WithPipelineID(context.Background(), uuid.NewString())

	var outputs map[string]any
	switch doc.Kind {
	case schema.ComponentKindRouter:
		r, err := router.New(*doc.Router, logger)
		if err != nil {
			return err
		}
		outputs, err = r.Route(ctx, inputs)
		if err != nil {
			return err
		}
	case schema.ComponentKindAdapter:
		a, err := adapter.New(*doc.Adapter, logger)
		if err != nil {
			return err
		}
		outputs, err = a.AdaptSlots(ctx, inputs)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown component kind %q (available: router, adapter)", doc.Kind)
	}

	rendered, err := json.MarshalIndent(outputs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode outputs: %w", err)
	}
	fmt.Println(string(rendered))
	return nil
}

// loadDocument reads a YAML or JSON definition document.
func loadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}

	var doc Document
	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse definition: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse definition: %w", err)
		}
	}

	switch doc.Kind {
	case schema.ComponentKindRouter:
		if doc.Router == nil {
			return nil, fmt.Errorf("kind is router but no router block is present")
		}
	case schema.ComponentKindAdapter:
		if doc.Adapter == nil {
			return nil, fmt.Errorf("kind is adapter but no adapter block is present")
		}
	}

	return &doc, nil
}

// loadInputs reads the named inputs for one invocation from a JSON file.
func loadInputs(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	var inputs map[string]any
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("parse inputs: %w", err)
	}
	return inputs, nil
}
