// Package tool holds the descriptor catalog the orchestrator consults
// for every tool call the model requests. The catalog classifies and
// validates; it never enforces permissions itself — that is the
// workflow state machine's job.
package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/opsmedic/opsmedic/internal/domain/model"
)

// Handler executes one tool call. The returned string is handed back
// to the model verbatim as the tool result payload. An error marks
// the execution as failed; it is converted to a result string by the
// orchestrator, never propagated.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Descriptor describes one tool: its unique name, capability class,
// human-readable description, JSON Schema for its arguments and the
// handler reference. The handler is never serialized to a vendor.
type Descriptor struct {
	Name        string
	Capability  model.Capability
	Description string
	Schema      map[string]any
	Handler     Handler
}

var nameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type entry struct {
	descriptor Descriptor
	compiled   *jsonschema.Schema
}

// Catalog is a name-keyed map of tool descriptors. It is built once
// at process start and only consulted afterwards; Register must not
// be called once the catalog has been handed to an orchestrator.
type Catalog struct {
	entries map[string]entry
	order   []string
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]entry)}
}

// Register adds a descriptor to the catalog. Duplicate names, invalid
// capabilities and schemas that fail to compile are rejected.
func (c *Catalog) Register(d Descriptor) error {
	if !nameRe.MatchString(d.Name) {
		return fmt.Errorf("invalid tool name: %q", d.Name)
	}
	if !d.Capability.IsValid() {
		return fmt.Errorf("tool %s: invalid capability %q", d.Name, d.Capability)
	}
	if d.Handler == nil {
		return fmt.Errorf("tool %s: handler is required", d.Name)
	}
	if _, exists := c.entries[d.Name]; exists {
		return fmt.Errorf("tool already registered: %s", d.Name)
	}

	compiled, err := compileSchema(d.Name, d.Schema)
	if err != nil {
		return fmt.Errorf("tool %s: %w", d.Name, err)
	}

	c.entries[d.Name] = entry{descriptor: d, compiled: compiled}
	c.order = append(c.order, d.Name)
	return nil
}

// Lookup returns the descriptor for a tool name
func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	e, ok := c.entries[name]
	if !ok {
		return Descriptor{}, false
	}
	return e.descriptor, true
}

// Classify returns the capability class of a tool name
func (c *Catalog) Classify(name string) (model.Capability, bool) {
	e, ok := c.entries[name]
	if !ok {
		return "", false
	}
	return e.descriptor.Capability, true
}

// Descriptors returns all descriptors in registration order. These
// are what the provider gateway exposes to the vendor as available
// functions.
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.entries[name].descriptor)
	}
	return out
}

// Len returns the number of registered tools
func (c *Catalog) Len() int {
	return len(c.entries)
}

// ValidateArguments checks model-supplied arguments against the
// tool's compiled schema. The args map must contain values produced
// by encoding/json (string, float64, bool, nil, []any, map).
func (c *Catalog) ValidateArguments(name string, args map[string]any) error {
	e, ok := c.entries[name]
	if !ok {
		return fmt.Errorf("tool not found: %s", name)
	}
	if e.compiled == nil {
		return nil
	}

	var value any = map[string]any{}
	if args != nil {
		value = args
	}
	if err := e.compiled.Validate(value); err != nil {
		return fmt.Errorf("arguments for %s rejected: %w", name, err)
	}
	return nil
}

func compileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	if schema == nil {
		return nil, nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	url := name + ".schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}
