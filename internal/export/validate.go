package export

import (
	"bytes"
	"embed"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaBase = "https://ibc-rag.local/schema/"

// Record kinds
const (
	KindProcessed = "processed"
	KindMerged    = "merged"
)

//go:embed schema/*.json
var schemaFS embed.FS

// ErrInvalidRecord indicates a record that does not match its schema
var ErrInvalidRecord = errors.New("invalid record")

// Validator checks output records against their JSON schemas
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compiles the embedded record schemas
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	for _, name := range []string{"common", KindProcessed, KindMerged} {
		data, err := schemaFS.ReadFile("schema/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse schema %s: %w", name, err)
		}
		if err := compiler.AddResource(schemaBase+name+".json", doc); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", name, err)
		}
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, 2)}
	for _, kind := range []string{KindProcessed, KindMerged} {
		schema, err := compiler.Compile(schemaBase + kind + ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", kind, err)
		}
		v.schemas[kind] = schema
	}
	return v, nil
}

// Validate checks an encoded record of the given kind
func (v *Validator) Validate(kind string, data []byte) error {
	schema, ok := v.schemas[kind]
	if !ok {
		return fmt.Errorf("unknown record kind %q", kind)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	if err := schema.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %s", ErrInvalidRecord, firstCause(verr))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// firstCause returns the innermost message of the first failing branch
func firstCause(err *jsonschema.ValidationError) string {
	for len(err.Causes) > 0 {
		err = err.Causes[0]
	}
	return err.Error()
}
