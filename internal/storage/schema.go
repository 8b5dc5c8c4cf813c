package storage

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/ticklist/internal/utils"
)

//go:embed tasks.schema.json
var embeddedSchema []byte

// EmbeddedSchemaName identifies the built-in schema in ValidationResult.Source.
const EmbeddedSchemaName = "embedded:tasks.schema.json"

// Validator checks task documents against a JSON Schema.
type Validator struct {
	schema *jsonschema.Schema
	source string
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Valid  bool
	Errors []error
	Source string
}

// NewValidator compiles the schema at schemaPath, or the embedded schema
// when schemaPath is empty.
func NewValidator(schemaPath string) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	if schemaPath == "" {
		if err := compiler.AddResource("tasks.schema.json", bytes.NewReader(embeddedSchema)); err != nil {
			return nil, fmt.Errorf("add embedded schema: %w", err)
		}
		schema, err := compiler.Compile("tasks.schema.json")
		if err != nil {
			return nil, fmt.Errorf("compile embedded schema: %w", err)
		}
		return &Validator{schema: schema, source: EmbeddedSchemaName}, nil
	}

	absPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("invalid schema path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("schema file: %w", err)
	}
	schema, err := compiler.Compile(absPath)
	if err != nil {
		return nil, fmt.Errorf("invalid schema file: %w", err)
	}
	return &Validator{schema: schema, source: absPath}, nil
}

// Source returns where the schema was loaded from.
func (v *Validator) Source() string {
	return v.source
}

// Validate checks raw document bytes. Schema violations are reported as
// *ValidationError values with dot paths.
func (v *Validator) Validate(data []byte) *ValidationResult {
	result := &ValidationResult{Valid: true, Errors: make([]error, 0), Source: v.source}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Err: fmt.Errorf("failed to parse document: %w", err),
		})
		return result
	}

	if err := v.schema.Validate(doc); err != nil {
		result.Valid = false
		appendSchemaErrors(result, err)
	}
	return result
}

func appendSchemaErrors(result *ValidationResult, err error) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.Errors = append(result.Errors, err)
		return
	}
	collectSchemaErrors(result, ve)
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}
	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: utils.JSONPointerToPath(err.InstanceLocation),
			Err:  fmt.Errorf("%s", err.Message),
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}
