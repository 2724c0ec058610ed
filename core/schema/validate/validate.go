// Package validate checks JSON exports of context documents against the
// embedded v1 schema, or against a caller-supplied schema file.
package validate

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/kaptinlin/jsonschema"
)

//go:embed context_v1.json
var contextV1Schema []byte

// ValidateDocumentJSON validates a document export against the embedded v1
// document schema.
func ValidateDocumentJSON(data []byte) error {
	schema, err := compileSchema(contextV1Schema)
	if err != nil {
		return fmt.Errorf("embedded document schema: %w", err)
	}
	return validateJSON(schema, data)
}

// ValidateJSONFile validates a JSON file against an external schema file.
func ValidateJSONFile(schemaPath, jsonPath string) error {
	schema, err := loadSchema(schemaPath)
	if err != nil {
		return err
	}
	// #nosec G304 -- json path is explicit local user input.
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("read json: %w", err)
	}
	return validateJSON(schema, data)
}

// ValidateJSON validates raw JSON against an external schema file.
func ValidateJSON(schemaPath string, data []byte) error {
	schema, err := loadSchema(schemaPath)
	if err != nil {
		return err
	}
	return validateJSON(schema, data)
}

func loadSchema(schemaPath string) (*jsonschema.Schema, error) {
	// #nosec G304 -- schema path is explicit local user input.
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return compileSchema(data)
}

func compileSchema(data []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile(data)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func validateJSON(schema *jsonschema.Schema, data []byte) error {
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}
