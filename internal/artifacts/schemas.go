package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// JSON Schemas for the artifact manifests, validated before decoding so a
// truncated or hand-edited artifact fails with a precise message.

var classifierSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"type", "weights", "bias"},
	"properties": map[string]any{
		"type":    map[string]any{"type": "string", "minLength": 1},
		"version": map[string]any{"type": "string"},
		"weights": map[string]any{
			"type":                 "object",
			"minProperties":        1,
			"additionalProperties": map[string]any{"type": "number"},
		},
		"bias": map[string]any{"type": "number"},
	},
}

var scalerSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"columns", "means", "stds"},
	"properties": map[string]any{
		"columns": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"type": "string", "minLength": 1},
		},
		"means": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "number"},
		},
		"stds": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "number"},
		},
	},
}

var featuresSchema = map[string]any{
	"type":     "array",
	"minItems": 1,
	"items":    map[string]any{"type": "string", "minLength": 1},
}

// validateJSON validates raw bytes against a schema map.
func validateJSON(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
