package fields

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/churnscope/churnscope/constants"
)

// Per-field JSON Schemas (draft 2020-12 subset), built as generic maps and
// compiled once. They pin down key names and value types without requiring
// every key: upstream exports omit fields freely, and extractors default the
// gaps. A payload failing its schema is treated as malformed and the
// extractor falls back to defaults for that row.

func numeric() map[string]any {
	return map[string]any{"type": []string{"number", "string"}}
}

func flag() map[string]any {
	return map[string]any{"type": []string{"boolean", "string"}}
}

func recordArray(props map[string]any) map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":       "object",
			"properties": props,
		},
	}
}

// fieldSchemas maps each semi-structured field to its payload schema.
var fieldSchemas = map[constants.FieldName]map[string]any{
	constants.PaymentHistory: recordArray(map[string]any{
		"Amount":        numeric(),
		"Due_Date":      map[string]any{"type": "string"},
		"Paid_Date":     map[string]any{"type": "string"},
		"Days_Late":     numeric(),
		"Late":          flag(),
		"Late_Payments": numeric(),
	}),
	constants.ServiceInteractions: recordArray(map[string]any{
		"Type":       map[string]any{"type": "string"},
		"Date":       map[string]any{"type": "string"},
		"Resolution": map[string]any{"type": "string"},
	}),
	constants.EngagementMetrics: {
		"type": "object",
		"properties": map[string]any{
			"Logins":    numeric(),
			"Frequency": map[string]any{"type": "string"},
		},
	},
	constants.Feedback: {
		"type": []string{"object", "array"},
		"properties": map[string]any{
			"Rating":  numeric(),
			"Comment": map[string]any{"type": []string{"string", "null"}},
		},
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"Rating":  numeric(),
				"Comment": map[string]any{"type": []string{"string", "null"}},
			},
		},
	},
	constants.WebsiteUsage: {
		"type": "object",
		"properties": map[string]any{
			"PageViews":          numeric(),
			"TimeSpent(minutes)": numeric(),
		},
	},
	constants.MarketingCommunication: recordArray(map[string]any{
		"Date":         map[string]any{"type": "string"},
		"EmailOpened":  flag(),
		"Email_Opened": flag(),
		"Responded":    flag(),
	}),
	constants.PurchaseHistory: recordArray(map[string]any{
		"Amount": numeric(),
		"Date":   map[string]any{"type": "string"},
	}),
	constants.ClickstreamData: recordArray(map[string]any{
		"Action":    map[string]any{"type": "string"},
		"Page":      map[string]any{"type": "string"},
		"Timestamp": map[string]any{"type": "string"},
	}),
}

var compiledSchemas = mustCompileAll()

func mustCompileAll() map[constants.FieldName]*jsonschema.Schema {
	out := make(map[constants.FieldName]*jsonschema.Schema, len(fieldSchemas))
	for field, schemaMap := range fieldSchemas {
		s, err := compileSchema(schemaMap)
		if err != nil {
			panic(fmt.Sprintf("fields: compile %s schema: %v", field, err))
		}
		out[field] = s
	}
	return out
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// Schema returns the payload schema for a field, for documentation and tests.
func Schema(field constants.FieldName) (map[string]any, bool) {
	s, ok := fieldSchemas[field]
	return s, ok
}

// conforms validates a decoded payload against the field's compiled schema.
func conforms(field constants.FieldName, v any) bool {
	s, ok := compiledSchemas[field]
	if !ok {
		return false
	}
	return s.Validate(v) == nil
}
