package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/medreport/constants"
)

// ResultJSONSchema describes the JSON shape of a Result.
func ResultJSONSchema() map[string]any {
	nullableNumber := map[string]any{"type": []any{"number", "null"}}

	metric := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"metric_key":       map[string]any{"type": "string", "minLength": 1},
			"metric_name":      map[string]any{"type": "string", "minLength": 1},
			"value":            map[string]any{"type": "number"},
			"unit":             map[string]any{"type": "string"},
			"reference_min":    nullableNumber,
			"reference_max":    nullableNumber,
			"status":           map[string]any{"type": "string", "enum": constants.AsStringSlice(constants.AllMetricStatuses)},
			"raw_text_snippet": map[string]any{"type": "string", "maxLength": SnippetMaxRunes},
			"confidence":       map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"metric_key", "metric_name", "value", "unit", "status", "confidence"},
	}

	note := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"note_type":       map[string]any{"type": "string", "enum": constants.AsStringSlice(constants.AllNoteTypes)},
			"content":         map[string]any{"type": "string", "minLength": 1},
			"section_heading": map[string]any{"type": "string"},
		},
		"required": []string{"note_type", "content"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"metrics":        map[string]any{"type": "array", "items": metric},
			"notes":          map[string]any{"type": "array", "items": note},
			"sections_found": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"metrics", "notes", "sections_found"},
	}
}

// ValidateJSON checks raw JSON against ResultJSONSchema.
func ValidateJSON(data []byte) error {
	b, err := json.Marshal(ResultJSONSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("result.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("result.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("result does not match schema: %w", err)
	}
	return nil
}

// ValidateResult checks r against the output contract, including the
// at-most-one-metric-per-key rule the schema cannot express.
func ValidateResult(r Result) error {
	seen := make(map[string]bool, len(r.Metrics))
	for _, m := range r.Metrics {
		if seen[m.Key] {
			return fmt.Errorf("duplicate metric key %q", m.Key)
		}
		seen[m.Key] = true
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return ValidateJSON(data)
}
