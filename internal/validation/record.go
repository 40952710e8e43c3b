// Package validation checks raw records against the dataset's JSON shape
// before extraction. Noise inside a well-formed record is tolerated by the
// pipeline; missing required fields fail the whole record.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/procwise/flowschema/pkg/schema"
)

// recordSchemaJSON is the JSON Schema for raw record validation.
// Embedded as a constant to avoid filesystem dependencies.
const recordSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flowschema.dev/schemas/record.json",
  "type": "object",
  "required": ["file_index", "procedure_text", "step_nodes", "SequenceFlow"],
  "properties": {
    "file_index": { "type": "integer" },
    "procedure_text": { "type": "string" },
    "step_nodes": {
      "type": "array",
      "items": { "$ref": "#/$defs/node" }
    },
    "SequenceFlow": {
      "type": "array",
      "items": { "$ref": "#/$defs/edge" }
    }
  },
  "$defs": {
    "node": {
      "type": "object",
      "required": ["resourceId", "type"],
      "properties": {
        "resourceId": { "type": "string", "minLength": 1 },
        "type": {
          "type": "string",
          "enum": ["StartNode", "EndNode", "Activity", "XOR", "AND", "OR"]
        },
        "NodeText": { "type": "string" },
        "agent": { "type": "string" }
      }
    },
    "edge": {
      "type": "object",
      "required": ["src", "tgt"],
      "properties": {
        "src": { "type": "string", "minLength": 1 },
        "tgt": { "type": "string", "minLength": 1 },
        "condition": { "type": "string" }
      }
    }
  }
}`

// RecordValidator validates raw records against the record JSON Schema.
// It is safe for concurrent use once constructed.
type RecordValidator struct {
	recordSchema *jsonschema.Schema
}

// NewRecordValidator compiles the embedded record schema.
func NewRecordValidator() (*RecordValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(recordSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal record schema: %w", err)
	}
	if err := c.AddResource("https://flowschema.dev/schemas/record.json", doc); err != nil {
		return nil, fmt.Errorf("add record schema resource: %w", err)
	}

	compiled, err := c.Compile("https://flowschema.dev/schemas/record.json")
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}

	return &RecordValidator{recordSchema: compiled}, nil
}

// ValidateRaw validates raw record JSON bytes against the schema.
func (v *RecordValidator) ValidateRaw(raw []byte) error {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return schema.NewError(schema.ErrCodeMalformedRecord, "record is not valid JSON").WithCause(err)
	}
	if err := v.recordSchema.Validate(doc); err != nil {
		return toSchemaError(err)
	}
	return nil
}

// ValidateRecord validates an already-decoded record by round-tripping it
// through JSON so numbers become json.Number as the library requires.
func (v *RecordValidator) ValidateRecord(rec *schema.Record) error {
	if rec == nil {
		return schema.NewError(schema.ErrCodeMalformedRecord, "record is nil")
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return schema.NewError(schema.ErrCodeMalformedRecord, "failed to serialize record").WithCause(err)
	}
	return v.ValidateRaw(b)
}

// toSchemaError converts a jsonschema.ValidationError into a SchemaError
// with the collected leaf violations.
func toSchemaError(err error) *schema.SchemaError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeMalformedRecord, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeMalformedRecord, verr.Error())
	}

	msg := violations[0]
	if len(violations) > 1 {
		msg = fmt.Sprintf("record validation failed with %d errors", len(violations))
	}
	return schema.NewError(schema.ErrCodeMalformedRecord, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf error
// messages with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
