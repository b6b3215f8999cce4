package ml

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// networkSchema describes the JSON model file accepted by LoadModel.
const networkSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "version", "input_dim", "classes", "scaler", "layers"],
  "properties": {
    "name":      {"type": "string", "minLength": 1},
    "version":   {"type": "string", "minLength": 1},
    "input_dim": {"type": "integer", "minimum": 1},
    "classes":   {"type": "integer", "minimum": 2},
    "scaler": {
      "type": "object",
      "required": ["mean", "scale"],
      "properties": {
        "mean":  {"type": "array", "items": {"type": "number"}},
        "scale": {"type": "array", "items": {"type": "number"}}
      }
    },
    "layers": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["weights", "bias"],
        "properties": {
          "weights": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "array", "items": {"type": "number"}}
          },
          "bias":       {"type": "array", "items": {"type": "number"}},
          "activation": {"type": "string", "enum": ["relu", "linear"]}
        }
      }
    }
  }
}`

var compiledNetworkSchema = func() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(networkSchema))
	if err != nil {
		panic(fmt.Sprintf("compile model schema: %v", err))
	}
	return schema
}()

// validateModelDocument checks raw model JSON against the schema and joins
// every violation into one error.
func validateModelDocument(data []byte) error {
	result, err := compiledNetworkSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidModel, strings.Join(msgs, "; "))
}
