package registry

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Validator checks a value against a JSON-Schema-shaped document. The
// registry treats validation as an external capability; swap in a custom
// implementation with WithValidator.
type Validator interface {
	Validate(value interface{}, schema map[string]interface{}) error
}

// SchemaValidator is the default Validator, backed by gojsonschema.
type SchemaValidator struct{}

// NewSchemaValidator creates the default JSON Schema validator.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

// Validate checks value against schema and returns a single error listing
// every violation.
func (v *SchemaValidator) Validate(value interface{}, schema map[string]interface{}) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(value),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, violation := range result.Errors() {
			msgs = append(msgs, violation.String())
		}
		return fmt.Errorf("validation errors: %s", strings.Join(msgs, "; "))
	}

	return nil
}
