package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaValidator(t *testing.T) {
	v := NewSchemaValidator()

	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url":     map[string]interface{}{"type": "string"},
			"retries": map[string]interface{}{"type": "integer", "minimum": 0},
		},
		"required": []string{"url"},
	}

	tests := []struct {
		name    string
		value   map[string]interface{}
		wantErr bool
	}{
		{
			name:  "valid",
			value: map[string]interface{}{"url": "https://example.com", "retries": 2},
		},
		{
			name:    "missing required",
			value:   map[string]interface{}{"retries": 2},
			wantErr: true,
		},
		{
			name:    "wrong type",
			value:   map[string]interface{}{"url": 42},
			wantErr: true,
		},
		{
			name:    "violates minimum",
			value:   map[string]interface{}{"url": "x", "retries": -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.value, schema)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchemaValidator_MultipleViolations(t *testing.T) {
	v := NewSchemaValidator()

	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"a": map[string]interface{}{"type": "string"},
			"b": map[string]interface{}{"type": "string"},
		},
		"required": []string{"a", "b"},
	}

	err := v.Validate(map[string]interface{}{}, schema)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), ";")
}
