package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParametersRequired(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string"},
		},
		"required": []any{"path"},
	}

	err := ValidateParameters(map[string]any{}, schema)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "path", valErr.Field)

	assert.NoError(t, ValidateParameters(map[string]any{"path": "/tmp/x"}, schema))
}

func TestValidateParametersTypeMismatch(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"count": map[string]any{"type": "integer"},
		},
	}

	assert.Error(t, ValidateParameters(map[string]any{"count": "three"}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"count": 3}, schema))
	// JSON numbers decode as float64; whole values pass as integers.
	assert.NoError(t, ValidateParameters(map[string]any{"count": float64(3)}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"count": 3.5}, schema))
}

func TestValidateParametersAllowsExtraFields(t *testing.T) {
	schema := map[string]any{"type": "object", "properties": map[string]any{}}
	assert.NoError(t, ValidateParameters(map[string]any{"anything": true}, schema))
}

func TestSchemaFromStruct(t *testing.T) {
	type args struct {
		Path  string `json:"path" description:"File path"`
		Limit int    `json:"limit,omitempty"`
	}

	schema := SchemaFromStruct(args{})
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "path")
	assert.Contains(t, props, "limit")

	required, _ := schema["required"].([]any)
	assert.Equal(t, []any{"path"}, required)
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("Goal: {{.description}}", map[string]any{"description": "build report"})
	require.NoError(t, err)
	assert.Equal(t, "Goal: build report", out)

	// Fast path: no markers means no template parse.
	out, err = RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)

	_, err = RenderTemplate("{{.broken", nil)
	assert.Error(t, err)
}
