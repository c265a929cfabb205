package executors_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graflow/graflow/internal/executors"
)

func TestTransformExecutor_ExpandsOutputTemplate(t *testing.T) {
	e := executors.NewTransformExecutor()
	input := map[string]any{"parameters": map[string]any{"name": "ada"}}
	config := map[string]any{"output": map[string]any{"greeting": "hello {{ parameters.name }}"}}

	out, err := e.Run(context.Background(), config, input)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"greeting": "hello ada"}, out)
}

func TestTransformExecutor_NoOutputConfigReturnsEmptyMap(t *testing.T) {
	e := executors.NewTransformExecutor()
	out, err := e.Run(context.Background(), map[string]any{}, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, out)
}
