package executors_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/graflow/graflow/internal/executors"
)

func TestLLMExecutor_Run_RequiresAPIKey(t *testing.T) {
	e := executors.NewLLMExecutor("")
	_, err := e.Run(context.Background(), map[string]any{"prompt": "hi"}, nil)
	assert.ErrorContains(t, err, "no OpenAI API key configured")
}

func TestLLMExecutor_Run_RequiresPrompt(t *testing.T) {
	e := executors.NewLLMExecutor("default-key")
	_, err := e.Run(context.Background(), map[string]any{}, nil)
	assert.ErrorContains(t, err, "requires 'prompt'")
}

func TestLLMExecutor_Type(t *testing.T) {
	e := executors.NewLLMExecutor("")
	assert.Equal(t, "llm_completion", e.Type())
}
