package executors

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// LLMExecutor sends a completion request via go-openai. config:
// {model?, prompt, systemPrompt?, temperature?, apiKey?}. apiKey falls
// back to the executor's default (from environment) when absent from
// config, matching the teacher's resolveAPIKey precedence.
type LLMExecutor struct {
	defaultAPIKey string
}

// NewLLMExecutor constructs an LLMExecutor with a default API key used
// when a node's config doesn't supply its own.
func NewLLMExecutor(defaultAPIKey string) *LLMExecutor {
	return &LLMExecutor{defaultAPIKey: defaultAPIKey}
}

func (e *LLMExecutor) Type() string                 { return "llm_completion" }
func (e *LLMExecutor) ConfigSchema() map[string]any { return nil }

func (e *LLMExecutor) resolveAPIKey(config map[string]any) (string, error) {
	if k, ok := config["apiKey"].(string); ok && k != "" {
		return k, nil
	}
	if e.defaultAPIKey != "" {
		return e.defaultAPIKey, nil
	}
	return "", fmt.Errorf("no OpenAI API key configured for llm_completion")
}

func (e *LLMExecutor) Run(ctx context.Context, config map[string]any, input map[string]any) (any, error) {
	apiKey, err := e.resolveAPIKey(config)
	if err != nil {
		return nil, err
	}

	prompt, _ := config["prompt"].(string)
	if prompt == "" {
		return nil, fmt.Errorf("llm_completion requires 'prompt'")
	}
	model, _ := config["model"].(string)
	if model == "" {
		model = openai.GPT4oMini
	}

	messages := []openai.ChatCompletionMessage{}
	if sys, ok := config["systemPrompt"].(string); ok && sys != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: sys})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	client := openai.NewClient(apiKey)
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai completion returned no choices")
	}

	return map[string]any{
		"content": resp.Choices[0].Message.Content,
		"model":   resp.Model,
		"usage": map[string]any{
			"promptTokens":     resp.Usage.PromptTokens,
			"completionTokens": resp.Usage.CompletionTokens,
			"totalTokens":      resp.Usage.TotalTokens,
		},
	}, nil
}
