package llm

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	openai "github.com/sashabaranov/go-openai"

	"github.com/chatling/chatling/pkg/domain/interfaces"
	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/types"
)

const defaultOpenRouterModel = "google/gemini-2.0-flash-exp:free"

// OpenRouter calls any OpenAI-compatible chat completion endpoint,
// configured with an endpoint URL and an API key.
type OpenRouter struct {
	client      *openai.Client
	model       string
	temperature float32
}

var _ interfaces.LanguageModel = &OpenRouter{}

// OpenRouterOption configures the OpenRouter client
type OpenRouterOption func(*OpenRouter)

// WithModel overrides the default completion model
func WithModel(model string) OpenRouterOption {
	return func(c *OpenRouter) {
		c.model = model
	}
}

// WithTemperature overrides the default sampling temperature
func WithTemperature(t float32) OpenRouterOption {
	return func(c *OpenRouter) {
		c.temperature = t
	}
}

// NewOpenRouter creates a client for the given endpoint and credential
func NewOpenRouter(endpoint, apiKey string, opts ...OpenRouterOption) (*OpenRouter, error) {
	if endpoint == "" {
		return nil, goerr.New("llm endpoint is required")
	}
	if apiKey == "" {
		return nil, goerr.New("llm API key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = endpoint

	c := &OpenRouter{
		client:      openai.NewClientWithConfig(cfg),
		model:       defaultOpenRouterModel,
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *OpenRouter) Complete(ctx context.Context, prompt model.Prompt) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(prompt))
	for _, f := range prompt {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    chatRole(f.Role),
			Content: f.Text,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", goerr.Wrap(err, "chat completion request failed",
			goerr.V("model", c.model), goerr.T(types.ErrTagUpstream))
	}
	if len(resp.Choices) == 0 {
		return "", goerr.New("chat completion returned no choices",
			goerr.V("model", c.model), goerr.T(types.ErrTagUpstream))
	}

	return resp.Choices[0].Message.Content, nil
}

func chatRole(r types.Role) string {
	switch r {
	case types.RoleSystem:
		return openai.ChatMessageRoleSystem
	case types.RoleAgent:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
