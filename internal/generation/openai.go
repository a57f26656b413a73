package generation

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIBackend struct {
	client *openai.Client
	model  string
	hasKey bool
}

// NewOpenAIBackend builds a chat completions client. An empty baseURL uses
// the public API.
func NewOpenAIBackend(apiKey, model, baseURL string) *OpenAIBackend {
	if model == "" {
		model = openai.GPT4oMini
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIBackend{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		hasKey: apiKey != "",
	}
}

func (b *OpenAIBackend) Name() string {
	return BackendOpenAI
}

func (b *OpenAIBackend) Generate(ctx context.Context, system, user string, opts Options) (string, error) {
	if !b.hasKey {
		return "", generationError(BackendOpenAI, errors.New("OPENAI_API_KEY is not configured"))
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", generationError(BackendOpenAI, err)
	}

	if len(resp.Choices) == 0 {
		return "", generationError(BackendOpenAI, errors.New("empty response"))
	}
	return resp.Choices[0].Message.Content, nil
}
