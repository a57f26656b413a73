package generation

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultClaudeModel = "claude-3-5-sonnet-20241022"

type ClaudeBackend struct {
	client anthropic.Client
	model  string
	hasKey bool
}

// NewClaudeBackend builds an Anthropic messages client. SDK retries are
// disabled since the worker owns retry policy.
func NewClaudeBackend(apiKey, model string, opts ...option.RequestOption) *ClaudeBackend {
	if model == "" {
		model = defaultClaudeModel
	}

	reqOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &ClaudeBackend{
		client: anthropic.NewClient(reqOpts...),
		model:  model,
		hasKey: apiKey != "",
	}
}

func (b *ClaudeBackend) Name() string {
	return BackendClaude
}

func (b *ClaudeBackend) Generate(ctx context.Context, system, user string, opts Options) (string, error) {
	if !b.hasKey {
		return "", generationError(BackendClaude, errors.New("ANTHROPIC_API_KEY is not configured"))
	}

	msg, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(b.model),
		MaxTokens:   int64(opts.MaxTokens),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(user))},
		Temperature: anthropic.Float(opts.Temperature),
	})
	if err != nil {
		return "", generationError(BackendClaude, err)
	}

	// Only text blocks contribute to the care plan.
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
