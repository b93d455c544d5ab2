package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"NewsAggregator/internal/config"
	"NewsAggregator/internal/ports"
)

// ErrEmptyCompletion is returned when the API answers without content.
var ErrEmptyCompletion = errors.New("llm returned no content")

// Client implements ports.ChatClient backed by OpenAI-compatible APIs (Groq by default).
type Client struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

var _ ports.ChatClient = (*Client)(nil)

// NewClient builds a client from configuration. Extra options are appended
// after the configured ones.
func NewClient(cfg config.LLMConfig, opts ...option.RequestOption) *Client {
	base := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		client:  openai.NewClient(append(base, opts...)...),
		model:   cfg.Model,
		timeout: 60 * time.Second,
	}
}

// Complete sends one system+user exchange and returns the first choice.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if c == nil {
		return "", fmt.Errorf("llm client is nil")
	}
	if c.model == "" {
		return "", fmt.Errorf("llm client misconfigured: empty model")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
