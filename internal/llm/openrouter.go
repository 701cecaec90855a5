package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "google/gemini-2.0-flash-001"

	defaultChatTimeout = 60 * time.Second
)

// ErrNoChoices is returned when the API answers without any completion choice.
var ErrNoChoices = errors.New("no choices returned")

// OpenRouterOptions configures an OpenRouterClient.
type OpenRouterOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	Referer    string
	Title      string
	MaxRetries int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OpenRouterClient talks to OpenRouter through its OpenAI-compatible Chat Completions API.
type OpenRouterClient struct {
	model   string
	timeout time.Duration
	client  *openai.Client
}

// NewOpenRouterClient builds a client. An API key is required.
func NewOpenRouterClient(opts OpenRouterOptions) (*OpenRouterClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultChatTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(opts.BaseURL),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.Referer != "" {
		reqOpts = append(reqOpts, option.WithHeader("HTTP-Referer", opts.Referer))
	}
	if opts.Title != "" {
		reqOpts = append(reqOpts, option.WithHeader("X-Title", opts.Title))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	cli := openai.NewClient(reqOpts...)
	return &OpenRouterClient{
		model:   opts.Model,
		timeout: opts.Timeout,
		client:  &cli,
	}, nil
}

func (c *OpenRouterClient) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

func (c *OpenRouterClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("nil openrouter client")
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", describeError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// StatusCode reports the HTTP status carried by an API error, or 0.
func StatusCode(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func describeError(err error) error {
	if code := StatusCode(err); code != 0 {
		return fmt.Errorf("status %d: %w", code, err)
	}
	return err
}
