package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/sirupsen/logrus"

	"podnest/internal/domain/podcast"
)

// OpenAI implements Completer with the OpenAI chat completions API.
type OpenAI struct {
	client oai.Client
	model  string
}

type openaiConfig struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for OpenAI.
type Option func(*openaiConfig)

// WithBaseURL overrides the default API base URL, e.g. for compatible servers.
func WithBaseURL(url string) Option {
	return func(c *openaiConfig) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *openaiConfig) {
		c.timeout = d
	}
}

// NewOpenAI constructs an OpenAI completer.
func NewOpenAI(apiKey, model string, opts ...Option) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key must not be empty (set OPENAI_API_KEY)")
	}
	if model == "" {
		return nil, errors.New("openai: model must not be empty")
	}

	cfg := &openaiConfig{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	return &OpenAI{client: oai.NewClient(reqOpts...), model: model}, nil
}

func (o *OpenAI) Model() string {
	return o.model
}

func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	logrus.WithFields(logrus.Fields{
		"model":         o.model,
		"prompt_length": len(prompt),
	}).Debug("Requesting completion")

	resp, err := o.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(o.model),
		Messages: []oai.ChatCompletionMessageParamUnion{oai.UserMessage(prompt)},
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices in response")
	}

	return choiceContent(resp.Choices[0])
}

// choiceContent extracts the answer, mapping refusals onto podcast.ErrRefused.
func choiceContent(choice oai.ChatCompletionChoice) (string, error) {
	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		return "", fmt.Errorf("%w: %s", podcast.ErrRefused, refusal)
	}
	if choice.FinishReason == "content_filter" {
		return "", fmt.Errorf("%w: content filtered", podcast.ErrRefused)
	}
	return strings.TrimSpace(choice.Message.Content), nil
}
