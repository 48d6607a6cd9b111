// Package llm provides text-completion backends.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Completer produces a completion for a single user prompt. Implementations
// report a policy refusal by returning an error wrapping podcast.ErrRefused,
// and must return promptly once ctx is done.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	// Model names the model, it is part of every text cache key.
	Model() string
}

type BackendType string

const (
	BackendOpenAI BackendType = "openai"
	BackendMock   BackendType = "mock"
)

func (b BackendType) String() string {
	return string(b)
}

// Config configures a completion backend.
type Config struct {
	Backend string        `mapstructure:"backend"`
	Model   string        `mapstructure:"model"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// New creates the configured completion backend.
func New(cfg Config) (Completer, error) {
	switch cfg.Backend {
	case BackendOpenAI.String():
		var opts []Option
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		return NewOpenAI(cfg.APIKey, cfg.Model, opts...)

	case BackendMock.String():
		return NewMock(), nil

	default:
		return nil, fmt.Errorf("unsupported text backend: %s", cfg.Backend)
	}
}
