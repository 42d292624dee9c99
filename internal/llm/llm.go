// Package llm adapts hosted language models to a single prompt-in, text-out
// contract used by the reply generator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
)

// Generator produces the next assistant message for a conversation. The
// history ends with the newest human turn.
type Generator interface {
	// Name is a human-readable provider name used in warnings.
	Name() string
	Generate(ctx context.Context, history []model.Turn) (string, error)
}

// ErrMissingToken is returned when a provider is configured without
// credentials.
var ErrMissingToken = errors.New("missing LLM API token (set the provider token or LLM_API_TOKEN)")

// Provider identifiers accepted in Config.Provider.
const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderGemini      = "gemini"
)

// Default OpenAI-compatible endpoints.
const (
	HuggingFaceBaseURL = "https://router.huggingface.co/v1"
	OpenAIBaseURL      = "https://api.openai.com/v1"
)

// Config selects and tunes a provider.
type Config struct {
	Provider    string
	Token       string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	TopP        float64
	Timeout     time.Duration
}

// DefaultConfig returns the tuning used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		Provider:    ProviderHuggingFace,
		Model:       "mistralai/Mistral-7B-Instruct-v0.2",
		Temperature: 0.5,
		MaxTokens:   60,
		TopP:        0.9,
		Timeout:     60 * time.Second,
	}
}

// New constructs the Generator for cfg.Provider.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}

	switch cfg.Provider {
	case ProviderHuggingFace, "":
		if cfg.BaseURL == "" {
			cfg.BaseURL = HuggingFaceBaseURL
		}
		return NewOpenAICompatible("Hugging Face", cfg, logger), nil
	case ProviderOpenAI:
		if cfg.BaseURL == "" {
			cfg.BaseURL = OpenAIBaseURL
		}
		return NewOpenAICompatible("OpenAI", cfg, logger), nil
	case ProviderGemini:
		return NewGemini(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// ProviderName returns the display name for a provider identifier.
func ProviderName(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderGemini:
		return "Gemini"
	default:
		return "Hugging Face"
	}
}

// Unavailable returns a Generator that fails every call with err. It stands
// in for a provider that could not be constructed so the failure surfaces
// per request instead of at startup.
func Unavailable(name string, err error) Generator {
	return &unavailable{name: name, err: err}
}

type unavailable struct {
	name string
	err  error
}

func (u *unavailable) Name() string { return u.name }

func (u *unavailable) Generate(ctx context.Context, history []model.Turn) (string, error) {
	return "", &Error{Kind: KindUnknown, Provider: u.name, Err: u.err}
}
