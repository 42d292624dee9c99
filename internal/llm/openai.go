package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
)

// OpenAICompatible talks to any endpoint implementing the OpenAI chat
// completions API, including the Hugging Face inference router.
type OpenAICompatible struct {
	name   string
	client *openai.Client
	cfg    Config
	logger *zap.Logger
}

// NewOpenAICompatible returns a Generator for cfg.BaseURL.
func NewOpenAICompatible(name string, cfg Config, logger *zap.Logger) *OpenAICompatible {
	clientCfg := openai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAICompatible{
		name:   name,
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger,
	}
}

func (g *OpenAICompatible) Name() string { return g.name }

// Generate sends history as chat messages and returns the first choice's
// content.
func (g *OpenAICompatible) Generate(ctx context.Context, history []model.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		Messages:    ChatMessages(history),
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: float32(g.cfg.Temperature),
		TopP:        float32(g.cfg.TopP),
	})
	if err != nil {
		g.logger.Debug("chat completion failed", zap.String("provider", g.name), zap.Error(err))
		return "", wrap(g.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", wrap(g.name, errors.New("model returned no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatMessages maps history to chat completion messages: system turns to
// system, human turns to user and assistant turns to assistant. Turns with
// unknown roles are skipped.
func ChatMessages(history []model.Turn) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, t := range history {
		var role string
		switch t.Role {
		case model.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case model.RoleHuman:
			role = openai.ChatMessageRoleUser
		case model.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		default:
			continue
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	return msgs
}
