package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
)

// DefaultGeminiModel is used when the configured model is a Hugging Face
// repository id.
const DefaultGeminiModel = "gemini-1.5-flash-latest"

// Gemini generates replies with Google's Generative Language API.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	cfg    Config
	logger *zap.Logger
}

// NewGemini returns a Gemini generator. Call Close when done.
func NewGemini(ctx context.Context, cfg Config, logger *zap.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Token))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	name := cfg.Model
	if name == "" || strings.Contains(name, "/") {
		name = DefaultGeminiModel
	}
	m := client.GenerativeModel(name)
	m.SetTemperature(float32(cfg.Temperature))
	m.SetMaxOutputTokens(int32(cfg.MaxTokens))
	m.SetTopP(float32(cfg.TopP))

	return &Gemini{client: client, model: m, cfg: cfg, logger: logger}, nil
}

func (g *Gemini) Name() string { return "Gemini" }

// Generate sends history flattened by BuildPrompt as a single text part and
// joins the text parts of the first candidate.
func (g *Gemini) Generate(ctx context.Context, history []model.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, genai.Text(BuildPrompt(history)))
	if err != nil {
		g.logger.Debug("gemini generate failed", zap.Error(err))
		return "", wrap(g.Name(), err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", wrap(g.Name(), errors.New("gemini returned no candidates"))
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String(), nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
