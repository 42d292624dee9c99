// Package reply chooses the assistant's next message, either from scripted
// rules or from a language model with scripted fallbacks.
package reply

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/llm"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
)

// Policy selects how replies are produced.
type Policy int

const (
	// PolicyModel asks the language model and falls back to scripts on
	// auth and timeout failures.
	PolicyModel Policy = iota
	// PolicyFast uses scripted replies only.
	PolicyFast
)

func (p Policy) String() string {
	if p == PolicyFast {
		return "fast"
	}
	return "model"
}

// Options tune a Generator.
type Options struct {
	Policy Policy
	// ScriptedHoneypot keeps honeypot replies scripted even under
	// PolicyModel.
	ScriptedHoneypot bool
	// Pick returns an index in [0, n). Defaults to math/rand.
	Pick func(n int) int
}

// Result is a generated reply. Warning is set when a fallback was used.
type Result struct {
	Text    string
	Warning string
}

// Generator produces replies for a conversation.
type Generator struct {
	model  llm.Generator
	opts   Options
	logger *zap.Logger
}

// New returns a Generator. m may be nil, in which case PolicyFast is forced.
func New(m llm.Generator, opts Options, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	if m == nil {
		opts.Policy = PolicyFast
	}
	return &Generator{model: m, opts: opts, logger: logger}
}

// Policy returns the active policy.
func (g *Generator) Policy() Policy {
	return g.opts.Policy
}

// Fast returns the scripted reply for mode given the latest human text.
func (g *Generator) Fast(mode model.Mode, text string) string {
	if mode == model.ModeHoneypot {
		return FastHoneypot(text, g.opts.Pick)
	}
	return FastNormal(text)
}

// Reply produces the next assistant message for history, which must already
// contain the newest human turn. Auth and timeout failures of the model are
// recovered with a scripted reply and a warning; any other model failure is
// returned as an *llm.Error.
func (g *Generator) Reply(ctx context.Context, mode model.Mode, history []model.Turn) (Result, error) {
	last, _ := model.LastHuman(history)

	if g.opts.Policy == PolicyFast || (mode == model.ModeHoneypot && g.opts.ScriptedHoneypot) {
		return Result{Text: g.Fast(mode, last.Content)}, nil
	}

	// The model call runs to completion or its own timeout even if the
	// client goes away.
	out, err := g.model.Generate(context.WithoutCancel(ctx), history)
	if err == nil {
		return Result{Text: strings.TrimSpace(out)}, nil
	}

	var upErr *llm.Error
	if !errors.As(err, &upErr) {
		kind, code := llm.Classify(err)
		upErr = &llm.Error{Kind: kind, Provider: g.model.Name(), Status: code, Err: err}
	}

	switch upErr.Kind {
	case llm.KindAuth:
		warning := fmt.Sprintf("%s %s. Check token/repo settings. Falling back to a basic reply. Original error: %s",
			g.model.Name(), authLabel(upErr), upErr.Error())
		g.logger.Warn("model authentication failed, using scripted reply",
			zap.String("provider", g.model.Name()), zap.Int("status", upErr.Status), zap.Error(err))
		return Result{Text: g.Fast(mode, last.Content), Warning: warning}, nil

	case llm.KindTimeout:
		warning := "Model timed out. Falling back to a basic reply. Original error: " + upErr.Error()
		g.logger.Warn("model timed out, using scripted reply",
			zap.String("provider", g.model.Name()), zap.Error(err))
		return Result{Text: SlowReply(mode), Warning: warning}, nil

	default:
		g.logger.Error("model call failed", zap.String("provider", g.model.Name()), zap.Error(err))
		return Result{}, upErr
	}
}

func authLabel(e *llm.Error) string {
	if e.Status == http.StatusForbidden {
		return "Access Denied (403)"
	}
	return "Authentication (401)"
}
