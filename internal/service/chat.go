package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/classifier"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/reply"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/session"
)

// ErrEmptyMessage is returned for blank chat messages.
var ErrEmptyMessage = errors.New("empty message")

// ChatResult is the outcome of one chat exchange.
type ChatResult struct {
	Verdict  model.ScamVerdict
	Mode     model.Mode
	Reply    string
	Warning  string
	Switched bool
}

// ChatService runs a chat exchange: classify the message, advance the
// session, generate a reply and persist the session.
type ChatService struct {
	classifier *classifier.Classifier
	machine    *session.Machine
	sessions   session.Store
	replies    *reply.Generator
	logger     *zap.Logger
}

// NewChatService wires the chat pipeline.
func NewChatService(c *classifier.Classifier, m *session.Machine, sessions session.Store, r *reply.Generator, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{classifier: c, machine: m, sessions: sessions, replies: r, logger: logger}
}

// Classify scores text without touching any session.
func (s *ChatService) Classify(text string) model.ScamVerdict {
	return s.classifier.Classify(text)
}

// Session returns the session for clientID, creating and storing a fresh
// one if none exists.
func (s *ChatService) Session(ctx context.Context, clientID string) (*model.Session, error) {
	sess, ok, err := s.sessions.Load(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if ok {
		s.machine.Ensure(sess)
		return sess, nil
	}
	sess = s.machine.New(clientID)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Chat processes message for clientID. The session is saved only when a
// reply was produced; a failed model call leaves it untouched.
func (s *ChatService) Chat(ctx context.Context, clientID, message string) (*ChatResult, error) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}

	sess, err := s.Session(ctx, clientID)
	if err != nil {
		return nil, err
	}

	verdict := s.classifier.Classify(msg)
	switched := s.machine.Advance(sess, verdict, msg)
	if switched {
		s.logger.Info("scam detected, switching to honeypot persona",
			zap.String("client_id", clientID),
			zap.Strings("matches", verdict.Matches),
		)
	}

	res, err := s.replies.Reply(ctx, sess.Mode, sess.History)
	if err != nil {
		return nil, err
	}

	s.machine.Respond(sess, res.Text)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &ChatResult{
		Verdict:  verdict,
		Mode:     sess.Mode,
		Reply:    res.Text,
		Warning:  res.Warning,
		Switched: switched,
	}, nil
}

// Reset discards all state for clientID. The next access starts a fresh
// normal-mode session.
func (s *ChatService) Reset(ctx context.Context, clientID string) error {
	if err := s.sessions.Delete(ctx, clientID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
