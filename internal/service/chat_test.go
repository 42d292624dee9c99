package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/classifier"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/llm"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/persona"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/reply"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/session"
)

type stubModel struct {
	out string
	err error
}

func (s *stubModel) Name() string { return "Hugging Face" }
func (s *stubModel) Generate(ctx context.Context, history []model.Turn) (string, error) {
	return s.out, s.err
}

func newChat(t *testing.T, gen llm.Generator, policy reply.Policy) (*ChatService, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(time.Hour)
	replies := reply.New(gen, reply.Options{Policy: policy, Pick: func(int) int { return 0 }}, zap.NewNop())
	svc := NewChatService(classifier.New(), session.NewMachine(persona.Default()), store, replies, zap.NewNop())
	return svc, store
}

func TestChatEmptyMessage(t *testing.T) {
	svc, store := newChat(t, nil, reply.PolicyFast)
	for _, msg := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Chat(context.Background(), "c1", msg); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("Chat(%q) err = %v, want ErrEmptyMessage", msg, err)
		}
	}
	if store.Len() != 0 {
		t.Error("empty messages must not create sessions")
	}
}

func TestChatNormalConversation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newChat(t, nil, reply.PolicyFast)

	res, err := svc.Chat(ctx, "c1", "  hello there  ")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Verdict.IsScam || res.Verdict.Confidence != 0.2 || res.Mode != model.ModeNormal {
		t.Errorf("result = %+v", res)
	}
	if res.Reply != reply.NormalFollowUpReply {
		t.Errorf("Reply = %q", res.Reply)
	}

	sess, _ := svc.Session(ctx, "c1")
	// system, human, ai
	if len(sess.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(sess.History))
	}
	if sess.History[1].Content != "hello there" {
		t.Errorf("stored message = %q, want trimmed text", sess.History[1].Content)
	}
}

func TestChatScamSwitchesToHoneypot(t *testing.T) {
	ctx := context.Background()
	svc, _ := newChat(t, nil, reply.PolicyFast)

	svc.Chat(ctx, "c1", "hi")
	svc.Chat(ctx, "c1", "how are you")

	res, err := svc.Chat(ctx, "c1", "Your account will be blocked, share OTP now")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !res.Verdict.IsScam || res.Verdict.Confidence != 0.9 {
		t.Errorf("verdict = %+v", res.Verdict)
	}
	if !res.Switched || res.Mode != model.ModeHoneypot {
		t.Errorf("result = %+v", res)
	}
	if res.Reply != "Ye kis cheez ka OTP hai?" {
		t.Errorf("Reply = %q", res.Reply)
	}

	sess, _ := svc.Session(ctx, "c1")
	// honeypot system turn, triggering human turn, assistant reply
	if len(sess.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(sess.History))
	}
	if sess.History[0] != model.SystemTurn(persona.HoneypotPrompt) {
		t.Error("history not reseeded with honeypot persona")
	}

	// Clean messages never leave honeypot mode.
	res, _ = svc.Chat(ctx, "c1", "ok sorry, what is the weather")
	if res.Mode != model.ModeHoneypot || res.Switched {
		t.Errorf("honeypot should be sticky: %+v", res)
	}
}

func TestChatResetRestoresNormal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newChat(t, nil, reply.PolicyFast)

	svc.Chat(ctx, "c1", "lottery winner claim now")
	if err := svc.Reset(ctx, "c1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	sess, err := svc.Session(ctx, "c1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if sess.Mode != model.ModeNormal {
		t.Errorf("Mode = %q, want normal", sess.Mode)
	}
	if len(sess.History) != 1 || sess.History[0] != model.SystemTurn(persona.NormalPrompt) {
		t.Errorf("History = %+v", sess.History)
	}
}

func TestChatSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc, _ := newChat(t, nil, reply.PolicyFast)

	svc.Chat(ctx, "scammer", "send otp")
	res, _ := svc.Chat(ctx, "friend", "hello")
	if res.Mode != model.ModeNormal {
		t.Error("one client's honeypot mode leaked into another session")
	}
}

func TestChatModelFailureLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	svc, _ := newChat(t, &stubModel{out: "Namaste"}, reply.PolicyModel)

	if _, err := svc.Chat(ctx, "c1", "hello"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	before, _ := svc.Session(ctx, "c1")

	failing, _ := newChat(t, &stubModel{err: errors.New("model exploded")}, reply.PolicyModel)
	failing.sessions = svc.sessions

	_, err := failing.Chat(ctx, "c1", "share your otp")
	var upErr *llm.Error
	if !errors.As(err, &upErr) || upErr.Kind != llm.KindUnknown {
		t.Fatalf("err = %v, want unknown *llm.Error", err)
	}

	after, _ := svc.Session(ctx, "c1")
	if after.Mode != before.Mode || len(after.History) != len(before.History) {
		t.Errorf("session changed after failed model call: before %+v after %+v", before, after)
	}
}

func TestChatModelAuthFallbackPersists(t *testing.T) {
	ctx := context.Background()
	authErr := &llm.Error{Kind: llm.KindAuth, Status: 401, Err: errors.New("401 Unauthorized")}
	svc, _ := newChat(t, &stubModel{err: authErr}, reply.PolicyModel)

	res, err := svc.Chat(ctx, "c1", "hello")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Warning == "" || res.Reply != reply.NormalFollowUpReply {
		t.Errorf("result = %+v", res)
	}
	sess, _ := svc.Session(ctx, "c1")
	if len(sess.History) != 3 {
		t.Errorf("history length = %d, want 3", len(sess.History))
	}
}

func TestClassifyDoesNotTouchSessions(t *testing.T) {
	svc, store := newChat(t, nil, reply.PolicyFast)
	if v := svc.Classify("urgent kyc"); !v.IsScam {
		t.Errorf("verdict = %+v", v)
	}
	if store.Len() != 0 {
		t.Error("Classify created a session")
	}
}
