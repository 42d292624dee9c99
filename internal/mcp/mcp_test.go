package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/classifier"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/persona"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/reply"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/service"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/session"
)

func newTestServer(t *testing.T) (*MCPServer, *session.MemoryStore) {
	t.Helper()
	c := classifier.New()
	personas := persona.Default()
	sessions := session.NewMemoryStore(time.Hour)
	replies := reply.New(nil, reply.Options{Pick: func(int) int { return 0 }}, zap.NewNop())
	chat := service.NewChatService(c, session.NewMachine(personas), sessions, replies, zap.NewNop())
	return NewMCPServer(chat, c, personas, "test", zap.NewNop()), sessions
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func TestToolsRegistered(t *testing.T) {
	s, _ := newTestServer(t)
	tools := s.Server().ListTools()
	for _, name := range []string{"classify_message", "honeypot_chat", "honeypot_reset"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %s not registered", name)
		}
	}
	if ann := tools["classify_message"].Tool.Annotations; ann.ReadOnlyHint == nil || !*ann.ReadOnlyHint {
		t.Error("classify_message should be read-only")
	}
}

func TestClassifyTool(t *testing.T) {
	s, sessions := newTestServer(t)

	res, err := s.handleClassify(context.Background(), callTool("classify_message", map[string]any{
		"text": "Your account will be blocked, share OTP now",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}

	var verdict model.ScamVerdict
	if err := json.Unmarshal([]byte(resultText(t, res)), &verdict); err != nil {
		t.Fatal(err)
	}
	if !verdict.IsScam || verdict.Confidence != 0.9 || len(verdict.Matches) < 2 {
		t.Errorf("verdict = %+v", verdict)
	}
	if sessions.Len() != 0 {
		t.Error("classify_message created a session")
	}
}

func TestClassifyTool_MissingText(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.handleClassify(context.Background(), callTool("classify_message", map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), `"text"`) {
		t.Errorf("expected missing parameter error, got %+v", res)
	}
}

func TestChatTool_Conversation(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	chat := func(args map[string]any) model.ChatResponse {
		t.Helper()
		res, err := s.handleChat(ctx, callTool("honeypot_chat", args))
		if err != nil {
			t.Fatal(err)
		}
		if res.IsError {
			t.Fatalf("tool error: %s", resultText(t, res))
		}
		var resp model.ChatResponse
		if err := json.Unmarshal([]byte(resultText(t, res)), &resp); err != nil {
			t.Fatal(err)
		}
		return resp
	}

	resp := chat(map[string]any{"message": "send the OTP", "conversation_id": "a"})
	if resp.Mode != model.ModeHoneypot || resp.Reply != "Ye kis cheez ka OTP hai?" {
		t.Errorf("resp = %+v", resp)
	}

	// Conversations are independent.
	resp = chat(map[string]any{"message": "hello", "conversation_id": "b"})
	if resp.Mode != model.ModeNormal {
		t.Errorf("conversation b Mode = %q", resp.Mode)
	}

	resp = chat(map[string]any{"message": "hello", "conversation_id": "a"})
	if resp.Mode != model.ModeHoneypot {
		t.Errorf("conversation a lost honeypot mode")
	}

	res, err := s.handleReset(ctx, callTool("honeypot_reset", map[string]any{"conversation_id": "a"}))
	if err != nil || res.IsError {
		t.Fatalf("reset failed: %v %+v", err, res)
	}

	resp = chat(map[string]any{"message": "hello", "conversation_id": "a"})
	if resp.Mode != model.ModeNormal {
		t.Errorf("Mode after reset = %q", resp.Mode)
	}
}

func TestChatTool_DefaultConversation(t *testing.T) {
	s, sessions := newTestServer(t)
	if _, err := s.handleChat(context.Background(), callTool("honeypot_chat", map[string]any{"message": "hi"})); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := sessions.Load(context.Background(), conversationPrefix+DefaultConversation); !ok {
		t.Error("default conversation not stored")
	}
}

func TestChatTool_BlankMessage(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.handleChat(context.Background(), callTool("honeypot_chat", map[string]any{"message": "   "}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("blank message should be a tool error")
	}
}

func TestResources(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	var req mcp.ReadResourceRequest
	req.Params.URI = "honeypot://indicators"
	contents, err := s.handleIndicatorsResource(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	var indicators []string
	if err := json.Unmarshal([]byte(contents[0].(mcp.TextResourceContents).Text), &indicators); err != nil {
		t.Fatal(err)
	}
	if len(indicators) != len(classifier.DefaultIndicators) {
		t.Errorf("indicators = %d, want %d", len(indicators), len(classifier.DefaultIndicators))
	}

	req.Params.URI = "honeypot://persona/honeypot"
	contents, err = s.handlePersonaResource(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if contents[0].(mcp.TextResourceContents).Text != persona.HoneypotPrompt {
		t.Error("honeypot persona prompt mismatch")
	}

	req.Params.URI = "honeypot://persona/pirate"
	if _, err := s.handlePersonaResource(ctx, req); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestAnnotations(t *testing.T) {
	if ann := readOnlyAnnotation(); ann.ReadOnlyHint == nil || !*ann.ReadOnlyHint {
		t.Error("readOnlyAnnotation should set ReadOnlyHint true")
	}
	if ann := mutatingAnnotation(); ann.ReadOnlyHint == nil || *ann.ReadOnlyHint {
		t.Error("mutatingAnnotation should set ReadOnlyHint false")
	}
}
