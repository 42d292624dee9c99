package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/classifier"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/config"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/llm"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/openapi"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/persona"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/reply"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/server/middleware"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/service"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/session"
)

// fakeModel is a scripted llm.Generator.
type fakeModel struct {
	out string
	err error
}

func (f *fakeModel) Name() string { return "Hugging Face" }
func (f *fakeModel) Generate(ctx context.Context, history []model.Turn) (string, error) {
	return f.out, f.err
}

// testEnv holds shared state for handler tests.
type testEnv struct {
	store    *config.Store
	sessions *session.MemoryStore
	codec    *session.CookieCodec
	router   chi.Router
	cookie   *http.Cookie
}

// newTestEnv wires the handlers behind the session middleware with an
// in-memory key store. A nil model uses scripted replies.
func newTestEnv(t *testing.T, m llm.Generator) *testEnv {
	t.Helper()

	store := config.NewStore("", zap.NewNop())
	sessions := session.NewMemoryStore(time.Hour)
	codec := session.NewCookieCodec("honeypot_session", "test-secret", time.Hour, false)
	replies := reply.New(m, reply.Options{Pick: func(int) int { return 0 }}, zap.NewNop())
	chatSvc := service.NewChatService(classifier.New(), session.NewMachine(persona.Default()), sessions, replies, zap.NewNop())
	authSvc := service.NewAuthService(store, []string{"master-key-0123456789"}, zap.NewNop())

	pages, err := NewPageHandler(chatSvc, "Chatbot Honeypot", zap.NewNop())
	if err != nil {
		t.Fatalf("NewPageHandler: %v", err)
	}
	chatH := NewChatHandler(chatSvc, codec, zap.NewNop())
	keyH := NewKeyHandler(store, zap.NewNop())
	sysH := NewSystemHandler(authSvc, openapi.Generate("", "test"))

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(codec, nil))
		r.Get("/", pages.Index)
		r.Post("/chat", chatH.Chat)
		r.Post("/reset", chatH.Reset)
	})
	r.Get("/test", pages.Tester)
	r.Get("/health", sysH.Health)
	r.Get("/openapi.json", sysH.OpenAPI)
	r.Get("/api/debug/auth", sysH.DebugAuth)
	r.Post("/api/keys/create", keyH.Create)
	r.Get("/api/keys/list", keyH.List)
	r.Delete("/api/keys/{key}", keyH.Delete)
	r.Post("/api/keys/validate", keyH.Validate)

	return &testEnv{store: store, sessions: sessions, codec: codec, router: r}
}

// do executes an HTTP request against the test router, carrying the
// session cookie from earlier responses.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		if c.Name == e.codec.Name() {
			if c.MaxAge < 0 {
				e.cookie = nil
			} else {
				e.cookie = c
			}
		}
	}
	return rr
}

func (e *testEnv) chat(t *testing.T, message string) model.ChatResponse {
	t.Helper()
	rr := e.do(t, "POST", "/chat", toJSON(t, model.ChatRequest{Message: message}))
	assertStatus(t, rr, http.StatusOK)
	var resp model.ChatResponse
	decodeJSON(t, rr, &resp)
	return resp
}

func toJSON(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v (body: %s)", err, rr.Body.String())
	}
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Chat / Reset
// ---------------------------------------------------------------------------

func TestChat_EmptyMessage(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, body := range []string{`{}`, `{"message":"   "}`, `not json`, ``} {
		rr := env.do(t, "POST", "/chat", strings.NewReader(body))
		assertStatus(t, rr, http.StatusBadRequest)

		var resp model.ErrorResponse
		decodeJSON(t, rr, &resp)
		if resp.Status != "error" || resp.Error != "Empty message." || resp.Reply != "" {
			t.Errorf("body %q: response = %+v", body, resp)
		}
	}
}

func TestChat_ScamSwitchesMode(t *testing.T) {
	env := newTestEnv(t, nil)

	first := env.chat(t, "hello")
	if first.Scam || first.Mode != model.ModeNormal || first.Confidence != 0.2 {
		t.Errorf("first = %+v", first)
	}
	if env.cookie == nil {
		t.Fatal("expected a session cookie")
	}

	second := env.chat(t, "Your account will be blocked, share OTP now")
	if !second.Scam || second.Confidence != 0.9 || second.Mode != model.ModeHoneypot {
		t.Errorf("second = %+v", second)
	}
	if second.Reply != "Ye kis cheez ka OTP hai?" {
		t.Errorf("Reply = %q", second.Reply)
	}

	third := env.chat(t, "thanks, bye")
	if third.Scam || third.Mode != model.ModeHoneypot {
		t.Errorf("honeypot mode should persist: %+v", third)
	}
}

func TestChat_ResponseOmitsEmptyWarning(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, "POST", "/chat", toJSON(t, model.ChatRequest{Message: "hi"}))
	if strings.Contains(rr.Body.String(), "warning") {
		t.Errorf("unexpected warning field: %s", rr.Body.String())
	}
}

func TestChat_ModelAuthFailureFallsBack(t *testing.T) {
	authErr := &llm.Error{Kind: llm.KindAuth, Status: http.StatusForbidden, Err: errors.New("403 Forbidden")}
	env := newTestEnv(t, &fakeModel{err: authErr})

	resp := env.chat(t, "hello there")
	if resp.Reply != reply.NormalFollowUpReply {
		t.Errorf("Reply = %q", resp.Reply)
	}
	if !strings.HasPrefix(resp.Warning, "Hugging Face Access Denied (403).") {
		t.Errorf("Warning = %q", resp.Warning)
	}
}

func TestChat_ModelTimeoutFallsBack(t *testing.T) {
	env := newTestEnv(t, &fakeModel{err: context.DeadlineExceeded})

	resp := env.chat(t, "hello there")
	if resp.Reply != reply.NormalSlowReply {
		t.Errorf("Reply = %q", resp.Reply)
	}
	if !strings.HasPrefix(resp.Warning, "Model timed out.") {
		t.Errorf("Warning = %q", resp.Warning)
	}
}

func TestChat_ModelUnknownFailure(t *testing.T) {
	env := newTestEnv(t, &fakeModel{err: errors.New("connection reset by peer")})

	rr := env.do(t, "POST", "/chat", toJSON(t, model.ChatRequest{Message: "hello"}))
	assertStatus(t, rr, http.StatusInternalServerError)

	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	if !strings.HasPrefix(resp.Error, "An unexpected error occurred: ") {
		t.Errorf("Error = %q", resp.Error)
	}
}

func TestChat_ModelReply(t *testing.T) {
	env := newTestEnv(t, &fakeModel{out: "  Namaste! How can I help?  "})
	resp := env.chat(t, "hello")
	if resp.Reply != "Namaste! How can I help?" {
		t.Errorf("Reply = %q", resp.Reply)
	}
}

func TestReset(t *testing.T) {
	env := newTestEnv(t, nil)
	env.chat(t, "urgent otp")
	clientID := mustClientID(t, env)

	rr := env.do(t, "POST", "/reset", nil)
	assertStatus(t, rr, http.StatusOK)

	var resp model.ResetResponse
	decodeJSON(t, rr, &resp)
	if resp.Status != "success" || !resp.OK || resp.Reply != "" {
		t.Errorf("response = %+v", resp)
	}
	if env.cookie != nil {
		t.Error("reset should expire the session cookie")
	}
	if _, ok, _ := env.sessions.Load(context.Background(), clientID); ok {
		t.Error("session state survived reset")
	}

	after := env.chat(t, "hello")
	if after.Mode != model.ModeNormal {
		t.Errorf("Mode after reset = %q, want normal", after.Mode)
	}
}

func mustClientID(t *testing.T, env *testEnv) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(env.cookie)
	id, err := env.codec.ClientID(req)
	if err != nil {
		t.Fatalf("ClientID: %v", err)
	}
	return id
}

// ---------------------------------------------------------------------------
// Keys
// ---------------------------------------------------------------------------

func TestCreateKey(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, "POST", "/api/keys/create", toJSON(t, map[string]string{"name": "ci"}))
	assertStatus(t, rr, http.StatusCreated)

	var resp model.CreateKeyResponse
	decodeJSON(t, rr, &resp)
	if resp.Name != "ci" || len(resp.APIKey) != 43 || resp.Created.IsZero() {
		t.Errorf("response = %+v", resp)
	}
	if env.store.Validate(context.Background(), resp.APIKey) == nil {
		t.Error("created key does not validate")
	}
}

func TestCreateKey_DefaultName(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, body := range []io.Reader{nil, strings.NewReader("garbage"), strings.NewReader(`{}`)} {
		rr := env.do(t, "POST", "/api/keys/create", body)
		assertStatus(t, rr, http.StatusCreated)

		var resp model.CreateKeyResponse
		decodeJSON(t, rr, &resp)
		if resp.Name != "Unnamed Key" {
			t.Errorf("Name = %q, want Unnamed Key", resp.Name)
		}
	}
}

func TestCreateKey_MistypedBodyIsLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	keyH := NewKeyHandler(config.NewStore("", zap.NewNop()), zap.New(core))

	req := httptest.NewRequest("POST", "/api/keys/create", strings.NewReader(`{"name":123}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	keyH.Create(rr, req)
	assertStatus(t, rr, http.StatusCreated)

	var resp model.CreateKeyResponse
	decodeJSON(t, rr, &resp)
	if resp.Name != "Unnamed Key" {
		t.Errorf("Name = %q, want Unnamed Key", resp.Name)
	}

	entries := logs.FilterMessage("ignoring malformed request body").All()
	if len(entries) != 1 {
		t.Fatalf("debug entries = %d, want 1", len(entries))
	}
	if entries[0].Level != zap.DebugLevel {
		t.Errorf("level = %v, want debug", entries[0].Level)
	}
	if entries[0].ContextMap()["path"] != "/api/keys/create" {
		t.Errorf("fields = %v", entries[0].ContextMap())
	}
}

func TestListKeys_Masked(t *testing.T) {
	env := newTestEnv(t, nil)
	key, _ := env.store.Issue(context.Background(), "ci")

	rr := env.do(t, "GET", "/api/keys/list", nil)
	assertStatus(t, rr, http.StatusOK)

	var resp model.ListKeysResponse
	decodeJSON(t, rr, &resp)
	if len(resp.Keys) != 1 {
		t.Fatalf("keys = %+v", resp.Keys)
	}
	got := resp.Keys[0]
	want := key.Key[:8] + "***" + key.Key[len(key.Key)-8:]
	if got.Key != want || got.Name != "ci" || !got.Active || got.LastUsed != nil {
		t.Errorf("key = %+v, want masked %q", got, want)
	}
	if strings.Contains(rr.Body.String(), key.Key) {
		t.Error("list leaked a raw key")
	}
}

func TestListKeys_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, "GET", "/api/keys/list", nil)
	if strings.TrimSpace(rr.Body.String()) != `{"keys":[]}` {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestDeleteKey(t *testing.T) {
	env := newTestEnv(t, nil)
	key, _ := env.store.Issue(context.Background(), "ci")

	rr := env.do(t, "DELETE", "/api/keys/"+key.Key, nil)
	assertStatus(t, rr, http.StatusOK)
	var resp model.MessageResponse
	decodeJSON(t, rr, &resp)
	if resp.Message != "API key deleted successfully" {
		t.Errorf("Message = %q", resp.Message)
	}

	rr = env.do(t, "DELETE", "/api/keys/"+key.Key, nil)
	assertStatus(t, rr, http.StatusNotFound)
	var errResp model.ErrorResponse
	decodeJSON(t, rr, &errResp)
	if errResp.Error != "API key not found" {
		t.Errorf("Error = %q", errResp.Error)
	}
}

func TestValidateKey(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	active, _ := env.store.Issue(ctx, "active")
	disabled, _ := env.store.Issue(ctx, "disabled")
	if err := env.store.SetActive(ctx, disabled.Key, false); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		headers []string
		status  int
		valid   bool
		errMsg  string
	}{
		{"no key", nil, http.StatusBadRequest, false, "No API key provided"},
		{"active via header", []string{"X-API-Key", active.Key}, http.StatusOK, true, ""},
		{"active via bearer", []string{"Authorization", "Bearer " + active.Key}, http.StatusOK, true, ""},
		{"inactive", []string{"X-API-Key", disabled.Key}, http.StatusOK, false, "Invalid or inactive API key"},
		{"unknown", []string{"X-API-Key", "nope"}, http.StatusOK, false, "Invalid or inactive API key"},
		{"master key is not a stored key", []string{"X-API-Key", "master-key-0123456789"}, http.StatusOK, false, "Invalid or inactive API key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/keys/validate", nil, tt.headers...)
			assertStatus(t, rr, tt.status)

			var resp model.ValidateKeyResponse
			decodeJSON(t, rr, &resp)
			if resp.Valid != tt.valid || resp.Error != tt.errMsg {
				t.Errorf("response = %+v", resp)
			}
			if tt.valid && (resp.Name != "active" || resp.Created == nil) {
				t.Errorf("response = %+v", resp)
			}
		})
	}

	k, _ := env.store.Get(ctx, active.Key)
	if k.LastUsed != nil {
		t.Error("validate must not update last_used")
	}
}

// ---------------------------------------------------------------------------
// System and pages
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, "GET", "/health", nil)
	assertStatus(t, rr, http.StatusOK)
	if strings.TrimSpace(rr.Body.String()) != `{"status":"success","reply":"ok"}` {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestDebugAuth(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, "GET", "/api/debug/auth", nil)
	assertStatus(t, rr, http.StatusOK)

	var resp model.AuthDebugResponse
	decodeJSON(t, rr, &resp)
	if !resp.HasMasterKey || resp.MasterKeysCount != 1 {
		t.Errorf("response = %+v", resp)
	}
	if resp.MasterKeysMasked[0] != "mast***6789" || resp.MasterKeysLengths[0] != 21 {
		t.Errorf("masked = %v lengths = %v", resp.MasterKeysMasked, resp.MasterKeysLengths)
	}
	if strings.Contains(rr.Body.String(), "master-key-0123456789") {
		t.Error("debug endpoint leaked a master key")
	}
}

func TestOpenAPI(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, "GET", "/openapi.json", nil)
	assertStatus(t, rr, http.StatusOK)

	var doc map[string]any
	decodeJSON(t, rr, &doc)
	if doc["openapi"] != "3.1.0" {
		t.Errorf("openapi = %v", doc["openapi"])
	}
}

func TestIndexCreatesSession(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, "GET", "/", nil)
	assertStatus(t, rr, http.StatusOK)

	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "<title>Chatbot Honeypot</title>") {
		t.Error("page title not rendered")
	}
	if env.sessions.Len() != 1 {
		t.Errorf("sessions = %d, want 1", env.sessions.Len())
	}
	sess, ok, _ := env.sessions.Load(context.Background(), mustClientID(t, env))
	if !ok || sess.Mode != model.ModeNormal || len(sess.History) != 1 {
		t.Errorf("session = %+v", sess)
	}
}

func TestTesterPage(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, "GET", "/test", nil)
	assertStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `<option value="POST /api/keys/validate">`) {
		t.Error("tester page is missing the endpoint list")
	}
}
