package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/service"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/session"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/ui"
)

// endpoint is one entry in the tester page's endpoint picker.
type endpoint struct {
	Method string
	Path   string
}

var testerEndpoints = []endpoint{
	{"POST", "/chat"},
	{"POST", "/api/chat"},
	{"POST", "/reset"},
	{"POST", "/api/reset"},
	{"GET", "/health"},
	{"POST", "/api/keys/create"},
	{"GET", "/api/keys/list"},
	{"POST", "/api/keys/validate"},
	{"GET", "/api/debug/auth"},
}

// PageHandler renders the HTML pages.
type PageHandler struct {
	tmpl   *template.Template
	chat   *service.ChatService
	title  string
	logger *zap.Logger
}

// NewPageHandler parses the embedded templates.
func NewPageHandler(chat *service.ChatService, title string, logger *zap.Logger) (*PageHandler, error) {
	tmpl, err := ui.Templates()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageHandler{tmpl: tmpl, chat: chat, title: title, logger: logger}, nil
}

// Index renders the chat page and makes sure the caller has a session.
// GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	clientID := session.ClientIDFromContext(r.Context())
	if _, err := h.chat.Session(r.Context(), clientID); err != nil {
		h.logger.Warn("failed to initialise session", zap.String("client_id", clientID), zap.Error(err))
	}
	h.render(w, ui.IndexPage, map[string]any{"Title": h.title})
}

// Tester renders the API tester page.
// GET /test
func (h *PageHandler) Tester(w http.ResponseWriter, r *http.Request) {
	h.render(w, ui.TesterPage, map[string]any{
		"Title":     h.title,
		"Endpoints": testerEndpoints,
	})
}

func (h *PageHandler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("failed to render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
