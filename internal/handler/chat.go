package handler

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/service"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/session"
)

// ChatHandler serves the chat and reset endpoints. The caller's client id
// comes from the session middleware.
type ChatHandler struct {
	chat   *service.ChatService
	codec  *session.CookieCodec
	logger *zap.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chat *service.ChatService, codec *session.CookieCodec, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{chat: chat, codec: codec, logger: logger}
}

// Chat classifies the message, advances the caller's session and returns
// the assistant reply.
// POST /, /chat, /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	req := decodeBody[model.ChatRequest](r, h.logger)
	clientID := session.ClientIDFromContext(r.Context())

	res, err := h.chat.Chat(r.Context(), clientID, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "Empty message.")
			return
		}
		h.logger.Error("chat failed", zap.String("client_id", clientID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("An unexpected error occurred: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, model.ChatResponse{
		Status:     model.StatusSuccess,
		Scam:       res.Verdict.IsScam,
		Confidence: res.Verdict.Confidence,
		Mode:       res.Mode,
		Reply:      res.Reply,
		Warning:    res.Warning,
	})
}

// Reset discards the caller's conversation and expires the session cookie.
// POST /reset, /api/reset
func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	clientID := session.ClientIDFromContext(r.Context())
	if err := h.chat.Reset(r.Context(), clientID); err != nil {
		h.logger.Warn("failed to reset session", zap.String("client_id", clientID), zap.Error(err))
	}
	http.SetCookie(w, h.codec.Expire())
	writeJSON(w, http.StatusOK, model.ResetResponse{
		Status: model.StatusSuccess,
		OK:     true,
		Reply:  "",
	})
}
