package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/config"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/service"
)

// KeyHandler manages the stored API keys.
type KeyHandler struct {
	store  *config.Store
	logger *zap.Logger
}

// NewKeyHandler creates a new KeyHandler.
func NewKeyHandler(store *config.Store, logger *zap.Logger) *KeyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeyHandler{store: store, logger: logger}
}

// Create issues a new API key and returns it exactly once.
// POST /api/keys/create
func (h *KeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	req := decodeBody[model.CreateKeyRequest](r, h.logger)

	key, err := h.store.Issue(r.Context(), req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate key: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, model.CreateKeyResponse{
		APIKey:  key.Key,
		Name:    key.Name,
		Created: key.Created,
	})
}

// List returns every stored key with its value masked.
// GET /api/keys/list
func (h *KeyHandler) List(w http.ResponseWriter, r *http.Request) {
	keys := h.store.List(r.Context())
	out := make([]model.MaskedAPIKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.Masked())
	}
	writeJSON(w, http.StatusOK, model.ListKeysResponse{Keys: out})
}

// Delete removes a stored key.
// DELETE /api/keys/{key}
func (h *KeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !h.store.Revoke(r.Context(), key) {
		writeError(w, http.StatusNotFound, "API key not found")
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "API key deleted successfully"})
}

// Validate reports whether the presented key is a stored, active key.
// Master keys are not reported as valid here. The check does not update
// last_used.
// POST /api/keys/validate
func (h *KeyHandler) Validate(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(service.ExtractAPIKey(r.Header))
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, model.ValidateKeyResponse{Error: "No API key provided"})
		return
	}

	key := h.store.Validate(r.Context(), raw)
	if key == nil {
		writeJSON(w, http.StatusOK, model.ValidateKeyResponse{Error: "Invalid or inactive API key"})
		return
	}

	created := key.Created
	writeJSON(w, http.StatusOK, model.ValidateKeyResponse{
		Valid:   true,
		Name:    key.Name,
		Created: &created,
	})
}
