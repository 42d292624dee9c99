package handler

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/service"
)

// SystemHandler serves health, diagnostics and the API description.
type SystemHandler struct {
	auth *service.AuthService
	doc  *openapi3.T
}

// NewSystemHandler creates a new SystemHandler. doc is served as-is from
// /openapi.json.
func NewSystemHandler(auth *service.AuthService, doc *openapi3.T) *SystemHandler {
	return &SystemHandler{auth: auth, doc: doc}
}

// Health is the liveness check.
// GET /health, /healthz
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{Status: model.StatusSuccess, Reply: "ok"})
}

// DebugAuth describes the configured master keys without revealing them.
// GET /api/debug/auth
func (h *SystemHandler) DebugAuth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.auth.DebugInfo())
}

// OpenAPI serves the OpenAPI document.
// GET /openapi.json
func (h *SystemHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.doc)
}
