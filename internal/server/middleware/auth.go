package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/service"
)

type contextKeyAuth string

// AuthPrincipalKey is the context key for the authenticated principal.
const AuthPrincipalKey contextKeyAuth = "auth_principal"

// Messages returned by RequireAPIKey.
const (
	MsgMissingKey = "Unauthorized. Provide API key via X-API-Key or Authorization: Bearer."
	MsgInvalidKey = "Invalid API key."
	MsgAuthFailed = "Server error while validating API key."
)

// Authenticator validates a raw API key.
type Authenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*service.Principal, error)
}

// RequireAPIKey returns an HTTP middleware that rejects requests without a
// valid master or stored API key. The key is read from X-API-Key or an
// Authorization Bearer header. On success the Principal is attached to the
// request context.
func RequireAPIKey(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := authenticate(r, auth)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrNoCredential):
				writeError(w, http.StatusUnauthorized, MsgMissingKey)
				return
			case errors.Is(err, service.ErrInvalidKey):
				writeError(w, http.StatusUnauthorized, MsgInvalidKey)
				return
			default:
				logger.Error("api key validation failed",
					zap.String("path", r.URL.Path),
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err),
				)
				writeError(w, http.StatusInternalServerError, MsgAuthFailed)
				return
			}

			ctx := context.WithValue(r.Context(), AuthPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate runs the authenticator, turning a panic into an error.
func authenticate(r *http.Request, auth Authenticator) (p *service.Principal, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p, err = nil, &panicError{value: rec}
		}
	}()
	return auth.Authenticate(r.Context(), service.ExtractAPIKey(r.Header))
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	if err, ok := e.value.(error); ok {
		return "panic: " + err.Error()
	}
	if s, ok := e.value.(string); ok {
		return "panic: " + s
	}
	return "panic during authentication"
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil if no principal is present.
func GetPrincipal(ctx context.Context) *service.Principal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*service.Principal); ok {
		return p
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.NewErrorResponse(message))
}
