package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/session"
)

// Session resolves the caller's client id from the signed session cookie.
// Requests without a valid cookie get a fresh id and a new cookie. The id
// is available to handlers through session.ClientIDFromContext.
func Session(codec *session.CookieCodec, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, err := codec.ClientID(r)
			if err != nil {
				if err == session.ErrInvalidCookie {
					logger.Debug("discarding invalid session cookie",
						zap.String("request_id", GetRequestID(r.Context())))
				}
				clientID = session.NewClientID()
				ck, err := codec.Issue(clientID)
				if err != nil {
					logger.Error("failed to issue session cookie", zap.Error(err))
				} else {
					http.SetCookie(w, ck)
				}
			}
			next.ServeHTTP(w, r.WithContext(session.WithClientID(r.Context(), clientID)))
		})
	}
}
