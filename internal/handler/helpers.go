package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, model.NewErrorResponse(message))
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(v)
}

// decodeBody decodes the request body into a T. A missing or malformed
// body yields the zero T; decode failures are logged at debug level.
func decodeBody[T any](r *http.Request, logger *zap.Logger) T {
	var v T
	if r.Body == nil || r.Body == http.NoBody {
		return v
	}
	if err := readJSON(r, &v); err != nil {
		logger.Debug("ignoring malformed request body",
			zap.String("path", r.URL.Path), zap.Error(err))
		var zero T
		return zero
	}
	return v
}
