package model

import "time"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Reply  string `json:"reply"`
}

// NewErrorResponse wraps message in the error envelope.
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Status: StatusError, Error: message, Reply: ""}
}

// ChatRequest is the body accepted by every chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is returned by the chat endpoints on success.
type ChatResponse struct {
	Status     string  `json:"status"`
	Scam       bool    `json:"scam"`
	Confidence float64 `json:"confidence"`
	Mode       Mode    `json:"mode"`
	Reply      string  `json:"reply"`
	Warning    string  `json:"warning,omitempty"`
}

// ResetResponse is returned by the reset endpoints.
type ResetResponse struct {
	Status string `json:"status"`
	OK     bool   `json:"ok"`
	Reply  string `json:"reply"`
}

// HealthResponse is returned by the liveness check.
type HealthResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
}

// CreateKeyRequest is the optional body of a key creation request.
type CreateKeyRequest struct {
	Name string `json:"name"`
}

// CreateKeyResponse carries the only copy of a raw key ever returned.
type CreateKeyResponse struct {
	APIKey  string    `json:"api_key"`
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
}

// ListKeysResponse lists masked key records.
type ListKeysResponse struct {
	Keys []MaskedAPIKey `json:"keys"`
}

// ValidateKeyResponse reports whether a key is usable.
type ValidateKeyResponse struct {
	Valid   bool       `json:"valid"`
	Name    string     `json:"name,omitempty"`
	Created *time.Time `json:"created,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthDebugResponse describes the configured master keys without revealing
// them.
type AuthDebugResponse struct {
	HasMasterKey      bool     `json:"has_master_key"`
	MasterKeysCount   int      `json:"master_keys_count"`
	MasterKeysMasked  []string `json:"master_keys_masked"`
	MasterKeysLengths []int    `json:"master_keys_lengths"`
}
