package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies upstream failures by how the caller should recover.
type Kind int

const (
	// KindUnknown failures are surfaced to the client.
	KindUnknown Kind = iota
	// KindAuth failures (401/403) fall back to a scripted reply.
	KindAuth
	// KindTimeout failures fall back to a "try again" reply.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is an upstream model failure.
type Error struct {
	Kind     Kind
	Provider string
	// Status is the HTTP status associated with the failure, if known.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + " error"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// wrap classifies err and wraps it with provider context.
func wrap(provider string, err error) error {
	if err == nil {
		return nil
	}
	kind, code := Classify(err)
	return &Error{Kind: kind, Provider: provider, Status: code, Err: err}
}

// KindOf returns the Kind of err, classifying it if it is not already an
// *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	k, _ := Classify(err)
	return k
}

// Classify inspects err for an HTTP status, gRPC status or timeout, falling
// back to matching the error text. It returns the kind and the best-known
// HTTP status (0 if none).
func Classify(err error) (Kind, int) {
	if err == nil {
		return KindUnknown, 0
	}

	code := statusCode(err)
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth, code
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout, code
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout, http.StatusGatewayTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout, http.StatusGatewayTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"):
		return KindAuth, http.StatusUnauthorized
	// Without an explicit 401 every auth failure reads as access denied.
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "403") || strings.Contains(msg, "forbidden"):
		return KindAuth, http.StatusForbidden
	case strings.Contains(msg, "504") ||
		strings.Contains(msg, "gateway time-out") ||
		strings.Contains(msg, "gateway timeout") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "timed out"):
		return KindTimeout, http.StatusGatewayTimeout
	}
	return KindUnknown, code
}

// statusCode extracts an HTTP status from the SDK error types the adapters
// produce.
func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unauthenticated:
			return http.StatusUnauthorized
		case codes.PermissionDenied:
			return http.StatusForbidden
		case codes.DeadlineExceeded:
			return http.StatusGatewayTimeout
		}
	}
	return 0
}
