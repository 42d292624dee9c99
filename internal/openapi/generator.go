// Package openapi builds the OpenAPI 3.1 document describing the honeypot's
// HTTP API.
package openapi

import (
	"net/http"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
)

// Generate returns the OpenAPI document for the HTTP API. baseURL becomes
// the single server entry and may be empty.
func Generate(baseURL, version string) *openapi3.T {
	if version == "" {
		version = "dev"
	}
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Chatbot Honeypot API",
			Description: "Conversational scam honeypot. Messages are classified against scam indicators and scam senders are engaged by a decoy persona.",
			Version:     version,
		},
	}
	if baseURL != "" {
		doc.Servers = openapi3.Servers{{URL: baseURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["apiKey"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type: "apiKey",
			In:   "header",
			Name: "X-API-Key",
		},
	}
	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:   "http",
			Scheme: "bearer",
		},
	}
	for name, s := range componentSchemas() {
		doc.Components.Schemas[name] = s
	}

	doc.Paths = openapi3.NewPaths()
	addChatPaths(doc)
	addKeyPaths(doc)
	addSystemPaths(doc)

	return doc
}

// secured marks an operation as requiring an API key.
func secured() *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{
		{"apiKey": {}},
		{"bearerAuth": {}},
	}
}

func chatOperation(id, summary string, auth bool) *openapi3.Operation {
	op := &openapi3.Operation{
		Tags:        []string{"chat"},
		Summary:     summary,
		OperationID: id,
		RequestBody: &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
			WithRequired(true).
			WithJSONSchemaRef(ref("ChatRequest"))},
		Responses: newResponses(http.StatusOK, "Classification and reply", ref("ChatResponse"),
			http.StatusBadRequest, http.StatusInternalServerError),
	}
	if auth {
		op.Security = secured()
		op.Responses.Set(statusKey(http.StatusUnauthorized), errorResponse(http.StatusUnauthorized))
	}
	return op
}

func resetOperation(id string, auth bool) *openapi3.Operation {
	op := &openapi3.Operation{
		Tags:        []string{"chat"},
		Summary:     "Reset the caller's conversation",
		Description: "Discards the session state and expires the session cookie.",
		OperationID: id,
		Responses:   newResponses(http.StatusOK, "Session reset", ref("ResetResponse")),
	}
	if auth {
		op.Security = secured()
		op.Responses.Set(statusKey(http.StatusUnauthorized), errorResponse(http.StatusUnauthorized))
	}
	return op
}

func addChatPaths(doc *openapi3.T) {
	doc.Paths.Set("/", &openapi3.PathItem{
		Post: chatOperation("chat_root", "Chat (authenticated)", true),
	})
	doc.Paths.Set("/chat", &openapi3.PathItem{
		Post: chatOperation("chat", "Chat with the assistant", false),
	})
	doc.Paths.Set("/api/chat", &openapi3.PathItem{
		Post: chatOperation("api_chat", "Chat (authenticated)", true),
	})
	doc.Paths.Set("/reset", &openapi3.PathItem{
		Post: resetOperation("reset", false),
	})
	doc.Paths.Set("/api/reset", &openapi3.PathItem{
		Post: resetOperation("api_reset", true),
	})
}

func addKeyPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/keys/create", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"keys"},
			Summary:     "Create an API key",
			Description: "Rate limited per client IP. The key is returned once and cannot be recovered.",
			OperationID: "create_key",
			RequestBody: &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
				WithJSONSchemaRef(ref("CreateKeyRequest"))},
			Responses: newResponses(http.StatusCreated, "Created key", ref("CreateKeyResponse"),
				http.StatusTooManyRequests),
		},
	})

	doc.Paths.Set("/api/keys/list", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"keys"},
			Summary:     "List API keys with masked values",
			OperationID: "list_keys",
			Security:    secured(),
			Responses: newResponses(http.StatusOK, "Stored keys", ref("ListKeysResponse"),
				http.StatusUnauthorized),
		},
	})

	keyParam := openapi3.NewPathParameter("key").
		WithDescription("The full API key.").
		WithSchema(openapi3.NewStringSchema())
	doc.Paths.Set("/api/keys/{key}", &openapi3.PathItem{
		Delete: &openapi3.Operation{
			Tags:        []string{"keys"},
			Summary:     "Revoke an API key",
			OperationID: "revoke_key",
			Security:    secured(),
			Parameters:  openapi3.Parameters{{Value: keyParam}},
			Responses: newResponses(http.StatusOK, "Key deleted", ref("MessageResponse"),
				http.StatusUnauthorized, http.StatusNotFound),
		},
	})

	doc.Paths.Set("/api/keys/validate", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"keys"},
			Summary:     "Check whether an API key is valid",
			Description: "Reads the key from X-API-Key or an Authorization Bearer header. Invalid keys still answer 200 with valid=false.",
			OperationID: "validate_key",
			Responses:   newResponses(http.StatusOK, "Validation result", ref("ValidateKeyResponse")),
		},
	})
	doc.Paths.Value("/api/keys/validate").Post.Responses.Set(statusKey(http.StatusBadRequest), &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription("No API key provided").
			WithJSONSchemaRef(ref("ValidateKeyResponse")),
	})
}

func addSystemPaths(doc *openapi3.T) {
	health := &openapi3.Operation{
		Tags:        []string{"system"},
		Summary:     "Liveness check",
		OperationID: "health",
		Responses:   newResponses(http.StatusOK, "Service is up", ref("HealthResponse")),
	}
	doc.Paths.Set("/health", &openapi3.PathItem{Get: health})

	healthz := *health
	healthz.OperationID = "healthz"
	doc.Paths.Set("/healthz", &openapi3.PathItem{Get: &healthz})

	doc.Paths.Set("/api/debug/auth", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Describe configured master keys without revealing them",
			OperationID: "debug_auth",
			Responses:   newResponses(http.StatusOK, "Master key summary", ref("AuthDebugResponse")),
		},
	})

	doc.Paths.Set("/openapi.json", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "This document",
			OperationID: "openapi",
			Responses: newResponses(http.StatusOK, "OpenAPI document",
				&openapi3.SchemaRef{Value: openapi3.NewObjectSchema()}),
		},
	})
}

// newResponses builds a Responses map with one success response plus the
// listed error statuses, all using the shared error envelope.
func newResponses(status int, description string, schema *openapi3.SchemaRef, errorStatuses ...int) *openapi3.Responses {
	responses := openapi3.NewResponses(openapi3.WithStatus(status, &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(description).
			WithJSONSchemaRef(schema),
	}))
	for _, code := range errorStatuses {
		responses.Set(statusKey(code), errorResponse(code))
	}
	return responses
}

func errorResponse(code int) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(http.StatusText(code)).
			WithJSONSchemaRef(ref("ErrorResponse")),
	}
}

func statusKey(code int) string {
	return strconv.Itoa(code)
}
