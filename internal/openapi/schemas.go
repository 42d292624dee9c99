package openapi

import "github.com/getkin/kin-openapi/openapi3"

// componentSchemas returns the named request and response bodies shared by
// the operations.
func componentSchemas() openapi3.Schemas {
	return openapi3.Schemas{
		"ErrorResponse": object(map[string]*openapi3.Schema{
			"status": enumString("error"),
			"error":  described(openapi3.NewStringSchema(), "Human readable error message."),
			"reply":  openapi3.NewStringSchema(),
		}, "status", "error", "reply"),

		"ChatRequest": object(map[string]*openapi3.Schema{
			"message": described(openapi3.NewStringSchema(), "The incoming chat message."),
		}, "message"),

		"ChatResponse": object(map[string]*openapi3.Schema{
			"status":     enumString("success"),
			"scam":       described(openapi3.NewBoolSchema(), "Whether the message matched a scam indicator."),
			"confidence": described(openapi3.NewFloat64Schema(), "0.9 for scam, 0.2 otherwise."),
			"mode":       enumString("normal", "honeypot"),
			"reply":      described(openapi3.NewStringSchema(), "The assistant reply."),
			"warning":    described(openapi3.NewStringSchema(), "Set when a fallback reply was used."),
		}, "status", "scam", "confidence", "mode", "reply"),

		"ResetResponse": object(map[string]*openapi3.Schema{
			"status": enumString("success"),
			"ok":     openapi3.NewBoolSchema(),
			"reply":  openapi3.NewStringSchema(),
		}, "status", "ok", "reply"),

		"HealthResponse": object(map[string]*openapi3.Schema{
			"status": enumString("success"),
			"reply":  enumString("ok"),
		}, "status", "reply"),

		"CreateKeyRequest": object(map[string]*openapi3.Schema{
			"name": described(openapi3.NewStringSchema(), "Label for the key. Defaults to \"Unnamed Key\"."),
		}),

		"CreateKeyResponse": object(map[string]*openapi3.Schema{
			"api_key": described(openapi3.NewStringSchema(), "The full key. Shown only once."),
			"name":    openapi3.NewStringSchema(),
			"created": openapi3.NewDateTimeSchema(),
		}, "api_key", "name", "created"),

		"MaskedAPIKey": object(map[string]*openapi3.Schema{
			"key":       described(openapi3.NewStringSchema(), "Masked key."),
			"name":      openapi3.NewStringSchema(),
			"created":   openapi3.NewDateTimeSchema(),
			"last_used": openapi3.NewDateTimeSchema().WithNullable(),
			"active":    openapi3.NewBoolSchema(),
		}, "key", "name", "created", "active"),

		"ListKeysResponse": {Value: openapi3.NewObjectSchema().
			WithPropertyRef("keys", &openapi3.SchemaRef{Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: ref("MaskedAPIKey"),
			}}).
			WithRequired([]string{"keys"})},

		"ValidateKeyResponse": object(map[string]*openapi3.Schema{
			"valid":   openapi3.NewBoolSchema(),
			"name":    openapi3.NewStringSchema(),
			"created": openapi3.NewDateTimeSchema(),
			"error":   openapi3.NewStringSchema(),
		}, "valid"),

		"MessageResponse": object(map[string]*openapi3.Schema{
			"message": openapi3.NewStringSchema(),
		}, "message"),

		"AuthDebugResponse": object(map[string]*openapi3.Schema{
			"has_master_key":      openapi3.NewBoolSchema(),
			"master_keys_count":   openapi3.NewIntegerSchema(),
			"master_keys_masked":  openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()),
			"master_keys_lengths": openapi3.NewArraySchema().WithItems(openapi3.NewIntegerSchema()),
		}, "has_master_key", "master_keys_count", "master_keys_masked", "master_keys_lengths"),
	}
}

// object builds an object schema with the given properties and required
// field names.
func object(props map[string]*openapi3.Schema, required ...string) *openapi3.SchemaRef {
	s := openapi3.NewObjectSchema()
	for name, p := range props {
		s.WithProperty(name, p)
	}
	s.Required = required
	return &openapi3.SchemaRef{Value: s}
}

func enumString(values ...string) *openapi3.Schema {
	s := openapi3.NewStringSchema()
	for _, v := range values {
		s.Enum = append(s.Enum, v)
	}
	return s
}

func described(s *openapi3.Schema, description string) *openapi3.Schema {
	s.Description = description
	return s
}

func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}
