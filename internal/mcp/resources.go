package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
)

// registerResources adds the read-only resources: the scam indicator list
// and the persona prompts.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			"honeypot://indicators",
			"Scam Indicators",
			mcp.WithResourceDescription(
				"The keywords and phrases that mark a message as a likely scam.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleIndicatorsResource,
	)

	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"honeypot://persona/{mode}",
			"Persona Prompt",
			mcp.WithTemplateDescription(
				"System prompt used in the given mode: \"normal\" or \"honeypot\".",
			),
			mcp.WithTemplateMIMEType("text/plain"),
		),
		s.handlePersonaResource,
	)
}

func (s *MCPServer) handleIndicatorsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(s.classifier.Indicators(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal indicators: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func (s *MCPServer) handlePersonaResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {
	mode := model.Mode(strings.TrimPrefix(request.Params.URI, "honeypot://persona/"))
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown persona mode %q", mode)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     s.personas.Prompt(mode),
		},
	}, nil
}
