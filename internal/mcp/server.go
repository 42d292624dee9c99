// Package mcp exposes the honeypot to MCP clients: message classification,
// honeypot conversations and the persona prompts.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/classifier"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/persona"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/service"
)

// conversationPrefix namespaces MCP conversations in the session store so
// they never collide with browser client ids.
const conversationPrefix = "mcp:"

// DefaultConversation is used when a tool call names no conversation.
const DefaultConversation = "default"

// MCPServer wraps the mcp-go server with the honeypot's tools and resources.
type MCPServer struct {
	chat       *service.ChatService
	classifier *classifier.Classifier
	personas   persona.Set
	logger     *zap.Logger
	server     *server.MCPServer
}

// NewMCPServer creates an MCPServer with all tools and resources registered.
// The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(chat *service.ChatService, c *classifier.Classifier, personas persona.Set, version string, logger *zap.Logger) *MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MCPServer{
		chat:       chat,
		classifier: c,
		personas:   personas,
		logger:     logger,
	}

	mcpServer := server.NewMCPServer(
		"Chatbot Honeypot",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio serves MCP over stdin/stdout for clients that launch the
// honeypot as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP serves MCP in Streamable HTTP mode on addr (e.g. ":3001").
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", zap.String("addr", addr))
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:    boolPtr(false),
		DestructiveHint: boolPtr(false),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
