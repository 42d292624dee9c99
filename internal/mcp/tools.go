package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/service"
)

// registerTools registers the honeypot tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {
	srv.AddTool(
		mcp.NewTool("classify_message",
			mcp.WithDescription(
				"Check a message against the scam indicator list. Returns whether it "+
					"looks like a scam, the confidence and the indicators that matched. "+
					"Does not start or change any conversation.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("The message to classify"),
			),
		),
		s.handleClassify,
	)

	srv.AddTool(
		mcp.NewTool("honeypot_chat",
			mcp.WithDescription(
				"Send a message to the honeypot assistant and get its reply. The first "+
					"message that looks like a scam switches the conversation to the decoy "+
					"persona, which stays active until the conversation is reset.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("message",
				mcp.Required(),
				mcp.Description("The incoming message"),
			),
			mcp.WithString("conversation_id",
				mcp.Description("Conversation to continue. Defaults to \"default\"."),
			),
		),
		s.handleChat,
	)

	srv.AddTool(
		mcp.NewTool("honeypot_reset",
			mcp.WithDescription("Forget a conversation so the next message starts in normal mode."),
			mcp.WithToolAnnotation(mcp.ToolAnnotation{
				ReadOnlyHint:    boolPtr(false),
				DestructiveHint: boolPtr(true),
				IdempotentHint:  boolPtr(true),
			}),
			mcp.WithString("conversation_id",
				mcp.Description("Conversation to reset. Defaults to \"default\"."),
			),
		),
		s.handleReset,
	)
}

func (s *MCPServer) handleClassify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := requireString(request, "text")
	if err != nil {
		return toolError("%v", err)
	}
	return successJSON(s.classifier.Classify(text))
}

func (s *MCPServer) handleChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := requireString(request, "message")
	if err != nil {
		return toolError("%v", err)
	}
	id := conversationID(request)

	res, err := s.chat.Chat(ctx, id, message)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			return toolError("Empty message.")
		}
		s.logger.Error("mcp chat failed", zap.String("conversation", id), zap.Error(err))
		return toolError("An unexpected error occurred: %v", err)
	}

	return successJSON(model.ChatResponse{
		Status:     model.StatusSuccess,
		Scam:       res.Verdict.IsScam,
		Confidence: res.Verdict.Confidence,
		Mode:       res.Mode,
		Reply:      res.Reply,
		Warning:    res.Warning,
	})
}

func (s *MCPServer) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := conversationID(request)
	if err := s.chat.Reset(ctx, id); err != nil {
		return toolError("Failed to reset conversation: %v", err)
	}
	return successJSON(model.ResetResponse{Status: model.StatusSuccess, OK: true})
}
