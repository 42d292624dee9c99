package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	hmcp "github.com/badboyoffical120-wq/chatbot-honeypot/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes scam classification
and honeypot conversations as tools. Supports stdio (default) and HTTP transports.

In stdio mode the server speaks JSON-RPC over stdin/stdout, suitable for MCP
clients that launch it as a subprocess. In HTTP mode it listens on --addr
using the Streamable HTTP transport.`,
		Example: `  honeypot mcp                                # stdio mode
  honeypot mcp --transport http --addr :3001  # HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, addr)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().StringVar(&addr, "addr", ":3001", "Listen address (only used with --transport http)")
	cmd.Flags().Bool("fast", false, "Use scripted replies only, never call the model")
	cmd.PreRunE = bindFlags(map[string]string{"llm.fast_mode": "fast"})

	return cmd
}

func runMCP(transport, addr string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	// stdout belongs to the protocol in stdio mode; logs go to stderr.
	cfg := zap.NewProductionConfig()
	if settings.Server.Debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	eng := newEngine(context.Background(), settings, logger)
	defer eng.Close()

	srv := hmcp.NewMCPServer(eng.chat, eng.classifier, eng.personas, versionString(), logger)

	switch transport {
	case "stdio":
		return srv.ServeStdio()
	case "http":
		return srv.ServeHTTP(addr)
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}
}
