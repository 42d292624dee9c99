package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/server"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/service"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/session"
)

const banner = `
 _   _  ___  _   _ _____ __   __ ____   ___ _____
| | | |/ _ \| \ | | ____|\ \ / /|  _ \ / _ \_   _|
| |_| | | | |  \| |  _|   \ V / | |_) | | | || |
|  _  | |_| | |\  | |___   | |  |  __/| |_| || |
|_| |_|\___/|_| \_|_____|  |_|  |_|    \___/ |_|
`

func newServeCmd() *cobra.Command {
	var background bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the honeypot HTTP server",
		Long:  "Start the HTTP server that hosts the chat UI, the chat API and API key management.",
		Example: `  honeypot serve
  honeypot serve --port 8080 --fast
  honeypot serve --background`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if background {
				return startBackground()
			}
			return runServe()
		},
	}

	cmd.Flags().IntP("port", "p", 5000, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().Bool("fast", false, "Use scripted replies only, never call the model")
	cmd.Flags().Bool("debug", false, "Enable development logging")
	cmd.Flags().String("key-file", "", "API key file (default: <data-dir>/api_keys.json)")
	cmd.Flags().BoolVar(&background, "background", false, "Run the server detached, logging to <data-dir>/honeypot.log")

	cmd.PreRunE = bindFlags(map[string]string{
		"server.port":   "port",
		"server.host":   "host",
		"server.debug":  "debug",
		"llm.fast_mode": "fast",
		"auth.key_file": "key-file",
	})

	return cmd
}

func runServe() error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	logger, err := newLogger(settings.Server.Debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	fmt.Print(banner)
	fmt.Println()

	if settings.UsingDefaultSecret() {
		logger.Warn("session secret is the development default; set HONEYPOT_SESSION_SECRET")
	}

	keys, err := openKeyStore(settings, logger)
	if err != nil {
		return err
	}
	logger.Info("credential store ready", zap.String("path", keys.Path()))

	authSvc := service.NewAuthService(keys, settings.Auth.MasterKeys, logger)
	if len(settings.Auth.MasterKeys) == 0 && len(keys.List(context.Background())) == 0 {
		logger.Warn("no master key and no issued keys - create one with: honeypot key create")
	}

	eng := newEngine(context.Background(), settings, logger)
	defer eng.Close()

	codec := session.NewCookieCodec(
		settings.Session.CookieName,
		settings.Session.Secret,
		settings.Session.TTL,
		settings.Session.SecureCookie,
	)

	srvCfg := server.DefaultConfig()
	srvCfg.Host = settings.Server.Host
	srvCfg.Port = settings.Server.Port
	srvCfg.ShutdownTimeout = settings.Server.ShutdownTimeout
	srvCfg.CORSOrigins = settings.Server.CORSOrigins
	srvCfg.KeyCreatePerMinute = settings.RateLimit.KeyCreatePerMinute
	srvCfg.ChatPerMinute = settings.RateLimit.ChatPerMinute
	srvCfg.Version = versionString()

	srv, err := server.New(srvCfg, server.Deps{
		Chat:    eng.chat,
		Auth:    authSvc,
		Keys:    keys,
		Cookies: codec,
	}, logger)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	if err := writePID(os.Getpid()); err != nil {
		logger.Warn("failed to write PID file", zap.Error(err))
	}
	defer removePID()

	fmt.Printf("→ Honeypot %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", settings.Server.Host, settings.Server.Port)
	fmt.Printf("→ Chat UI:    http://%s:%d/\n", settings.Server.Host, settings.Server.Port)
	fmt.Printf("→ Tester:     http://%s:%d/test\n", settings.Server.Host, settings.Server.Port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", settings.Server.Host, settings.Server.Port)
	fmt.Printf("→ Replies:    %s\n", eng.replies.Policy())
	fmt.Println()

	return srv.ListenAndServe()
}

// startBackground re-executes the current binary without --background,
// detached from the terminal, with output appended to the log file.
func startBackground() error {
	if pid, err := readPID(); err == nil && isProcessRunning(pid) {
		return fmt.Errorf("server already running (PID %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	if err := os.MkdirAll(resolveDataDir(), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	args := make([]string, 0, len(os.Args))
	for _, a := range os.Args[1:] {
		if a == "--background" || a == "--background=true" {
			continue
		}
		args = append(args, a)
	}

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	child.Env = append(os.Environ(), "HONEYPOT_DATA_DIR="+resolveDataDir())
	setSysProcAttr(child)

	if err := child.Start(); err != nil {
		return fmt.Errorf("start background server: %w", err)
	}
	if err := writePID(child.Process.Pid); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	child.Process.Release()

	fmt.Printf("Honeypot server started in background (PID %d)\n", child.Process.Pid)
	fmt.Printf("  Logs: %s\n", logFilePath())
	fmt.Println("  Stop with: honeypot stop")
	return nil
}
