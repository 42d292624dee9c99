package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/classifier"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/config"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/llm"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/persona"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/reply"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/service"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/session"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// HONEYPOT_DATA_DIR env var, or ~/.honeypot as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("HONEYPOT_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".honeypot")
}

// loadSettings resolves the effective settings from viper.
func loadSettings() (*config.Settings, error) {
	s, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	s.ResolveKeyFile(resolveDataDir())
	return s, nil
}

// openKeyStore opens the credential store named by the settings, creating
// the data dir when the default location is used.
func openKeyStore(s *config.Settings, logger *zap.Logger) (*config.Store, error) {
	if err := os.MkdirAll(filepath.Dir(s.Auth.KeyFile), 0755); err != nil {
		return nil, fmt.Errorf("create key file directory: %w", err)
	}
	return config.NewStore(s.Auth.KeyFile, logger), nil
}

// newLogger builds a production logger, or a development one in debug mode.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// engine is the chat pipeline shared by serve, chat and mcp.
type engine struct {
	classifier *classifier.Classifier
	personas   persona.Set
	sessions   *session.MemoryStore
	replies    *reply.Generator
	chat       *service.ChatService
	closer     io.Closer
}

// Close releases the model client, if it holds any resources.
func (e *engine) Close() error {
	if e.closer != nil {
		return e.closer.Close()
	}
	return nil
}

// newEngine wires the classifier, personas, session store and reply
// generator. A model that cannot be constructed is replaced by one that
// fails each call, so the failure surfaces per request.
func newEngine(ctx context.Context, s *config.Settings, logger *zap.Logger) *engine {
	e := &engine{
		classifier: classifier.New(),
		personas:   persona.Default(),
		sessions:   session.NewMemoryStore(s.Session.TTL, session.WithMaxEntries(s.Session.MaxSessions)),
	}

	var gen llm.Generator
	if !s.LLM.FastMode {
		m, err := llm.New(ctx, llm.Config{
			Provider:    s.LLM.Provider,
			Token:       s.LLM.Token,
			Model:       s.LLM.Model,
			BaseURL:     s.LLM.BaseURL,
			Temperature: s.LLM.Temperature,
			MaxTokens:   s.LLM.MaxTokens,
			TopP:        s.LLM.TopP,
			Timeout:     s.LLM.Timeout,
		}, logger)
		if err != nil {
			logger.Warn("language model unavailable, chat requests will fail until it is configured",
				zap.String("provider", s.LLM.Provider), zap.Error(err))
			m = llm.Unavailable(llm.ProviderName(s.LLM.Provider), err)
		}
		if c, ok := m.(io.Closer); ok {
			e.closer = c
		}
		gen = m
	}

	policy := reply.PolicyModel
	if s.LLM.FastMode {
		policy = reply.PolicyFast
	}
	e.replies = reply.New(gen, reply.Options{
		Policy:           policy,
		ScriptedHoneypot: s.LLM.ScriptedHoneypot,
	}, logger)

	e.chat = service.NewChatService(e.classifier, session.NewMachine(e.personas), e.sessions, e.replies, logger)
	return e
}

// bindFlags returns a PreRunE hook binding settings keys to the running
// command's flags. Binding at run time keeps commands that share a key
// (serve, chat and mcp all have --fast) from overwriting each other.
func bindFlags(keys map[string]string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		for key, flag := range keys {
			if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return fmt.Errorf("bind --%s: %w", flag, err)
			}
		}
		return nil
	}
}

// --- PID file management ---

func pidFilePath() string {
	return filepath.Join(resolveDataDir(), "honeypot.pid")
}

func writePID(pid int) error {
	dir := resolveDataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0644)
}

func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePID() {
	os.Remove(pidFilePath())
}

func logFilePath() string {
	return filepath.Join(resolveDataDir(), "honeypot.log")
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
