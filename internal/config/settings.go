package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultSessionSecret is used when no secret is configured. It is only
// suitable for local development.
const DefaultSessionSecret = "dev-secret-key"

// KeyFileName is the credential store file created inside the data dir.
const KeyFileName = "api_keys.json"

// Settings is the fully resolved runtime configuration.
type Settings struct {
	Server    ServerSettings    `yaml:"server"`
	Session   SessionSettings   `yaml:"session"`
	Auth      AuthSettings      `yaml:"auth"`
	LLM       LLMSettings       `yaml:"llm"`
	RateLimit RateLimitSettings `yaml:"ratelimit"`
}

// ServerSettings controls the HTTP listener.
type ServerSettings struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Debug           bool          `yaml:"debug"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// SessionSettings controls the signed session cookie.
type SessionSettings struct {
	Secret       string        `yaml:"secret"`
	CookieName   string        `yaml:"cookie_name"`
	TTL          time.Duration `yaml:"ttl"`
	SecureCookie bool          `yaml:"secure_cookie"`
	// MaxSessions caps the conversations held in memory. 0 is unbounded.
	MaxSessions int `yaml:"max_sessions"`
}

// AuthSettings controls API key authentication.
type AuthSettings struct {
	MasterKeys []string `yaml:"master_keys"`
	KeyFile    string   `yaml:"key_file"`
}

// LLMSettings controls the reply model.
type LLMSettings struct {
	Provider         string        `yaml:"provider"`
	Token            string        `yaml:"token"`
	Model            string        `yaml:"model"`
	BaseURL          string        `yaml:"base_url"`
	FastMode         bool          `yaml:"fast_mode"`
	ScriptedHoneypot bool          `yaml:"scripted_honeypot"`
	Temperature      float64       `yaml:"temperature"`
	MaxTokens        int           `yaml:"max_tokens"`
	TopP             float64       `yaml:"top_p"`
	Timeout          time.Duration `yaml:"timeout"`
}

// RateLimitSettings caps request rates per client IP. Zero disables a limit.
type RateLimitSettings struct {
	KeyCreatePerMinute int `yaml:"key_create_per_minute"`
	ChatPerMinute      int `yaml:"chat_per_minute"`
}

// envAliases maps settings to the environment variables that may supply
// them, in order of precedence.
var envAliases = map[string][]string{
	"session.secret":   {"HONEYPOT_SESSION_SECRET", "SESSION_SECRET", "FLASK_SECRET_KEY"},
	"auth.master_keys": {"MASTER_API_KEY", "API_KEY", "X_API_KEY"},
	"auth.key_file":    {"HONEYPOT_KEY_FILE"},
	"llm.token":        {"LLM_API_TOKEN"},
	"llm.model":        {"HF_REPO_ID", "LLM_MODEL"},
	"llm.provider":     {"LLM_PROVIDER"},
	"llm.base_url":     {"LLM_BASE_URL"},
	"llm.fast_mode":    {"FAST_MODE"},
	"server.port":      {"PORT"},
	"server.debug":     {"HONEYPOT_DEBUG", "DEBUG"},
	"server.env":       {"FLASK_ENV", "APP_ENV"},
}

// providerTokenEnv lists the provider-specific token variables. They are
// consulted only for the configured provider, so a token meant for one
// provider is never sent to another.
var providerTokenEnv = map[string][]string{
	"huggingface": {"HUGGINGFACEHUB_API_TOKEN", "HF_TOKEN"},
	"openai":      {"OPENAI_API_KEY"},
	"gemini":      {"GEMINI_API_KEY"},
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("session.secret", DefaultSessionSecret)
	v.SetDefault("session.cookie_name", "honeypot_session")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.secure_cookie", false)
	v.SetDefault("session.max_sessions", 10000)

	v.SetDefault("llm.provider", "huggingface")
	v.SetDefault("llm.model", "mistralai/Mistral-7B-Instruct-v0.2")
	v.SetDefault("llm.fast_mode", false)
	v.SetDefault("llm.scripted_honeypot", false)
	v.SetDefault("llm.temperature", 0.5)
	v.SetDefault("llm.max_tokens", 60)
	v.SetDefault("llm.top_p", 0.9)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("ratelimit.key_create_per_minute", 10)
	v.SetDefault("ratelimit.chat_per_minute", 0)
}

// BindEnv binds the conventional environment variable names for each
// setting. Settings without an alias are still reachable through the
// HONEYPOT_ prefix when AutomaticEnv is enabled.
func BindEnv(v *viper.Viper) {
	for key, names := range envAliases {
		args := append([]string{key}, names...)
		v.BindEnv(args...)
	}
	for provider, names := range providerTokenEnv {
		args := append([]string{"llm.tokens." + provider}, names...)
		v.BindEnv(args...)
	}
}

// resolveToken returns the token for provider: its own variables first,
// then the provider-neutral llm.token.
func resolveToken(v *viper.Viper, provider string) string {
	if tok := strings.TrimSpace(v.GetString("llm.tokens." + provider)); tok != "" {
		return tok
	}
	return strings.TrimSpace(v.GetString("llm.token"))
}

// Load resolves and validates settings from v.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Server: ServerSettings{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			Debug:           ParseToggle(v.GetString("server.debug")) || strings.EqualFold(v.GetString("server.env"), "development"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			CORSOrigins:     splitList(v.Get("server.cors_origins")),
		},
		Session: SessionSettings{
			Secret:       v.GetString("session.secret"),
			CookieName:   v.GetString("session.cookie_name"),
			TTL:          v.GetDuration("session.ttl"),
			SecureCookie: ParseToggle(v.GetString("session.secure_cookie")),
			MaxSessions:  v.GetInt("session.max_sessions"),
		},
		Auth: AuthSettings{
			MasterKeys: splitList(v.Get("auth.master_keys")),
			KeyFile:    strings.TrimSpace(v.GetString("auth.key_file")),
		},
		LLM: LLMSettings{
			Provider:         strings.ToLower(strings.TrimSpace(v.GetString("llm.provider"))),
			Model:            strings.TrimSpace(v.GetString("llm.model")),
			BaseURL:          strings.TrimSpace(v.GetString("llm.base_url")),
			FastMode:         ParseToggle(v.GetString("llm.fast_mode")),
			ScriptedHoneypot: ParseToggle(v.GetString("llm.scripted_honeypot")),
			Temperature:      v.GetFloat64("llm.temperature"),
			MaxTokens:        v.GetInt("llm.max_tokens"),
			TopP:             v.GetFloat64("llm.top_p"),
			Timeout:          v.GetDuration("llm.timeout"),
		},
		RateLimit: RateLimitSettings{
			KeyCreatePerMinute: v.GetInt("ratelimit.key_create_per_minute"),
			ChatPerMinute:      v.GetInt("ratelimit.chat_per_minute"),
		},
	}
	s.LLM.Token = resolveToken(v, s.LLM.Provider)
	if s.Session.Secret == "" {
		s.Session.Secret = DefaultSessionSecret
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks settings for values the server cannot run with.
func (s *Settings) Validate() error {
	switch {
	case s.Server.Port < 1 || s.Server.Port > 65535:
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, s.Server.Port)
	case s.Session.TTL <= 0:
		return fmt.Errorf("%w: session.ttl must be positive", ErrInvalidConfig)
	case s.Session.MaxSessions < 0:
		return fmt.Errorf("%w: session.max_sessions must not be negative", ErrInvalidConfig)
	case s.Session.CookieName == "":
		return fmt.Errorf("%w: session.cookie_name is empty", ErrInvalidConfig)
	case s.LLM.MaxTokens <= 0:
		return fmt.Errorf("%w: llm.max_tokens must be positive", ErrInvalidConfig)
	case s.LLM.Temperature < 0:
		return fmt.Errorf("%w: llm.temperature must not be negative", ErrInvalidConfig)
	case s.LLM.Timeout <= 0:
		return fmt.Errorf("%w: llm.timeout must be positive", ErrInvalidConfig)
	case s.RateLimit.KeyCreatePerMinute < 0 || s.RateLimit.ChatPerMinute < 0:
		return fmt.Errorf("%w: rate limits must not be negative", ErrInvalidConfig)
	}
	switch s.LLM.Provider {
	case "huggingface", "openai", "gemini":
	default:
		return fmt.Errorf("%w: unknown llm.provider %q", ErrInvalidConfig, s.LLM.Provider)
	}
	return nil
}

// UsingDefaultSecret reports whether the session secret was left at its
// development default.
func (s *Settings) UsingDefaultSecret() bool {
	return s.Session.Secret == DefaultSessionSecret
}

// ResolveKeyFile fills in the key file path relative to dataDir when none
// was configured.
func (s *Settings) ResolveKeyFile(dataDir string) string {
	if s.Auth.KeyFile == "" {
		s.Auth.KeyFile = filepath.Join(dataDir, KeyFileName)
	}
	return s.Auth.KeyFile
}

// ParseToggle interprets common truthy spellings: 1, true, yes and on,
// case-insensitively. Everything else is false.
func ParseToggle(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// splitList accepts either a comma-separated string or a list and returns
// the trimmed, non-empty entries.
func splitList(raw interface{}) []string {
	var parts []string
	switch val := raw.(type) {
	case nil:
		return nil
	case string:
		parts = strings.Split(val, ",")
	case []string:
		parts = val
	case []interface{}:
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
	default:
		parts = strings.Split(fmt.Sprint(val), ",")
	}

	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
