package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
)

// DefaultConfigYAML is the commented template written by `honeypot config init`.
const DefaultConfigYAML = `# Honeypot configuration
# Every value can also be supplied through the environment; see the
# comments for the variable names that are recognised.

server:
  host: 0.0.0.0
  port: 5000              # PORT
  debug: false            # HONEYPOT_DEBUG, DEBUG, FLASK_ENV=development
  shutdown_timeout: 30s
  cors_origins:
    - "*"

session:
  secret: ""              # HONEYPOT_SESSION_SECRET, SESSION_SECRET, FLASK_SECRET_KEY
  cookie_name: honeypot_session
  ttl: 24h
  secure_cookie: false
  max_sessions: 10000     # oldest conversation is evicted beyond this; 0 disables

auth:
  master_keys: []         # MASTER_API_KEY, API_KEY, X_API_KEY (comma-separated)
  key_file: ""            # HONEYPOT_KEY_FILE (default: <data-dir>/api_keys.json)

llm:
  provider: huggingface   # huggingface, openai or gemini (LLM_PROVIDER)
  token: ""               # LLM_API_TOKEN; provider variables win: HUGGINGFACEHUB_API_TOKEN/HF_TOKEN, OPENAI_API_KEY, GEMINI_API_KEY
  model: mistralai/Mistral-7B-Instruct-v0.2   # HF_REPO_ID, LLM_MODEL
  base_url: ""            # LLM_BASE_URL
  fast_mode: false        # FAST_MODE: scripted replies only, no model calls
  scripted_honeypot: false
  temperature: 0.5
  max_tokens: 60
  top_p: 0.9
  timeout: 60s

ratelimit:
  key_create_per_minute: 10
  chat_per_minute: 0      # 0 disables
`

// WriteDefaultConfig writes DefaultConfigYAML to path. An existing file is
// only replaced when force is set.
func WriteDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, []byte(DefaultConfigYAML), 0644)
}

// Redacted returns a copy of s with secrets masked.
func (s *Settings) Redacted() *Settings {
	c := *s
	c.Session.Secret = model.MaskKey(s.Session.Secret, 4)
	c.LLM.Token = model.MaskKey(s.LLM.Token, 4)
	c.Auth.MasterKeys = make([]string, len(s.Auth.MasterKeys))
	for i, k := range s.Auth.MasterKeys {
		c.Auth.MasterKeys[i] = model.MaskKey(k, 4)
	}
	if s.LLM.Token == "" {
		c.LLM.Token = ""
	}
	return &c
}

// EncodeYAML renders the redacted settings as YAML.
func EncodeYAML(s *Settings) ([]byte, error) {
	return yaml.Marshal(s.Redacted())
}
