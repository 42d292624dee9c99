package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
)

var (
	// ErrNoCredential is returned when a request carries no API key.
	ErrNoCredential = errors.New("no credential")
	// ErrInvalidKey is returned when the key is neither a master key nor an
	// active stored key.
	ErrInvalidKey = errors.New("invalid key")
)

// Principal types.
const (
	PrincipalMaster = "master"
	PrincipalAPIKey = "api_key"
)

// KeyStore is the subset of the credential store the authenticator needs.
type KeyStore interface {
	Validate(ctx context.Context, key string) *model.APIKey
	Touch(ctx context.Context, key string) error
}

// Principal is the authenticated identity behind a request.
type Principal struct {
	Type string
	Name string
}

// AuthService validates API keys against process-level master keys and the
// credential store.
type AuthService struct {
	store      KeyStore
	masterKeys []string
	logger     *zap.Logger
	pending    sync.WaitGroup
}

// NewAuthService returns an AuthService. Empty master keys are ignored.
func NewAuthService(store KeyStore, masterKeys []string, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	keys := make([]string, 0, len(masterKeys))
	for _, k := range masterKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return &AuthService{store: store, masterKeys: keys, logger: logger}
}

// ExtractAPIKey returns the credential from the X-API-Key header or, failing
// that, from an "Authorization: Bearer" header. It returns "" when neither is
// present.
func ExtractAPIKey(h http.Header) string {
	if key := strings.TrimSpace(h.Get("X-API-Key")); key != "" {
		return key
	}
	auth := strings.TrimSpace(h.Get("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// Authenticate checks rawKey. Master keys are compared in constant time and
// never touch the store. Stored keys have their last-used time updated in
// the background; failures there are logged and do not affect the result.
func (s *AuthService) Authenticate(ctx context.Context, rawKey string) (*Principal, error) {
	if rawKey == "" {
		return nil, ErrNoCredential
	}

	if s.isMaster(rawKey) {
		return &Principal{Type: PrincipalMaster, Name: "master"}, nil
	}

	key := s.store.Validate(ctx, rawKey)
	if key == nil {
		return nil, ErrInvalidKey
	}

	// Update last used timestamp (fire and forget)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.store.Touch(context.Background(), rawKey); err != nil {
			s.logger.Warn("failed to update api key last_used",
				zap.String("key", model.MaskKey(rawKey, 4)), zap.Error(err))
		}
	}()

	return &Principal{Type: PrincipalAPIKey, Name: key.Name}, nil
}

// isMaster compares rawKey against every master key without returning
// early.
func (s *AuthService) isMaster(rawKey string) bool {
	match := 0
	for _, k := range s.masterKeys {
		match |= subtle.ConstantTimeCompare([]byte(rawKey), []byte(k))
	}
	return match == 1
}

// MasterKeys returns a copy of the configured master keys.
func (s *AuthService) MasterKeys() []string {
	return append([]string(nil), s.masterKeys...)
}

// DebugInfo describes the master keys without revealing them.
func (s *AuthService) DebugInfo() model.AuthDebugResponse {
	info := model.AuthDebugResponse{
		HasMasterKey:      len(s.masterKeys) > 0,
		MasterKeysCount:   len(s.masterKeys),
		MasterKeysMasked:  make([]string, len(s.masterKeys)),
		MasterKeysLengths: make([]int, len(s.masterKeys)),
	}
	for i, k := range s.masterKeys {
		info.MasterKeysMasked[i] = model.MaskKey(k, 4)
		info.MasterKeysLengths[i] = len(k)
	}
	return info
}

// Wait blocks until background last-used updates have finished.
func (s *AuthService) Wait() {
	s.pending.Wait()
}
