package config

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
)

// keyBytes is the amount of randomness in an issued key.
const keyBytes = 32

// DefaultKeyName is used when a key is issued without a name.
const DefaultKeyName = "Unnamed Key"

// keyRecord is the on-disk form of an API key. The key itself is the
// mapping key of the file.
type keyRecord struct {
	Name     string  `json:"name" yaml:"name"`
	Created  string  `json:"created" yaml:"created"`
	LastUsed *string `json:"last_used" yaml:"last_used"`
	Active   *bool   `json:"active" yaml:"active"`
}

// Store is the credential store: a mapping of issued API keys to their
// metadata, kept in a single JSON or YAML file.
//
// Read failures degrade to an empty mapping and write failures are logged
// and dropped, so callers always see a usable (possibly empty) store. The
// file is not locked; concurrent writers in different processes race and
// the last one wins.
type Store struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	mu  sync.Mutex
	mem map[string]keyRecord // used when path is empty
}

// NewStore returns a Store backed by path. Pass an empty path for a store
// that lives only in process memory. Files ending in .yaml or .yml are
// written as YAML, anything else as JSON.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:   path,
		logger: logger,
		now:    time.Now,
		mem:    make(map[string]keyRecord),
	}
}

// Path returns the backing file path, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// GenerateKey returns a new random URL-safe key.
func GenerateKey() (string, error) {
	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Issue creates and persists a new active key. Uniqueness is left to the
// key's randomness.
func (s *Store) Issue(ctx context.Context, name string) (*model.APIKey, error) {
	raw, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultKeyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.load()
	rec := newRecord(name, s.now())
	keys[raw] = rec
	if err := s.save(keys); err != nil {
		s.logger.Warn("failed to persist issued api key", zap.String("name", name), zap.Error(err))
	}

	k := rec.toModel(raw)
	return &k, nil
}

// List returns every stored key ordered by creation time. The records carry
// raw keys; mask them before display.
func (s *Store) List(ctx context.Context) []model.APIKey {
	s.mu.Lock()
	keys := s.load()
	s.mu.Unlock()

	out := make([]model.APIKey, 0, len(keys))
	for raw, rec := range keys {
		out = append(out, rec.toModel(raw))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].Key < out[j].Key
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Get returns the record for key, active or not.
func (s *Store) Get(ctx context.Context, key string) (*model.APIKey, error) {
	s.mu.Lock()
	keys := s.load()
	s.mu.Unlock()

	rec, ok := keys[key]
	if !ok {
		return nil, ErrNotFound
	}
	k := rec.toModel(key)
	return &k, nil
}

// Validate returns the record for key if it exists and is active.
func (s *Store) Validate(ctx context.Context, key string) *model.APIKey {
	if key == "" {
		return nil
	}
	k, err := s.Get(ctx, key)
	if err != nil || !k.Active {
		return nil
	}
	return k
}

// Revoke deletes key and reports whether it existed.
func (s *Store) Revoke(ctx context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.load()
	if _, ok := keys[key]; !ok {
		return false
	}
	delete(keys, key)
	if err := s.save(keys); err != nil {
		s.logger.Warn("failed to persist api key revocation", zap.Error(err))
	}
	return true
}

// Touch records a use of key.
func (s *Store) Touch(ctx context.Context, key string) error {
	return s.update(key, func(rec *keyRecord) {
		ts := formatTimestamp(s.now())
		rec.LastUsed = &ts
	})
}

// SetActive enables or disables key without deleting it.
func (s *Store) SetActive(ctx context.Context, key string, active bool) error {
	return s.update(key, func(rec *keyRecord) {
		rec.Active = &active
	})
}

func (s *Store) update(key string, fn func(*keyRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.load()
	rec, ok := keys[key]
	if !ok {
		return ErrNotFound
	}
	fn(&rec)
	keys[key] = rec
	return s.save(keys)
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

func (s *Store) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.path))
	return ext == ".yaml" || ext == ".yml"
}

// load reads the key file. Missing, unreadable and malformed files all yield
// an empty mapping.
func (s *Store) load() map[string]keyRecord {
	if s.path == "" {
		out := make(map[string]keyRecord, len(s.mem))
		for k, v := range s.mem {
			out[k] = v
		}
		return out
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read api key file", zap.String("path", s.path), zap.Error(err))
		}
		return make(map[string]keyRecord)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return make(map[string]keyRecord)
	}

	keys := make(map[string]keyRecord)
	if s.isYAML() {
		err = yaml.Unmarshal(data, &keys)
	} else {
		err = json.Unmarshal(data, &keys)
	}
	if err != nil {
		s.logger.Warn("failed to parse api key file", zap.String("path", s.path), zap.Error(err))
		return make(map[string]keyRecord)
	}
	if keys == nil {
		keys = make(map[string]keyRecord)
	}
	return keys
}

// save writes keys to a temporary file and renames it over the key file.
func (s *Store) save(keys map[string]keyRecord) error {
	if s.path == "" {
		s.mem = keys
		return nil
	}

	var (
		data []byte
		err  error
	)
	if s.isYAML() {
		data, err = yaml.Marshal(keys)
	} else {
		data, err = json.MarshalIndent(keys, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode api keys: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".api_keys-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp key file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp key file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod key file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace key file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Record conversion
// ---------------------------------------------------------------------------

func newRecord(name string, created time.Time) keyRecord {
	active := true
	return keyRecord{
		Name:    name,
		Created: formatTimestamp(created),
		Active:  &active,
	}
}

func (r keyRecord) toModel(raw string) model.APIKey {
	k := model.APIKey{
		Key:    raw,
		Name:   r.Name,
		Active: r.Active == nil || *r.Active,
	}
	if t, err := model.ParseTimestamp(r.Created); err == nil {
		k.Created = t
	}
	if r.LastUsed != nil {
		if t, err := model.ParseTimestamp(*r.LastUsed); err == nil {
			k.LastUsed = &t
		}
	}
	return k
}

func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
