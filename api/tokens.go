package api

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// RefreshTokenKey is the fixed storage key (and file name) for the persisted
// refresh token.
const RefreshTokenKey = "shotpay_refresh_token"

// RefreshTokenStorage persists the refresh token between processes. The
// access token is deliberately never persisted.
type RefreshTokenStorage interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// TokenStore owns the session token pair: the access token in process memory
// and the refresh token behind a RefreshTokenStorage. Safe for concurrent use.
type TokenStore struct {
	mu          sync.RWMutex
	accessToken string
	storage     RefreshTokenStorage
	logger      *slog.Logger
}

// NewTokenStore creates a token store. A nil storage disables refresh-token
// persistence: reads return "" and writes are no-ops.
func NewTokenStore(storage RefreshTokenStorage, logger *slog.Logger) *TokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenStore{storage: storage, logger: logger}
}

// SetAccessToken replaces the in-memory access token. Empty means absent.
func (s *TokenStore) SetAccessToken(token string) {
	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
}

// AccessToken returns the current access token, or "" when absent.
func (s *TokenStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// SetRefreshToken persists the refresh token; an empty token removes it.
// Storage failures are logged, never returned.
func (s *TokenStore) SetRefreshToken(token string) {
	if s.storage == nil {
		return
	}
	var err error
	if token == "" {
		err = s.storage.Clear()
	} else {
		err = s.storage.Save(token)
	}
	if err != nil {
		s.logger.Warn("refresh token storage write failed", "error", err)
	}
}

// RefreshToken returns the persisted refresh token, or "" when absent or the
// storage is unavailable.
func (s *TokenStore) RefreshToken() string {
	if s.storage == nil {
		return ""
	}
	token, err := s.storage.Load()
	if err != nil {
		s.logger.Debug("refresh token storage read failed", "error", err)
		return ""
	}
	return token
}

// ClearTokens drops both tokens. Idempotent.
func (s *TokenStore) ClearTokens() {
	s.SetAccessToken("")
	s.SetRefreshToken("")
}

// FileRefreshTokenStorage keeps the refresh token in a single 0600 file so it
// survives process restarts.
type FileRefreshTokenStorage struct {
	path string
}

// NewFileRefreshTokenStorage creates a file-backed storage under dir.
func NewFileRefreshTokenStorage(dir string) *FileRefreshTokenStorage {
	return &FileRefreshTokenStorage{path: filepath.Join(dir, RefreshTokenKey)}
}

// Load reads the stored token. A missing file is not an error.
func (f *FileRefreshTokenStorage) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token, creating the directory if needed.
func (f *FileRefreshTokenStorage) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(token), 0600)
}

// Clear removes the stored token. A missing file is not an error.
func (f *FileRefreshTokenStorage) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemoryRefreshTokenStorage is an in-process storage for tests and
// short-lived callers.
type MemoryRefreshTokenStorage struct {
	mu    sync.Mutex
	token string
	set   bool
}

// NewMemoryRefreshTokenStorage creates an empty in-memory storage.
func NewMemoryRefreshTokenStorage() *MemoryRefreshTokenStorage {
	return &MemoryRefreshTokenStorage{}
}

// Load returns the stored token, or "" when none is set.
func (m *MemoryRefreshTokenStorage) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return "", nil
	}
	return m.token, nil
}

// Save stores the token.
func (m *MemoryRefreshTokenStorage) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.set = true
	return nil
}

// Clear removes the token.
func (m *MemoryRefreshTokenStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.set = false
	return nil
}
