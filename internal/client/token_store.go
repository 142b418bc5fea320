package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"attendtrack/internal/models"
)

// TokenStore persists the session token between calls
type TokenStore interface {
	Token() (string, error)
	Save(token string, user *models.Principal) error
	Clear() error
}

type storedSession struct {
	Token string            `json:"token"`
	User  *models.Principal `json:"user,omitempty"`
}

// FileTokenStore keeps the session in a JSON file readable only by the owner
type FileTokenStore struct {
	path string
	mu   sync.Mutex
}

// NewFileTokenStore creates a token store backed by path
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) load() (*storedSession, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return &stored, nil
}

// Token returns the stored token, or "" when there is no session
func (s *FileTokenStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, err := s.load()
	if err != nil || stored == nil {
		return "", err
	}
	return stored.Token, nil
}

// User returns the principal saved at login, or nil
func (s *FileTokenStore) User() (*models.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, err := s.load()
	if err != nil || stored == nil {
		return nil, err
	}
	return stored.User, nil
}

// Save writes the session file, creating its directory when needed
func (s *FileTokenStore) Save(token string, user *models.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(storedSession{Token: token, User: user})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear removes the session file. A missing file is not an error.
func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps the session in memory
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
	user  *models.Principal
}

// Token returns the stored token
func (s *MemoryTokenStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

// Save stores the token
func (s *MemoryTokenStore) Save(token string, user *models.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.user = token, user
	return nil
}

// Clear forgets the token
func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.user = "", nil
	return nil
}
