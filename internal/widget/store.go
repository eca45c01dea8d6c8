package widget

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const contactSessionKeyPrefix = "contact_session_"

// SessionStore is the widget's local storage for contact session ids, one per organization.
type SessionStore interface {
	Get(organizationID string) (string, error)
	Set(organizationID, contactSessionID string) error
	Delete(organizationID string) error
}

func contactSessionKey(organizationID string) string {
	return contactSessionKeyPrefix + organizationID
}

type FileSessionStore struct {
	mu   sync.Mutex
	path string
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

func (s *FileSessionStore) Get(organizationID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return "", err
	}
	return entries[contactSessionKey(organizationID)], nil
}

func (s *FileSessionStore) Set(organizationID, contactSessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	entries[contactSessionKey(organizationID)] = contactSessionID
	return s.save(entries)
}

func (s *FileSessionStore) Delete(organizationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	key := contactSessionKey(organizationID)
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return s.save(entries)
}

func (s *FileSessionStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session store: %w", err)
	}

	entries := map[string]string{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode session store: %w", err)
	}
	return entries, nil
}

func (s *FileSessionStore) save(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create session store directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session store: %w", err)
	}
	return nil
}

// MemorySessionStore keeps sessions for the lifetime of the process.
type MemorySessionStore struct {
	mu      sync.Mutex
	entries map[string]string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{entries: map[string]string{}}
}

func (s *MemorySessionStore) Get(organizationID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[contactSessionKey(organizationID)], nil
}

func (s *MemorySessionStore) Set(organizationID, contactSessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[contactSessionKey(organizationID)] = contactSessionID
	return nil
}

func (s *MemorySessionStore) Delete(organizationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, contactSessionKey(organizationID))
	return nil
}
