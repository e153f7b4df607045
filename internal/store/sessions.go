package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"librarium/internal/entity"
)

const (
	sessionPrefix = "session_"
	sessionSuffix = ".json"
)

// SessionStore keeps one JSON file per remember-me session. Restore picks
// the most recently modified file; there is no background expiry sweep.
type SessionStore struct {
	dir string
	mu  sync.Mutex
}

func NewSessionStore(dir string) *SessionStore {
	return &SessionStore{dir: dir}
}

func (s *SessionStore) fileFor(id string) string {
	return filepath.Join(s.dir, sessionPrefix+id+sessionSuffix)
}

// Create writes the session record file.
func (s *SessionStore) Create(sess entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%w: encode session: %v", ErrPersistence, err)
	}
	if err := os.WriteFile(s.fileFor(sess.ID), data, 0o600); err != nil {
		return fmt.Errorf("%w: write session: %v", ErrPersistence, err)
	}
	return nil
}

// Latest returns the session whose record file was modified most recently,
// or ErrNotFound when no readable session record exists.
func (s *SessionStore) Latest() (entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return entity.Session{}, ErrNotFound
	}

	var (
		newest     string
		newestTime time.Time
	)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, sessionPrefix) || !strings.HasSuffix(name, sessionSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = name
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return entity.Session{}, ErrNotFound
	}

	data, err := os.ReadFile(filepath.Join(s.dir, newest))
	if err != nil {
		return entity.Session{}, ErrNotFound
	}
	var sess entity.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return entity.Session{}, ErrNotFound
	}
	return sess, nil
}

// Delete removes the session record. Deleting an absent session is a no-op.
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.fileFor(id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove session: %v", ErrPersistence, err)
	}
	return nil
}
