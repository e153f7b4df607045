package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"librarium/internal/entity"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPersistence wraps I/O and decode failures of the backing files.
	ErrPersistence = errors.New("persistence error")
)

const credentialsFile = "users.json"

// CredentialStore persists all users as a single whole-file JSON document
// keyed by username. Every mutation is a full read-modify-write of the
// document; the mutex serializes writers within this process. Cross-process
// writers race with last-write-wins semantics, which is the documented
// contract of the file format.
type CredentialStore struct {
	dir string
	mu  sync.Mutex
}

func NewCredentialStore(dir string) *CredentialStore {
	return &CredentialStore{dir: dir}
}

func (s *CredentialStore) path() string {
	return filepath.Join(s.dir, credentialsFile)
}

// Get returns the stored user record, or ErrNotFound.
func (s *CredentialStore) Get(username string) (entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return entity.User{}, err
	}
	u, ok := users[username]
	if !ok {
		return entity.User{}, ErrNotFound
	}
	u.Username = username
	return u, nil
}

// Exists reports whether a user record is present.
func (s *CredentialStore) Exists(username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := users[username]
	return ok, nil
}

// Put writes the user record into the document and rewrites the whole file,
// then refreshes the user's catalog snapshot.
func (s *CredentialStore) Put(user entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}
	users[user.Username] = user
	if err := s.save(users); err != nil {
		return err
	}
	return s.writeSnapshot(user)
}

func (s *CredentialStore) load() (map[string]entity.User, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]entity.User{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrPersistence, credentialsFile, err)
	}
	users := map[string]entity.User{}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrPersistence, credentialsFile, err)
	}
	return users, nil
}

func (s *CredentialStore) save(users map[string]entity.User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrPersistence, credentialsFile, err)
	}
	if err := os.WriteFile(s.path(), data, 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, credentialsFile, err)
	}
	return nil
}

// Snapshot is the per-user catalog document, written alongside the
// credential store on every catalog mutation. Snapshots are namespaced by
// username; the original shared a single file across all users.
type Snapshot struct {
	Books       []entity.Book                `json:"books"`
	Collections map[string]entity.Collection `json:"collections"`
}

func snapshotFile(username string) string {
	return fmt.Sprintf("library_%s.json", username)
}

func (s *CredentialStore) writeSnapshot(user entity.User) error {
	snap := Snapshot{Books: user.Books, Collections: user.Collections}
	if snap.Books == nil {
		snap.Books = []entity.Book{}
	}
	if snap.Collections == nil {
		snap.Collections = map[string]entity.Collection{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", ErrPersistence, err)
	}
	name := filepath.Join(s.dir, snapshotFile(user.Username))
	if err := os.WriteFile(name, data, 0o600); err != nil {
		return fmt.Errorf("%w: write snapshot: %v", ErrPersistence, err)
	}
	return nil
}

// LoadSnapshot reads a user's catalog snapshot file, or ErrNotFound when the
// user has never persisted one.
func (s *CredentialStore) LoadSnapshot(username string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, snapshotFile(username)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("%w: read snapshot: %v", ErrPersistence, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decode snapshot: %v", ErrPersistence, err)
	}
	return snap, nil
}
