package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarium/internal/entity"
)

func testUser(username string, titles ...string) entity.User {
	books := make([]entity.Book, 0, len(titles))
	for i, title := range titles {
		books = append(books, entity.Book{
			ID:     username + "-" + title,
			Title:  title,
			Author: "Author",
			Rating: 1 + i%5,
			Status: entity.StatusUnread,
		})
	}
	return entity.User{
		Username:    username,
		Password:    entity.PasswordRecord{Hash: "hash-" + username, Salt: "salt-" + username},
		Books:       books,
		Collections: map[string]entity.Collection{"Favorites": {Description: "the good ones"}},
	}
}

func TestCredentialStoreRoundTrip(t *testing.T) {
	s := NewCredentialStore(t.TempDir())

	user := testUser("alice", "Dune", "Hyperion", "Solaris")
	require.NoError(t, s.Put(user))

	got, err := s.Get("alice")
	require.NoError(t, err)

	assert.Equal(t, user.Password, got.Password)
	assert.Equal(t, user.Collections, got.Collections)
	require.Len(t, got.Books, 3)
	// Book order must survive the round trip.
	assert.Equal(t, "Dune", got.Books[0].Title)
	assert.Equal(t, "Hyperion", got.Books[1].Title)
	assert.Equal(t, "Solaris", got.Books[2].Title)
}

func TestCredentialStoreMissingFile(t *testing.T) {
	s := NewCredentialStore(t.TempDir())

	_, err := s.Get("nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := s.Exists("nobody")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestCredentialStoreMultipleUsers(t *testing.T) {
	s := NewCredentialStore(t.TempDir())

	require.NoError(t, s.Put(testUser("alice", "Dune")))
	require.NoError(t, s.Put(testUser("bob", "Neuromancer")))

	alice, err := s.Get("alice")
	require.NoError(t, err)
	bob, err := s.Get("bob")
	require.NoError(t, err)

	assert.Equal(t, "Dune", alice.Books[0].Title)
	assert.Equal(t, "Neuromancer", bob.Books[0].Title)
}

func TestCredentialStoreDocumentFormat(t *testing.T) {
	dir := t.TempDir()
	s := NewCredentialStore(dir)
	require.NoError(t, s.Put(testUser("alice")))

	raw, err := os.ReadFile(filepath.Join(dir, "users.json"))
	require.NoError(t, err)

	var doc map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Contains(t, doc, "alice")

	// The password field is the [hash, salt] pair, not an object.
	var pair [2]string
	require.NoError(t, json.Unmarshal(doc["alice"]["password"], &pair))
	assert.Equal(t, "hash-alice", pair[0])
	assert.Equal(t, "salt-alice", pair[1])
}

func TestCredentialStoreCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"), []byte("{not json"), 0o600))

	s := NewCredentialStore(dir)
	_, err := s.Get("alice")
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestSnapshotPerUser(t *testing.T) {
	dir := t.TempDir()
	s := NewCredentialStore(dir)

	require.NoError(t, s.Put(testUser("alice", "Dune")))
	require.NoError(t, s.Put(testUser("bob", "Neuromancer")))

	// Each user gets their own snapshot file; bob's write must not clobber
	// alice's.
	aliceSnap, err := s.LoadSnapshot("alice")
	require.NoError(t, err)
	bobSnap, err := s.LoadSnapshot("bob")
	require.NoError(t, err)

	require.Len(t, aliceSnap.Books, 1)
	assert.Equal(t, "Dune", aliceSnap.Books[0].Title)
	require.Len(t, bobSnap.Books, 1)
	assert.Equal(t, "Neuromancer", bobSnap.Books[0].Title)

	_, err = s.LoadSnapshot("carol")
	assert.ErrorIs(t, err, ErrNotFound)
}
