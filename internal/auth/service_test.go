package auth

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarium/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	creds := store.NewCredentialStore(dir)
	sessions := store.NewSessionStore(dir)
	return NewService(creds, sessions, "test-secret", time.Hour, 24*time.Hour, zerolog.Nop())
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("success then duplicate", func(t *testing.T) {
		svc := newTestService(t)

		err := svc.Register(ctx, "alice", "pw1", "pw1")
		assert.NoError(t, err)

		err = svc.Register(ctx, "alice", "pw2", "pw2")
		assert.ErrorIs(t, err, ErrDuplicateUsername)
	})

	t.Run("password mismatch", func(t *testing.T) {
		svc := newTestService(t)

		err := svc.Register(ctx, "bob", "pw1", "pw2")
		assert.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc := newTestService(t)

		assert.ErrorIs(t, svc.Register(ctx, "", "pw", "pw"), ErrValidation)
		assert.ErrorIs(t, svc.Register(ctx, "carol", "", ""), ErrValidation)
	})

	t.Run("distinct salts for identical passwords", func(t *testing.T) {
		svc := newTestService(t)

		require.NoError(t, svc.Register(ctx, "alice", "same", "same"))
		require.NoError(t, svc.Register(ctx, "bob", "same", "same"))

		a, err := svc.creds.Get("alice")
		require.NoError(t, err)
		b, err := svc.creds.Get("bob")
		require.NoError(t, err)

		assert.NotEqual(t, a.Password.Salt, b.Password.Salt)
		assert.NotEqual(t, a.Password.Hash, b.Password.Hash)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	require.NoError(t, svc.Register(ctx, "alice", "pw1", "pw1"))

	t.Run("success", func(t *testing.T) {
		token, expiresIn, err := svc.Login(ctx, "alice", "pw1")
		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, 3600, expiresIn)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "mallory", "pw1")
		assert.ErrorIs(t, err, ErrUnknownUser)
	})

	t.Run("invalid password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	})
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("create and restore", func(t *testing.T) {
		svc := newTestService(t)

		sess, err := svc.CreateSession(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, sess.ID, 32) // 128-bit hex token
		assert.Equal(t, "alice", sess.Username)

		restored, token, ok := svc.RestoreSession(ctx)
		assert.True(t, ok)
		assert.Equal(t, sess.ID, restored.ID)
		assert.Equal(t, "alice", restored.Username)
		assert.NotEmpty(t, token)
	})

	t.Run("expired session is not restored", func(t *testing.T) {
		svc := newTestService(t)

		svc.now = func() time.Time { return time.Now().Add(-25 * time.Hour) }
		_, err := svc.CreateSession(ctx, "alice")
		require.NoError(t, err)

		svc.now = time.Now
		_, _, ok := svc.RestoreSession(ctx)
		assert.False(t, ok)
	})

	t.Run("session just inside the window restores", func(t *testing.T) {
		svc := newTestService(t)

		svc.now = func() time.Time { return time.Now().Add(-23 * time.Hour) }
		_, err := svc.CreateSession(ctx, "alice")
		require.NoError(t, err)

		svc.now = time.Now
		_, _, ok := svc.RestoreSession(ctx)
		assert.True(t, ok)
	})

	t.Run("logout removes the session", func(t *testing.T) {
		svc := newTestService(t)

		sess, err := svc.CreateSession(ctx, "alice")
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, sess.ID))
		_, _, ok := svc.RestoreSession(ctx)
		assert.False(t, ok)
	})

	t.Run("no session to restore", func(t *testing.T) {
		svc := newTestService(t)

		_, _, ok := svc.RestoreSession(ctx)
		assert.False(t, ok)
	})
}
