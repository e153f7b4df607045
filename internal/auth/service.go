package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"librarium/internal/entity"
	"librarium/internal/platform/crypto"
	"librarium/internal/store"
)

var (
	ErrValidation        = errors.New("missing required field")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrUnknownUser       = errors.New("username not found")
	ErrInvalidPassword   = errors.New("invalid password")
)

// Service validates credentials, creates accounts and manages remember-me
// sessions. The authenticated identity it hands out is a signed access token
// carrying the username.
type Service struct {
	creds      *store.CredentialStore
	sessions   *store.SessionStore
	secret     string
	tokenTTL   time.Duration
	sessionTTL time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

func NewService(creds *store.CredentialStore, sessions *store.SessionStore, secret string, tokenTTL, sessionTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		creds:      creds,
		sessions:   sessions,
		secret:     secret,
		tokenTTL:   tokenTTL,
		sessionTTL: sessionTTL,
		log:        log,
		now:        time.Now,
	}
}

// Register creates a new account with an empty catalog.
func (s *Service) Register(ctx context.Context, username, password, confirm string) error {
	if username == "" || password == "" {
		return ErrValidation
	}
	if password != confirm {
		return ErrPasswordMismatch
	}

	exists, err := s.creds.Exists(username)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateUsername
	}

	salt, err := GenerateSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	user := entity.User{
		Username:    username,
		Password:    entity.PasswordRecord{Hash: HashPassword(password, salt), Salt: salt},
		Books:       []entity.Book{},
		Collections: map[string]entity.Collection{},
	}
	if err := s.creds.Put(user); err != nil {
		return err
	}

	s.log.Info().Str("username", username).Msg("account created")
	return nil
}

// Login checks the credentials and returns a signed access token plus its
// lifetime in seconds.
func (s *Service) Login(ctx context.Context, username, password string) (string, int, error) {
	user, err := s.creds.Get(username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", 0, ErrUnknownUser
		}
		return "", 0, err
	}
	if !VerifyPassword(password, user.Password.Salt, user.Password.Hash) {
		return "", 0, ErrInvalidPassword
	}

	token, err := crypto.GenerateToken(s.secret, username, s.tokenTTL)
	if err != nil {
		return "", 0, err
	}
	return token, int(s.tokenTTL.Seconds()), nil
}

// CreateSession persists a remember-me session record keyed by a random
// 128-bit token. Callers invoke it only when persistence across restarts was
// requested.
func (s *Service) CreateSession(ctx context.Context, username string) (entity.Session, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return entity.Session{}, fmt.Errorf("generate session token: %w", err)
	}
	sess := entity.Session{
		ID:        hex.EncodeToString(raw),
		Username:  username,
		CreatedAt: s.now(),
	}
	if err := s.sessions.Create(sess); err != nil {
		return entity.Session{}, err
	}
	return sess, nil
}

// RestoreSession loads the most recent persisted session. It returns false
// when no session exists, the record is unreadable, or it has expired; read
// failures are swallowed by contract.
func (s *Service) RestoreSession(ctx context.Context) (entity.Session, string, bool) {
	sess, err := s.sessions.Latest()
	if err != nil {
		s.log.Debug().Err(err).Msg("no restorable session")
		return entity.Session{}, "", false
	}
	if sess.ExpiredAt(s.now(), s.sessionTTL) {
		s.log.Debug().Str("session_id", sess.ID).Msg("persisted session expired")
		return entity.Session{}, "", false
	}

	token, err := crypto.GenerateToken(s.secret, sess.Username, s.tokenTTL)
	if err != nil {
		s.log.Debug().Err(err).Msg("session restore: token generation failed")
		return entity.Session{}, "", false
	}
	return sess, token, true
}

// Logout deletes the persisted session record, if any.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(sessionID)
}
