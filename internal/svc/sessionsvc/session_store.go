package sessionsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkrupp/sweetshop/internal/domain"
	"github.com/mkrupp/sweetshop/internal/infra/logging"
	"github.com/mkrupp/sweetshop/internal/repo/session"
)

// Keys of the persisted session values.
const (
	TokenKey = "access_token"
	UserKey  = "user"
)

// SessionConfig contains configuration parameters for the session store.
type SessionConfig struct {
	// CheckExpiry discards a persisted JWT at startup when its exp claim has passed
	CheckExpiry bool `env:"CHECK_EXPIRY" default:"true"`
}

// Store holds the authenticated session and persists it across restarts.
type Store struct {
	Config SessionConfig
	Repo   session.Repository
	Log    logging.Logger

	mu      sync.RWMutex
	current domain.Session
	present bool
}

// NewStore creates a new Store backed by the repository returned by repoFactory.
func NewStore(repoFactory session.RepositoryFactory, cfg SessionConfig) (*Store, error) {
	repo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new session repo: %w", err)
	}

	return &Store{
		Config: cfg,
		Repo:   repo,
		Log:    logging.GetLogger("svc.sessionsvc.session_store"),
	}, nil
}

// Load reads the persisted session into memory.
// It returns false when no complete session is persisted, when the persisted
// identity cannot be decoded, or when the token is a JWT that has already expired.
// Unusable persisted values are removed.
func (s *Store) Load(ctx context.Context) (_ domain.Session, _ bool, err error) {
	log := s.Log

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "load session failed", "error", err)
		}
	}()

	token, ok, err := s.Repo.Get(ctx, TokenKey)
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("get token: %w", err)
	} else if !ok || token == "" {
		log.DebugContext(ctx, "no persisted session")

		return domain.Session{}, false, nil
	}

	rawUser, ok, err := s.Repo.Get(ctx, UserKey)
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("get user: %w", err)
	} else if !ok {
		log.DebugContext(ctx, "persisted session has no user")

		return domain.Session{}, false, nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		log.WarnContext(ctx, "discarding undecodable persisted user", "error", err)

		return domain.Session{}, false, s.discard(ctx)
	}

	sess := domain.Session{Token: token, User: user}
	if !sess.Valid() {
		log.WarnContext(ctx, "discarding incomplete persisted session")

		return domain.Session{}, false, s.discard(ctx)
	}

	log = log.With(logging.Group("user", "username", user.Username, "is_staff", user.IsStaff))

	if s.Config.CheckExpiry {
		if exp, ok := tokenExpiry(token); ok && !exp.After(time.Now()) {
			log.InfoContext(ctx, "discarding expired persisted session",
				"exp", exp.UTC().Format(time.RFC3339))

			return domain.Session{}, false, s.discard(ctx)
		}
	}

	s.mu.Lock()
	s.current, s.present = sess, true
	s.mu.Unlock()

	log.DebugContext(ctx, "session restored")

	return sess, true, nil
}

// tokenExpiry returns the exp claim of a JWT without verifying its signature.
// Opaque tokens have no known expiry.
func tokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims

	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	return claims.ExpiresAt.Time, true
}

// Set stores the session in memory and persists it.
// The in-memory session is updated even if persisting fails.
func (s *Store) Set(ctx context.Context, sess domain.Session) (err error) {
	log := s.Log.With(logging.Group("user", "username", sess.User.Username, "is_staff", sess.User.IsStaff))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "set session failed", "error", err)
		} else {
			log.DebugContext(ctx, "session set")
		}
	}()

	if !sess.Valid() {
		return fmt.Errorf("set session: %w", domain.ErrNoSession)
	}

	s.mu.Lock()
	s.current, s.present = sess, true
	s.mu.Unlock()

	rawUser, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	if err := s.Repo.Store(ctx, map[string]string{
		TokenKey: sess.Token,
		UserKey:  string(rawUser),
	}); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	return nil
}

// Clear removes the session from memory and from persistent storage.
func (s *Store) Clear(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			s.Log.ErrorContext(ctx, "clear session failed", "error", err)
		} else {
			s.Log.DebugContext(ctx, "session cleared")
		}
	}()

	s.mu.Lock()
	s.current, s.present = domain.Session{}, false
	s.mu.Unlock()

	return s.discard(ctx)
}

func (s *Store) discard(ctx context.Context) error {
	if err := s.Repo.Delete(ctx, TokenKey, UserKey); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// Current returns the in-memory session and whether one exists.
func (s *Store) Current() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current, s.present
}

// Token returns the current bearer credential.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current.Token, s.present
}

// Close releases the underlying repository.
func (s *Store) Close() error {
	if err := s.Repo.Close(); err != nil {
		return fmt.Errorf("close session repo: %w", err)
	}

	return nil
}
