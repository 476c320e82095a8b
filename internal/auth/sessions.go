package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

const (
	DefaultTTL = 3 * time.Hour

	verifyCacheSize = 1024
	verifyCacheTTL  = time.Minute
)

// Sessions issues tokens and verifies them, memoizing recent verifications.
type Sessions struct {
	store SessionStore
	cache cache.Cache[core.Session]
	ttl   time.Duration
	now   func() time.Time
}

// NewSessions wraps store. A nil verified cache gets a fresh LRU.
func NewSessions(store SessionStore, verified cache.Cache[core.Session], ttl time.Duration) *Sessions {
	if verified == nil {
		verified = cache.NewLRUCache[core.Session](verifyCacheSize, verifyCacheTTL)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Sessions{store: store, cache: verified, ttl: ttl, now: time.Now}
}

func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue creates a new session for userID.
func (s *Sessions) Issue(ctx context.Context, userID int64) (core.Session, error) {
	sess := core.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return core.Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Verify resolves token to its user id. Unknown or expired tokens yield
// core.ErrUnauthenticated.
func (s *Sessions) Verify(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, core.ErrUnauthenticated
	}
	now := s.now()

	if sess, ok := s.cache.Get(token); ok && !sess.Expired(now) {
		return sess.UserID, nil
	}

	sess, err := s.store.Load(ctx, token)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return 0, core.ErrUnauthenticated
		}
		return 0, fmt.Errorf("load session: %w", err)
	}
	if sess.Expired(now) {
		if err := s.store.Remove(ctx, token); err != nil {
			slog.WarnContext(ctx, "Failed to remove expired session", "error", err)
		}
		return 0, core.ErrUnauthenticated
	}

	s.cache.SetUntil(token, sess, sess.ExpiresAt)
	return sess.UserID, nil
}

// Revoke deletes the session and evicts it from the verification cache.
func (s *Sessions) Revoke(ctx context.Context, token string) error {
	s.cache.Delete(token)
	if token == "" {
		return nil
	}
	return s.store.Remove(ctx, token)
}
