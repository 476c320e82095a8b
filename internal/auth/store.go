// Package auth issues and verifies opaque session tokens.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// SessionStore persists sessions. Load returns core.ErrNotFound for unknown
// tokens.
type SessionStore interface {
	Save(ctx context.Context, s core.Session) error
	Load(ctx context.Context, token string) (core.Session, error)
	Remove(ctx context.Context, token string) error
}

// SQLSessionStore keeps sessions in the ledger database.
type SQLSessionStore struct {
	q ledger.SessionQueries
}

func NewSQLSessionStore(q ledger.SessionQueries) *SQLSessionStore {
	return &SQLSessionStore{q: q}
}

func (s *SQLSessionStore) Save(ctx context.Context, sess core.Session) error {
	return s.q.CreateSession(ctx, sess)
}

func (s *SQLSessionStore) Load(ctx context.Context, token string) (core.Session, error) {
	return s.q.GetSession(ctx, token)
}

func (s *SQLSessionStore) Remove(ctx context.Context, token string) error {
	return s.q.DeleteSession(ctx, token)
}

// Prune deletes expired sessions and returns how many were removed.
func (s *SQLSessionStore) Prune(ctx context.Context, now time.Time) (int64, error) {
	return s.q.DeleteExpiredSessions(ctx, now)
}

// RedisSessionStore keeps sessions as expiring Redis keys.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

type redisSession struct {
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: "fintrack:session:"}
}

// NewRedisClient parses url (redis://host:port/db or host:port) and pings
// the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (s *RedisSessionStore) key(token string) string {
	return s.prefix + token
}

func (s *RedisSessionStore) Save(ctx context.Context, sess core.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	data, err := json.Marshal(redisSession{UserID: sess.UserID, ExpiresAt: sess.ExpiresAt})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(sess.Token), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if !ok {
		return core.ErrConflict
	}
	return nil
}

func (s *RedisSessionStore) Load(ctx context.Context, token string) (core.Session, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.Session{}, core.ErrNotFound
		}
		return core.Session{}, fmt.Errorf("load session: %w", err)
	}
	var rs redisSession
	if err := json.Unmarshal(data, &rs); err != nil {
		return core.Session{}, fmt.Errorf("decode session %s: %w", strconv.Quote(token), err)
	}
	return core.Session{Token: token, UserID: rs.UserID, ExpiresAt: rs.ExpiresAt}, nil
}

func (s *RedisSessionStore) Remove(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
