package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

// countingStore counts loads to observe cache hits.
type countingStore struct {
	SessionStore
	loads int
}

func (c *countingStore) Load(ctx context.Context, token string) (core.Session, error) {
	c.loads++
	return c.SessionStore.Load(ctx, token)
}

func newTestSessions(t *testing.T) (*Sessions, *countingStore, *time.Time) {
	t.Helper()
	store := &countingStore{SessionStore: NewSQLSessionStore(memory.New())}
	s := NewSessions(store, nil, time.Hour)
	now := time.Now()
	s.now = func() time.Time { return now }
	return s, store, &now
}

func TestIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newTestSessions(t)

	sess, err := s.Issue(ctx, 42)
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)

	uid, err := s.Verify(ctx, sess.Token)
	require.NoError(t, err)
	require.Equal(t, int64(42), uid)

	uid, err = s.Verify(ctx, sess.Token)
	require.NoError(t, err)
	require.Equal(t, int64(42), uid)
	require.Equal(t, 1, store.loads, "second verify should hit the cache")
}

func TestVerifyRejectsUnknownAndEmpty(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSessions(t)

	_, err := s.Verify(ctx, "")
	require.ErrorIs(t, err, core.ErrUnauthenticated)
	_, err = s.Verify(ctx, "nope")
	require.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestVerifyRejectsExpired(t *testing.T) {
	ctx := context.Background()
	s, _, now := newTestSessions(t)

	sess, err := s.Issue(ctx, 1)
	require.NoError(t, err)
	_, err = s.Verify(ctx, sess.Token)
	require.NoError(t, err)

	*now = now.Add(2 * time.Hour)
	_, err = s.Verify(ctx, sess.Token)
	require.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestRevokeEvictsCache(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSessions(t)

	sess, err := s.Issue(ctx, 5)
	require.NoError(t, err)
	_, err = s.Verify(ctx, sess.Token)
	require.NoError(t, err)

	require.NoError(t, s.Revoke(ctx, sess.Token))
	_, err = s.Verify(ctx, sess.Token)
	require.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestRedisSessionStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisSessionStore(client)
	sess := core.Session{Token: "test-" + time.Now().Format("150405.000000"), UserID: 9, ExpiresAt: time.Now().Add(time.Minute).UTC()}

	require.NoError(t, store.Save(ctx, sess))
	require.ErrorIs(t, store.Save(ctx, sess), core.ErrConflict)

	got, err := store.Load(ctx, sess.Token)
	require.NoError(t, err)
	require.Equal(t, int64(9), got.UserID)

	require.NoError(t, store.Remove(ctx, sess.Token))
	_, err = store.Load(ctx, sess.Token)
	require.ErrorIs(t, err, core.ErrNotFound)
}
