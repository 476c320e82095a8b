package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "fintrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *Repository, name string) int64 {
	t.Helper()
	id, err := repo.CreateUser(context.Background(), core.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return id
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ? LIMIT ?"
	require.Equal(t, q, SQLite.rebind(q))
	require.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2 LIMIT $3", Postgres.rebind(q))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	id := seedUser(t, repo, "alice")
	u, err := repo.GetUser(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.False(t, u.InitialBalanceSet)

	_, err = repo.CreateUser(ctx, core.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"})
	require.ErrorIs(t, err, core.ErrConflict)

	byEmail, err := repo.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, id, byEmail.ID)

	_, err = repo.GetUser(ctx, id+100)
	require.ErrorIs(t, err, core.ErrNotFound)

	changed, err := repo.MarkInitialBalanceSet(ctx, id)
	require.NoError(t, err)
	require.True(t, changed)
	changed, err = repo.MarkInitialBalanceSet(ctx, id)
	require.NoError(t, err)
	require.False(t, changed, "flag transitions once")

	bob := seedUser(t, repo, "bob")
	require.ErrorIs(t, repo.UpdateProfile(ctx, bob, "alice", "bob@example.com"), core.ErrConflict)
	require.NoError(t, repo.UpdateProfile(ctx, bob, "robert", "robert@example.com"))
	require.NoError(t, repo.UpdatePassword(ctx, bob, "new-hash"))
	u, err = repo.GetUser(ctx, bob)
	require.NoError(t, err)
	require.Equal(t, "robert", u.Username)
	require.Equal(t, "new-hash", u.PasswordHash)
}

func TestCategoryUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	uid := seedUser(t, repo, "carol")

	id, err := repo.InsertCategory(ctx, uid, "Food", core.Expense)
	require.NoError(t, err)

	_, err = repo.InsertCategory(ctx, uid, "Food", core.Expense)
	require.ErrorIs(t, err, core.ErrConflict)

	// same name, other type is a different category
	otherID, err := repo.InsertCategory(ctx, uid, "Food", core.Income)
	require.NoError(t, err)
	require.NotEqual(t, id, otherID)

	found, err := repo.FindCategory(ctx, uid, "Food", core.Expense)
	require.NoError(t, err)
	require.Equal(t, id, found.ID)

	_, err = repo.FindCategory(ctx, uid, "Rent", core.Expense)
	require.ErrorIs(t, err, core.ErrNotFound)

	all, err := repo.ListCategories(ctx, uid, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	expenses, err := repo.ListCategories(ctx, uid, core.Expense)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
}

func TestTransactionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	uid := seedUser(t, repo, "dave")
	other := seedUser(t, repo, "erin")

	catID, err := repo.InsertCategory(ctx, uid, "Salary", core.Income)
	require.NoError(t, err)

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	insert := func(amount string, date core.Date, created time.Time) int64 {
		id, err := repo.InsertTransaction(ctx, core.Transaction{
			UserID:     uid,
			Type:       core.Income,
			Amount:     core.MustMoney(amount),
			Date:       date,
			CategoryID: catID,
			CreatedAt:  created,
		})
		require.NoError(t, err)
		return id
	}
	first := insert("1000.50", core.NewDate(2025, 3, 1), base)
	second := insert("20", core.NewDate(2025, 3, 1), base.Add(time.Second))
	third := insert("5", core.NewDate(2025, 2, 27), base.Add(2*time.Second))

	got, err := repo.GetTransaction(ctx, uid, first)
	require.NoError(t, err)
	require.Equal(t, "1000.5", got.Amount.String())
	require.Equal(t, "2025-03-01", got.Date.String())
	require.Equal(t, "Salary", got.CategoryName)
	require.Empty(t, got.Description)

	_, err = repo.GetTransaction(ctx, other, first)
	require.ErrorIs(t, err, core.ErrNotFound)

	list, err := repo.ListTransactions(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []int64{second, first, third}, []int64{list[0].ID, list[1].ID, list[2].ID})

	got.Description = "bonus"
	got.Amount = core.MustMoney("1200")
	n, err := repo.UpdateTransaction(ctx, got)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	foreign := got
	foreign.UserID = other
	n, err = repo.UpdateTransaction(ctx, foreign)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = repo.DeleteTransaction(ctx, other, first)
	require.NoError(t, err)
	require.Zero(t, n)
	n, err = repo.DeleteTransaction(ctx, uid, first)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	page, err := repo.ListTransactionsAfter(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, second, page[0].ID)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	uid := seedUser(t, repo, "frank")

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(q ledger.Queries) error {
		if _, err := q.InsertCategory(ctx, uid, "Gifts", core.Expense); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.FindCategory(ctx, uid, "Gifts", core.Expense)
	require.ErrorIs(t, err, core.ErrNotFound)

	err = repo.WithTx(ctx, func(q ledger.Queries) error {
		_, err := q.InsertCategory(ctx, uid, "Gifts", core.Expense)
		return err
	})
	require.NoError(t, err)
	_, err = repo.FindCategory(ctx, uid, "Gifts", core.Expense)
	require.NoError(t, err)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	uid := seedUser(t, repo, "gina")
	now := time.Now().UTC()

	require.NoError(t, repo.CreateSession(ctx, core.Session{Token: "live", UserID: uid, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.CreateSession(ctx, core.Session{Token: "dead", UserID: uid, ExpiresAt: now.Add(-time.Hour)}))

	s, err := repo.GetSession(ctx, "live")
	require.NoError(t, err)
	require.Equal(t, uid, s.UserID)
	require.WithinDuration(t, now.Add(time.Hour), s.ExpiresAt, time.Millisecond)

	n, err := repo.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	require.NoError(t, repo.DeleteSession(ctx, "live"))
	_, err = repo.GetSession(ctx, "live")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	repo, err := NewPostgresRepository(ctx, dsn)
	require.NoError(t, err)
	defer repo.Close()

	name := "pg" + time.Now().Format("150405.000000")
	uid, err := repo.CreateUser(ctx, core.User{Username: name, Email: name + "@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	catID, err := repo.InsertCategory(ctx, uid, "Food", core.Expense)
	require.NoError(t, err)
	id, err := repo.InsertTransaction(ctx, core.Transaction{
		UserID: uid, Type: core.Expense, Amount: core.MustMoney("12.34"),
		Date: core.NewDate(2025, 1, 2), CategoryID: catID,
	})
	require.NoError(t, err)

	got, err := repo.GetTransaction(ctx, uid, id)
	require.NoError(t, err)
	require.Equal(t, "12.34", got.Amount.String())
	require.Equal(t, "2025-01-02", got.Date.String())
}
