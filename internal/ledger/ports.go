// Package ledger defines the storage ports shared by every backend.
package ledger

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Ports for persistence adapters. Lookups that match nothing return
// core.ErrNotFound; uniqueness violations return core.ErrConflict.
type (
	UserQueries interface {
		CreateUser(ctx context.Context, u core.User) (int64, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		UpdateProfile(ctx context.Context, id int64, username, email string) error
		UpdatePassword(ctx context.Context, id int64, passwordHash string) error
		// MarkInitialBalanceSet flips the flag only when it is still false and
		// reports whether a row changed.
		MarkInitialBalanceSet(ctx context.Context, userID int64) (bool, error)
	}

	CategoryQueries interface {
		FindCategory(ctx context.Context, userID int64, name string, typ core.TransactionType) (core.Category, error)
		// InsertCategory returns core.ErrConflict if (user, name, type) exists.
		InsertCategory(ctx context.Context, userID int64, name string, typ core.TransactionType) (int64, error)
		// ListCategories returns every category of the user; an empty typ
		// means both types.
		ListCategories(ctx context.Context, userID int64, typ core.TransactionType) ([]core.Category, error)
	}

	TransactionQueries interface {
		InsertTransaction(ctx context.Context, t core.Transaction) (int64, error)
		// UpdateTransaction overwrites the row matching (t.ID, t.UserID) and
		// reports how many rows changed.
		UpdateTransaction(ctx context.Context, t core.Transaction) (int64, error)
		DeleteTransaction(ctx context.Context, userID, id int64) (int64, error)
		GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
		// ListTransactions returns the user's ledger newest first.
		ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
		// ListTransactionsAfter pages through every user's ledger by id.
		ListTransactionsAfter(ctx context.Context, afterID int64, limit int) ([]core.Transaction, error)
	}

	SessionQueries interface {
		CreateSession(ctx context.Context, s core.Session) error
		GetSession(ctx context.Context, token string) (core.Session, error)
		DeleteSession(ctx context.Context, token string) error
		DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	}

	Queries interface {
		UserQueries
		CategoryQueries
		TransactionQueries
		SessionQueries
	}

	// Store is a Queries bound to a connection that can open atomic units.
	Store interface {
		Queries
		// WithTx runs fn in one atomic unit. Any error returned by fn rolls
		// back every write made through q.
		WithTx(ctx context.Context, fn func(q Queries) error) error
		Ping(ctx context.Context) error
		Close() error
	}
)
