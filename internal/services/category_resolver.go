package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// ResolveCategory returns the id of the user's (name, typ) category,
// creating it on first use. A concurrent insert of the same category
// surfaces as core.ErrConflict from the store and is answered by a second
// lookup, so callers always get the one existing row.
func ResolveCategory(ctx context.Context, q ledger.CategoryQueries, userID int64, name string, typ core.TransactionType) (int64, error) {
	cat, err := q.FindCategory(ctx, userID, name, typ)
	if err == nil {
		return cat.ID, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return 0, fmt.Errorf("find category: %w", err)
	}

	id, err := q.InsertCategory(ctx, userID, name, typ)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, core.ErrConflict) {
		return 0, fmt.Errorf("insert category: %w", err)
	}

	cat, err = q.FindCategory(ctx, userID, name, typ)
	if err != nil {
		return 0, fmt.Errorf("find category after conflict: %w", err)
	}
	return cat.ID, nil
}

// persistenceError wraps store failures into core.PersistenceError. Domain
// errors pass through unchanged.
func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *core.PersistenceError
	switch {
	case errors.Is(err, core.ErrNotFound),
		errors.Is(err, core.ErrConflict),
		errors.Is(err, core.ErrUnauthenticated),
		core.IsValidation(err),
		errors.As(err, &pe):
		return err
	}
	return core.NewPersistenceError(op, err)
}
