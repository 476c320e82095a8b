package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

const initialBalanceDescription = "Initial balance"

// EventPublisher announces committed ledger mutations.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev amqp.LedgerEvent) error
}

// TransactionService owns the ledger mutations of one store. Every write
// that touches more than one row runs in a single store transaction.
type TransactionService struct {
	store     ledger.Store
	publisher EventPublisher
	logger    *log.Logger
	events    *log.StructuredLogger
	now       func() time.Time
}

// NewTransactionService creates the service. publisher may be nil.
func NewTransactionService(store ledger.Store, publisher EventPublisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	logger = logger.WithComponent(log.ComponentLedger)
	return &TransactionService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
		now:       time.Now,
	}
}

// Create validates in, resolves its category and inserts the transaction.
func (s *TransactionService) Create(ctx context.Context, userID int64, in core.TransactionInput) (core.Transaction, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var created core.Transaction
	err := s.store.WithTx(ctx, func(q ledger.Queries) error {
		catID, err := ResolveCategory(ctx, q, userID, in.Category, in.Type)
		if err != nil {
			return err
		}
		id, err := q.InsertTransaction(ctx, core.Transaction{
			UserID:      userID,
			Type:        in.Type,
			Amount:      in.Amount,
			Date:        in.Date,
			Description: in.Description,
			CategoryID:  catID,
			CreatedAt:   s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		created, err = q.GetTransaction(ctx, userID, id)
		return err
	})
	if err != nil {
		return core.Transaction{}, persistenceError("create transaction", err)
	}

	s.committed(ctx, amqp.OpCreated, created)
	return created, nil
}

// List returns the user's ledger newest first.
func (s *TransactionService) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, persistenceError("list transactions", err)
	}
	return txs, nil
}

// Get returns one transaction. Rows owned by other users are not found.
func (s *TransactionService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, persistenceError("get transaction", err)
	}
	return t, nil
}

// Update re-resolves the category and overwrites the row. An unmatched
// (id, user) pair yields core.ErrNotFound and rolls back any category
// created on the way.
func (s *TransactionService) Update(ctx context.Context, userID, id int64, in core.TransactionInput) (core.Transaction, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var updated core.Transaction
	err := s.store.WithTx(ctx, func(q ledger.Queries) error {
		catID, err := ResolveCategory(ctx, q, userID, in.Category, in.Type)
		if err != nil {
			return err
		}
		n, err := q.UpdateTransaction(ctx, core.Transaction{
			ID:          id,
			UserID:      userID,
			Type:        in.Type,
			Amount:      in.Amount,
			Date:        in.Date,
			Description: in.Description,
			CategoryID:  catID,
		})
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if n == 0 {
			return core.ErrNotFound
		}
		updated, err = q.GetTransaction(ctx, userID, id)
		return err
	})
	if err != nil {
		return core.Transaction{}, persistenceError("update transaction", err)
	}

	s.committed(ctx, amqp.OpUpdated, updated)
	return updated, nil
}

// Delete removes the row scoped by (id, user).
func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	n, err := s.store.DeleteTransaction(ctx, userID, id)
	if err != nil {
		return persistenceError("delete transaction", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	s.committed(ctx, amqp.OpDeleted, core.Transaction{ID: id, UserID: userID})
	return nil
}

// SetInitialBalance flips the user's initial_balance_set flag and records
// amount as an income transaction under the Initial Balance category. The
// flag moves from false to true once; later calls return core.ErrConflict.
// A zero amount only flips the flag.
func (s *TransactionService) SetInitialBalance(ctx context.Context, userID int64, amount core.Money) error {
	if amount.IsNegative() {
		return core.NewValidationError("initialBalance", "Valid initial balance is required")
	}

	var created core.Transaction
	err := s.store.WithTx(ctx, func(q ledger.Queries) error {
		changed, err := q.MarkInitialBalanceSet(ctx, userID)
		if err != nil {
			return fmt.Errorf("mark initial balance: %w", err)
		}
		if !changed {
			if _, err := q.GetUser(ctx, userID); err != nil {
				return err
			}
			return core.ErrConflict
		}
		if !amount.IsPositive() {
			return nil
		}

		catID, err := ResolveCategory(ctx, q, userID, core.InitialBalanceCategory, core.Income)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		id, err := q.InsertTransaction(ctx, core.Transaction{
			UserID:      userID,
			Type:        core.Income,
			Amount:      amount,
			Date:        core.DateOf(now),
			Description: initialBalanceDescription,
			CategoryID:  catID,
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("insert initial balance: %w", err)
		}
		created, err = q.GetTransaction(ctx, userID, id)
		return err
	})
	if err != nil {
		return persistenceError("set initial balance", err)
	}

	if created.ID != 0 {
		s.committed(ctx, amqp.OpCreated, created)
	}
	return nil
}

// ListCategories returns the user's categories, optionally of one type.
func (s *TransactionService) ListCategories(ctx context.Context, userID int64, typ core.TransactionType) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx, userID, typ)
	if err != nil {
		return nil, persistenceError("list categories", err)
	}
	return cats, nil
}

func (s *TransactionService) committed(ctx context.Context, op amqp.EventOp, t core.Transaction) {
	amount := ""
	if t.Amount.IsPositive() {
		amount = t.Amount.StringFixed(2)
	}
	s.events.LogLedgerMutation(ctx, string(op), t.UserID, t.ID, t.Type.String(), amount, t.CategoryName)

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Event publisher not configured, skipping ledger event")
		return
	}
	// The ledger is authoritative; a lost event is repaired by the mirror backfill.
	if err := s.publisher.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(op, t.ID, t.UserID)); err != nil {
		s.events.LogError(ctx, "Failed to publish ledger event", err, log.ComponentAMQP, string(op),
			log.NewFields().WithUser(t.UserID).WithTransaction(t.ID, t.Type.String(), amount, t.CategoryName))
	}
}

// Close releases the store.
func (s *TransactionService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
